package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hatlonely/sorm/cfg/decoder"
	"github.com/hatlonely/sorm/ref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ServerOptions struct {
	Host    string            `cfg:"host" def:"localhost"`
	Port    int               `cfg:"port" def:"8080" validate:"min=1,max=65535"`
	Timeout time.Duration     `cfg:"timeout" def:"3s"`
	Tags    []string          `cfg:"tags"`
	Labels  map[string]string `cfg:"labels"`
	Backend *ref.TypeOptions  `cfg:"backend"`
}

type BackendOptions struct {
	Name    string `cfg:"name" validate:"required"`
	Retries int    `cfg:"retries" def:"2"`
}

type Backend struct {
	options *BackendOptions
}

func NewBackendWithOptions(options *BackendOptions) *Backend {
	return &Backend{options: options}
}

func writeFile(t *testing.T, name string, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewConfigByExtension(t *testing.T) {
	files := map[string]string{
		"app.yaml": `
server:
  host: example.com
  port: 9000
  timeout: 5s
  tags: [a, b]
  labels:
    env: test
`,
		"app.json": `{"server": {"host": "example.com", "port": 9000, "timeout": "5s", "tags": ["a", "b"], "labels": {"env": "test"}}}`,
		"app.toml": `
[server]
host = "example.com"
port = 9000
timeout = "5s"
tags = ["a", "b"]
[server.labels]
env = "test"
`,
		"app.ini": `
[server]
host = example.com
port = 9000
timeout = 5s
tags = a,b
[server.labels]
env = test
`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			c, err := NewConfig(writeFile(t, name, content))
			require.NoError(t, err)

			var options ServerOptions
			require.NoError(t, c.Sub("server").ConvertTo(&options))
			assert.Equal(t, "example.com", options.Host)
			assert.Equal(t, 9000, options.Port)
			assert.Equal(t, 5*time.Second, options.Timeout)
			assert.Equal(t, []string{"a", "b"}, options.Tags)
			assert.Equal(t, map[string]string{"env": "test"}, options.Labels)
		})
	}
}

func TestConfigDefaultsAndValidation(t *testing.T) {
	dec := decoder.NewYamlDecoder()

	t.Run("missing section uses defaults", func(t *testing.T) {
		c, err := NewConfigWithDecoder([]byte("other: 1"), dec)
		require.NoError(t, err)
		var options ServerOptions
		require.NoError(t, c.Sub("server").ConvertTo(&options))
		assert.Equal(t, "localhost", options.Host)
		assert.Equal(t, 8080, options.Port)
		assert.Equal(t, 3*time.Second, options.Timeout)
		assert.Nil(t, options.Backend)
	})

	t.Run("validation error", func(t *testing.T) {
		c, err := NewConfigWithDecoder([]byte("server: {port: 70000}"), dec)
		require.NoError(t, err)
		var options ServerOptions
		assert.ErrorContains(t, c.Sub("server").ConvertTo(&options), "validate config failed")
	})

	t.Run("type mismatch", func(t *testing.T) {
		c, err := NewConfigWithDecoder([]byte("server: {tags: 1}"), dec)
		require.NoError(t, err)
		var options ServerOptions
		assert.Error(t, c.Sub("server").ConvertTo(&options))
	})
}

func TestConfigLazyTypeOptions(t *testing.T) {
	require.NoError(t, ref.Register("cfgtest", "Backend", NewBackendWithOptions))

	c, err := NewConfigWithDecoder([]byte(`
server:
  backend:
    namespace: cfgtest
    type: Backend
    options:
      name: primary
`), decoder.NewYamlDecoder())
	require.NoError(t, err)

	var options ServerOptions
	require.NoError(t, c.Sub("server").ConvertTo(&options))
	require.NotNil(t, options.Backend)

	obj, err := ref.NewWithOptions(options.Backend)
	require.NoError(t, err)
	backend := obj.(*Backend)
	assert.Equal(t, "primary", backend.options.Name)
	assert.Equal(t, 2, backend.options.Retries)
}

func TestSubWithIndex(t *testing.T) {
	c, err := NewConfigWithDecoder([]byte(`
schemas:
  - name: user
    fields:
      - name: id
      - name: email
`), decoder.NewYamlDecoder())
	require.NoError(t, err)

	var name string
	require.NoError(t, c.Sub("schemas[0].fields[1].name").ConvertTo(&name))
	assert.Equal(t, "email", name)

	var missing string
	require.NoError(t, c.Sub("schemas[3].name").ConvertTo(&missing))
	assert.Empty(t, missing)
}

func TestNewConfigErrors(t *testing.T) {
	_, err := NewConfig("app.xml")
	assert.Error(t, err)

	_, err = NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = NewConfigWithDecoder([]byte("{"), decoder.NewJsonDecoder())
	assert.Error(t, err)
}
