package uid

import (
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hatlonely/sorm/field"
	"github.com/hatlonely/sorm/ref"
	"github.com/hatlonely/sorm/uid/intgen"
	"github.com/hatlonely/sorm/uid/strgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeneratorWithOptions(t *testing.T) {
	t.Run("uuid by short name", func(t *testing.T) {
		g, err := NewGeneratorWithOptions(&ref.TypeOptions{Type: "uuid"})
		require.NoError(t, err)
		v, err := g.Generate(nil)
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), v)
	})

	t.Run("uuid by package path", func(t *testing.T) {
		g, err := NewGeneratorWithOptions(&ref.TypeOptions{
			Namespace: "github.com/hatlonely/sorm/uid/strgen",
			Type:      "UUIDGenerator",
			Options:   &strgen.UUIDOptions{Version: "v7", WithHyphens: true},
		})
		require.NoError(t, err)
		v, err := g.Generate(nil)
		require.NoError(t, err)
		assert.Len(t, v, 36)
	})

	t.Run("snowflake", func(t *testing.T) {
		machineID := int64(7)
		g, err := NewGeneratorWithOptions(&ref.TypeOptions{
			Type:    "snowflake",
			Options: &intgen.SnowflakeOptions{MachineID: &machineID},
		})
		require.NoError(t, err)
		a, err := g.Generate(nil)
		require.NoError(t, err)
		b, err := g.Generate(nil)
		require.NoError(t, err)
		assert.Greater(t, b.(int64), a.(int64))
	})

	t.Run("now", func(t *testing.T) {
		g, err := NewGeneratorWithOptions(&ref.TypeOptions{Type: "now"})
		require.NoError(t, err)
		v, err := g.Generate(nil)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), v.(time.Time), time.Minute)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		g, err := NewGeneratorWithOptions(&ref.TypeOptions{
			Type:    "redis",
			Options: &intgen.RedisOptions{Addr: mr.Addr(), Key: "user:id"},
		})
		require.NoError(t, err)
		for i := int64(1); i <= 3; i++ {
			v, err := g.Generate(nil)
			require.NoError(t, err)
			assert.Equal(t, i, v)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewGeneratorWithOptions(&ref.TypeOptions{Type: "missing"})
		assert.Error(t, err)
	})

	t.Run("nil options", func(t *testing.T) {
		_, err := NewGeneratorWithOptions(nil)
		assert.Error(t, err)
	})
}

func TestTypedGenerators(t *testing.T) {
	ig, err := NewIntGeneratorWithOptions(&ref.TypeOptions{Type: "snowflake"})
	require.NoError(t, err)
	_, err = ig.Generate()
	assert.NoError(t, err)

	sg, err := NewStrGeneratorWithOptions(&ref.TypeOptions{Type: "uuid"})
	require.NoError(t, err)
	_, err = sg.Generate()
	assert.NoError(t, err)

	_, err = NewIntGeneratorWithOptions(&ref.TypeOptions{Type: "uuid"})
	assert.Error(t, err)
}

func TestGeneratorAsFieldDefault(t *testing.T) {
	g, err := NewGeneratorWithOptions(&ref.TypeOptions{Type: "uuid"})
	require.NoError(t, err)

	f := field.Text(field.PrimaryKey(), field.DefaultGenerator("uuid", g))
	require.NoError(t, f.Validate())
	assert.Empty(t, f.Constraints("id")[1:])

	v, ok, err := f.Default().Resolve(nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.IsType(t, "", v)
}
