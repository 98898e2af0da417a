package decoder

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hatlonely/sorm/cfg/storage"
	"github.com/hatlonely/sorm/ref"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

func init() {
	ref.MustRegisterT[JsonDecoder](NewJsonDecoder)
	ref.MustRegisterT[YamlDecoder](NewYamlDecoder)
	ref.MustRegisterT[TomlDecoder](NewTomlDecoder)
	ref.MustRegisterT[IniDecoder](NewIniDecoder)
}

// Decoder 把原始配置数据解码为 Storage
type Decoder interface {
	Decode(data []byte) (storage.Storage, error)
}

// NewDecoderWithExt 按文件扩展名选择解码器
func NewDecoderWithExt(ext string) (Decoder, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json":
		return NewJsonDecoder(), nil
	case "yaml", "yml":
		return NewYamlDecoder(), nil
	case "toml":
		return NewTomlDecoder(), nil
	case "ini":
		return NewIniDecoder(), nil
	}
	return nil, errors.Errorf("unsupported config format %q", ext)
}

func NewDecoderWithOptions(options *ref.TypeOptions) (Decoder, error) {
	obj, err := ref.NewWithOptions(options)
	if err != nil {
		return nil, errors.WithMessage(err, "ref.NewWithOptions failed")
	}
	return ref.As[Decoder](obj)
}

type JsonDecoder struct{}

func NewJsonDecoder() *JsonDecoder { return &JsonDecoder{} }

func (d *JsonDecoder) Decode(data []byte) (storage.Storage, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "json.Unmarshal failed")
	}
	return storage.NewMapStorage(v), nil
}

type YamlDecoder struct{}

func NewYamlDecoder() *YamlDecoder { return &YamlDecoder{} }

func (d *YamlDecoder) Decode(data []byte) (storage.Storage, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "yaml.Unmarshal failed")
	}
	return storage.NewMapStorage(v), nil
}

type TomlDecoder struct{}

func NewTomlDecoder() *TomlDecoder { return &TomlDecoder{} }

func (d *TomlDecoder) Decode(data []byte) (storage.Storage, error) {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "toml.Unmarshal failed")
	}
	return storage.NewMapStorage(v), nil
}

// IniDecoder 段名中的点号展开为嵌套层级，逗号分隔的值解码为列表
type IniDecoder struct{}

func NewIniDecoder() *IniDecoder { return &IniDecoder{} }

func (d *IniDecoder) Decode(data []byte) (storage.Storage, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:         true,
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, errors.Wrap(err, "ini.LoadSources failed")
	}

	root := map[string]any{}
	for _, section := range file.Sections() {
		target := root
		if section.Name() != ini.DefaultSection {
			for _, part := range strings.Split(section.Name(), ".") {
				next, ok := target[part].(map[string]any)
				if !ok {
					next = map[string]any{}
					target[part] = next
				}
				target = next
			}
		}
		for _, key := range section.Keys() {
			target[key.Name()] = parseIniValue(key.String())
		}
	}
	return storage.NewMapStorage(root), nil
}

func parseIniValue(value string) any {
	if strings.Contains(value, ",") {
		parts := strings.Split(value, ",")
		values := make([]any, 0, len(parts))
		for _, part := range parts {
			values = append(values, parseIniValue(strings.TrimSpace(part)))
		}
		return values
	}
	if b, err := strconv.ParseBool(value); err == nil && (value == "true" || value == "false") {
		return b
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
