package cfg

import (
	"os"
	"path/filepath"

	"github.com/hatlonely/sorm/cfg/decoder"
	"github.com/hatlonely/sorm/cfg/storage"
	"github.com/hatlonely/sorm/cfg/validator"
	"github.com/pkg/errors"
)

// Config 只读的配置树
type Config struct {
	storage storage.Storage
}

// NewConfig 读取配置文件，根据扩展名选择解码器
func NewConfig(filename string) (*Config, error) {
	dec, err := decoder.NewDecoderWithExt(filepath.Ext(filename))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s failed", filename)
	}
	return NewConfigWithDecoder(data, dec)
}

func NewConfigWithDecoder(data []byte, dec decoder.Decoder) (*Config, error) {
	s, err := dec.Decode(data)
	if err != nil {
		return nil, errors.WithMessage(err, "decode config failed")
	}
	if ms, ok := s.(*storage.MapStorage); ok {
		s = ms.WithPostConvert(complete)
	}
	return &Config{storage: s}, nil
}

// complete 补齐 def 默认值并执行 validate 校验
func complete(object any) error {
	if err := SetDefaults(object); err != nil {
		return errors.WithMessage(err, "set defaults failed")
	}
	if err := validator.ValidateStruct(object); err != nil {
		return errors.Wrap(err, "validate config failed")
	}
	return nil
}

func (c *Config) Sub(key string) *Config {
	return &Config{storage: c.storage.Sub(key)}
}

// ConvertTo 转换后补齐 def 默认值并执行 validate 校验，ref 延迟构造的子配置同样生效
func (c *Config) ConvertTo(object any) error {
	return errors.WithMessage(c.storage.ConvertTo(object), "convert config failed")
}
