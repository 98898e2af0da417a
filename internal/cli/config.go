package cli

import (
	"github.com/caarlos0/env/v11"
	"github.com/hatlonely/sorm/cfg"
	"github.com/hatlonely/sorm/rdb"
	"github.com/hatlonely/sorm/schema"
	"github.com/pkg/errors"
)

// EnvPrefix 环境变量覆盖数据库选项时使用的前缀，例如 SORM_DATABASE
const EnvPrefix = "SORM_"

// AppOptions 配置文件的顶层结构
type AppOptions struct {
	Database rdb.Options       `cfg:"database"`
	Schemas  []*schema.Options `cfg:"schemas" validate:"required,dive"`
}

// App 从配置文件加载出的数据库选项和 Schema
type App struct {
	Options  *AppOptions
	Registry *schema.Registry
}

func LoadApp(filename string) (*App, error) {
	c, err := cfg.NewConfig(filename)
	if err != nil {
		return nil, errors.WithMessagef(err, "load config %s failed", filename)
	}

	options := &AppOptions{}
	if err := c.ConvertTo(options); err != nil {
		return nil, err
	}
	if err := env.ParseWithOptions(&options.Database, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Wrap(err, "parse env failed")
	}

	registry, err := schema.NewRegistryWithOptions(&schema.RegistryOptions{Schemas: options.Schemas})
	if err != nil {
		return nil, errors.WithMessage(err, "schema.NewRegistryWithOptions failed")
	}

	return &App{Options: options, Registry: registry}, nil
}
