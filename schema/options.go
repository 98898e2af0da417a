package schema

import (
	"math"
	"strings"

	"github.com/hatlonely/sorm/field"
	"github.com/hatlonely/sorm/ref"
	"github.com/hatlonely/sorm/uid"
	"github.com/pkg/errors"
)

// FieldOptions 配置文件中的字段声明
type FieldOptions struct {
	Name          string           `cfg:"name" validate:"required"`
	Kind          string           `cfg:"kind" validate:"required,oneof=text integer real enum datetime foreign_key"`
	Required      bool             `cfg:"required"`
	Unique        bool             `cfg:"unique"`
	PrimaryKey    bool             `cfg:"primaryKey"`
	AutoIncrement bool             `cfg:"autoIncrement"`
	Min           *float64         `cfg:"min"`
	Max           *float64         `cfg:"max"`
	Choices       []string         `cfg:"choices"`
	Default       any              `cfg:"default"`
	Generator     *ref.TypeOptions `cfg:"generator"`
	// References 外键目标，格式为 table.field
	References string `cfg:"references"`
	DataType   string `cfg:"dataType" validate:"omitempty,oneof=text integer real datetime"`
}

// Options 配置文件中的记录类型声明
type Options struct {
	Name           string          `cfg:"name" validate:"required"`
	Table          string          `cfg:"table"`
	PrimaryKey     string          `cfg:"primaryKey"`
	AutoTimestamps bool            `cfg:"autoTimestamps"`
	Fields         []*FieldOptions `cfg:"fields" validate:"required,dive"`
}

type RegistryOptions struct {
	Schemas []*Options `cfg:"schemas" validate:"dive"`
}

func NewSchemaWithOptions(options *Options) (*Schema, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}

	var opts []Option
	if options.Table != "" {
		opts = append(opts, Table(options.Table))
	}
	if options.PrimaryKey != "" {
		opts = append(opts, PrimaryKey(options.PrimaryKey))
	}
	if options.AutoTimestamps {
		opts = append(opts, AutoTimestamps())
	}

	b := New(options.Name, opts...)
	for _, fo := range options.Fields {
		if fo == nil {
			continue
		}
		f, err := NewFieldWithOptions(fo)
		if err != nil {
			return nil, errors.WithMessagef(err, "schema %s: field %s", options.Name, fo.Name)
		}
		b.Field(fo.Name, f)
	}
	return b.Build()
}

func NewRegistryWithOptions(options *RegistryOptions) (*Registry, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}

	registry := NewRegistry()
	for _, so := range options.Schemas {
		s, err := NewSchemaWithOptions(so)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// NewFieldWithOptions 把配置转换为字段描述
func NewFieldWithOptions(options *FieldOptions) (*field.Field, error) {
	if options.Default != nil && options.Generator != nil {
		return nil, errors.New("default and generator are mutually exclusive")
	}

	kind := field.Kind(options.Kind)

	var opts []field.Option
	if options.Required {
		opts = append(opts, field.Required())
	}
	if options.Unique {
		opts = append(opts, field.Unique())
	}
	if options.PrimaryKey {
		opts = append(opts, field.PrimaryKey())
	}
	if options.AutoIncrement {
		opts = append(opts, field.AutoIncrement())
	}
	if options.Min != nil {
		opts = append(opts, field.Min(*options.Min))
	}
	if options.Max != nil {
		opts = append(opts, field.Max(*options.Max))
	}
	if options.Default != nil {
		opts = append(opts, field.DefaultValue(normalizeLiteral(kind, options.Default)))
	}
	if options.Generator != nil {
		g, err := uid.NewGeneratorWithOptions(options.Generator)
		if err != nil {
			return nil, errors.WithMessage(err, "uid.NewGeneratorWithOptions failed")
		}
		opts = append(opts, field.DefaultGenerator(options.Generator.Type, g))
	}
	if options.DataType != "" {
		opts = append(opts, field.StoredAs(field.DataType(options.DataType)))
	}

	if len(options.Choices) > 0 && kind != field.KindEnum {
		return nil, errors.Errorf("choices are only allowed on enum fields, got %s", kind)
	}
	if options.References != "" && kind != field.KindForeignKey {
		return nil, errors.Errorf("references are only allowed on foreign key fields, got %s", kind)
	}

	switch kind {
	case field.KindText:
		return field.Text(opts...), nil
	case field.KindInteger:
		return field.Integer(opts...), nil
	case field.KindReal:
		return field.Real(opts...), nil
	case field.KindDateTime:
		return field.DateTime(opts...), nil
	case field.KindEnum:
		return field.Enum(options.Choices, opts...), nil
	case field.KindForeignKey:
		table, column, ok := strings.Cut(options.References, ".")
		if !ok {
			return nil, errors.Errorf("references must be table.field, got %q", options.References)
		}
		return field.ForeignKey(table, column, opts...), nil
	}
	return nil, errors.Errorf("unknown field kind %q", options.Kind)
}

// normalizeLiteral json 解码出的整数是 float64
func normalizeLiteral(kind field.Kind, v any) any {
	if kind != field.KindInteger {
		return v
	}
	if f, ok := v.(float64); ok && f == math.Trunc(f) {
		return int64(f)
	}
	return v
}
