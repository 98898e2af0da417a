package uid

import (
	"github.com/hatlonely/sorm/field"
	"github.com/hatlonely/sorm/ref"
	"github.com/hatlonely/sorm/uid/intgen"
	"github.com/hatlonely/sorm/uid/strgen"
	"github.com/pkg/errors"
)

// Namespace 短名称的命名空间，配置中 namespace 为空时使用
const Namespace = "uid"

func init() {
	ref.MustRegister(Namespace, "uuid", strgen.NewUUIDGeneratorWithOptions)
	ref.MustRegister(Namespace, "snowflake", intgen.NewSnowflakeGeneratorWithOptions)
	ref.MustRegister(Namespace, "redis", intgen.NewRedisGeneratorWithOptions)
	ref.MustRegister(Namespace, "now", field.CurrentTime)
}

// NewIntGeneratorWithOptions 创建整数生成器
func NewIntGeneratorWithOptions(options *ref.TypeOptions) (intgen.IntGenerator, error) {
	obj, err := newWithOptions(options)
	if err != nil {
		return nil, err
	}
	return ref.As[intgen.IntGenerator](obj)
}

// NewStrGeneratorWithOptions 创建字符串生成器
func NewStrGeneratorWithOptions(options *ref.TypeOptions) (strgen.StrGenerator, error) {
	obj, err := newWithOptions(options)
	if err != nil {
		return nil, err
	}
	return ref.As[strgen.StrGenerator](obj)
}

// NewGeneratorWithOptions 创建字段默认值生成器，整数和字符串生成器都会被适配
func NewGeneratorWithOptions(options *ref.TypeOptions) (field.Generator, error) {
	obj, err := newWithOptions(options)
	if err != nil {
		return nil, err
	}

	switch g := obj.(type) {
	case field.Generator:
		return g, nil
	case intgen.IntGenerator:
		return field.GeneratorFunc(func(field.Values) (any, error) {
			return g.Generate()
		}), nil
	case strgen.StrGenerator:
		return field.GeneratorFunc(func(field.Values) (any, error) {
			return g.Generate()
		}), nil
	}
	return nil, errors.Errorf("%T is not a generator", obj)
}

func newWithOptions(options *ref.TypeOptions) (any, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	typeOptions := *options
	if typeOptions.Namespace == "" {
		typeOptions.Namespace = Namespace
	}
	obj, err := ref.NewWithOptions(&typeOptions)
	if err != nil {
		return nil, errors.WithMessage(err, "ref.NewWithOptions failed")
	}
	if obj == nil {
		return nil, errors.New("generator is nil")
	}
	return obj, nil
}
