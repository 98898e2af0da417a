package field

import (
	"time"

	"github.com/pkg/errors"
)

// Values 生成器读取正在写入的记录
type Values interface {
	Get(name string) (any, bool)
}

// Generator 默认值生成器，插入时每个字段最多调用一次
type Generator interface {
	Generate(values Values) (any, error)
}

type GeneratorFunc func(values Values) (any, error)

func (f GeneratorFunc) Generate(values Values) (any, error) {
	return f(values)
}

type defaultKind int

const (
	defaultNone defaultKind = iota
	defaultLiteral
	defaultGenerated
)

// Default 默认值，字面量或者命名的生成器
type Default struct {
	kind      defaultKind
	value     any
	name      string
	generator Generator
}

// Literal 字面量默认值，nil 等同于没有默认值
func Literal(v any) Default {
	if v == nil {
		return Default{}
	}
	return Default{kind: defaultLiteral, value: v}
}

// Generated 命名生成器默认值，name 仅用于诊断和配置
func Generated(name string, g Generator) Default {
	return Default{kind: defaultGenerated, name: name, generator: g}
}

func (d Default) IsZero() bool { return d.kind == defaultNone }
func (d Default) IsLiteral() bool { return d.kind == defaultLiteral }
func (d Default) IsGenerated() bool { return d.kind == defaultGenerated }
func (d Default) Value() any { return d.value }
func (d Default) Name() string { return d.name }

// Resolve 计算默认值，没有默认值时 ok 为 false
func (d Default) Resolve(values Values) (any, bool, error) {
	switch d.kind {
	case defaultLiteral:
		return d.value, true, nil
	case defaultGenerated:
		if d.generator == nil {
			return nil, false, errors.Errorf("default generator %q is nil", d.name)
		}
		v, err := d.generator.Generate(values)
		if err != nil {
			return nil, false, errors.Wrapf(err, "generate default %q failed", d.name)
		}
		return v, true, nil
	}
	return nil, false, nil
}

// CurrentTime 生成当前 UTC 时间
func CurrentTime() Generator {
	return GeneratorFunc(func(Values) (any, error) {
		return time.Now().UTC(), nil
	})
}
