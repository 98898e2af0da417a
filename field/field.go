package field

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Kind 字段种类，封闭集合
type Kind string

const (
	KindText       Kind = "text"
	KindInteger    Kind = "integer"
	KindReal       Kind = "real"
	KindEnum       Kind = "enum"
	KindDateTime   Kind = "datetime"
	KindForeignKey Kind = "foreign_key"
)

// DataType 列的存储类型
type DataType string

const (
	DataTypeText     DataType = "text"
	DataTypeInteger  DataType = "integer"
	DataTypeReal     DataType = "real"
	DataTypeDateTime DataType = "datetime"
)

// Reference 外键引用的目标表和字段
type Reference struct {
	Table string
	Field string
}

// Field 字段描述，构造完成后不可变
type Field struct {
	kind          Kind
	dataType      DataType
	required      bool
	unique        bool
	primaryKey    bool
	autoIncrement bool
	def           Default
	min           *float64
	max           *float64
	choices       []string
	ref           *Reference
}

// Option 字段选项
type Option func(*Field)

func newField(kind Kind, dataType DataType, opts ...Option) *Field {
	f := &Field{kind: kind, dataType: dataType}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Text 文本字段，Min/Max 约束字符长度
func Text(opts ...Option) *Field {
	return newField(KindText, DataTypeText, opts...)
}

// Integer 整数字段，Min/Max 约束取值范围
func Integer(opts ...Option) *Field {
	return newField(KindInteger, DataTypeInteger, opts...)
}

// Real 浮点字段，Min/Max 约束取值范围
func Real(opts ...Option) *Field {
	return newField(KindReal, DataTypeReal, opts...)
}

// DateTime 时间字段
func DateTime(opts ...Option) *Field {
	return newField(KindDateTime, DataTypeDateTime, opts...)
}

// Enum 枚举字段，取值必须属于 choices
func Enum(choices []string, opts ...Option) *Field {
	f := newField(KindEnum, DataTypeText, opts...)
	f.choices = append([]string(nil), choices...)
	return f
}

// ForeignKey 外键字段，默认以 integer 存储，可通过 StoredAs 修改
func ForeignKey(table string, field string, opts ...Option) *Field {
	f := newField(KindForeignKey, DataTypeInteger, opts...)
	f.ref = &Reference{Table: table, Field: field}
	return f
}

func Required() Option {
	return func(f *Field) { f.required = true }
}

func Unique() Option {
	return func(f *Field) { f.unique = true }
}

func PrimaryKey() Option {
	return func(f *Field) { f.primaryKey = true }
}

// AutoIncrement 仅对整数主键有效
func AutoIncrement() Option {
	return func(f *Field) { f.autoIncrement = true }
}

func Min(v float64) Option {
	return func(f *Field) { f.min = &v }
}

func Max(v float64) Option {
	return func(f *Field) { f.max = &v }
}

// Length 同时设置文本长度的上下界
func Length(min, max int) Option {
	return func(f *Field) {
		lo, hi := float64(min), float64(max)
		f.min, f.max = &lo, &hi
	}
}

// DefaultValue 字面量默认值，同时写入 DDL 的 DEFAULT 子句
func DefaultValue(v any) Option {
	return func(f *Field) { f.def = Literal(v) }
}

// DefaultGenerator 插入时调用生成器得到默认值
func DefaultGenerator(name string, g Generator) Option {
	return func(f *Field) { f.def = Generated(name, g) }
}

// WithDefault 直接设置已构造好的默认值
func WithDefault(d Default) Option {
	return func(f *Field) { f.def = d }
}

// StoredAs 修改外键列的存储类型
func StoredAs(t DataType) Option {
	return func(f *Field) { f.dataType = t }
}

func (f *Field) Kind() Kind { return f.kind }
func (f *Field) DataType() DataType { return f.dataType }
func (f *Field) IsRequired() bool { return f.required }
func (f *Field) IsUnique() bool { return f.unique }
func (f *Field) IsPrimaryKey() bool { return f.primaryKey }
func (f *Field) IsAutoIncrement() bool { return f.autoIncrement }
func (f *Field) Default() Default { return f.def }
func (f *Field) Choices() []string { return append([]string(nil), f.choices...) }
func (f *Field) IsGeneratedKey() bool { return f.primaryKey && f.autoIncrement }
func (f *Field) HasDefault() bool { return !f.def.IsZero() }

func (f *Field) Min() (float64, bool) {
	if f.min == nil {
		return 0, false
	}
	return *f.min, true
}

func (f *Field) Max() (float64, bool) {
	if f.max == nil {
		return 0, false
	}
	return *f.max, true
}

func (f *Field) Reference() (Reference, bool) {
	if f.ref == nil {
		return Reference{}, false
	}
	return *f.ref, true
}

// Validate 校验字段描述自身的约束是否自洽
func (f *Field) Validate() error {
	switch f.kind {
	case KindText, KindInteger, KindReal, KindEnum, KindDateTime, KindForeignKey:
	default:
		return errors.Errorf("unknown field kind %q", f.kind)
	}

	switch f.dataType {
	case DataTypeText, DataTypeInteger, DataTypeReal, DataTypeDateTime:
	default:
		return errors.Errorf("unknown data type %q", f.dataType)
	}

	if f.autoIncrement {
		if f.kind != KindInteger {
			return errors.Errorf("autoincrement requires an integer field, got %s", f.kind)
		}
		if !f.primaryKey {
			return errors.New("autoincrement requires primary key")
		}
	}

	if f.min != nil || f.max != nil {
		if err := f.validateBounds(); err != nil {
			return err
		}
	}

	if f.kind == KindForeignKey {
		if f.ref == nil || f.ref.Table == "" || f.ref.Field == "" {
			return errors.New("foreign key requires a target table and field")
		}
	}

	if f.def.IsLiteral() {
		if err := f.validateLiteral(f.def.Value()); err != nil {
			return errors.WithMessage(err, "invalid default")
		}
	}
	if f.def.IsGenerated() && f.def.generator == nil {
		return errors.Errorf("default generator %q is nil", f.def.Name())
	}

	return nil
}

func (f *Field) validateBounds() error {
	switch f.kind {
	case KindText:
		for _, b := range []*float64{f.min, f.max} {
			if b != nil && (*b < 0 || *b != math.Trunc(*b)) {
				return errors.Errorf("text length bound must be a non-negative integer, got %v", *b)
			}
		}
	case KindInteger:
		for _, b := range []*float64{f.min, f.max} {
			if b != nil && *b != math.Trunc(*b) {
				return errors.Errorf("integer bound must be a whole number, got %v", *b)
			}
		}
	case KindReal:
	default:
		return errors.Errorf("min/max is not supported on %s fields", f.kind)
	}

	if f.min != nil && f.max != nil && *f.min > *f.max {
		return errors.Errorf("min %v is greater than max %v", *f.min, *f.max)
	}
	return nil
}

func (f *Field) validateLiteral(v any) error {
	switch f.kind {
	case KindText:
		if _, ok := v.(string); !ok {
			return errors.Errorf("text default must be a string, got %T", v)
		}
	case KindEnum:
		s, ok := v.(string)
		if !ok {
			return errors.Errorf("enum default must be a string, got %T", v)
		}
		if len(f.choices) > 0 && !contains(f.choices, s) {
			return errors.Errorf("enum default %q is not one of %v", s, f.choices)
		}
	case KindInteger:
		if !isInteger(v) {
			return errors.Errorf("integer default must be an integer, got %T", v)
		}
	case KindReal:
		if !isInteger(v) && !isFloat(v) {
			return errors.Errorf("real default must be numeric, got %T", v)
		}
	case KindDateTime:
		switch v.(type) {
		case time.Time, string:
		default:
			return errors.Errorf("datetime default must be a time or string, got %T", v)
		}
	}
	return nil
}

func (f *Field) String() string {
	return fmt.Sprintf("%s(%s)", f.kind, f.dataType)
}

func contains(choices []string, s string) bool {
	for _, c := range choices {
		if c == s {
			return true
		}
	}
	return false
}

func isInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}
