package record

import (
	"github.com/hatlonely/sorm/schema"
	"github.com/pkg/errors"
)

// State 记录的生命周期状态
type State int

const (
	Transient State = iota
	Persisted
	Deleted
)

func (s State) String() string {
	switch s {
	case Transient:
		return "transient"
	case Persisted:
		return "persisted"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}

// Type 记录类型，绑定 Schema 和生命周期钩子
type Type struct {
	schema *schema.Schema
	hook   Hook
}

// NewType hook 为 nil 时使用 NopHook
func NewType(s *schema.Schema, hook Hook) *Type {
	if hook == nil {
		hook = NopHook{}
	}
	return &Type{schema: s, hook: hook}
}

func (t *Type) Schema() *schema.Schema { return t.schema }
func (t *Type) Hook() Hook { return t.hook }

// New 创建尚未持久化的记录
func (t *Type) New(values map[string]any) (*Record, error) {
	return t.newRecord(values, Transient)
}

// Load 创建已知存在于表中的记录，通常用于调用方自行查询出的行
func (t *Type) Load(values map[string]any) (*Record, error) {
	return t.newRecord(values, Persisted)
}

func (t *Type) MustNew(values map[string]any) *Record {
	r, err := t.New(values)
	if err != nil {
		panic(err)
	}
	return r
}

func (t *Type) newRecord(values map[string]any, state State) (*Record, error) {
	r := &Record{typ: t, values: make(map[string]any, len(values)), state: state}
	for name, v := range values {
		if err := r.Set(name, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Record 字段名到值的映射加上生命周期状态，非并发安全
type Record struct {
	typ    *Type
	values map[string]any
	state  State
}

func (r *Record) Type() *Type { return r.typ }
func (r *Record) Schema() *schema.Schema { return r.typ.schema }
func (r *Record) State() State { return r.state }

// SetState 由执行器在写入成功或失败回滚时调用
func (r *Record) SetState(s State) {
	r.state = s
}

// Get 返回字段当前值，未赋值时 ok 为 false
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has 字段是否被赋值，显式赋值为 nil 也算
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// IsSet 字段是否有非 nil 的值
func (r *Record) IsSet(name string) bool {
	v, ok := r.values[name]
	return ok && v != nil
}

// Set 只接受 Schema 中声明的字段，开启自动时间戳时也接受时间戳列
func (r *Record) Set(name string, v any) error {
	if !r.knows(name) {
		return errors.Errorf("%s has no field %s", r.typ.schema.Name(), name)
	}
	r.values[name] = v
	return nil
}

func (r *Record) MustSet(name string, v any) *Record {
	if err := r.Set(name, v); err != nil {
		panic(err)
	}
	return r
}

// Unset 移除字段的值，插入时重新解析默认值，更新时该列写 NULL
func (r *Record) Unset(name string) {
	delete(r.values, name)
}

// Values 返回当前赋值的副本
func (r *Record) Values() map[string]any {
	values := make(map[string]any, len(r.values))
	for k, v := range r.values {
		values[k] = v
	}
	return values
}

// PrimaryKey 主键字段名和值，类型没有主键或记录没有主键值时 ok 为 false
func (r *Record) PrimaryKey() (string, any, bool) {
	name, ok := r.typ.schema.PrimaryKey()
	if !ok {
		return "", nil, false
	}
	v, ok := r.values[name]
	if !ok || v == nil {
		return name, nil, false
	}
	return name, v, true
}

func (r *Record) knows(name string) bool {
	if _, ok := r.typ.schema.Field(name); ok {
		return true
	}
	return r.typ.schema.AutoTimestamps() && (name == schema.CreatedAt || name == schema.UpdatedAt)
}
