package schema

import (
	"strings"

	"github.com/hatlonely/sorm/field"
	"github.com/pkg/errors"
)

const (
	CreatedAt = "created_at"
	UpdatedAt = "updated_at"
)

// Column 有序的字段名和字段描述
type Column struct {
	Name  string
	Field *field.Field
}

// Schema 记录类型的元数据，构造后只读
type Schema struct {
	name           string
	table          string
	primaryKey     string
	autoTimestamps bool
	columns        []Column
	index          map[string]*field.Field
}

type options struct {
	table          string
	primaryKey     string
	autoTimestamps bool
}

type Option func(*options)

// Table 覆盖默认的表名
func Table(name string) Option {
	return func(o *options) { o.table = name }
}

// PrimaryKey 类型级别的主键字段名，字段上的 PrimaryKey 标记优先
func PrimaryKey(name string) Option {
	return func(o *options) { o.primaryKey = name }
}

// AutoTimestamps 追加 created_at 和 updated_at 列
func AutoTimestamps() Option {
	return func(o *options) { o.autoTimestamps = true }
}

// Builder 按声明顺序收集字段
type Builder struct {
	name    string
	options options
	columns []Column
}

func New(name string, opts ...Option) *Builder {
	b := &Builder{name: name}
	for _, opt := range opts {
		opt(&b.options)
	}
	return b
}

func (b *Builder) Field(name string, f *field.Field) *Builder {
	b.columns = append(b.columns, Column{Name: name, Field: f})
	return b
}

// Build 校验并生成 Schema
func (b *Builder) Build() (*Schema, error) {
	if b.name == "" {
		return nil, errors.New("schema name is empty")
	}

	table := b.options.table
	if table == "" {
		table = strings.ToLower(b.name)
	}
	if !field.IsIdent(table) {
		return nil, errors.Errorf("schema %s: invalid table name %q", b.name, table)
	}
	if len(b.columns) == 0 {
		return nil, errors.Errorf("schema %s: no fields declared", b.name)
	}

	s := &Schema{
		name:           b.name,
		table:          table,
		primaryKey:     b.options.primaryKey,
		autoTimestamps: b.options.autoTimestamps,
		columns:        make([]Column, 0, len(b.columns)),
		index:          make(map[string]*field.Field, len(b.columns)),
	}

	var flagged []string
	for _, c := range b.columns {
		if !field.IsIdent(c.Name) {
			return nil, errors.Errorf("schema %s: invalid field name %q", b.name, c.Name)
		}
		if c.Field == nil {
			return nil, errors.Errorf("schema %s: field %s is nil", b.name, c.Name)
		}
		if _, ok := s.index[c.Name]; ok {
			return nil, errors.Errorf("schema %s: duplicate field %s", b.name, c.Name)
		}
		if b.options.autoTimestamps && (c.Name == CreatedAt || c.Name == UpdatedAt) {
			return nil, errors.Errorf("schema %s: field %s is reserved by auto timestamps", b.name, c.Name)
		}
		if err := c.Field.Validate(); err != nil {
			return nil, errors.WithMessagef(err, "schema %s: field %s", b.name, c.Name)
		}
		if c.Field.IsPrimaryKey() {
			flagged = append(flagged, c.Name)
		}
		s.columns = append(s.columns, c)
		s.index[c.Name] = c.Field
	}

	if len(flagged) > 1 {
		return nil, errors.Errorf("schema %s: multiple primary keys %v", b.name, flagged)
	}
	if s.primaryKey != "" {
		if _, ok := s.index[s.primaryKey]; !ok {
			return nil, errors.Errorf("schema %s: primary key %s is not a declared field", b.name, s.primaryKey)
		}
	}

	return s, nil
}

func (b *Builder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string { return s.name }
func (s *Schema) TableName() string { return s.table }
func (s *Schema) AutoTimestamps() bool { return s.autoTimestamps }

// Fields 按声明顺序返回字段
func (s *Schema) Fields() []Column {
	return append([]Column(nil), s.columns...)
}

func (s *Schema) Field(name string) (*field.Field, bool) {
	f, ok := s.index[name]
	return f, ok
}

// PrimaryKey 字段标记优先，其次是类型级别的主键名
func (s *Schema) PrimaryKey() (string, bool) {
	for _, c := range s.columns {
		if c.Field.IsPrimaryKey() {
			return c.Name, true
		}
	}
	if s.primaryKey != "" {
		return s.primaryKey, true
	}
	return "", false
}

// GeneratedKey 自增主键字段
func (s *Schema) GeneratedKey() (string, bool) {
	for _, c := range s.columns {
		if c.Field.IsGeneratedKey() {
			return c.Name, true
		}
	}
	return "", false
}
