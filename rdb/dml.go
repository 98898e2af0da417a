package rdb

import (
	"fmt"
	"strings"

	"github.com/hatlonely/sorm/field"
	"github.com/hatlonely/sorm/record"
	"github.com/hatlonely/sorm/schema"
	"github.com/pkg/errors"
)

// Statement 语句文本和按位置绑定的参数
type Statement struct {
	SQL  string
	Args []any
}

// buildInsert 解析默认值并回写到记录上，返回需要回填自增主键的字段名
func buildInsert(r *record.Record) (Statement, string, error) {
	s := r.Schema()

	pk, _ := s.PrimaryKey()

	var columns, placeholders []string
	var args []any
	var generatedKey string

	for _, c := range s.Fields() {
		columns = append(columns, field.QuoteIdent(c.Name))
		placeholders = append(placeholders, "?")

		if c.Field.IsGeneratedKey() {
			generatedKey = c.Name
			args = append(args, nil)
			continue
		}

		v, err := resolveValue(r, c)
		if err != nil {
			return Statement{}, "", err
		}
		// 非自增主键必须由调用方或默认值给出，否则插入后无法再定位这一行
		if c.Name == pk && v == nil {
			return Statement{}, "", &ValidationError{Table: s.TableName(), Field: c.Name, Reason: "primary key has no value"}
		}
		args = append(args, v)
	}

	return Statement{
		SQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			field.QuoteIdent(s.TableName()), strings.Join(columns, ", "), strings.Join(placeholders, ", ")),
		Args: args,
	}, generatedKey, nil
}

// resolveValue 当前值优先，其次默认值，必填字段没有值时返回 ValidationError
func resolveValue(r *record.Record, c schema.Column) (any, error) {
	if v, ok := r.Get(c.Name); ok && v != nil {
		return v, nil
	}

	v, ok, err := c.Field.Default().Resolve(r)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s.%s", r.Schema().TableName(), c.Name)
	}
	if ok {
		if err := r.Set(c.Name, v); err != nil {
			return nil, err
		}
		return v, nil
	}

	if c.Field.IsRequired() {
		return nil, &ValidationError{Table: r.Schema().TableName(), Field: c.Name, Reason: "required field has no value"}
	}
	return nil, nil
}

// buildUpdate SET 包含除主键外的所有字段，记录上没有的字段写 NULL
func buildUpdate(r *record.Record) (Statement, error) {
	s := r.Schema()
	pk, pkValue, err := primaryKeyOf(r)
	if err != nil {
		return Statement{}, err
	}

	var sets []string
	var args []any
	for _, c := range s.Fields() {
		if c.Name == pk {
			continue
		}
		v, _ := r.Get(c.Name)
		sets = append(sets, field.QuoteIdent(c.Name)+" = ?")
		args = append(args, v)
	}
	if s.AutoTimestamps() {
		sets = append(sets, field.QuoteIdent(schema.UpdatedAt)+" = CURRENT_TIMESTAMP")
	}
	if len(sets) == 0 {
		return Statement{}, &ValidationError{Table: s.TableName(), Reason: "nothing to update"}
	}

	return Statement{
		SQL: fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
			field.QuoteIdent(s.TableName()), strings.Join(sets, ", "), field.QuoteIdent(pk)),
		Args: append(args, pkValue),
	}, nil
}

func buildDelete(r *record.Record) (Statement, error) {
	pk, pkValue, err := primaryKeyOf(r)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL:  fmt.Sprintf("DELETE FROM %s WHERE %s = ?", field.QuoteIdent(r.Schema().TableName()), field.QuoteIdent(pk)),
		Args: []any{pkValue},
	}, nil
}

func primaryKeyOf(r *record.Record) (string, any, error) {
	table := r.Schema().TableName()
	pk, v, ok := r.PrimaryKey()
	if pk == "" {
		return "", nil, errors.Wrapf(ErrNoPrimaryKey, "table %s", table)
	}
	if !ok {
		return "", nil, &ValidationError{Table: table, Field: pk, Reason: "primary key has no value"}
	}
	return pk, v, nil
}
