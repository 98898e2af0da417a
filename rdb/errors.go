package rdb

import (
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrUniqueness     = errors.New("uniqueness violated")
	ErrNothingUpdated = errors.New("nothing updated")
	ErrNothingDeleted = errors.New("nothing deleted")
	ErrNoPrimaryKey   = errors.New("no primary key")
	ErrInvalidState   = errors.New("invalid record state")
)

// ValidationError 写入前发现的问题，语句不会被执行
type ValidationError struct {
	Table  string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("%s.%s: %s", e.Table, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UniquenessError 唯一约束或主键冲突，调用方可以换一个值重试
type UniquenessError struct {
	Table   string
	Columns []string
	cause   error
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("%s: duplicate value for %s: %v", e.Table, strings.Join(e.Columns, ", "), e.cause)
}

func (e *UniquenessError) Is(target error) bool {
	return target == ErrUniqueness
}

func (e *UniquenessError) Unwrap() error { return e.cause }
func (e *UniquenessError) Cause() error { return e.cause }

// translateError 唯一约束冲突转换为 UniquenessError，其他引擎错误保持原样
func translateError(table string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return &UniquenessError{Table: table, Columns: constraintColumns(sqliteErr.Error()), cause: err}
	}
	return errors.WithMessagef(err, "exec on %s failed", table)
}

// constraintColumns 解析 "UNIQUE constraint failed: t.a, t.b"
func constraintColumns(msg string) []string {
	_, list, ok := strings.Cut(msg, "failed: ")
	if !ok {
		return nil
	}
	var columns []string
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if i := strings.LastIndexByte(item, '.'); i >= 0 {
			item = item[i+1:]
		}
		if item != "" {
			columns = append(columns, item)
		}
	}
	return columns
}
