package rdb

import (
	"fmt"
	"strings"

	"github.com/hatlonely/sorm/field"
	"github.com/hatlonely/sorm/schema"
)

// CreateTableSQL 生成幂等的建表语句，列顺序与字段声明顺序一致，时间戳列在最后
func CreateTableSQL(s *schema.Schema) string {
	var columns []string
	for _, c := range s.Fields() {
		columns = append(columns, columnDefinition(c.Name, c.Field))
	}

	if s.AutoTimestamps() {
		columns = append(columns,
			field.QuoteIdent(schema.CreatedAt)+" DATETIME DEFAULT CURRENT_TIMESTAMP",
			field.QuoteIdent(schema.UpdatedAt)+" DATETIME",
		)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		field.QuoteIdent(s.TableName()), strings.Join(columns, ",\n  "))
}

func columnDefinition(name string, f *field.Field) string {
	parts := []string{field.QuoteIdent(name), f.SQLType()}
	parts = append(parts, f.Constraints(name)...)
	return strings.Join(parts, " ")
}
