package field

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const TimeLayout = "2006-01-02 15:04:05"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdent 判断是否可以直接嵌入 SQL 的标识符
func IsIdent(name string) bool {
	return identPattern.MatchString(name)
}

// QuoteIdent 用双引号包裹标识符
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// FormatLiteral 把字面量渲染成 SQL 文本
func FormatLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quoteString(val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case time.Time:
		return quoteString(val.Format(TimeLayout))
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	default:
		return quoteString(fmt.Sprintf("%v", val))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SQLType 列类型，DDL 中使用大写
func (f *Field) SQLType() string {
	return strings.ToUpper(string(f.dataType))
}

// Constraints 渲染列约束片段，顺序固定
func (f *Field) Constraints(name string) []string {
	var out []string
	if f.required {
		out = append(out, "NOT NULL")
	}
	if f.unique {
		out = append(out, "UNIQUE")
	}
	if f.def.IsLiteral() {
		out = append(out, "DEFAULT "+FormatLiteral(f.def.Value()))
	}
	if f.primaryKey {
		out = append(out, "PRIMARY KEY")
	}

	column := QuoteIdent(name)
	switch f.kind {
	case KindText:
		if c := rangeCheck("LENGTH("+column+")", f.min, f.max, true); c != "" {
			out = append(out, c)
		}
	case KindInteger:
		if f.autoIncrement {
			out = append(out, "AUTOINCREMENT")
		}
		if c := rangeCheck(column, f.min, f.max, false); c != "" {
			out = append(out, c)
		}
	case KindReal:
		if c := rangeCheck(column, f.min, f.max, false); c != "" {
			out = append(out, c)
		}
	case KindEnum:
		if len(f.choices) > 0 {
			quoted := make([]string, 0, len(f.choices))
			for _, c := range f.choices {
				quoted = append(quoted, quoteString(c))
			}
			out = append(out, fmt.Sprintf("CHECK(%s IN (%s))", column, strings.Join(quoted, ", ")))
		}
	case KindForeignKey:
		if f.ref != nil {
			out = append(out, fmt.Sprintf("REFERENCES %s(%s)", QuoteIdent(f.ref.Table), QuoteIdent(f.ref.Field)))
		}
	}
	return out
}

// rangeCheck 两端相等且 exact 为 true 时渲染为等值检查
func rangeCheck(expr string, min, max *float64, exact bool) string {
	switch {
	case min != nil && max != nil:
		if exact && *min == *max {
			return fmt.Sprintf("CHECK(%s = %s)", expr, formatNumber(*min))
		}
		return fmt.Sprintf("CHECK(%s >= %s AND %s <= %s)", expr, formatNumber(*min), expr, formatNumber(*max))
	case min != nil:
		return fmt.Sprintf("CHECK(%s >= %s)", expr, formatNumber(*min))
	case max != nil:
		return fmt.Sprintf("CHECK(%s <= %s)", expr, formatNumber(*max))
	}
	return ""
}
