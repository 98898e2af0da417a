package rdb

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hatlonely/sorm/ref"
)

type Options struct {
	// Database 数据库文件路径，:memory: 为内存数据库
	Database string `cfg:"database" env:"DATABASE" def:":memory:"`

	// JournalMode 每个连接打开时设置的 journal_mode
	JournalMode string `cfg:"journalMode" env:"JOURNAL_MODE" def:"WAL" validate:"omitempty,oneof=WAL DELETE TRUNCATE PERSIST MEMORY OFF"`

	DisableForeignKeys bool          `cfg:"disableForeignKeys" env:"DISABLE_FOREIGN_KEYS"`
	BusyTimeout        time.Duration `cfg:"busyTimeout" env:"BUSY_TIMEOUT" def:"5s"`

	// Name 指标前缀和 tracer 名称
	Name string `cfg:"name" env:"NAME" def:"sorm"`

	Logger *ref.TypeOptions `cfg:"logger"`

	// TraceSQL 以 info 级别记录每条执行的语句
	TraceSQL      bool `cfg:"traceSQL" env:"TRACE_SQL"`
	EnableMetrics bool `cfg:"enableMetrics" env:"ENABLE_METRICS"`
	EnableTracing bool `cfg:"enableTracing" env:"ENABLE_TRACING"`
}

// DSN go-sqlite3 的连接串，pragma 通过参数作用到每个新连接
func (o *Options) DSN() string {
	params := url.Values{}
	if o.JournalMode != "" {
		params.Set("_journal_mode", o.JournalMode)
	}
	if o.DisableForeignKeys {
		params.Set("_foreign_keys", "0")
	} else {
		params.Set("_foreign_keys", "1")
	}
	if o.BusyTimeout > 0 {
		params.Set("_busy_timeout", strconv.FormatInt(o.BusyTimeout.Milliseconds(), 10))
	}

	sep := "?"
	if strings.Contains(o.Database, "?") {
		sep = "&"
	}
	return o.Database + sep + params.Encode()
}
