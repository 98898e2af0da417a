package log

import (
	"github.com/hatlonely/sorm/log/logger"
	"github.com/hatlonely/sorm/log/writer"
	"github.com/hatlonely/sorm/ref"
	"github.com/pkg/errors"
)

const (
	LoggerNamespace = "github.com/hatlonely/sorm/log/logger"
	WriterNamespace = writer.Namespace
)

var defaultLogger logger.Logger

func init() {
	ref.MustRegister(LoggerNamespace, "SLog", logger.NewSLogWithOptions)
	ref.MustRegister(WriterNamespace, "ConsoleWriter", writer.NewConsoleWriterWithOptions)
	ref.MustRegister(WriterNamespace, "FileWriter", writer.NewFileWriterWithOptions)
	ref.MustRegister(WriterNamespace, "MultiWriter", writer.NewMultiWriterWithOptions)

	l, err := logger.NewSLogWithOptions(&logger.SLogOptions{Level: "info", Format: "text"})
	if err != nil {
		panic("init default logger failed: " + err.Error())
	}
	defaultLogger = l
}

// Default 输出到 stdout 的 info 级别 text 日志
func Default() logger.Logger {
	return defaultLogger
}

// NewLoggerWithOptions namespace 为空时使用 logger 包的命名空间
func NewLoggerWithOptions(options *ref.TypeOptions) (logger.Logger, error) {
	if options == nil {
		return Default(), nil
	}
	typeOptions := *options
	if typeOptions.Namespace == "" {
		typeOptions.Namespace = LoggerNamespace
	}
	obj, err := ref.NewWithOptions(&typeOptions)
	if err != nil {
		return nil, errors.WithMessage(err, "ref.NewWithOptions failed")
	}
	return ref.As[logger.Logger](obj)
}
