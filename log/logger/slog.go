package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hatlonely/sorm/ref"
	"github.com/pkg/errors"
)

const writerNamespace = "github.com/hatlonely/sorm/log/writer"

type SLogOptions struct {
	Level  string `cfg:"level" def:"info" validate:"omitempty,oneof=debug info warn error"`
	Format string `cfg:"format" def:"text" validate:"omitempty,oneof=text json"`

	// Output 输出器，为空时输出到 stdout
	Output     *ref.TypeOptions `cfg:"output"`
	TimeFormat string           `cfg:"timeFormat"`
	AddSource  bool             `cfg:"addSource"`
	Fields     map[string]any   `cfg:"fields"`
}

type SLog struct {
	slogger *slog.Logger
}

func NewSLogWithOptions(options *SLogOptions) (*SLog, error) {
	if options == nil {
		options = &SLogOptions{}
	}

	level, err := parseLevel(options.Level)
	if err != nil {
		return nil, err
	}

	var w io.Writer = os.Stdout
	if options.Output != nil {
		output := *options.Output
		if output.Namespace == "" {
			output.Namespace = writerNamespace
		}
		obj, err := ref.NewWithOptions(&output)
		if err != nil {
			return nil, errors.WithMessage(err, "create output failed")
		}
		if w, err = ref.As[io.Writer](obj); err != nil {
			return nil, err
		}
	}

	handlerOptions := &slog.HandlerOptions{Level: level, AddSource: options.AddSource}
	if options.TimeFormat != "" {
		layout := options.TimeFormat
		handlerOptions.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(a.Key, a.Value.Time().Format(layout))
			}
			return a
		}
	}

	var handler slog.Handler
	switch strings.ToLower(options.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOptions)
	case "text", "":
		handler = slog.NewTextHandler(w, handlerOptions)
	default:
		return nil, errors.Errorf("unsupported log format %q", options.Format)
	}

	l := slog.New(handler)
	for k, v := range options.Fields {
		l = l.With(k, v)
	}
	return &SLog{slogger: l}, nil
}

// NewSLog 包装已有的 slog.Logger
func NewSLog(l *slog.Logger) *SLog {
	return &SLog{slogger: l}
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.Errorf("unknown log level %q", level)
}

func (l *SLog) Debug(msg string, args ...any) { l.slogger.Debug(msg, args...) }
func (l *SLog) Info(msg string, args ...any) { l.slogger.Info(msg, args...) }
func (l *SLog) Warn(msg string, args ...any) { l.slogger.Warn(msg, args...) }
func (l *SLog) Error(msg string, args ...any) { l.slogger.Error(msg, args...) }

func (l *SLog) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slogger.DebugContext(ctx, msg, args...)
}

func (l *SLog) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slogger.InfoContext(ctx, msg, args...)
}

func (l *SLog) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slogger.WarnContext(ctx, msg, args...)
}

func (l *SLog) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slogger.ErrorContext(ctx, msg, args...)
}

func (l *SLog) With(args ...any) Logger {
	return &SLog{slogger: l.slogger.With(args...)}
}

func (l *SLog) WithGroup(name string) Logger {
	return &SLog{slogger: l.slogger.WithGroup(name)}
}

// Nop 丢弃所有日志
func Nop() Logger {
	return &SLog{slogger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}
