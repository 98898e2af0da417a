package writer

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/hatlonely/sorm/ref"
	"github.com/pkg/errors"
)

const Namespace = "github.com/hatlonely/sorm/log/writer"

// Writer 日志输出器
type Writer interface {
	io.Writer
	io.Closer
}

type ConsoleWriterOptions struct {
	// Target stdout 或 stderr
	Target string `cfg:"target" def:"stdout" validate:"omitempty,oneof=stdout stderr"`
}

type ConsoleWriter struct {
	w io.Writer
}

func NewConsoleWriterWithOptions(options *ConsoleWriterOptions) (*ConsoleWriter, error) {
	if options == nil || options.Target == "" || options.Target == "stdout" {
		return &ConsoleWriter{w: os.Stdout}, nil
	}
	if options.Target == "stderr" {
		return &ConsoleWriter{w: os.Stderr}, nil
	}
	return nil, errors.Errorf("unknown console target %q", options.Target)
}

func (c *ConsoleWriter) Write(p []byte) (int, error) { return c.w.Write(p) }
func (c *ConsoleWriter) Close() error { return nil }

type FileWriterOptions struct {
	Path string `cfg:"path" validate:"required"`
}

// FileWriter 追加写入文件，并发安全
type FileWriter struct {
	mu   sync.Mutex
	file *os.File
}

func NewFileWriterWithOptions(options *FileWriterOptions) (*FileWriter, error) {
	if options == nil || options.Path == "" {
		return nil, errors.New("file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(options.Path), 0755); err != nil {
		return nil, errors.Wrapf(err, "create log directory for %s failed", options.Path)
	}
	file, err := os.OpenFile(options.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "open log file %s failed", options.Path)
	}
	return &FileWriter{file: file}, nil
}

func (f *FileWriter) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return 0, errors.New("file writer is closed")
	}
	return f.file.Write(p)
}

func (f *FileWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

type MultiWriterOptions struct {
	Writers []*ref.TypeOptions `cfg:"writers" validate:"required,dive"`
}

// MultiWriter 依次写入所有输出器，任意一个失败即返回
type MultiWriter struct {
	writers []Writer
}

func NewMultiWriterWithOptions(options *MultiWriterOptions) (*MultiWriter, error) {
	if options == nil || len(options.Writers) == 0 {
		return nil, errors.New("at least one writer is required")
	}

	m := &MultiWriter{}
	for i, wo := range options.Writers {
		if wo == nil {
			return nil, errors.Errorf("writer %d is nil", i)
		}
		typeOptions := *wo
		if typeOptions.Namespace == "" {
			typeOptions.Namespace = Namespace
		}
		obj, err := ref.NewWithOptions(&typeOptions)
		if err != nil {
			return nil, errors.WithMessagef(err, "create writer %d failed", i)
		}
		w, err := ref.As[Writer](obj)
		if err != nil {
			return nil, errors.WithMessagef(err, "writer %d", i)
		}
		m.writers = append(m.writers, w)
	}
	return m, nil
}

// NewMultiWriter 组合已有的输出器
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

func (m *MultiWriter) Write(p []byte) (int, error) {
	for i, w := range m.writers {
		if _, err := w.Write(p); err != nil {
			return 0, errors.Wrapf(err, "writer %d failed", i)
		}
	}
	return len(p), nil
}

func (m *MultiWriter) Close() error {
	var firstErr error
	for i, w := range m.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "close writer %d failed", i)
		}
	}
	return firstErr
}
