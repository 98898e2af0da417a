package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hatlonely/sorm/cfg"
	"github.com/hatlonely/sorm/cfg/decoder"
	"github.com/hatlonely/sorm/log/logger"
	"github.com/hatlonely/sorm/log/writer"
	"github.com/hatlonely/sorm/ref"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewLoggerWithOptions(t *testing.T) {
	Convey("测试 NewLoggerWithOptions", t, func() {
		dir := t.TempDir()

		Convey("nil 返回默认日志器", func() {
			l, err := NewLoggerWithOptions(nil)
			So(err, ShouldBeNil)
			So(l, ShouldEqual, Default())
		})

		Convey("json 格式写入文件", func() {
			path := filepath.Join(dir, "app.log")
			l, err := NewLoggerWithOptions(&ref.TypeOptions{
				Type: "SLog",
				Options: &logger.SLogOptions{
					Level:  "debug",
					Format: "json",
					Output: &ref.TypeOptions{
						Type:    "FileWriter",
						Options: &writer.FileWriterOptions{Path: path},
					},
					Fields: map[string]any{"service": "sorm"},
				},
			})
			So(err, ShouldBeNil)

			l.With("table", "user").WithGroup("stmt").Debug("statement executed", "sql", "INSERT")

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			var entry map[string]any
			So(json.Unmarshal(data, &entry), ShouldBeNil)
			So(entry["msg"], ShouldEqual, "statement executed")
			So(entry["service"], ShouldEqual, "sorm")
			So(entry["table"], ShouldEqual, "user")
			So(entry["stmt"], ShouldResemble, map[string]any{"sql": "INSERT"})
		})

		Convey("级别过滤", func() {
			path := filepath.Join(dir, "warn.log")
			l, err := NewLoggerWithOptions(&ref.TypeOptions{
				Type: "SLog",
				Options: &logger.SLogOptions{
					Level:  "warn",
					Output: &ref.TypeOptions{Type: "FileWriter", Options: &writer.FileWriterOptions{Path: path}},
				},
			})
			So(err, ShouldBeNil)
			l.Info("dropped")
			l.Warn("kept")

			data, _ := os.ReadFile(path)
			So(string(data), ShouldNotContainSubstring, "dropped")
			So(string(data), ShouldContainSubstring, "kept")
		})

		Convey("从配置文件构造多输出", func() {
			a, b := filepath.Join(dir, "a.log"), filepath.Join(dir, "b.log")
			c, err := cfg.NewConfigWithDecoder([]byte(`
logger:
  type: SLog
  options:
    level: info
    output:
      type: MultiWriter
      options:
        writers:
          - type: FileWriter
            options: {path: `+a+`}
          - type: FileWriter
            options: {path: `+b+`}
`), decoder.NewYamlDecoder())
			So(err, ShouldBeNil)

			var options ref.TypeOptions
			So(c.Sub("logger").ConvertTo(&options), ShouldBeNil)
			l, err := NewLoggerWithOptions(&options)
			So(err, ShouldBeNil)
			l.Info("fan out")

			for _, path := range []string{a, b} {
				data, _ := os.ReadFile(path)
				So(strings.Count(string(data), "fan out"), ShouldEqual, 1)
			}
		})

		Convey("非法配置", func() {
			_, err := NewLoggerWithOptions(&ref.TypeOptions{Type: "SLog", Options: &logger.SLogOptions{Level: "loud"}})
			So(err, ShouldNotBeNil)

			_, err = NewLoggerWithOptions(&ref.TypeOptions{Type: "SLog", Options: &logger.SLogOptions{Format: "xml"}})
			So(err, ShouldNotBeNil)

			_, err = NewLoggerWithOptions(&ref.TypeOptions{Type: "Missing"})
			So(err, ShouldNotBeNil)

			_, err = NewLoggerWithOptions(&ref.TypeOptions{Namespace: WriterNamespace, Type: "ConsoleWriter"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestWriters(t *testing.T) {
	Convey("测试输出器", t, func() {
		Convey("关闭后写入失败", func() {
			w, err := writer.NewFileWriterWithOptions(&writer.FileWriterOptions{Path: filepath.Join(t.TempDir(), "x", "y.log")})
			So(err, ShouldBeNil)
			So(w.Close(), ShouldBeNil)
			_, err = w.Write([]byte("x"))
			So(err, ShouldNotBeNil)
			So(w.Close(), ShouldBeNil)
		})

		Convey("控制台目标", func() {
			_, err := writer.NewConsoleWriterWithOptions(&writer.ConsoleWriterOptions{Target: "stderr"})
			So(err, ShouldBeNil)
			_, err = writer.NewConsoleWriterWithOptions(&writer.ConsoleWriterOptions{Target: "printer"})
			So(err, ShouldNotBeNil)
		})

		Convey("多输出器至少一个", func() {
			_, err := writer.NewMultiWriterWithOptions(&writer.MultiWriterOptions{})
			So(err, ShouldNotBeNil)
		})
	})
}
