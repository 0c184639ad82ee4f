package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New 创建带时间戳的 zerolog 日志；format 为 console 时输出人类可读格式
func New(w io.Writer, level zerolog.Level, format string) zerolog.Logger {
	if strings.EqualFold(format, FormatConsole) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewConsole 输出到 stderr，stdout 留给结果
func NewConsole(level zerolog.Level) zerolog.Logger {
	return New(os.Stderr, level, FormatConsole)
}

// ParseLevel 无法识别时回退到 info
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
