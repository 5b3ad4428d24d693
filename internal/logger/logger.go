package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New 创建 zerolog 日志实例，dev 环境使用可读的控制台输出
func New(appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	var out io.Writer = os.Stdout
	if appEnv == "dev" {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(out).With().Timestamp().Logger().Level(level)
}
