package logger

import (
	"io"
	"os"

	"github.com/labstack/gommon/log"
)

// echoと同じロガーを使う
var std = newLogger(os.Stdout)

func newLogger(w io.Writer) *log.Logger {
	l := log.New("pos")
	l.SetOutput(w)
	l.SetHeader(`{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}"}`)
	l.SetLevel(log.INFO)
	return l
}

// Init はレベルを設定する（debug/info/warn/error/off）
func Init(level string) {
	std.SetLevel(parseLevel(level))
}

// SetOutput はテスト用
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Logger はecho.Loggerとして渡す
func Logger() *log.Logger {
	return std
}

func parseLevel(level string) log.Lvl {
	switch level {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// kvはキーと値の交互（"sale_id", 1, ...）
func fields(msg string, kv []interface{}) log.JSON {
	j := log.JSON{"message": msg}
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		j[k] = kv[i+1]
	}
	if len(kv)%2 == 1 {
		j["extra"] = kv[len(kv)-1]
	}
	return j
}

func Debug(msg string, kv ...interface{}) {
	std.Debugj(fields(msg, kv))
}

func Info(msg string, kv ...interface{}) {
	std.Infoj(fields(msg, kv))
}

func Warn(msg string, kv ...interface{}) {
	std.Warnj(fields(msg, kv))
}

func Error(msg string, err error, kv ...interface{}) {
	j := fields(msg, kv)
	if err != nil {
		j["error"] = err.Error()
	}
	std.Errorj(j)
}
