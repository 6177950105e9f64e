package logger

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var (
	defaultLogger = log.New(os.Stderr, "", log.LstdFlags)
	minLevel      = INFO
)

var levelColors = map[LogLevel]*color.Color{
	DEBUG: color.New(color.FgHiBlack),
	INFO:  color.New(color.FgCyan),
	WARN:  color.New(color.FgYellow),
	ERROR: color.New(color.FgRed),
	FATAL: color.New(color.FgHiRed, color.Bold),
}

func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

func SetFlags(flag int) {
	defaultLogger.SetFlags(flag)
}

// SetLevel drops messages below level.
func SetLevel(level LogLevel) {
	minLevel = level
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	}
	return "UNKNOWN"
}

func formatMessage(level LogLevel, format string, args ...interface{}) string {
	levelStr := level.String()

	if c, ok := levelColors[level]; ok {
		levelStr = c.Sprint(levelStr)
	}

	msg := fmt.Sprintf(format, args...)
	return fmt.Sprintf("[%s] [HYPEDEPLOY] %s", levelStr, msg)
}

func logAt(level LogLevel, format string, args ...interface{}) {
	if level < minLevel {
		return
	}
	defaultLogger.Println(formatMessage(level, format, args...))
}

func Debug(format string, args ...interface{}) {
	logAt(DEBUG, format, args...)
}

func Info(format string, args ...interface{}) {
	logAt(INFO, format, args...)
}

func Warn(format string, args ...interface{}) {
	logAt(WARN, format, args...)
}

func Error(format string, args ...interface{}) {
	logAt(ERROR, format, args...)
}

func Fatal(format string, args ...interface{}) {
	defaultLogger.Fatal(formatMessage(FATAL, format, args...))
}

func Printf(format string, args ...interface{}) {
	defaultLogger.Printf(format, args...)
}

func Println(args ...interface{}) {
	defaultLogger.Println(args...)
}
