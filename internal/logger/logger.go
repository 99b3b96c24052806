package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// ********************************************************
// ********* LOGGING **************************************
// ********************************************************

type LogLevel int

const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorOrange  = "\033[38;5;208m"
)

const (
	DEBUG LogLevel = iota
	INFO
	INFORM
	HIGHLIGHT
	WARN
	ERROR
	FATAL
)

// Output selects where log lines are written
const (
	OutputConsole = 'c' // stdout for info, stderr for errors
	OutputStderr  = 's' // stderr only, required when stdout carries a protocol
	OutputFile    = 'f'
	OutputBoth    = 'b'
)

const DefaultLogFile = "/tmp/xgscore.log"

type Logger struct {
	mu           sync.Mutex
	infoLogger   *log.Logger
	errorLogger  *log.Logger
	level        LogLevel
	colour       bool
	showDateTime bool
	file         *os.File
}

var defaultLogger = NewLogger(INFO)

func NewLogger(level LogLevel) *Logger {
	return &Logger{
		infoLogger:  log.New(os.Stdout, "", 0),
		errorLogger: log.New(os.Stderr, "", 0),
		level:       level,
		colour:      true,
	}
}

func (l *Logger) flags() int {
	if l.showDateTime {
		return log.Ldate | log.Ltime
	}
	return 0
}

// SetWriters points the logger at arbitrary writers, mostly useful in tests
func (l *Logger) SetWriters(info, errs io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLogger = log.New(info, "", l.flags())
	l.errorLogger = log.New(errs, "", l.flags())
}

func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetOutput sets the output destination for logs.
// File modes append to path, falling back to DefaultLogFile.
func (l *Logger) SetOutput(mode rune, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if path == "" {
		path = DefaultLogFile
	}

	var info, errs io.Writer
	switch mode {
	case OutputConsole:
		info, errs = os.Stdout, os.Stderr
	case OutputStderr:
		info, errs = os.Stderr, os.Stderr
	case OutputFile, OutputBoth:
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", path, err)
		}
		l.file = f
		if mode == OutputFile {
			info, errs = f, f
		} else {
			info, errs = io.MultiWriter(os.Stderr, f), io.MultiWriter(os.Stderr, f)
		}
	default:
		return fmt.Errorf("invalid log output type: %c", mode)
	}

	l.infoLogger = log.New(info, "", l.flags())
	l.errorLogger = log.New(errs, "", l.flags())
	return nil
}

func (l *Logger) log(level LogLevel, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
		line = 0
	}
	file = filepath.Base(file)

	msg := format
	var jsonObjects []string
	if len(v) > 0 {
		var parts []string
		parts, jsonObjects = processArgs(v...)
		if len(parts) > 0 {
			msg = format + " " + strings.Join(parts, " ")
		}
	}

	out := l.infoLogger
	if level >= ERROR {
		out = l.errorLogger
	}
	out.Println(l.line(level, file, line, msg))
	for _, obj := range jsonObjects {
		out.Println(l.line(level, file, line, obj))
	}
}

// line formats metadata plainly and the message in the level colour
func (l *Logger) line(level LogLevel, file string, line int, msg string) string {
	if !l.colour {
		return fmt.Sprintf("[%s] %s:%d: %s", level, file, line, msg)
	}
	return fmt.Sprintf("[%s] %s:%d: %s%s%s", level, file, line, level.colour(), msg, colorReset)
}

func (l LogLevel) colour() string {
	switch l {
	case DEBUG:
		return colorBlue
	case INFO:
		return colorGreen
	case INFORM:
		return colorMagenta
	case HIGHLIGHT:
		return colorCyan
	case WARN:
		return colorYellow
	case ERROR:
		return colorOrange
	case FATAL:
		return colorRed
	default:
		return colorReset
	}
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case INFORM:
		return "INFORM"
	case HIGHLIGHT:
		return "HIGHLIGHT"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name (any case) to its LogLevel
func ParseLevel(name string) (LogLevel, error) {
	for lvl := DEBUG; lvl <= FATAL; lvl++ {
		if strings.EqualFold(name, lvl.String()) {
			return lvl, nil
		}
	}
	return INFO, fmt.Errorf("unknown log level %q", name)
}

// processArgs renders primitives inline and everything else as indented JSON
// to be printed on the following lines
func processArgs(args ...any) ([]string, []string) {
	var primitives []string
	var jsonObjects []string

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			primitives = append(primitives, "nil")
		case float32:
			primitives = append(primitives, fmt.Sprintf("%.2f", v))
		case float64:
			primitives = append(primitives, fmt.Sprintf("%.2f", v))
		case string:
			primitives = append(primitives, v)
		case error:
			primitives = append(primitives, v.Error())
		case fmt.Stringer:
			primitives = append(primitives, v.String())
		case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			primitives = append(primitives, fmt.Sprintf("%v", v))
		default:
			b, err := json.MarshalIndent(arg, "", "  ")
			if err != nil {
				primitives = append(primitives, fmt.Sprintf("%v", arg))
				continue
			}
			primitives = append(primitives, fmt.Sprintf("[Object of type %s]", reflect.TypeOf(arg)))
			jsonObjects = append(jsonObjects, string(b))
		}
	}
	return primitives, jsonObjects
}

func SetShowDateTime(value bool) {
	defaultLogger.mu.Lock()
	defaultLogger.showDateTime = value
	flags := defaultLogger.flags()
	defaultLogger.infoLogger.SetFlags(flags)
	defaultLogger.errorLogger.SetFlags(flags)
	defaultLogger.mu.Unlock()
}

func SetColour(value bool) {
	defaultLogger.mu.Lock()
	defaultLogger.colour = value
	defaultLogger.mu.Unlock()
}

func SetLevel(level LogLevel) { defaultLogger.SetLevel(level) }
func GetLevel() LogLevel { return defaultLogger.Level() }
func SetOutput(mode rune, path string) error { return defaultLogger.SetOutput(mode, path) }
func SetWriters(info, errs io.Writer) { defaultLogger.SetWriters(info, errs) }

// Convenience methods using the default logger
func Debug(format string, v ...any) {
	defaultLogger.log(DEBUG, format, v...)
}

func Info(format string, v ...any) {
	defaultLogger.log(INFO, format, v...)
}

func Inform(format string, v ...any) {
	defaultLogger.log(INFORM, format, v...)
}

func Highlight(format string, v ...any) {
	defaultLogger.log(HIGHLIGHT, format, v...)
}

func Warn(format string, v ...any) {
	defaultLogger.log(WARN, format, v...)
}

func Error(format string, v ...any) {
	defaultLogger.log(ERROR, format, v...)
}

func Fatal(format string, v ...any) {
	defaultLogger.log(FATAL, format, v...)
	os.Exit(1)
}
