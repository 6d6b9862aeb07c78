package log

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var logger zerolog.Logger
var once sync.Once

type LoggerOption func(*LoggerConfig)

type LoggerConfig struct {
	fileName string
	console  bool
	logLevel zerolog.Level
	output   io.Writer
}

// WithFileLogger adds a size-rotated file output.
func WithFileLogger(fileName string) LoggerOption {
	return func(l *LoggerConfig) {
		l.fileName = fileName
	}
}

func WithConsoleLogger() LoggerOption {
	return func(l *LoggerConfig) {
		l.console = true
	}
}

// WithLogLevel sets the level by name ("debug", "info", ...). Unknown names keep the default.
func WithLogLevel(level string) LoggerOption {
	return func(l *LoggerConfig) {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && level != "" {
			l.logLevel = lvl
		}
	}
}

// WithOutput replaces stdout as the default destination.
func WithOutput(w io.Writer) LoggerOption {
	return func(l *LoggerConfig) {
		l.output = w
	}
}

// Init builds the process-wide logger. Only the first call has an effect.
func Init(serviceName string, opts ...LoggerOption) {
	once.Do(func() {
		logger = newLogger(serviceName, opts...)
	})
}

func newLogger(serviceName string, opts ...LoggerOption) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := &LoggerConfig{
		logLevel: zerolog.InfoLevel,
		output:   os.Stdout,
	}

	for _, opt := range opts {
		opt(l)
	}

	output := make([]io.Writer, 0, 2)
	if l.console {
		consoleOutput := zerolog.ConsoleWriter{
			Out:        l.output,
			TimeFormat: time.RFC3339,
		}
		output = append(output, consoleOutput)
	}
	if l.fileName != "" {
		fileOutput := &lumberjack.Logger{
			Filename:   l.fileName,
			MaxSize:    5,
			MaxBackups: 10,
			MaxAge:     14,
			Compress:   true,
		}
		output = append(output, fileOutput)
	}

	if len(output) == 0 {
		output = append(output, l.output)
	}

	multiWriter := zerolog.MultiLevelWriter(output...)

	return zerolog.New(multiWriter).
		Level(l.logLevel).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

func GetLogger() zerolog.Logger {
	return logger
}
