package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures every logger created after Configure is called.
type Options struct {
	Level string `json:"level"`
	// File, when set, receives JSON logs in addition to stdout and is
	// rotated by size.
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

var (
	mu     sync.RWMutex
	level  = zerolog.InfoLevel
	output io.Writer
)

// Configure installs process-wide logging options.
func Configure(o Options) error {
	lvl := zerolog.InfoLevel
	if o.Level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(strings.ToLower(o.Level)); err != nil {
			return err
		}
	}
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	output = nil
	if o.File != "" {
		output = &lumberjack.Logger{Filename: o.File, MaxSize: o.MaxSizeMB, MaxBackups: o.MaxBackups}
	}
	return nil
}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a ZerologLogger using the APP_ENV environment variable
// to determine the output format. All logs include the provided component field.
func NewZerologLogger(component string) Logger {
	mu.RLock()
	lvl, file := level, output
	mu.RUnlock()

	var w io.Writer = os.Stdout
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	if file != nil {
		w = zerolog.MultiLevelWriter(w, file)
	}
	return NewWithWriter(component, w, lvl)
}

// NewWithWriter builds a logger writing JSON to w at the given level.
func NewWithWriter(component string, w io.Writer, lvl zerolog.Level) *ZerologLogger {
	z := zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
