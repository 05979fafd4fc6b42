package logging

import (
	"io"
	"os"
	"strings"

	"kairos/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var writer io.Writer = os.Stdout

// Init configures the global zerolog logger. It must run before any
// request logging middleware is built, since Writer is shared with it.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err == nil && cfg.Level != "" {
		level = parsed
	}

	writer = os.Stdout
	if cfg.File != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
	}
	if cfg.Pretty {
		writer = zerolog.ConsoleWriter{Out: writer}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(writer).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
}

// Writer returns the destination the global logger writes to, so other
// log producers (httplog) can share it.
func Writer() io.Writer {
	return writer
}
