package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kairos/internal/config"

	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

func TestInitFileWriterRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kairos.log")
	Init(config.LogConfig{Level: "info", File: path, MaxMB: 1, MaxBackups: 2, MaxAgeDays: 1})
	defer Init(config.LogConfig{Level: "info"})

	lj, ok := Writer().(*lumberjack.Logger)
	if !ok {
		t.Fatalf("writer = %T, want rotating file logger", Writer())
	}
	if lj.MaxSize != 1 || lj.MaxBackups != 2 || lj.MaxAge != 1 {
		t.Fatalf("rotation config = %d/%d/%d, want 1/2/1", lj.MaxSize, lj.MaxBackups, lj.MaxAge)
	}

	log.Info().Str("k", "v").Msg("hello")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), `"hello"`) {
		t.Fatalf("log file missing entry: %q", b)
	}
}

func TestInitDefaultsToStdout(t *testing.T) {
	Init(config.LogConfig{Level: "info"})
	if Writer() != os.Stdout {
		t.Fatalf("writer = %T, want stdout", Writer())
	}
}
