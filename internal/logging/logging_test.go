package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookshelf/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestSetupWritesJSONToLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.IsProduction = true
	cfg.GitCommit = "c0ffee"
	cfg.GitTag = "v0.3.1"
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "bookshelf.log")

	logger, flush, err := Setup(cfg)
	require.NoError(t, err)

	logger.Info("book added", zap.String("book.isbn", "9780451524935"))
	logger.Debug("hidden at info level")
	flush()

	content, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "book added", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "9780451524935", entry["book.isbn"])
	assert.Equal(t, "c0ffee", entry["app.commit"])
	assert.Equal(t, "v0.3.1", entry["app.tag"])
	assert.Contains(t, entry, "timestamp")
}

func TestSetupWithoutLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = zapcore.WarnLevel

	logger, flush, err := Setup(cfg)
	require.NoError(t, err)
	defer flush()

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}
