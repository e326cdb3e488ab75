package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	require.NotNil(t, l)
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestLevelAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("builder", &buf, zerolog.InfoLevel)
	l.Debugf("hidden")
	l.Infof("built %d rows", 12)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "builder", rec["component"])
	assert.Equal(t, "built 12 rows", rec["message"])
	assert.Equal(t, "info", rec["level"])
}

func TestConfigureFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eosched.log")
	require.NoError(t, Configure(Options{Level: "debug", File: path, MaxSizeMB: 1}))
	t.Cleanup(func() { _ = Configure(Options{}) })

	New("solver").Debugw("node", map[string]any{"depth": 3})
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"depth":3`)

	assert.Error(t, Configure(Options{Level: "loud"}))
}
