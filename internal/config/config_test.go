package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskcalc/internal/config"
)

func clearCalculatorEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CALCULATOR_BASE_DIR", "CALCULATOR_MAX_HISTORY_SIZE", "CALCULATOR_PRECISION",
		"CALCULATOR_MAX_INPUT_VALUE", "CALCULATOR_AUTO_SAVE", "CALCULATOR_DEFAULT_ENCODING",
		"CALCULATOR_LOG_DIR", "CALCULATOR_LOG_FILE", "CALCULATOR_HISTORY_DIR",
		"CALCULATOR_HISTORY_FILE", "CALCULATOR_DATABASE_PATH", "CALC_SERVICE_PORT",
	} {
		// t.Setenv registers the restore cleanup; the unset makes the
		// variable truly absent rather than empty.
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearCalculatorEnv(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CALCULATOR_PRECISION=4\nCALCULATOR_AUTO_SAVE=false\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Precision)
	assert.False(t, cfg.AutoSave)
}

func TestParseDefaults(t *testing.T) {
	clearCalculatorEnv(t)

	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.MaxHistorySize)
	assert.Equal(t, 10, cfg.Precision)
	assert.True(t, cfg.AutoSave)
	assert.Equal(t, "utf-8", cfg.DefaultEncoding)
	assert.Equal(t, "./calculator.db", cfg.DatabasePath)
	assert.Equal(t, "8082", cfg.ServerPort)
	assert.True(t, cfg.MaxInputValue.IsPositive())
}

func TestParseOverrides(t *testing.T) {
	clearCalculatorEnv(t)
	t.Setenv("CALCULATOR_MAX_HISTORY_SIZE", "5")
	t.Setenv("CALCULATOR_AUTO_SAVE", "false")
	t.Setenv("CALCULATOR_MAX_INPUT_VALUE", "1000")
	t.Setenv("CALCULATOR_PRECISION", "2")

	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxHistorySize)
	assert.False(t, cfg.AutoSave)
	assert.Equal(t, 2, cfg.Precision)
	assert.Equal(t, "1000", cfg.MaxInputValue.String())
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero history size", "CALCULATOR_MAX_HISTORY_SIZE", "0"},
		{"negative history size", "CALCULATOR_MAX_HISTORY_SIZE", "-3"},
		{"zero precision", "CALCULATOR_PRECISION", "0"},
		{"negative max input", "CALCULATOR_MAX_INPUT_VALUE", "-1"},
		{"unparsable max input", "CALCULATOR_MAX_INPUT_VALUE", "huge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearCalculatorEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Parse()
			assert.Error(t, err)
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	clearCalculatorEnv(t)
	t.Setenv("CALCULATOR_BASE_DIR", "/tmp/calc")

	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/tmp/calc", "logs"), cfg.LogDirPath())
	assert.Equal(t, filepath.Join("/tmp/calc", "logs", "calculator.log"), cfg.LogFilePath())
	assert.Equal(t, filepath.Join("/tmp/calc", "history"), cfg.HistoryDirPath())
	assert.Equal(t, filepath.Join("/tmp/calc", "history", "calculator_history.csv"), cfg.HistoryFilePath())
}

func TestExplicitPathsWin(t *testing.T) {
	clearCalculatorEnv(t)
	t.Setenv("CALCULATOR_BASE_DIR", "/tmp/calc")
	t.Setenv("CALCULATOR_HISTORY_FILE", "/srv/history.csv")
	t.Setenv("CALCULATOR_LOG_DIR", "/var/log/calc")

	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, "/srv/history.csv", cfg.HistoryFilePath())
	assert.Equal(t, filepath.Join("/var/log/calc", "calculator.log"), cfg.LogFilePath())
}
