package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(&logger, path)
	require.NoError(t, err)
	require.Equal(t, path, resolved)
	require.FileExists(t, path)

	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, 4, cfg.MaxOutside)
	require.Equal(t, 2*time.Minute, cfg.ClaimTimeout)
	require.Equal(t, 30, cfg.MaxNameLength)
}

func TestLoadReadsFileAndEnv(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")

	file := "addr: \":9090\"\nmax_outside: 2\nclaim_timeout: 30s\n"
	require.NoError(t, os.WriteFile(path, []byte(file), 0o600))

	t.Setenv("OUTPASS_MAX_OUTSIDE", "7")

	cfg, _, err := Load(&logger, path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, 30*time.Second, cfg.ClaimTimeout)
	require.Equal(t, 7, cfg.MaxOutside, "env overrides the config file")
	require.Equal(t, "info", cfg.LogLevel, "untouched keys keep defaults")
}
