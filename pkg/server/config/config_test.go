package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7080", cfg.Addr)
	assert.Equal(t, 15*time.Second, cfg.MaxIdle)
	assert.Equal(t, 8<<20, cfg.CopyBuffer)
	assert.Equal(t, "./test/video.m4s", cfg.Resource)
	assert.Equal(t, "https://www.bilibili.com", cfg.AllowOrigin)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bvcd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: 0.0.0.0:9090\nmax_idle: 30s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.MaxIdle)
	assert.Equal(t, 8<<20, cfg.CopyBuffer, "unset keys keep their defaults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BVCD_ADDR", "127.0.0.1:1234")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:1234", cfg.Addr)
}
