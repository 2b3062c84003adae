package config

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Load registers on the global flag set, give every test a fresh one
func resetFlags(t *testing.T) {
	t.Helper()
	saved := flag.CommandLine
	flag.CommandLine = flag.NewFlagSet("lockcached", flag.ContinueOnError)
	flag.CommandLine.SetOutput(io.Discard)
	t.Cleanup(func() { flag.CommandLine = saved })
}

func TestLoadDefaults(t *testing.T) {
	resetFlags(t)
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFlags(t *testing.T) {
	resetFlags(t)
	id := uuid.New().String()
	cfg, err := Load([]string{
		"-node-id", id,
		"-grpc-addr", "127.0.0.1:9100",
		"-http-addr", "",
		"-log-level", "debug",
		"-callback-timeout", "250ms",
	})
	require.NoError(t, err)

	assert.Equal(t, id, cfg.NodeID)
	assert.Equal(t, "127.0.0.1:9100", cfg.GRPCAddr)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.CallbackTimeout)
	assert.Equal(t, id, cfg.ResolveNodeID().String())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOCKCACHE_GRPC_ADDR", "127.0.0.1:9200")
	t.Setenv("LOCKCACHE_LOG_LEVEL", "warn")
	resetFlags(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9200", cfg.GRPCAddr)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty grpc addr", func(c *Config) { c.GRPCAddr = "" }},
		{"bad grpc addr", func(c *Config) { c.GRPCAddr = "nope" }},
		{"bad http addr", func(c *Config) { c.HTTPAddr = "nope" }},
		{"bad node id", func(c *Config) { c.NodeID = "node-1" }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"negative timeout", func(c *Config) { c.CallbackTimeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestResolveNodeIDGenerates(t *testing.T) {
	cfg := Default()
	id := cfg.ResolveNodeID()
	assert.NotEqual(t, uuid.Nil, id)
}
