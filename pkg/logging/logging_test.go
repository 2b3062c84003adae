package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockcache.log")

	logger, err := New(Config{Level: "info", File: path})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("lock granted", zap.Int64("lock_id", 7))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"lock granted"`)
	assert.Contains(t, string(data), `"lock_id":7`)
	assert.NotContains(t, string(data), "hidden")
}
