package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeReplayFiles puts two-frame replay and quiet config into temporary directory
func writeReplayFiles(t *testing.T) (replayPath, configPath string) {
	t.Helper()
	dir := t.TempDir()
	replayPath = filepath.Join(dir, "replay.yaml")
	require.NoError(t, os.WriteFile(replayPath, []byte(`
frames:
  - detections:
      - {x: 100, y: 100, r: 30}
  - detections:
      - {x: 105, y: 103, r: 30}
`), 0o600))
	configPath = filepath.Join(dir, "buoytrack.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: error\n"), 0o600))
	return replayPath, configPath
}

func TestReplayCommand(t *testing.T) {
	replayPath, configPath := writeReplayFiles(t)
	err := newApp().Run([]string{"buoytrack", "--config", configPath, "replay", "--file", replayPath})
	assert.NoError(t, err)
}

func TestReplayCommandInterrupted(t *testing.T) {
	replayPath, configPath := writeReplayFiles(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newApp().RunContext(ctx, []string{"buoytrack", "--config", configPath, "replay", "--file", replayPath})
	assert.NoError(t, err)
}

func TestReplayCommandErrors(t *testing.T) {
	err := newApp().Run([]string{"buoytrack", "--log-level", "error", "replay", "--file", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	err = newApp().Run([]string{"buoytrack", "--log-level", "shout", "replay", "--file", "whatever.yaml"})
	assert.Error(t, err)
}
