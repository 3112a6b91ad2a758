package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestDefaultsMatchDefaultThresholds(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	got, err := cfg.GetThresholds()
	require.NoError(t, err)
	assert.Equal(t, core.DefaultThresholds(), got)

	h, err := cfg.GetHistory()
	require.NoError(t, err)
	assert.Equal(t, 100, h.Capacity)
	assert.Equal(t, time.Hour, h.Retention)
	assert.Equal(t, 10*time.Second, h.ChannelRetention)

	rep, err := cfg.GetReputation()
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, rep.Timeout)
	assert.Equal(t, "none", rep.Type)

	sink, err := cfg.GetSink()
	require.NoError(t, err)
	assert.Equal(t, []string{"log"}, sink.Types)
	assert.True(t, sink.DropOnFull)

	assert.Equal(t, 16, cfg.GetEngine().Workers)
	assert.Equal(t, 16384, cfg.GetSource().MaxTextBytes)
}

func TestNewReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, `
thresholds:
  max_messages: 8
  time_window: 3s
reputation:
  type: sqlite
  timeout: 20ms
allowlist:
  authors: [mod-1, mod-2]
`)

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile())

	th, err := cfg.GetThresholds()
	require.NoError(t, err)
	assert.Equal(t, 8, th.MaxMessages)
	assert.Equal(t, 3*time.Second, th.TimeWindow)
	assert.Equal(t, 3, th.MaxDuplicates)

	rep, err := cfg.GetReputation()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", rep.Type)
	assert.Equal(t, 20*time.Millisecond, rep.Timeout)

	assert.Equal(t, []string{"mod-1", "mod-2"}, cfg.GetAllowlist().Authors)
}

func TestGetThresholdsRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "thresholds:\n  max_mentions: 0\n")

	cfg, err := New(path)
	require.NoError(t, err)
	_, err = cfg.GetThresholds()
	var ce *core.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "max_mentions", ce.Field)

	writeConfig(t, path, "thresholds:\n  time_window: later\n")
	cfg, err = New(path)
	require.NoError(t, err)
	_, err = cfg.GetThresholds()
	assert.ErrorContains(t, err, "thresholds.time_window")
}

func TestThresholdsWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "thresholds:\n  max_messages: 5\n")

	store, err := core.NewThresholdStore(core.DefaultThresholds())
	require.NoError(t, err)

	w := NewThresholdsWatcher(path, store, zap.NewNop())
	stop, err := w.Watch()
	require.NoError(t, err)
	defer stop()

	writeConfig(t, path, "thresholds:\n  max_messages: 12\n")
	require.Eventually(t, func() bool {
		return store.Load().MaxMessages == 12
	}, 5*time.Second, 10*time.Millisecond)

	// invalid content keeps the previous thresholds
	writeConfig(t, path, "thresholds:\n  max_messages: -1\n")
	_, err = w.Reload()
	assert.Error(t, err)
	assert.Equal(t, 12, store.Load().MaxMessages)
}
