package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mikey/chat-spam-guard/internal/config"
	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/signals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConfig(settings map[string]interface{}) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range settings {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestCreateReputationStore(t *testing.T) {
	logger := zap.NewNop()

	store, err := NewReputationFactory(newTestConfig(nil), logger).CreateReputationStore()
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = NewReputationFactory(newTestConfig(map[string]interface{}{
		"reputation.type":        "sqlite",
		"reputation.sqlite_path": filepath.Join(t.TempDir(), "nested", "rep.db"),
	}), logger).CreateReputationStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Lookup(context.Background(), "nobody")
	assert.ErrorIs(t, err, core.ErrUnknownAuthor)

	_, err = NewReputationFactory(newTestConfig(map[string]interface{}{
		"reputation.type": "carrier-pigeon",
	}), logger).CreateReputationStore()
	assert.ErrorContains(t, err, "unsupported reputation store type")
}

func TestCreateCheckpointStore(t *testing.T) {
	logger := zap.NewNop()

	store, err := NewCheckpointFactory(newTestConfig(nil), logger).CreateCheckpointStore()
	require.NoError(t, err)
	assert.Nil(t, store)

	f := NewCheckpointFactory(newTestConfig(map[string]interface{}{
		"checkpoint.type":        "sqlite",
		"checkpoint.sqlite_path": filepath.Join(t.TempDir(), "cp.db"),
		"checkpoint.interval":    "30s",
	}), logger)
	store, err = f.CreateCheckpointStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load(context.Background(), "authors")
	assert.ErrorIs(t, err, core.ErrNoCheckpoint)

	interval, err := f.CheckpointInterval()
	require.NoError(t, err)
	assert.Equal(t, "30s", interval.String())
}

func TestCreateSink(t *testing.T) {
	logger := zap.NewNop()

	s, err := NewSinkFactory(newTestConfig(nil), logger).CreateSink()
	require.NoError(t, err)
	assert.NoError(t, s.Publish(context.Background(), &core.Verdict{ID: "v", IsSpam: true, Indicators: []string{}}))
	assert.NoError(t, s.Close())

	_, err = NewSinkFactory(newTestConfig(map[string]interface{}{
		"sink.types": []string{"webhook"},
	}), logger).CreateSink()
	assert.ErrorContains(t, err, "sink.webhook_url")

	_, err = NewSinkFactory(newTestConfig(map[string]interface{}{
		"sink.types": []string{"log", "fax"},
	}), logger).CreateSink()
	assert.ErrorContains(t, err, "unsupported sink type")
}

func TestCreateRegistry(t *testing.T) {
	logger := zap.NewNop()

	r, err := NewSignalsFactory(newTestConfig(nil), logger).CreateRegistry()
	require.NoError(t, err)
	assert.Zero(t, r.Len())

	r, err = NewSignalsFactory(newTestConfig(map[string]interface{}{
		"signals.keywords": []string{"free nitro", "airdrop"},
	}), logger).CreateRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{signals.KeywordSignalName}, r.Names())

	_, err = NewSignalsFactory(newTestConfig(map[string]interface{}{
		"signals.keywords_file": filepath.Join(t.TempDir(), "missing.yaml"),
	}), logger).CreateRegistry()
	assert.Error(t, err)
}

func TestCreateEventSources(t *testing.T) {
	logger := zap.NewNop()
	processor := NewTextProcessorFactory(newTestConfig(nil), logger).CreateTextProcessor()

	sources, err := NewSourceFactory(newTestConfig(nil), logger, processor).CreateEventSources(nil, nil)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "http", sources[0].Name())

	_, err = NewSourceFactory(newTestConfig(map[string]interface{}{
		"server.enabled":           false,
		"source.websocket_enabled": true,
	}), logger, processor).CreateEventSources(nil, nil)
	assert.ErrorContains(t, err, "source.websocket_url")

	_, err = NewSourceFactory(newTestConfig(map[string]interface{}{
		"server.enabled": false,
	}), logger, processor).CreateEventSources(nil, nil)
	assert.ErrorContains(t, err, "no event source enabled")
}
