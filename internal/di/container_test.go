package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCLIContainerScoresEvents(t *testing.T) {
	container, err := BuildCLIContainer(&CLIFlags{ReputationType: "memory"})
	require.NoError(t, err)

	err = container.Invoke(func(e *engine.Engine) error {
		defer e.Close()
		v, err := e.Evaluate(context.Background(), &core.Event{AuthorID: "u1", Text: "hello there", Timestamp: 1000})
		if err != nil {
			return err
		}
		assert.False(t, v.IsSpam)
		assert.Equal(t, 1.0, v.RiskModifier)
		assert.Empty(t, v.Degraded)
		return nil
	})
	require.NoError(t, err)
}

func TestBuildContainerResolvesService(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen_address: 127.0.0.1:0
checkpoint:
  type: sqlite
  sqlite_path: `+filepath.Join(dir, "cp.db")+`
logging:
  level: error
`), 0o644))

	container, err := BuildContainer(path)
	require.NoError(t, err)

	err = container.Invoke(func(svc Service) {
		defer svc.Dispatcher.Stop()
		assert.NotNil(t, svc.Engine)
		assert.NotNil(t, svc.Checkpoints)
		assert.NotNil(t, svc.CheckpointStore)
		assert.Nil(t, svc.ReputationStore)
		require.Len(t, svc.Sources, 1)
		assert.Equal(t, "http", svc.Sources[0].Name())
		assert.Equal(t, path, svc.Config.ConfigFile())

		assert.NoError(t, svc.Checkpoints.Restore(context.Background()))
		assert.NoError(t, svc.Sink.Close())
		assert.NoError(t, svc.CheckpointStore.Close())
	})
	require.NoError(t, err)
}
