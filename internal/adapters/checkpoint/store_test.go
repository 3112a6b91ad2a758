package checkpoint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSQLiteStore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "checkpoint.db"), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load(ctx, "authors")
	assert.ErrorIs(err, core.ErrNoCheckpoint)

	require.NoError(t, s.Save(ctx, "authors", map[string][]byte{"alice": {1, 2, 3}, "bob": {4}}))
	require.NoError(t, s.Save(ctx, "channels", map[string][]byte{"general": {9}}))

	blobs, err := s.Load(ctx, "authors")
	require.NoError(t, err)
	assert.Equal(map[string][]byte{"alice": {1, 2, 3}, "bob": {4}}, blobs)

	// a later save replaces the namespace and leaves others alone
	require.NoError(t, s.Save(ctx, "authors", map[string][]byte{"carol": {5}}))
	blobs, err = s.Load(ctx, "authors")
	require.NoError(t, err)
	assert.Equal(map[string][]byte{"carol": {5}}, blobs)

	blobs, err = s.Load(ctx, "channels")
	require.NoError(t, err)
	assert.Len(blobs, 1)
}
