package checkpoint

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
	err  error
}

func (m *memoryStore) Save(ctx context.Context, namespace string, blobs map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.data == nil {
		m.data = make(map[string]map[string][]byte)
	}
	m.data[namespace] = blobs
	return nil
}

func (m *memoryStore) Load(ctx context.Context, namespace string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	blobs, ok := m.data[namespace]
	if !ok {
		return nil, core.ErrNoCheckpoint
	}
	return blobs, nil
}

func (m *memoryStore) Close() error { return nil }

func TestCodecRoundTrip(t *testing.T) {
	in := map[string][]core.HistoryEntry{
		"alice": {{Text: "hi", Timestamp: 1, Score: 0}, {Text: "héllo 🔥", Timestamp: 2, Score: 0.7}},
	}
	blobs, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode[core.HistoryEntry](blobs)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = Decode[core.HistoryEntry](map[string][]byte{"bad": []byte("not zstd")})
	assert.Error(t, err)
}

func TestManagerSaveRestore(t *testing.T) {
	assert := assert.New(t)
	store := &memoryStore{}

	authors := history.NewStore[core.HistoryEntry](10)
	channels := history.NewStore[core.ChannelEntry](10)
	authors.Append("alice", core.HistoryEntry{Text: "buy", Timestamp: 100, Score: 0.3})
	channels.Append("general", core.ChannelEntry{AuthorID: "alice", Timestamp: 100})

	m := NewManager(store, authors, channels, 0, zap.NewNop())
	require.NoError(t, m.Save(context.Background()))

	restoredAuthors := history.NewStore[core.HistoryEntry](10)
	restoredChannels := history.NewStore[core.ChannelEntry](10)
	r := NewManager(store, restoredAuthors, restoredChannels, 0, zap.NewNop())
	require.NoError(t, r.Restore(context.Background()))

	assert.Equal(authors.Snapshot(), restoredAuthors.Snapshot())
	assert.Equal(channels.Snapshot(), restoredChannels.Snapshot())
}

func TestRestoreColdStart(t *testing.T) {
	authors := history.NewStore[core.HistoryEntry](10)
	m := NewManager(&memoryStore{}, authors, history.NewStore[core.ChannelEntry](10), 0, zap.NewNop())

	assert.NoError(t, m.Restore(context.Background()))
	assert.Zero(t, authors.Keys())
}

func TestRestoreSurfacesStoreErrors(t *testing.T) {
	m := NewManager(&memoryStore{err: errors.New("disk gone")}, history.NewStore[core.HistoryEntry](10),
		history.NewStore[core.ChannelEntry](10), 0, zap.NewNop())

	assert.Error(t, m.Restore(context.Background()))
	assert.Error(t, m.Save(context.Background()))
}
