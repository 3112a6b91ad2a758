package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/stretchr/testify/assert"
)

func entry(text string, ts int64) core.HistoryEntry {
	return core.HistoryEntry{Text: text, Timestamp: ts}
}

func TestStoreAppendAndSince(t *testing.T) {
	assert := assert.New(t)
	s := NewStore[core.HistoryEntry](10)

	assert.Empty(s.Since("alice", 0))
	assert.Equal(0, s.Keys())

	for i := int64(1); i <= 5; i++ {
		s.Append("alice", entry("m", i*1000))
	}
	assert.Equal(1, s.Keys())
	assert.Equal(5, s.Len("alice"))

	// cutoff is inclusive
	got := s.Since("alice", 3000)
	assert.Len(got, 3)
	assert.Equal(int64(3000), got[0].Timestamp)
	assert.Equal(int64(5000), got[2].Timestamp)

	// reads never create keys
	assert.Empty(s.Since("bob", 0))
	assert.Equal(1, s.Keys())
}

func TestStoreCapacityDropsOldest(t *testing.T) {
	assert := assert.New(t)
	s := NewStore[core.HistoryEntry](3)

	dropped := 0
	for i := int64(1); i <= 5; i++ {
		dropped += s.Update("alice", func(tx *Tx[core.HistoryEntry]) {
			tx.Append(entry(fmt.Sprintf("m%d", i), i))
		})
	}
	assert.Equal(2, dropped)

	got := s.Since("alice", 0)
	assert.Len(got, 3)
	assert.Equal("m3", got[0].Text)
	assert.Equal("m5", got[2].Text)
}

func TestStoreClampsOutOfOrderTimestamps(t *testing.T) {
	assert := assert.New(t)
	s := NewStore[core.HistoryEntry](10)

	s.Append("alice", entry("a", 5000))
	s.Append("alice", entry("b", 4000))

	got := s.Since("alice", 0)
	assert.Len(got, 2)
	assert.Equal(int64(5000), got[1].Timestamp)
}

func TestTxSinceIsLazyAndReadOnly(t *testing.T) {
	assert := assert.New(t)
	s := NewStore[core.HistoryEntry](10)
	for i := int64(1); i <= 4; i++ {
		s.Append("alice", entry("m", i))
	}

	s.Update("alice", func(tx *Tx[core.HistoryEntry]) {
		seen := 0
		for range tx.Since(2) {
			seen++
			if seen == 1 {
				break
			}
		}
		assert.Equal(1, seen)
		assert.Equal(4, tx.Len())
	})
	assert.Equal(4, s.Len("alice"))
}

func TestEvictExpiredRemovesEmptyKeys(t *testing.T) {
	assert := assert.New(t)
	s := NewStore[core.HistoryEntry](10)

	s.Append("alice", entry("old", 1000))
	s.Append("alice", entry("new", 9000))
	s.Append("bob", entry("old", 2000))

	entries, keys := s.EvictExpired(5000)
	assert.Equal(2, entries)
	assert.Equal(1, keys)
	assert.Equal(1, s.Keys())
	assert.Equal(0, s.Len("bob"))
	assert.Equal(1, s.Len("alice"))

	// a key evicted to empty comes back on the next append
	s.Append("bob", entry("again", 10000))
	assert.Equal(1, s.Len("bob"))
}

func TestSnapshotRestore(t *testing.T) {
	assert := assert.New(t)
	s := NewStore[core.ChannelEntry](10)
	s.Append("general", core.ChannelEntry{AuthorID: "a", Timestamp: 1})
	s.Append("general", core.ChannelEntry{AuthorID: "b", Timestamp: 2})

	snap := s.Snapshot()
	assert.Len(snap["general"], 2)

	restored := NewStore[core.ChannelEntry](10)
	restored.Restore(snap)
	assert.Equal(snap, restored.Snapshot())
}

func TestStoreConcurrentAppendAndEvict(t *testing.T) {
	s := NewStore[core.HistoryEntry](1000)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			key := fmt.Sprintf("author-%d", w%4)
			for i := 0; i < 200; i++ {
				s.Append(key, entry("x", int64(i+1)))
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			s.EvictExpired(0)
		}
	}()
	wg.Wait()

	total := 0
	for k := 0; k < 4; k++ {
		total += s.Len(fmt.Sprintf("author-%d", k))
	}
	assert.Equal(t, 8*200, total)
}

func TestStoreNewestSurvivesEviction(t *testing.T) {
	assert := assert.New(t)
	s := NewStore[core.HistoryEntry](10)
	assert.Zero(s.Newest())
	assert.Equal(10, s.Capacity())

	s.Append("a", core.HistoryEntry{Timestamp: 300})
	s.Append("b", core.HistoryEntry{Timestamp: 200})
	assert.Equal(int64(300), s.Newest())

	s.EvictExpired(1000)
	assert.Zero(s.Keys())
	assert.Equal(int64(300), s.Newest())
}
