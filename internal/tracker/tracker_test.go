package tracker

import (
	"fmt"
	"testing"
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/history"
	"github.com/stretchr/testify/assert"
)

func newTracker() *Tracker {
	return New(history.NewStore[core.HistoryEntry](100), history.NewStore[core.ChannelEntry](100))
}

func TestFrequencyFlagsOneOverLimit(t *testing.T) {
	assert := assert.New(t)
	th := core.DefaultThresholds()
	tr := newTracker()

	for i := 1; i <= th.MaxMessages+1; i++ {
		now := int64(1000 + i*100)
		flagged, count := tr.IsFlooding("alice", now, th)
		assert.Equal(i, count)
		assert.Equal(i == th.MaxMessages+1, flagged, "message %d", i)
		tr.Record("alice", core.HistoryEntry{Text: "hi", Timestamp: now})
	}
}

func TestFrequencySpacedBeyondWindowNeverFlags(t *testing.T) {
	assert := assert.New(t)
	th := core.DefaultThresholds()
	tr := newTracker()

	step := th.TimeWindow.Milliseconds() + 1
	for i := int64(1); i <= 20; i++ {
		now := i * step
		flagged, count := tr.IsFlooding("alice", now, th)
		assert.False(flagged)
		assert.Equal(1, count)
		tr.Record("alice", core.HistoryEntry{Text: "hi", Timestamp: now})
	}
}

func TestDuplicateFlagsOnMaxDuplicatesOccurrence(t *testing.T) {
	assert := assert.New(t)
	th := core.DefaultThresholds()
	tr := newTracker()

	for i := 1; i <= th.MaxDuplicates; i++ {
		now := int64(i * 1000)
		flagged, count := tr.IsDuplicateFlood("alice", "join my server", now, th)
		assert.Equal(i, count)
		assert.Equal(i == th.MaxDuplicates, flagged, "occurrence %d", i)
		tr.Record("alice", core.HistoryEntry{Text: "join my server", Timestamp: now})
	}
}

func TestDuplicateIgnoresDistinctTexts(t *testing.T) {
	assert := assert.New(t)
	th := core.DefaultThresholds()
	tr := newTracker()

	texts := []string{"good morning", "lunch at noon?", "see you later", "what a game", "brb"}
	for i, text := range texts {
		now := int64((i + 1) * 1000)
		flagged, count := tr.IsDuplicateFlood("alice", text, now, th)
		assert.False(flagged)
		assert.Equal(1, count)
		tr.Record("alice", core.HistoryEntry{Text: text, Timestamp: now})
	}
}

func TestDuplicateWindowIsIndependent(t *testing.T) {
	assert := assert.New(t)
	th := core.DefaultThresholds()
	th.DuplicateWindow = 30 * time.Second
	tr := newTracker()

	tr.Record("alice", core.HistoryEntry{Text: "spam", Timestamp: 1000})
	tr.Record("alice", core.HistoryEntry{Text: "spam", Timestamp: 2000})

	flagged, _ := tr.IsDuplicateFlood("alice", "spam", 20000, th)
	assert.True(flagged)
	flagged, count := tr.IsDuplicateFlood("alice", "spam", 40000, th)
	assert.False(flagged)
	assert.Equal(1, count)
}

func TestChannelFloodCountsOnlyCurrentAuthor(t *testing.T) {
	assert := assert.New(t)
	th := core.DefaultThresholds()
	tr := newTracker()

	for i := 0; i < 20; i++ {
		tr.IsChannelFlood("general", fmt.Sprintf("other-%d", i), int64(1000+i), th)
	}
	for i := 1; i <= th.ChannelMaxPerAuthor+1; i++ {
		flagged, count := tr.IsChannelFlood("general", "alice", int64(2000+i), th)
		assert.Equal(i, count)
		assert.Equal(i > th.ChannelMaxPerAuthor, flagged)
	}

	// outside the window the count starts again
	flagged, count := tr.IsChannelFlood("general", "alice", 2000+th.ChannelWindow.Milliseconds()+100, th)
	assert.False(flagged)
	assert.Equal(1, count)
}
