package tracker

import (
	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/history"
	"github.com/mikey/chat-spam-guard/internal/similarity"
)

// Result is the outcome of one windowed check
type Result struct {
	Flagged bool
	Count   int
}

// Frequency counts the author's events in the last TimeWindow, including the
// in-flight event that the caller appends once the decision is made.
func Frequency(tx *history.Tx[core.HistoryEntry], now int64, t core.Thresholds) Result {
	count := 1
	for range tx.Since(now - t.TimeWindow.Milliseconds()) {
		count++
	}
	return Result{Flagged: count > t.MaxMessages, Count: count}
}

// Duplicate counts the author's recent events whose text is at least
// DuplicateSimilarity close to text. The in-flight event counts as one.
func Duplicate(tx *history.Tx[core.HistoryEntry], text string, now int64, t core.Thresholds) Result {
	count := 1
	for prior := range tx.Since(now - t.DuplicateWindow.Milliseconds()) {
		if similarity.Similarity(text, prior.Text) >= t.DuplicateSimilarity {
			count++
		}
	}
	return Result{Flagged: count >= t.MaxDuplicates, Count: count}
}

// ChannelFlood records the author's event in the channel and counts how many
// of the channel's events in the last ChannelWindow belong to that author.
func ChannelFlood(tx *history.Tx[core.ChannelEntry], authorID string, now int64, t core.Thresholds) Result {
	tx.Append(core.ChannelEntry{AuthorID: authorID, Timestamp: now})
	count := 0
	for e := range tx.Since(now - t.ChannelWindow.Milliseconds()) {
		if e.AuthorID == authorID {
			count++
		}
	}
	return Result{Flagged: count > t.ChannelMaxPerAuthor, Count: count}
}

// Tracker answers windowed questions about authors and channels on its own,
// taking the key lock for each call. Scoring combines the same checks inside
// a single author critical section instead.
type Tracker struct {
	authors  *history.Store[core.HistoryEntry]
	channels *history.Store[core.ChannelEntry]
}

// New creates a tracker over the given stores
func New(authors *history.Store[core.HistoryEntry], channels *history.Store[core.ChannelEntry]) *Tracker {
	return &Tracker{authors: authors, channels: channels}
}

// IsFlooding reports whether one more event from authorID at now exceeds MaxMessages
func (tr *Tracker) IsFlooding(authorID string, now int64, t core.Thresholds) (bool, int) {
	var res Result
	tr.authors.Update(authorID, func(tx *history.Tx[core.HistoryEntry]) {
		res = Frequency(tx, now, t)
	})
	return res.Flagged, res.Count
}

// IsDuplicateFlood reports whether text would be the MaxDuplicates-th near copy
func (tr *Tracker) IsDuplicateFlood(authorID, text string, now int64, t core.Thresholds) (bool, int) {
	var res Result
	tr.authors.Update(authorID, func(tx *history.Tx[core.HistoryEntry]) {
		res = Duplicate(tx, text, now, t)
	})
	return res.Flagged, res.Count
}

// IsChannelFlood records authorID's event in channelID and reports whether
// the author exceeds ChannelMaxPerAuthor there
func (tr *Tracker) IsChannelFlood(channelID, authorID string, now int64, t core.Thresholds) (bool, int) {
	var res Result
	tr.channels.Update(channelID, func(tx *history.Tx[core.ChannelEntry]) {
		res = ChannelFlood(tx, authorID, now, t)
	})
	return res.Flagged, res.Count
}

// Record appends a scored event to the author's history
func (tr *Tracker) Record(authorID string, entry core.HistoryEntry) {
	tr.authors.Append(authorID, entry)
}
