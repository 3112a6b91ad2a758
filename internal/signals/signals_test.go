package signals

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	assert := assert.New(t)
	r := NewRegistry()

	assert.NoError(r.Register(NewKeywordSignalFromStrings([]string{"x"}, 0.1)))
	assert.Error(r.Register(NewKeywordSignalFromStrings([]string{"y"}, 0.1)))
	assert.Equal([]string{KeywordSignalName}, r.Names())
	assert.Equal(1, r.Len())

	_, err := r.Get("missing")
	assert.Error(err)
	s, err := r.Get(KeywordSignalName)
	assert.NoError(err)
	assert.Equal(KeywordSignalName, s.Name())
}

func TestKeywordSignalScoresDistinctPhrases(t *testing.T) {
	assert := assert.New(t)
	sig := NewKeywordSignal([]Keyword{
		{Phrase: "Free Nitro", Weight: 0.2},
		{Phrase: "airdrop"},
		{Phrase: "  "},
	}, 0.05)
	assert.Equal([]string{"free nitro", "airdrop"}, sig.Phrases())

	score, err := sig.Score(context.Background(), &core.Event{Text: "FREE NITRO and free nitro airdrop"})
	assert.NoError(err)
	assert.InDelta(0.25, score, 1e-9)

	score, err = sig.Score(context.Background(), &core.Event{Text: "good morning"})
	assert.NoError(err)
	assert.Zero(score)
}

func TestKeywordSignalConcurrentScore(t *testing.T) {
	sig := NewKeywordSignalFromStrings([]string{"crypto", "giveaway"}, 0.1)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				score, _ := sig.Score(context.Background(), &core.Event{Text: "crypto giveaway now"})
				assert.InDelta(t, 0.2, score, 1e-9)
			}
		}()
	}
	wg.Wait()
}

func TestLoadKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords:\n  - phrase: free nitro\n    weight: 0.2\n  - phrase: steam gift\n"), 0o644))

	keywords, err := LoadKeywords(path)
	require.NoError(t, err)
	assert.Equal(t, []Keyword{{Phrase: "free nitro", Weight: 0.2}, {Phrase: "steam gift"}}, keywords)

	_, err = LoadKeywords(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
