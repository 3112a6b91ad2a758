package similarity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityEdgeCases(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(1.0, Similarity("", ""))
	assert.Equal(0.0, Similarity("x", ""))
	assert.Equal(0.0, Similarity("", "x"))
	assert.Equal(0.0, Similarity("abc", "xyz"))
}

func TestSimilarityIdentityAndSymmetry(t *testing.T) {
	assert := assert.New(t)

	texts := []string{
		"buy",
		"hello world",
		"FREE NITRO click here",
		"héllo wörld",
		"🔥🔥🔥 drop 🔥🔥🔥",
		strings.Repeat("spam ", 300),
	}
	for _, a := range texts {
		assert.Equal(1.0, Similarity(a, a), a)
		for _, b := range texts {
			assert.Equal(Similarity(a, b), Similarity(b, a), "%q vs %q", a, b)
		}
	}
}

func TestSimilarityValues(t *testing.T) {
	assert := assert.New(t)

	// one substitution over four runes
	assert.InDelta(0.75, Similarity("buy!", "buy?"), 1e-9)
	// kitten -> sitting is distance 3 over 7
	assert.InDelta(1-3.0/7.0, Similarity("kitten", "sitting"), 1e-9)
	// runes, not bytes
	assert.InDelta(0.8, Similarity("héllo", "hello"), 1e-9)
}

func TestSimilarityTruncatesLongInputs(t *testing.T) {
	assert := assert.New(t)

	base := strings.Repeat("a", MaxCompareLength)
	// differences beyond the cap are not compared
	assert.Equal(1.0, Similarity(base+"xyz", base+"123456"))
}
