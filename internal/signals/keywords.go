package signals

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/mikey/chat-spam-guard/internal/core"
	"gopkg.in/yaml.v3"
)

// KeywordSignalName is the registry name of the keyword density signal
const KeywordSignalName = "keyword_density"

// Keyword is one suspicious phrase and the score it adds when present
type Keyword struct {
	Phrase string  `yaml:"phrase"`
	Weight float64 `yaml:"weight"`
}

type keywordFile struct {
	Keywords []Keyword `yaml:"keywords"`
}

// LoadKeywords reads a YAML keyword list of the form
//
//	keywords:
//	  - phrase: free nitro
//	    weight: 0.2
func LoadKeywords(path string) ([]Keyword, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword file: %w", err)
	}
	var f keywordFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse keyword file %s: %w", path, err)
	}
	return f.Keywords, nil
}

// KeywordSignal scores text by the suspicious phrases it contains. Each
// distinct phrase counts once.
type KeywordSignal struct {
	// ahocorasick.Matcher keeps per-call state and is not safe for concurrent Match
	mu       sync.Mutex
	matcher  *ahocorasick.Matcher
	keywords []Keyword
}

// NewKeywordSignal builds the matcher. Phrases without a weight use defaultWeight.
func NewKeywordSignal(keywords []Keyword, defaultWeight float64) *KeywordSignal {
	kept := make([]Keyword, 0, len(keywords))
	patterns := make([][]byte, 0, len(keywords))
	for _, k := range keywords {
		phrase := strings.ToLower(strings.TrimSpace(k.Phrase))
		if phrase == "" {
			continue
		}
		if k.Weight <= 0 {
			k.Weight = defaultWeight
		}
		k.Phrase = phrase
		kept = append(kept, k)
		patterns = append(patterns, []byte(phrase))
	}
	return &KeywordSignal{
		matcher:  ahocorasick.NewMatcher(patterns),
		keywords: kept,
	}
}

// NewKeywordSignalFromStrings uses the same weight for every phrase
func NewKeywordSignalFromStrings(phrases []string, weight float64) *KeywordSignal {
	keywords := make([]Keyword, len(phrases))
	for i, p := range phrases {
		keywords[i] = Keyword{Phrase: p, Weight: weight}
	}
	return NewKeywordSignal(keywords, weight)
}

// Name implements core.Signal
func (k *KeywordSignal) Name() string {
	return KeywordSignalName
}

// Score implements core.Signal
func (k *KeywordSignal) Score(ctx context.Context, event *core.Event) (float64, error) {
	if len(k.keywords) == 0 || event.Text == "" {
		return 0, nil
	}
	text := []byte(strings.ToLower(event.Text))

	k.mu.Lock()
	hits := k.matcher.Match(text)
	k.mu.Unlock()

	score := 0.0
	for _, hit := range hits {
		score += k.keywords[hit].Weight
	}
	return score, nil
}

// Phrases returns the normalized phrases being matched
func (k *KeywordSignal) Phrases() []string {
	out := make([]string, len(k.keywords))
	for i, kw := range k.keywords {
		out[i] = kw.Phrase
	}
	return out
}
