package heuristics

import (
	"strings"
	"testing"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/stretchr/testify/assert"
)

func evaluate(text string) Report {
	return NewEvaluator().Evaluate(&core.Event{AuthorID: "a", Text: text, Timestamp: 1}, core.DefaultThresholds())
}

func triggered(r Report, name string) bool {
	res, ok := r.Get(name)
	return ok && res.Triggered
}

func TestNormalSentenceTriggersNothing(t *testing.T) {
	assert := assert.New(t)

	r := evaluate("Hey everyone, the meeting moved to 3pm tomorrow!")
	assert.Empty(r.Triggered())
	assert.Len(r.Results, len(DefaultChecks()))
}

func TestPatternChecks(t *testing.T) {
	assert := assert.New(t)

	assert.True(triggered(evaluate("buy buy BUY buy! now"), RepeatedToken))
	assert.False(triggered(evaluate("buy buy buy now"), RepeatedToken))

	assert.True(triggered(evaluate("lol aaaaaa"), KeyboardMash))
	assert.False(triggered(evaluate("lol aaaaa"), KeyboardMash))

	assert.True(triggered(evaluate("hi"+strings.Repeat(" ", 10)+"there"), Whitespace))
	assert.False(triggered(evaluate("hi"+strings.Repeat(" ", 9)+"there"), Whitespace))

	assert.True(triggered(evaluate("h\u0336\u0337\u0338e\u0336\u0337\u0338y"), Zalgo))
	// precomposed accents are not zalgo
	assert.False(triggered(evaluate("créme brûlée"), Zalgo))

	assert.True(triggered(evaluate("fr\u200bee ni\u200btro\u2060"), Invisible))
	// zero width joiner inside an emoji sequence is not counted
	assert.False(triggered(evaluate("\U0001F468\u200d\U0001F469\u200d\U0001F467 family"), Invisible))
}

func TestMentionBurst(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(5, LongestMentionRun("<@1> <@!2> <@&3> @everyone @bob hello"))
	assert.Equal(2, LongestMentionRun("@a @b hi @c hi @d"))
	assert.True(triggered(evaluate("<@1><@2><@3><@4><@5>"), MentionBurst))
	assert.False(triggered(evaluate("@a @b hello @c @d"), MentionBurst))

	// the event's own mention count also counts
	r := NewEvaluator().Evaluate(&core.Event{AuthorID: "a", Text: "hi", MentionCount: 6, Timestamp: 1}, core.DefaultThresholds())
	assert.True(triggered(r, MentionBurst))
}

func TestEmojiBurst(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(3, CountEmoji("🔥 <:pog:123> <a:dance:456>"))
	// a flag is one grapheme
	assert.Equal(1, CountEmoji("🇫🇷"))
	assert.True(triggered(evaluate(strings.Repeat("🔥", 10)), EmojiBurst))
	assert.False(triggered(evaluate(strings.Repeat("🔥", 9)), EmojiBurst))
}

func TestCapsRatio(t *testing.T) {
	assert := assert.New(t)

	assert.True(triggered(evaluate("FREE NITRO CLICK HERE"), CapsRatio))
	// short shouting is ignored
	assert.False(triggered(evaluate("OMG WOW"), CapsRatio))
	assert.False(triggered(evaluate("1234567890!!"), CapsRatio))
}

func TestLinksAndLength(t *testing.T) {
	assert := assert.New(t)

	links := "https://a.com http://b.org www.c.net https://d.io"
	assert.Len(ExtractURLs(links), 4)
	assert.True(triggered(evaluate(links), LinkCount))
	assert.False(triggered(evaluate("see https://a.com and www.b.com"), LinkCount))

	assert.True(triggered(evaluate(strings.Repeat("ab ", 700)), Length))
	// graphemes, not bytes
	assert.Equal(3, GraphemeLength("e\u0301\U0001F1EB\U0001F1F7a"))
	assert.False(triggered(evaluate(strings.Repeat("é", 2000)), Length))
}

func TestByCategoryAndExtraChecks(t *testing.T) {
	assert := assert.New(t)

	custom := Check{
		Name:     "always",
		Category: CategoryPattern,
		Run:      func(*Input, core.Thresholds) (bool, float64) { return true, 1 },
	}
	e := NewEvaluator(custom)
	assert.Equal("always", e.Names()[len(e.Names())-1])

	r := e.Evaluate(&core.Event{AuthorID: "a", Text: "aaaaaaa", Timestamp: 1}, core.DefaultThresholds())
	assert.Len(r.ByCategory(CategoryPattern), 2)
	assert.Empty(r.ByCategory(CategoryLink))
	assert.Equal("pattern", CategoryPattern.String())
}
