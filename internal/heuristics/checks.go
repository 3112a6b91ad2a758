package heuristics

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/rivo/uniseg"
)

// Check names, also used as indicator and metric labels
const (
	RepeatedToken = "repeated_token"
	KeyboardMash  = "keyboard_mash"
	Whitespace    = "whitespace_run"
	Zalgo         = "zalgo"
	Invisible     = "invisible_chars"
	MentionBurst  = "mention_burst"
	EmojiBurst    = "emoji_burst"
	CapsRatio     = "caps_ratio"
	LinkCount     = "link_count"
	Length        = "length"
)

var (
	urlRegex         = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s<>"]+`)
	mentionRegex     = regexp.MustCompile(`<@[!&]?\d+>|@(?:everyone|here)\b|@[\w.]+`)
	customEmojiRegex = regexp.MustCompile(`<a?:\w+:\d+>`)
)

// DefaultChecks returns the built-in checks in evaluation order
func DefaultChecks() []Check {
	return []Check{
		{Name: RepeatedToken, Category: CategoryPattern, Run: checkRepeatedToken},
		{Name: KeyboardMash, Category: CategoryPattern, Run: checkKeyboardMash},
		{Name: Whitespace, Category: CategoryPattern, Run: checkWhitespace},
		{Name: Zalgo, Category: CategoryPattern, Run: checkZalgo},
		{Name: Invisible, Category: CategoryPattern, Run: checkInvisible},
		{Name: MentionBurst, Category: CategoryMention, Run: checkMentions},
		{Name: EmojiBurst, Category: CategoryEmoji, Run: checkEmoji},
		{Name: CapsRatio, Category: CategoryCaps, Run: checkCaps},
		{Name: LinkCount, Category: CategoryLink, Run: checkLinks},
		{Name: Length, Category: CategoryLength, Run: checkLength},
	}
}

func checkRepeatedToken(in *Input, t core.Thresholds) (bool, float64) {
	run := LongestTokenRun(in.Text)
	return run >= t.RepeatedTokenRun, float64(run)
}

func checkKeyboardMash(in *Input, t core.Thresholds) (bool, float64) {
	run := longestRuneRun(in.Runes, func(r rune) bool { return !unicode.IsSpace(r) })
	return run >= t.MashRun, float64(run)
}

func checkWhitespace(in *Input, t core.Thresholds) (bool, float64) {
	longest, cur := 0, 0
	for _, r := range in.Runes {
		if unicode.IsSpace(r) {
			cur++
			if cur > longest {
				longest = cur
			}
			continue
		}
		cur = 0
	}
	return longest >= t.MaxWhitespaceRun, float64(longest)
}

func checkZalgo(in *Input, t core.Thresholds) (bool, float64) {
	total, marks := 0, 0
	for _, r := range in.NFC {
		total++
		if unicode.In(r, unicode.Mn, unicode.Me) {
			marks++
		}
	}
	if total == 0 || marks == 0 {
		return false, 0
	}
	ratio := float64(marks) / float64(total)
	return ratio > t.MaxCombiningRatio, ratio
}

func checkInvisible(in *Input, t core.Thresholds) (bool, float64) {
	n := CountInvisible(in.Runes)
	return n >= t.MaxInvisible, float64(n)
}

func checkMentions(in *Input, t core.Thresholds) (bool, float64) {
	n := LongestMentionRun(in.Text)
	if in.Event.MentionCount > n {
		n = in.Event.MentionCount
	}
	return n >= t.MaxMentions, float64(n)
}

func checkEmoji(in *Input, t core.Thresholds) (bool, float64) {
	n := CountEmoji(in.Text)
	return n >= t.MaxEmoji, float64(n)
}

func checkCaps(in *Input, t core.Thresholds) (bool, float64) {
	if len(in.Runes) < t.CapsMinLength {
		return false, 0
	}
	letters, upper := 0, 0
	for _, r := range in.Runes {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 {
		return false, 0
	}
	ratio := float64(upper) / float64(letters)
	return ratio > t.MaxCapsRatio, ratio
}

func checkLinks(in *Input, t core.Thresholds) (bool, float64) {
	n := len(ExtractURLs(in.Text))
	return n > t.MaxLinks, float64(n)
}

func checkLength(in *Input, t core.Thresholds) (bool, float64) {
	n := GraphemeLength(in.Text)
	return n > t.MaxLength, float64(n)
}

// ExtractURLs returns every hyperlink found in text
func ExtractURLs(text string) []string {
	return urlRegex.FindAllString(text, -1)
}

// LongestTokenRun returns the longest run of the same whitespace-separated
// token, compared case-insensitively and ignoring surrounding punctuation
func LongestTokenRun(text string) int {
	longest, cur := 0, 0
	prev := ""
	for _, tok := range strings.Fields(text) {
		tok = normalizeToken(tok)
		if tok == "" {
			prev, cur = "", 0
			continue
		}
		if tok == prev {
			cur++
		} else {
			prev, cur = tok, 1
		}
		if cur > longest {
			longest = cur
		}
	}
	return longest
}

// LongestMentionRun returns the longest sequence of mention tokens separated
// only by whitespace
func LongestMentionRun(text string) int {
	locs := mentionRegex.FindAllStringIndex(text, -1)
	longest, cur := 0, 0
	prevEnd := -1
	for _, loc := range locs {
		if prevEnd >= 0 && strings.TrimSpace(text[prevEnd:loc[0]]) == "" {
			cur++
		} else {
			cur = 1
		}
		if cur > longest {
			longest = cur
		}
		prevEnd = loc[1]
	}
	return longest
}

// CountEmoji counts unicode emoji graphemes and custom emoji tags
func CountEmoji(text string) int {
	n := len(customEmojiRegex.FindAllStringIndex(text, -1))
	gr := uniseg.NewGraphemes(customEmojiRegex.ReplaceAllString(text, " "))
	for gr.Next() {
		if isEmojiRune(gr.Runes()[0]) {
			n++
		}
	}
	return n
}

func isEmojiRune(r rune) bool {
	return (r >= 0x1F000 && r <= 0x1FFFF) ||
		(r >= 0x2600 && r <= 0x27BF) ||
		(r >= 0x2B00 && r <= 0x2BFF)
}

// GraphemeLength returns the number of user-perceived characters in text
func GraphemeLength(text string) int {
	n := 0
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		n++
	}
	return n
}

// CountInvisible counts zero-width and other invisible formatting characters.
// Joiners used inside emoji sequences and scripts are not counted.
func CountInvisible(runes []rune) int {
	n := 0
	for _, r := range runes {
		if isInvisible(r) {
			n++
		}
	}
	return n
}

func isInvisible(r rune) bool {
	switch {
	case r == 0x200B, r == 0x200E, r == 0x200F:
		return true
	case r >= 0x2060 && r <= 0x2064:
		return true
	case r == 0xFEFF, r == 0x180E, r == 0x00AD, r == 0x034F:
		return true
	case r >= 0xE0000 && r <= 0xE007F:
		return true
	}
	return false
}

func longestRuneRun(runes []rune, counted func(rune) bool) int {
	longest, cur := 0, 0
	var prev rune
	for i, r := range runes {
		if !counted(r) {
			cur = 0
			continue
		}
		if i > 0 && cur > 0 && r == prev {
			cur++
		} else {
			cur = 1
		}
		prev = r
		if cur > longest {
			longest = cur
		}
	}
	return longest
}
