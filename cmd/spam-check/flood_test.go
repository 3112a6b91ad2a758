package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/history"
	"github.com/mikey/chat-spam-guard/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayFloods(t *testing.T) {
	assert := assert.New(t)
	tr := tracker.New(history.NewStore[core.HistoryEntry](100), history.NewStore[core.ChannelEntry](100))

	var in strings.Builder
	in.WriteString("# capture\n")
	for i := 0; i < 6; i++ {
		in.WriteString(`{"author_id":"u1","channel_id":"general","text":"free nitro","timestamp":` +
			string(rune('1'+i)) + "000}\n")
	}
	in.WriteString(`{"author_id":"u2","text":"hello there","timestamp":1500}` + "\n")
	in.WriteString("not json\n")

	var out bytes.Buffer
	require.NoError(t, replayFloods(tr, core.DefaultThresholds(), strings.NewReader(in.String()), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	// duplicates trip on the third copy, frequency on the sixth message
	assert.Contains(lines[0], "author=u1 ts=3000 duplicates=3")
	assert.Contains(out.String(), "ts=6000 frequency=6 duplicates=6")
	assert.NotContains(out.String(), "author=u2")
	assert.Contains(lines[len(lines)-1], "Events: 7  Flooding: 4  Malformed: 1")
}
