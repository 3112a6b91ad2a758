package allowlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestChecker(t *testing.T) {
	assert := assert.New(t)
	c := NewChecker([]string{" mod-bot ", ""}, []string{"staff-guild"}, zap.NewNop())

	assert.True(c.IsAllowed("mod-bot", ""))
	assert.True(c.IsAllowed("anyone", "staff-guild"))
	assert.False(c.IsAllowed("anyone", "public-guild"))
	assert.False(c.IsAllowed("", ""))

	var empty *Checker
	assert.False(empty.IsAllowed("mod-bot", "staff-guild"))
}
