package allowlist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker reports whether an author or community is trusted and bypasses scoring
type Checker struct {
	authors     map[string]struct{}
	communities map[string]struct{}
	logger      *zap.Logger
}

// NewChecker creates a new allowlist checker
func NewChecker(authors, communities []string, logger *zap.Logger) *Checker {
	c := &Checker{
		authors:     normalize(authors),
		communities: normalize(communities),
		logger:      logger,
	}

	if (len(c.authors) > 0 || len(c.communities) > 0) && logger != nil {
		logger.Info("Initialized allowlist",
			zap.Int("authors", len(c.authors)),
			zap.Int("communities", len(c.communities)))
	}

	return c
}

func normalize(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			out[id] = struct{}{}
		}
	}
	return out
}

// IsAllowed checks the author first, then the community
func (c *Checker) IsAllowed(authorID, communityID string) bool {
	if c == nil {
		return false
	}
	if _, ok := c.authors[authorID]; ok {
		c.debug("Author is allowlisted", authorID, communityID)
		return true
	}
	if communityID == "" {
		return false
	}
	if _, ok := c.communities[communityID]; ok {
		c.debug("Community is allowlisted", authorID, communityID)
		return true
	}
	return false
}

func (c *Checker) debug(msg, authorID, communityID string) {
	if c.logger != nil {
		c.logger.Debug(msg,
			zap.String("author_id", authorID),
			zap.String("community_id", communityID))
	}
}
