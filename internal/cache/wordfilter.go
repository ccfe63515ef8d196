package cache

import (
	"context"
	"regexp"
)

// patterns returns the compiled word-filter patterns, recompiling lazily
// after invalidation. A store failure yields no filtering for this call and
// leaves the cache unset so the next call retries.
func (m *Manager) patterns(ctx context.Context) []*regexp.Regexp {
	m.wfMu.Lock()
	defer m.wfMu.Unlock()

	if m.wordValid {
		return m.wordPatterns
	}

	words, err := m.filters.List(ctx)
	if err != nil {
		m.logger.WithError(err).Error("Failed to load word filters")
		return nil
	}

	compiled := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		// Whole-word, case-insensitive match anywhere in the title.
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
		if err != nil {
			m.logger.WithError(err).Warnf("Skipping unusable word filter %q", w)
			continue
		}
		compiled = append(compiled, re)
	}

	m.wordPatterns = compiled
	m.wordValid = true
	return m.wordPatterns
}

func titleMatches(title string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(title) {
			return true
		}
	}
	return false
}
