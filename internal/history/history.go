// Package history keeps the session's playback entries in append order and
// ranks them by prompt for filtering.
package history

import (
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/convo/internal/domain"
)

// History is an append-only list of playback entries, oldest first.
// It implements domain.PlaybackList.
type History struct {
	mu      sync.RWMutex
	entries []domain.PlaybackEntry
	prompts []string // lowercased prompts, parallel to entries
}

// New creates an empty history
func New() *History {
	return &History{}
}

// Append adds an entry at the end
func (h *History) Append(entry domain.PlaybackEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	h.prompts = append(h.prompts, strings.ToLower(entry.Prompt))
}

// Len returns the number of entries
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// All returns a copy of every entry, oldest first
func (h *History) All() []domain.PlaybackEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]domain.PlaybackEntry(nil), h.entries...)
}

// Latest returns the newest entry
func (h *History) Latest() (domain.PlaybackEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return domain.PlaybackEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Find returns entries whose prompt fuzzy-matches query, best match first.
// Equal distances keep append order. An empty query returns All.
func (h *History) Find(query string) []domain.PlaybackEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		return h.All()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	ranks := fuzzy.RankFindNormalizedFold(query, h.prompts)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	results := make([]domain.PlaybackEntry, 0, len(ranks))
	for _, r := range ranks {
		results = append(results, h.entries[r.OriginalIndex])
	}
	return results
}
