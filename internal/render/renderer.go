// Package render turns a successful generation payload into a playable
// entry in the session history.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/convo/internal/domain"
)

// payloadStore registers payloads for the session (consumer-defined interface)
type payloadStore interface {
	Put(p domain.Payload) (string, error)
}

// urlResolver maps a stored payload ID to a playable URL
type urlResolver interface {
	URL(id string) string
}

// player starts playback of a URL
type player interface {
	Play(url string) error
}

// Renderer appends new playback entries and autoplays them.
// References are never revoked while the session lives.
type Renderer struct {
	store    payloadStore
	resolver urlResolver
	player   player
	list     domain.PlaybackList
	logger   *slog.Logger

	mu    sync.Mutex
	count int
}

// NewRenderer creates a new renderer
func NewRenderer(
	store payloadStore,
	resolver urlResolver,
	player player,
	list domain.PlaybackList,
	logger *slog.Logger,
) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		store:    store,
		resolver: resolver,
		player:   player,
		list:     list,
		logger:   logger,
	}
}

// Render registers the payload, appends a new entry and starts playing it.
// Autoplay failure is not an error; the entry stays available for Replay.
func (r *Renderer) Render(ctx context.Context, prompt string, p domain.Payload) (domain.PlaybackEntry, error) {
	id, err := r.store.Put(p)
	if err != nil {
		return domain.PlaybackEntry{}, fmt.Errorf("failed to register payload: %w", err)
	}

	// Indexes and appends stay in the same order
	r.mu.Lock()
	r.count++
	entry := domain.PlaybackEntry{
		ID:          id,
		Index:       r.count,
		Prompt:      prompt,
		Ref:         domain.ResourceRef{ID: id, URL: r.resolver.URL(id)},
		ContentType: p.ContentType,
		Size:        len(p.Data),
		CreatedAt:   time.Now(),
	}

	r.list.Append(entry)
	r.mu.Unlock()
	r.logger.Info("playback entry appended", "index", entry.Index, "id", entry.ID, "bytes", entry.Size)

	if err := r.player.Play(entry.Ref.URL); err != nil {
		r.logger.Warn("autoplay failed", "error", err, "id", entry.ID)
	}

	return entry, nil
}

// Replay starts playback of an existing entry
func (r *Renderer) Replay(entry domain.PlaybackEntry) error {
	r.logger.Info("replaying entry", "index", entry.Index, "id", entry.ID)
	return r.player.Play(entry.Ref.URL)
}
