// Package events provides the in-process domain event bus. Handlers run
// sequentially in registration order; a failing handler is logged and the
// remaining handlers still run. There is no persistence or retry.
package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Event names published by the domain services.
const (
	PageCreated        = "page.created"
	PageUpdated        = "page.updated"
	PageDeleted        = "page.deleted"
	CategoryChanged    = "category.changed"
	TagChanged         = "tag.changed"
	MenuChanged        = "menu.changed"
	SettingChanged     = "setting.changed"
	FileStored         = "file.stored"
	FileDeleted        = "file.deleted"
	PluginStateChanged = "plugin.state_changed"
)

// Event is a domain notification.
type Event struct {
	Name string
	// ID identifies the affected entity: page ID, file ID, plugin ID,
	// or zero when not applicable.
	ID int
	// Key carries a secondary identifier: setting key, plugin name, slug.
	Key string
}

// Handler reacts to a published event.
type Handler func(ctx context.Context, ev Event) error

// Bus dispatches events to registered handlers.
type Bus struct {
	log zerolog.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus creates an empty bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		log:      log,
		handlers: make(map[string][]Handler),
	}
}

// Subscribe registers a handler for the given event name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish invokes the handlers for ev in registration order. Handler
// errors are logged, never returned to the publisher.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := b.handlers[ev.Name]
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			b.log.Error().Err(err).Str("event", ev.Name).Int("id", ev.ID).Str("key", ev.Key).Msg("event handler failed")
		}
	}
}
