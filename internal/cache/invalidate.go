package cache

import (
	"context"

	"squirrelwiki/internal/events"
)

// Cache key prefixes shared with the services that populate them.
const (
	PrefixPage     = "page:"
	PrefixTree     = "tree:"
	PrefixSetting  = "setting:"
	PrefixMenu     = "menu:"
	PrefixCategory = "category:"
	PrefixTag      = "tag:"
)

// SubscribeInvalidation wires domain events to cache invalidation. Page
// events drop the rendered page and the navigation tree; the rest drop
// their own prefix.
func SubscribeInvalidation(bus *events.Bus, c *Cache) {
	pages := func(ctx context.Context, ev events.Event) error {
		c.DeletePrefix(PrefixPage)
		c.DeletePrefix(PrefixTree)
		return nil
	}
	bus.Subscribe(events.PageCreated, pages)
	bus.Subscribe(events.PageUpdated, pages)
	bus.Subscribe(events.PageDeleted, pages)

	bus.Subscribe(events.SettingChanged, func(ctx context.Context, ev events.Event) error {
		c.DeletePrefix(PrefixSetting)
		return nil
	})
	bus.Subscribe(events.MenuChanged, func(ctx context.Context, ev events.Event) error {
		c.DeletePrefix(PrefixMenu)
		return nil
	})
	bus.Subscribe(events.CategoryChanged, func(ctx context.Context, ev events.Event) error {
		c.DeletePrefix(PrefixCategory)
		c.DeletePrefix(PrefixTree)
		return nil
	})
	bus.Subscribe(events.TagChanged, func(ctx context.Context, ev events.Event) error {
		c.DeletePrefix(PrefixTag)
		return nil
	})
}
