package events

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var order []string
	bus.Subscribe(PageCreated, func(ctx context.Context, ev Event) error {
		order = append(order, "first")
		return nil
	})
	bus.Subscribe(PageCreated, func(ctx context.Context, ev Event) error {
		order = append(order, "second")
		return nil
	})

	bus.Publish(context.Background(), Event{Name: PageCreated, ID: 1})
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestFailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	ran := false
	bus.Subscribe(PageDeleted, func(ctx context.Context, ev Event) error {
		return errors.New("handler failed")
	})
	bus.Subscribe(PageDeleted, func(ctx context.Context, ev Event) error {
		ran = true
		return nil
	})

	bus.Publish(context.Background(), Event{Name: PageDeleted, ID: 7})
	assert.True(t, ran)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	// Must not panic.
	bus.Publish(context.Background(), Event{Name: MenuChanged})
}

func TestEventCarriesIdentifiers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var got Event
	bus.Subscribe(SettingChanged, func(ctx context.Context, ev Event) error {
		got = ev
		return nil
	})

	bus.Publish(context.Background(), Event{Name: SettingChanged, Key: "site.title"})
	assert.Equal(t, SettingChanged, got.Name)
	assert.Equal(t, "site.title", got.Key)
}
