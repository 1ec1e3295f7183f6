package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"squirrelwiki/internal/events"
)

func TestSetGetDelete(t *testing.T) {
	c := New(0)

	c.Set("k", "v")
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.Set("k", 1)

	_, ok := c.Get("k")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestSetDefaultTTL(t *testing.T) {
	c := New(0)
	c.Set("forever", 1)

	c.SetDefaultTTL(10 * time.Millisecond)
	c.Set("brief", 2)

	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get("brief")
	assert.False(t, ok)
	_, ok = c.Get("forever")
	assert.True(t, ok, "earlier entries keep their original expiry")
}

func TestDeletePrefix(t *testing.T) {
	c := New(0)
	c.Set(PrefixPage+"1:2", "html")
	c.Set(PrefixPage+"3:4", "html")
	c.Set(PrefixMenu+"main", "menu")

	c.DeletePrefix(PrefixPage)

	_, ok := c.Get(PrefixPage + "1:2")
	assert.False(t, ok)
	_, ok = c.Get(PrefixMenu + "main")
	assert.True(t, ok)
}

func TestFlush(t *testing.T) {
	c := New(0)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Flush()
	assert.Equal(t, 0, c.Len())
}

func TestInvalidationOnPageEvents(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	c := New(0)
	SubscribeInvalidation(bus, c)

	c.Set(PrefixPage+"1:1", "html")
	c.Set(PrefixTree+"pages", "tree")
	c.Set(PrefixSetting+"site.title", "wiki")

	bus.Publish(context.Background(), events.Event{Name: events.PageUpdated, ID: 1})

	_, ok := c.Get(PrefixPage + "1:1")
	assert.False(t, ok)
	_, ok = c.Get(PrefixTree + "pages")
	assert.False(t, ok)
	_, ok = c.Get(PrefixSetting + "site.title")
	assert.True(t, ok, "page events leave settings alone")
}

func TestInvalidationOnSettingChange(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	c := New(0)
	SubscribeInvalidation(bus, c)

	c.Set(PrefixSetting+"site.title", "wiki")
	bus.Publish(context.Background(), events.Event{Name: events.SettingChanged, Key: "site.title"})

	_, ok := c.Get(PrefixSetting + "site.title")
	assert.False(t, ok)
}
