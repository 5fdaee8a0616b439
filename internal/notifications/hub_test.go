package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) Notification {
	t.Helper()
	select {
	case n, ok := <-c.Messages:
		require.True(t, ok, "channel closed")
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	return Notification{}
}

func TestHub_DeliversToWorkspace(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	a := hub.Subscribe("ws-a")
	b := hub.Subscribe("ws-b")

	n := New("Settings updated successfully", "Your configuration has been saved.")
	n.Workspace = "ws-a"
	hub.Notify(context.Background(), n)

	got := receive(t, a)
	assert.Equal(t, "Settings updated successfully", got.Title)
	assert.Equal(t, VariantDefault, got.Variant)

	select {
	case <-b.Messages:
		t.Fatal("other workspace must not receive the notification")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	c := hub.Subscribe("ws")
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unsubscribe(c)
	_, ok := <-c.Messages
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub()
	c := hub.Subscribe("ws")

	hub.Close()
	hub.Close()

	select {
	case _, ok := <-c.Messages:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("client channel was not closed")
	}

	// Notify after close is a no-op
	hub.Notify(context.Background(), New("x", "y"))
}

func TestForWorkspace(t *testing.T) {
	rec := &Recorder{}
	notifier := ForWorkspace("ws-1", rec)

	notifier.Notify(context.Background(), Destructive("Unable to save", "Please check required fields and try again."))

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "ws-1", last.Workspace)
	assert.Equal(t, VariantDestructive, last.Variant)
}

func TestMulti(t *testing.T) {
	r1, r2 := &Recorder{}, &Recorder{}
	Multi{r1, nil, r2}.Notify(context.Background(), New("a", "b"))

	assert.Len(t, r1.All(), 1)
	assert.Len(t, r2.All(), 1)
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	_, ok := rec.Last()
	assert.False(t, ok)

	rec.Notify(context.Background(), New("one", ""))
	rec.Notify(context.Background(), New("two", ""))
	assert.Len(t, rec.All(), 2)

	last, _ := rec.Last()
	assert.Equal(t, "two", last.Title)

	rec.Reset()
	assert.Empty(t, rec.All())
}
