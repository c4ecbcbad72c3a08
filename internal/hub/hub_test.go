package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trailmate/backend/internal/events"
)

func receive(t *testing.T, c Client) Event {
	t.Helper()
	select {
	case msg, ok := <-c:
		if !ok {
			t.Fatalf("client closed")
		}
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return ev
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
	return Event{}
}

func TestHubBroadcastLocal(t *testing.T) {
	h := NewHub()
	client := make(Client, 4)
	h.Subscribe("act-1", client)
	defer h.Unsubscribe("act-1", client)

	h.Broadcast(context.Background(), "act-1", Event{Type: "ping"})

	if got := receive(t, client); got.Type != "ping" {
		t.Fatalf("unexpected event %q", got.Type)
	}
}

func TestHubDoesNotCrossTopics(t *testing.T) {
	h := NewHub()
	client := make(Client, 1)
	h.Subscribe("act-1", client)
	defer h.Unsubscribe("act-1", client)

	h.Broadcast(context.Background(), "act-2", Event{Type: "ping"})

	select {
	case <-client:
		t.Fatalf("received event for another topic")
	default:
	}
}

func TestUnsubscribeClosesClient(t *testing.T) {
	h := NewHub()
	client := make(Client, 1)
	h.Subscribe("act-1", client)
	h.Unsubscribe("act-1", client)

	if _, ok := <-client; ok {
		t.Fatalf("expected channel closed")
	}
	// Unsubscribing twice must not panic on a closed channel.
	h.Unsubscribe("act-1", client)
}

func TestFullClientDoesNotBlock(t *testing.T) {
	h := NewHub()
	client := make(Client)
	h.Subscribe("act-1", client)
	defer h.Unsubscribe("act-1", client)

	done := make(chan struct{})
	go func() {
		h.Broadcast(context.Background(), "act-1", Event{Type: "ping"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("broadcast blocked on an unread client")
	}
}

func TestNotifyReachesActivityAndFeed(t *testing.T) {
	h := NewHub()
	activity, feed := make(Client, 1), make(Client, 1)
	h.Subscribe("act-1", activity)
	h.Subscribe(FeedTopic, feed)
	defer h.Unsubscribe("act-1", activity)
	defer h.Unsubscribe(FeedTopic, feed)

	h.Notify(context.Background(), events.New(events.ParticipantJoined, "act-1", "u1"))

	if got := receive(t, activity); got.Type != string(events.ParticipantJoined) {
		t.Fatalf("unexpected event %q", got.Type)
	}
	if got := receive(t, feed); got.Type != string(events.ParticipantJoined) {
		t.Fatalf("unexpected feed event %q", got.Type)
	}
}

func TestRedisHubRelaysBetweenInstances(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()

	rdbA := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbA.Close()
	rdbB := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbB.Close()

	a, err := NewRedisHub(ctx, rdbA)
	if err != nil {
		t.Fatalf("hub a: %v", err)
	}
	defer a.Close()
	b, err := NewRedisHub(ctx, rdbB)
	if err != nil {
		t.Fatalf("hub b: %v", err)
	}
	defer b.Close()

	local, remote := make(Client, 4), make(Client, 4)
	a.Subscribe("act-7", local)
	b.Subscribe("act-7", remote)
	defer a.Unsubscribe("act-7", local)
	defer b.Unsubscribe("act-7", remote)

	a.Broadcast(ctx, "act-7", Event{Type: "activity.updated"})

	if got := receive(t, local); got.Type != "activity.updated" {
		t.Fatalf("unexpected local event %q", got.Type)
	}
	if got := receive(t, remote); got.Type != "activity.updated" {
		t.Fatalf("unexpected remote event %q", got.Type)
	}

	// Exactly one copy per client.
	select {
	case <-local:
		t.Fatalf("duplicate delivery")
	case <-time.After(50 * time.Millisecond):
	}
}
