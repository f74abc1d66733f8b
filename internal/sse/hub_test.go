package sse

import (
	"testing"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
)

func newHub(t *testing.T) *Hub {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewHub(log)
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	hub := newHub(t)
	client := hub.NewClient()
	hub.Subscribe(client, "employee-1")

	hub.Broadcast(Message{Channel: "employee-1", Event: EventJobProgress})

	select {
	case msg := <-client.Outbound:
		if msg.Event != EventJobProgress {
			t.Fatalf("event=%q", msg.Event)
		}
	default:
		t.Fatal("no message delivered")
	}
}

func TestBroadcastIsChannelScoped(t *testing.T) {
	hub := newHub(t)
	mine := hub.NewClient()
	other := hub.NewClient()
	hub.Subscribe(mine, "employee-1")
	hub.Subscribe(other, "employee-2")

	hub.Broadcast(Message{Channel: "employee-1", Event: EventJobCompleted})

	if len(mine.Outbound) != 1 {
		t.Fatalf("mine=%d want=1", len(mine.Outbound))
	}
	if len(other.Outbound) != 0 {
		t.Fatalf("other=%d want=0", len(other.Outbound))
	}
}

func TestBroadcastDropsWhenOutboundFull(t *testing.T) {
	hub := newHub(t)
	client := hub.NewClient()
	hub.Subscribe(client, "employee-1")

	// One past the buffer size must not block.
	for i := 0; i < cap(client.Outbound)+1; i++ {
		hub.Broadcast(Message{Channel: "employee-1", Event: EventJobProgress})
	}

	if len(client.Outbound) != cap(client.Outbound) {
		t.Fatalf("buffered=%d want=%d", len(client.Outbound), cap(client.Outbound))
	}
}

func TestRemoveClient(t *testing.T) {
	hub := newHub(t)
	client := hub.NewClient()
	hub.Subscribe(client, "employee-1")

	hub.RemoveClient(client)

	hub.Broadcast(Message{Channel: "employee-1", Event: EventJobProgress})
	if len(client.Outbound) != 0 {
		t.Fatal("removed client still receives messages")
	}

	select {
	case <-client.Done():
	default:
		t.Fatal("removed client not closed")
	}
}
