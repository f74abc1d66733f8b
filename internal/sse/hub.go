package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
)

type Event string

const (
	EventJobProgress  Event = "GenerationJobProgress"
	EventJobCompleted Event = "GenerationJobCompleted"
	EventJobFailed    Event = "GenerationJobFailed"
)

type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

type Client struct {
	ID       uuid.UUID
	Channels map[string]bool
	Outbound chan Message

	closeOnce sync.Once
	done      chan struct{}
}

func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Hub fans generation progress messages out to subscribed SSE clients.
// Channels are employee ids: a client only sees its own jobs.
type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) NewClient() *Client {
	return &Client{
		ID:       uuid.New(),
		Channels: make(map[string]bool),
		Outbound: make(chan Message, 16),
		done:     make(chan struct{}),
	}
}

func (h *Hub) Subscribe(client *Client, channel string) {
	if channel == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	client.Channels[channel] = true
	clients, ok := h.subscriptions[channel]
	if !ok {
		clients = make(map[*Client]bool)
		h.subscriptions[channel] = clients
	}
	clients[client] = true
	h.log.Debug("SSE client subscribed", "client_id", client.ID, "channel", channel)
}

func (h *Hub) RemoveClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range client.Channels {
		if clients, ok := h.subscriptions[ch]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.subscriptions, ch)
			}
		}
	}
	client.Channels = make(map[string]bool)
	client.Close()
}

// Broadcast delivers to every subscriber of the message channel. Slow clients
// are skipped rather than blocking the pipeline.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.subscriptions[msg.Channel] {
		select {
		case client.Outbound <- msg:
		default:
			h.log.Warn("SSE client outbound full, dropping message", "client_id", client.ID, "channel", msg.Channel)
		}
	}
}

// ServeHTTP streams a client's messages until the request context ends.
// Heartbeat comments keep intermediaries from closing an idle stream.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg := <-client.Outbound:
			payload, err := json.Marshal(msg)
			if err != nil {
				h.log.Warn("Failed to marshal SSE message", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, payload)
			flusher.Flush()
		}
	}
}
