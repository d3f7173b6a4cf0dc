// Package sse streams journey events to dashboard clients over
// Server-Sent Events.
package sse

import (
	"fmt"
	"net/http"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// sendBuffer is the per-client queue depth. A client that falls this far
// behind is dropped rather than allowed to block publishers.
const sendBuffer = 16

// Event is one message on the stream.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

type client struct {
	id   int
	send chan []byte
}

// Broadcaster fans journey events out to every connected client. Publishing
// never blocks: slow clients are disconnected instead.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[int]*client
	nextID  int
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[int]*client)}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Publish sends an event to all connected clients.
func (b *Broadcaster) Publish(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal SSE event")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, c := range b.clients {
		select {
		case c.send <- payload:
		default:
			// Queue full: the client stopped reading.
			delete(b.clients, id)
			close(c.send)
			log.Debug().Int("clientId", id).Msg("Dropped slow SSE client")
		}
	}
}

// PublishTransition announces a committed state transition.
func (b *Broadcaster) PublishTransition(sessionID, fromState, toState string) {
	b.Publish(Event{
		Type:      "transition",
		SessionID: sessionID,
		Data:      map[string]string{"from": fromState, "to": toState},
	})
}

// PublishCost announces updated session spend.
func (b *Broadcaster) PublishCost(sessionID string, totalCost float64) {
	b.Publish(Event{
		Type:      "cost",
		SessionID: sessionID,
		Data:      map[string]float64{"total_cost": totalCost},
	})
}

func (b *Broadcaster) register() *client {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	c := &client{id: b.nextID, send: make(chan []byte, sendBuffer)}
	b.clients[c.id] = c

	log.Debug().Int("clientId", c.id).Int("totalClients", len(b.clients)).Msg("SSE client connected")
	return c
}

func (b *Broadcaster) unregister(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c.id]; ok {
		delete(b.clients, c.id)
		close(c.send)
	}

	log.Debug().Int("clientId", c.id).Int("totalClients", len(b.clients)).Msg("SSE client disconnected")
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	c := b.register()
	defer b.unregister(c)

	fmt.Fprintf(w, "data: {\"type\":\"connected\",\"clientId\":%d}\n\n", c.id)
	flusher.Flush()

	for {
		select {
		case payload, open := <-c.send:
			if !open {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
