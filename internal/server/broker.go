package server

import (
	"encoding/json"
	"sync"

	"github.com/playperu/treesleuth/internal/game"
)

const (
	eventState = "state"
	eventError = "error"
	eventEnded = "ended"
)

// Event is the payload pushed to a session's SSE and WebSocket subscribers.
type Event struct {
	Type  string     `json:"type"`
	Cues  []game.Cue `json:"cues,omitempty"`
	State *StateView `json:"state,omitempty"`
	Error string     `json:"error,omitempty"`
}

// Broker is an in-process pub/sub for events, keyed by session ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the given session.
func (b *Broker) Subscribe(sessionID string) chan []byte {
	ch := make(chan []byte, 32)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan []byte]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the session's subscribers.
func (b *Broker) Unsubscribe(sessionID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[sessionID], ch)
	if len(b.subs[sessionID]) == 0 {
		delete(b.subs, sessionID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given session.
func (b *Broker) Publish(sessionID string, event Event) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// Close sends a final ended event and closes every subscriber channel of the
// session.
func (b *Broker) Close(sessionID string) {
	data, _ := json.Marshal(Event{Type: eventEnded})
	b.mu.Lock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- data:
		default:
		}
		close(ch)
	}
	delete(b.subs, sessionID)
	b.mu.Unlock()
}

func (b *Broker) Subscribers(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}
