// Package bridge receives browser-captured game state over chunked
// image-beacon requests and serves the latest assembled state to the
// rest of the application.
package bridge

import (
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"
)

const chunkTTL = 20 * time.Second

type chunkSlot struct {
	total    int
	hash     string
	parts    map[int]string
	lastSeen time.Time
}

// Store accumulates chunked uploads and keeps the latest complete game
// state. All access is mutex-protected; completion callbacks run
// outside the lock.
type Store struct {
	mu        sync.Mutex
	inbox     map[string]*chunkSlot
	state     json.RawMessage
	stateTime time.Time

	onState []func(json.RawMessage)
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		inbox: make(map[string]*chunkSlot),
		now:   time.Now,
	}
}

// OnState registers a callback invoked with each newly assembled state.
func (s *Store) OnState(fn func(json.RawMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = append(s.onState, fn)
}

// AddChunk records one chunk of an upload. When all parts of an id have
// arrived the payload is decoded, stored as the current state, and the
// callbacks fire. A chunk whose total or hash disagrees with the slot
// discards the slot; decode failures discard the payload silently, as
// the sender cannot be answered anyway.
func (s *Store) AddChunk(id, hash string, index, total int, data string) {
	var assembled json.RawMessage

	s.mu.Lock()
	s.cleanupLocked()
	slot := s.inbox[id]
	if slot == nil {
		slot = &chunkSlot{total: total, hash: hash, parts: make(map[int]string)}
		s.inbox[id] = slot
	}
	if slot.total != total || slot.hash != hash {
		delete(s.inbox, id)
		s.mu.Unlock()
		return
	}
	slot.lastSeen = s.now()
	slot.parts[index] = data
	if len(slot.parts) == total {
		delete(s.inbox, id)
		if payload, ok := assemble(slot); ok {
			s.state = payload
			s.stateTime = s.now()
			assembled = payload
		}
	}
	callbacks := s.onState
	s.mu.Unlock()

	if assembled != nil {
		for _, fn := range callbacks {
			fn(assembled)
		}
	}
}

func assemble(slot *chunkSlot) (json.RawMessage, bool) {
	var b64 string
	for i := 0; i < slot.total; i++ {
		part, ok := slot.parts[i]
		if !ok {
			return nil, false
		}
		b64 += part
	}
	payload, err := base64.RawURLEncoding.DecodeString(b64)
	if err != nil {
		// Senders pad inconsistently; retry with padding accepted.
		payload, err = base64.URLEncoding.DecodeString(b64)
		if err != nil {
			return nil, false
		}
	}
	if !json.Valid(payload) {
		return nil, false
	}
	return json.RawMessage(payload), true
}

func (s *Store) cleanupLocked() {
	deadline := s.now().Add(-chunkTTL)
	for id, slot := range s.inbox {
		if slot.lastSeen.Before(deadline) {
			delete(s.inbox, id)
		}
	}
}

// State returns the latest assembled state and its timestamp. The state
// is nil when nothing has been received yet.
func (s *Store) State() (json.RawMessage, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.stateTime
}
