// Package reminders holds the WhatsApp-side conversational state: a phone
// number to chat-session map and the scheduled reminders. Both stores are
// process-lifetime only; a restart loses them, which the product accepts.
// The interfaces exist so a durable backing can be substituted without
// touching call sites.
package reminders

import (
	"sync"
	"time"
)

// Reminder is a one-shot WhatsApp notification keyed by phone number.
type Reminder struct {
	ID          string     `json:"id"`
	PhoneNumber string     `json:"phoneNumber"`
	DateTime    time.Time  `json:"dateTime"`
	Message     string     `json:"message"`
	Sent        bool       `json:"sent"`
	CreatedAt   time.Time  `json:"createdAt"`
	SentAt      *time.Time `json:"sentAt,omitempty"`
}

// Store is the reminder backing. Due returns snapshots; mutation goes through
// MarkSent and Delete so the implementation can serialize them.
type Store interface {
	Put(r Reminder)
	Get(id string) (Reminder, bool)
	Delete(id string) bool
	Due(now time.Time) []Reminder
	// MarkSent flips the sent flag and reports whether this call performed
	// the transition. A reminder is dispatched at most once even when two
	// scheduler ticks overlap.
	MarkSent(id string, at time.Time) bool
	ByPhone(phoneNumber string) []Reminder
	Count() int
}

// SessionStore maps a WhatsApp phone number to its chat session id.
type SessionStore interface {
	Get(phoneNumber string) (string, bool)
	Put(phoneNumber, sessionID string)
	Delete(phoneNumber string) bool
	Count() int
}

// MemoryStore is the in-memory Store used in production today.
type MemoryStore struct {
	mu        sync.RWMutex
	reminders map[string]*Reminder
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reminders: make(map[string]*Reminder)}
}

func (s *MemoryStore) Put(r Reminder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := r
	s.reminders[r.ID] = &cp
}

func (s *MemoryStore) Get(id string) (Reminder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reminders[id]
	if !ok {
		return Reminder{}, false
	}
	return *r, true
}

func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reminders[id]
	delete(s.reminders, id)
	return ok
}

func (s *MemoryStore) Due(now time.Time) []Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []Reminder
	for _, r := range s.reminders {
		if !r.Sent && !r.DateTime.After(now) {
			due = append(due, *r)
		}
	}
	return due
}

func (s *MemoryStore) MarkSent(id string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok || r.Sent {
		return false
	}
	r.Sent = true
	r.SentAt = &at
	return true
}

func (s *MemoryStore) ByPhone(phoneNumber string) []Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Reminder
	for _, r := range s.reminders {
		if r.PhoneNumber == phoneNumber && !r.Sent {
			out = append(out, *r)
		}
	}
	return out
}

func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reminders)
}

// MemorySessions is the in-memory SessionStore.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]string
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]string)}
}

func (s *MemorySessions) Get(phoneNumber string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[phoneNumber]
	return id, ok
}

func (s *MemorySessions) Put(phoneNumber, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[phoneNumber] = sessionID
}

func (s *MemorySessions) Delete(phoneNumber string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[phoneNumber]
	delete(s.sessions, phoneNumber)
	return ok
}

func (s *MemorySessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
