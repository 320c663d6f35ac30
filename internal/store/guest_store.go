package store

import (
	"sync"

	"eventdeck/internal/model"
)

type GuestStore struct {
	mu        sync.RWMutex
	guests    []model.Guest
	total     int
	loading   bool
	lastError string
}

func NewGuestStore() *GuestStore {
	return &GuestStore{}
}

func (s *GuestStore) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
	if v {
		s.lastError = ""
	}
}

func (s *GuestStore) Fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
	s.loading = false
}

func (s *GuestStore) ReplaceAll(guests []model.Guest, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guests = append([]model.Guest(nil), guests...)
	s.total = total
	s.loading = false
	s.lastError = ""
}

func (s *GuestStore) Upsert(g model.Guest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.guests {
		if s.guests[i].ID == g.ID {
			s.guests[i] = g
			s.loading = false
			return
		}
	}
	s.guests = append([]model.Guest{g}, s.guests...)
	s.total++
	s.loading = false
}

func (s *GuestStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.guests {
		if s.guests[i].ID == id {
			s.guests = append(s.guests[:i], s.guests[i+1:]...)
			s.total--
			s.loading = false
			return true
		}
	}
	s.loading = false
	return false
}

func (s *GuestStore) Get(id string) (model.Guest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.guests {
		if s.guests[i].ID == id {
			return s.guests[i], true
		}
	}
	return model.Guest{}, false
}

func (s *GuestStore) Guests() []model.Guest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Guest(nil), s.guests...)
}

// ByEvent selects the guests of one event, preserving stored order.
func (s *GuestStore) ByEvent(eventID string) []model.Guest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Guest
	for _, g := range s.guests {
		if g.EventID == eventID {
			out = append(out, g)
		}
	}
	return out
}

func (s *GuestStore) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *GuestStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *GuestStore) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// FallbackCreate, FallbackUpdate and FallbackRemove mirror the event
// store's degraded-mode mutations: the change is applied locally and
// flagged PendingSync when the server never confirmed it.

func (s *GuestStore) FallbackCreate(g model.Guest) {
	g.PendingSync = true
	s.Upsert(g)
}

func (s *GuestStore) FallbackUpdate(g model.Guest) {
	g.PendingSync = true
	s.Upsert(g)
}

func (s *GuestStore) FallbackRemove(id string) {
	s.Remove(id)
}
