// Package store holds the canonical in-memory entity collections.
// The stores are the only mutation path for their collections; every
// method takes the lock, so concurrent gateway requests see a
// consistent snapshot. Within one entity the collection reflects the
// most recently completed write, not the most recently issued one.
package store

import (
	"sync"

	"eventdeck/internal/model"
)

type EventStore struct {
	mu        sync.RWMutex
	events    []model.Event
	currentID string
	total     int

	// Team-member mutations get their own loading flag so a member
	// add does not show the whole event list as busy.
	loading     bool
	teamLoading bool
	lastError   string
}

func NewEventStore() *EventStore {
	return &EventStore{}
}

func (s *EventStore) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
	if v {
		s.lastError = ""
	}
}

func (s *EventStore) SetTeamLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teamLoading = v
	if v {
		s.lastError = ""
	}
}

// Fail records the user-facing error message for the last operation.
func (s *EventStore) Fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
	s.loading = false
	s.teamLoading = false
}

// ReplaceAll wholesale-replaces the collection after a list fetch.
func (s *EventStore) ReplaceAll(events []model.Event, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append([]model.Event(nil), events...)
	s.total = total
	s.loading = false
	s.lastError = ""
}

// Upsert replaces the event with the same id, or prepends when the
// id is new (freshly created events sort to the front).
func (s *EventStore) Upsert(ev model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == ev.ID {
			s.events[i] = ev
			s.loading = false
			return
		}
	}
	s.events = append([]model.Event{ev}, s.events...)
	s.total++
	s.loading = false
}

// Remove deletes by id. When the removed event was the current
// detail-view entity, the current reference is cleared too.
func (s *EventStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			s.total--
			if s.currentID == id {
				s.currentID = ""
			}
			s.loading = false
			return true
		}
	}
	s.loading = false
	return false
}

// ReplaceOne swaps in a server-fetched copy of one event. Used after
// team-member mutations, which always re-fetch the parent rather
// than trusting the mutation response.
func (s *EventStore) ReplaceOne(ev model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == ev.ID {
			s.events[i] = ev
			s.teamLoading = false
			return
		}
	}
	s.events = append(s.events, ev)
	s.teamLoading = false
}

func (s *EventStore) SetCurrent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentID = id
}

// Current returns the current detail-view event.
func (s *EventStore) Current() (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(s.currentID)
}

// Get returns an event by id.
func (s *EventStore) Get(id string) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(id)
}

// Events returns a copy of the collection in its stored order.
func (s *EventStore) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Event(nil), s.events...)
}

func (s *EventStore) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *EventStore) Loading() (general, team bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading, s.teamLoading
}

func (s *EventStore) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// TeamMembersOfCurrent derives the current event's member list.
func (s *EventStore) TeamMembersOfCurrent() []model.TeamMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.lookup(s.currentID)
	if !ok {
		return nil
	}
	return append([]model.TeamMember(nil), ev.TeamMembers...)
}

// AddTeamMemberOptimistic applies an immediate local add before the
// server confirms. Duplicates (by id or email) are ignored so the
// list length never grows on a repeat add.
func (s *EventStore) AddTeamMemberOptimistic(eventID string, member model.TeamMember) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID != eventID {
			continue
		}
		for _, existing := range s.events[i].TeamMembers {
			if existing.Ref().Matches(member.Ref()) {
				return false
			}
		}
		s.events[i].TeamMembers = append(s.events[i].TeamMembers, member)
		return true
	}
	return false
}

// RemoveTeamMemberOptimistic applies an immediate local removal.
func (s *EventStore) RemoveTeamMemberOptimistic(eventID string, ref model.UserRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID != eventID {
			continue
		}
		members := s.events[i].TeamMembers
		for j := range members {
			if members[j].Ref().Matches(ref) {
				s.events[i].TeamMembers = append(members[:j], members[j+1:]...)
				return true
			}
		}
		return false
	}
	return false
}

// FallbackCreate applies a create locally after the server rejected
// it. The entity is flagged PendingSync so the divergence stays
// visible instead of masquerading as confirmed state.
func (s *EventStore) FallbackCreate(ev model.Event) {
	ev.PendingSync = true
	s.Upsert(ev)
	s.mu.Lock()
	s.currentID = ev.ID
	s.mu.Unlock()
}

// FallbackUpdate applies an update locally after a server failure.
func (s *EventStore) FallbackUpdate(ev model.Event) {
	ev.PendingSync = true
	s.Upsert(ev)
}

// FallbackRemove applies a delete locally after a server failure, so
// the list the user sees matches what they asked for.
func (s *EventStore) FallbackRemove(id string) {
	s.Remove(id)
}

func (s *EventStore) lookup(id string) (model.Event, bool) {
	if id == "" {
		return model.Event{}, false
	}
	for i := range s.events {
		if s.events[i].ID == id {
			return s.events[i], true
		}
	}
	return model.Event{}, false
}
