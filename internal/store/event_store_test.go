package store

import (
	"testing"

	"eventdeck/internal/model"
)

func seeded() *EventStore {
	s := NewEventStore()
	s.ReplaceAll([]model.Event{
		{ID: "1", Name: "first"},
		{ID: "2", Name: "second"},
	}, 2)
	return s
}

func TestUpsertPrependsNewEvent(t *testing.T) {
	s := seeded()
	s.Upsert(model.Event{ID: "3", Name: "new"})

	events := s.Events()
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	if events[0].ID != "3" {
		t.Fatalf("new event not at front: %q", events[0].ID)
	}
	if s.Total() != 3 {
		t.Fatalf("total = %d, want 3", s.Total())
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	s := seeded()
	s.Upsert(model.Event{ID: "2", Name: "renamed"})

	events := s.Events()
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[1].ID != "2" || events[1].Name != "renamed" {
		t.Fatalf("events[1] = %+v", events[1])
	}
}

func TestRemoveClearsCurrent(t *testing.T) {
	s := seeded()
	s.SetCurrent("2")

	if !s.Remove("2") {
		t.Fatal("Remove returned false")
	}
	if _, ok := s.Current(); ok {
		t.Fatal("current should be cleared after removing the current event")
	}
	if len(s.Events()) != 1 {
		t.Fatalf("len = %d, want 1", len(s.Events()))
	}
}

func TestRemoveKeepsUnrelatedCurrent(t *testing.T) {
	s := seeded()
	s.SetCurrent("1")
	s.Remove("2")

	cur, ok := s.Current()
	if !ok || cur.ID != "1" {
		t.Fatalf("current = %+v ok=%v", cur, ok)
	}
}

func TestAddTeamMemberOptimisticDedup(t *testing.T) {
	s := NewEventStore()
	s.ReplaceAll([]model.Event{{
		ID:          "1",
		TeamMembers: []model.TeamMember{{ID: "7", Email: "a@b.c"}},
	}}, 1)

	if s.AddTeamMemberOptimistic("1", model.TeamMember{ID: "7"}) {
		t.Fatal("duplicate by id should be rejected")
	}
	if s.AddTeamMemberOptimistic("1", model.TeamMember{ID: "99", Email: "A@B.C"}) {
		t.Fatal("duplicate by email should be rejected")
	}

	ev, _ := s.Get("1")
	if len(ev.TeamMembers) != 1 {
		t.Fatalf("team grew to %d on duplicate adds", len(ev.TeamMembers))
	}

	if !s.AddTeamMemberOptimistic("1", model.TeamMember{ID: "8", Email: "x@y.z"}) {
		t.Fatal("fresh member should be added")
	}
	ev, _ = s.Get("1")
	if len(ev.TeamMembers) != 2 {
		t.Fatalf("len = %d, want 2", len(ev.TeamMembers))
	}
}

func TestRemoveTeamMemberOptimistic(t *testing.T) {
	s := NewEventStore()
	s.ReplaceAll([]model.Event{{
		ID: "1",
		TeamMembers: []model.TeamMember{
			{ID: "7", Email: "a@b.c"},
			{ID: "8", Email: "x@y.z"},
		},
	}}, 1)

	if !s.RemoveTeamMemberOptimistic("1", model.UserRef{Email: "x@y.z"}) {
		t.Fatal("removal by email should succeed")
	}
	ev, _ := s.Get("1")
	if len(ev.TeamMembers) != 1 || ev.TeamMembers[0].ID != "7" {
		t.Fatalf("team = %+v", ev.TeamMembers)
	}
}

func TestFallbackCreateFlagsPendingSync(t *testing.T) {
	s := NewEventStore()
	s.FallbackCreate(model.Event{ID: "local-1", Name: "offline"})

	ev, ok := s.Get("local-1")
	if !ok {
		t.Fatal("fallback event missing")
	}
	if !ev.PendingSync {
		t.Fatal("fallback create must be flagged PendingSync")
	}
	cur, ok := s.Current()
	if !ok || cur.ID != "local-1" {
		t.Fatalf("fallback create should become current, got %+v", cur)
	}
}

func TestReplaceOneSwapsServerCopy(t *testing.T) {
	s := seeded()
	s.SetCurrent("1")
	s.ReplaceOne(model.Event{ID: "1", Name: "server copy", TeamMembers: []model.TeamMember{{ID: "5"}}})

	cur, _ := s.Current()
	if cur.Name != "server copy" || len(cur.TeamMembers) != 1 {
		t.Fatalf("current = %+v", cur)
	}
}

func TestLoadingFlagsAreIndependent(t *testing.T) {
	s := NewEventStore()
	s.SetTeamLoading(true)
	general, team := s.Loading()
	if general {
		t.Fatal("team loading must not set general loading")
	}
	if !team {
		t.Fatal("team loading flag not set")
	}
}
