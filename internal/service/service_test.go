package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"eventdeck/internal/cache"
	"eventdeck/internal/dto"
	"eventdeck/internal/model"
	"eventdeck/internal/session"
	"eventdeck/internal/store"
	"eventdeck/internal/upstream"
)

var nopLog = zerolog.Nop()

func newTestService(t *testing.T, baseURL string, user model.User) *Service {
	t.Helper()

	sessions, err := session.NewStore(t.TempDir(), &nopLog)
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != "" {
		if err := sessions.Login(session.Session{User: user, AccessToken: "tok"}, false); err != nil {
			t.Fatal(err)
		}
	}

	return New(Deps{
		Client:     upstream.New(baseURL, sessions, &nopLog),
		Events:     store.NewEventStore(),
		Guests:     store.NewGuestStore(),
		Session:    sessions,
		Responses:  cache.New(5*time.Minute, 0),
		Membership: cache.New(10*time.Minute, 0),
		Feed:       nil,
		Log:        &nopLog,
	})
}

func TestListFetchReplacesCollection(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"results":[
			{"id":3,"title":"Expo"},
			{"id":1,"event_name":"Gala","start_time":"18:00"},
			{"id":2,"name":"Fair","location":"Hall B"}
		]}`))
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL, model.User{ID: "9"})
	events, err := s.FetchEvents(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	stored := s.events.Events()
	if len(stored) != 3 {
		t.Fatalf("len = %d, want 3", len(stored))
	}
	for i, want := range []string{"3", "1", "2"} {
		if stored[i].ID != want {
			t.Fatalf("stored[%d].ID = %q, want %q (order must be preserved)", i, stored[i].ID, want)
		}
	}
	if stored[1].Name != "Gala" || stored[1].StartTime != "18:00" {
		t.Fatalf("normalization lost fields: %+v", stored[1])
	}
	if stored[2].Venue != "Hall B" {
		t.Fatalf("location fallback missing: %+v", stored[2])
	}
	if s.events.Total() != len(events) {
		t.Fatalf("total = %d", s.events.Total())
	}

	// A second fetch within the TTL is served from the cache.
	if _, err := s.FetchEvents(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("upstream calls = %d, want 1 (cached)", calls)
	}
}

func TestCreateEventPrependsAndBecomesCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.Write([]byte(`[{"id":1,"name":"existing"}]`))
		case r.Method == http.MethodPost:
			w.WriteHeader(201)
			w.Write([]byte(`{"id":50,"name":"Launch Party","start_time":"20:00"}`))
		}
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL, model.User{ID: "9"})
	if _, err := s.FetchEvents(context.Background()); err != nil {
		t.Fatal(err)
	}

	ev, err := s.CreateEvent(context.Background(), dto.EventRequest{Name: "Launch Party"})
	if err != nil {
		t.Fatal(err)
	}
	if ev.ID != "50" {
		t.Fatalf("ID = %q", ev.ID)
	}

	stored := s.events.Events()
	if stored[0].ID != "50" {
		t.Fatalf("new event not at front: %+v", stored[0])
	}
	cur, ok := s.events.Current()
	if !ok || cur.ID != "50" {
		t.Fatalf("current = %+v ok=%v", cur, ok)
	}
	if cur.PendingSync {
		t.Fatal("confirmed create must not be flagged pending")
	}
}

func TestAddTeamMemberRefetchesServerState(t *testing.T) {
	// The server's post-add list deliberately differs from anything a
	// client-side merge would produce.
	serverTeam := []map[string]any{
		{"id": 7, "email": "old@x.y"},
		{"id": 8, "email": "new@x.y", "first_name": "Server", "role": "editor"},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/events/1/team/":
			w.WriteHeader(201)
			w.Write([]byte(`{"ok":true}`))
		case r.Method == http.MethodGet && r.URL.Path == "/events/1/":
			resp := map[string]any{"id": 1, "name": "Gala", "team_members": serverTeam}
			json.NewEncoder(w).Encode(resp)
		default:
			w.Write([]byte(`[{"id":1,"name":"Gala","team_members":[{"id":7,"email":"old@x.y"}]}]`))
		}
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL, model.User{ID: "9"})
	if _, err := s.FetchEvents(context.Background()); err != nil {
		t.Fatal(err)
	}

	ev, err := s.AddTeamMember(context.Background(), "1", dto.AddTeamMemberRequest{Email: "new@x.y"})
	if err != nil {
		t.Fatal(err)
	}

	if len(ev.TeamMembers) != 2 {
		t.Fatalf("team size = %d, want 2", len(ev.TeamMembers))
	}
	// The stored member must be the server's copy, not the optimistic
	// placeholder built from the request.
	if ev.TeamMembers[1].FirstName != "Server" || ev.TeamMembers[1].Role != "editor" {
		t.Fatalf("stored member is not the server copy: %+v", ev.TeamMembers[1])
	}

	stored, _ := s.events.Get("1")
	if len(stored.TeamMembers) != 2 || stored.TeamMembers[1].ID != "8" {
		t.Fatalf("store not reconciled with server list: %+v", stored.TeamMembers)
	}
}

func TestAddTeamMemberOptimisticFailureKeepsLocalAdd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(500)
			return
		}
		w.Write([]byte(`[{"id":1,"name":"Gala","team_members":[]}]`))
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL, model.User{ID: "9"})
	if _, err := s.FetchEvents(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := s.AddTeamMember(context.Background(), "1", dto.AddTeamMemberRequest{Email: "new@x.y"})
	if err == nil {
		t.Fatal("expected failure")
	}

	// No automatic rollback: the optimistic add stays and the error
	// is recorded for the caller to reconcile.
	stored, _ := s.events.Get("1")
	if len(stored.TeamMembers) != 1 {
		t.Fatalf("optimistic add rolled back, team = %+v", stored.TeamMembers)
	}
	if s.events.LastError() == "" {
		t.Fatal("error message missing from state")
	}
}

func TestDeleteEventFallsBackLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"name":"Gala"},{"id":2,"name":"Fair"}]`))
	}))

	s := newTestService(t, srv.URL, model.User{ID: "9"})
	if _, err := s.FetchEvents(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Kill the upstream so the delete hits a network error.
	srv.Close()

	err := s.DeleteEvent(context.Background(), "1")
	if err == nil {
		t.Fatal("expected a network error")
	}

	stored := s.events.Events()
	if len(stored) != 1 || stored[0].ID != "2" {
		t.Fatalf("local fallback removal missing: %+v", stored)
	}
	if s.events.LastError() == "" {
		t.Fatal("error message missing from state")
	}
}

func TestCreateEventFallsBackLocallyWithPendingSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	s := newTestService(t, srv.URL, model.User{ID: "9", Email: "owner@x.y"})
	if _, err := s.FetchEvents(context.Background()); err != nil {
		t.Fatal(err)
	}
	srv.Close()

	local, err := s.CreateEvent(context.Background(), dto.EventRequest{Name: "Offline Party"})
	if err == nil {
		t.Fatal("expected failure")
	}

	if local.ID == "" {
		t.Fatal("fallback create must carry a client-generated id")
	}
	stored, ok := s.events.Get(local.ID)
	if !ok {
		t.Fatal("fallback event missing from store")
	}
	if !stored.PendingSync {
		t.Fatal("fallback event must be flagged pending-sync")
	}
	if !stored.Owner.Matches(model.UserRef{ID: "9"}) {
		t.Fatalf("fallback owner = %+v", stored.Owner)
	}
}

func TestVisibleEventsExcludesNonMember(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/events/":
			w.Write([]byte(`[
				{"id":1,"name":"Mine","created_by":"42"},
				{"id":2,"name":"Team","team_members":[{"email":"me@x.y"}]},
				{"id":3,"name":"Foreign","created_by":"9"}
			]`))
		case "/events/2/":
			w.Write([]byte(`{"id":2,"name":"Team","team_members":[{"email":"me@x.y"}]}`))
		case "/events/3/":
			w.Write([]byte(`{"id":3,"name":"Foreign","team_members":[{"id":"7"}]}`))
		default:
			w.WriteHeader(404)
		}
	}))
	defer srv.Close()

	user := model.User{ID: "42", Email: "me@x.y"}
	s := newTestService(t, srv.URL, user)

	visible, err := s.VisibleEvents(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(visible) != 2 {
		t.Fatalf("visible = %d events, want 2", len(visible))
	}
	if visible[0].ID != "1" || visible[1].ID != "2" {
		t.Fatalf("visible ids = %q, %q", visible[0].ID, visible[1].ID)
	}
}

func TestVendorSeesEverything(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events/" {
			t.Errorf("vendor filtering must not fetch %s", r.URL.Path)
			w.WriteHeader(500)
			return
		}
		w.Write([]byte(`[{"id":1,"created_by":"9"},{"id":2,"created_by":"8"}]`))
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL, model.User{ID: "42", Role: "vendor"})
	visible, err := s.VisibleEvents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(visible) != 2 {
		t.Fatalf("visible = %d, want 2", len(visible))
	}
}

func TestGuestViewsTolerateDanglingEventRef(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/events/":
			w.Write([]byte(`[{"id":1,"name":"Gala"}]`))
		case "/guests/":
			w.Write([]byte(`[
				{"id":10,"name":"Ada","event_id":1,"status":"confirmed"},
				{"id":11,"name":"Grace","event_id":999,"status":"pending"}
			]`))
		}
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL, model.User{ID: "9"})
	if _, err := s.FetchEvents(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FetchGuests(context.Background(), ""); err != nil {
		t.Fatal(err)
	}

	views := s.GuestViews("")
	if len(views) != 2 {
		t.Fatalf("views = %d", len(views))
	}
	if views[0].EventName != "Gala" {
		t.Fatalf("views[0].EventName = %q", views[0].EventName)
	}
	if views[1].EventName != "Unknown Event" {
		t.Fatalf("dangling ref must display Unknown Event, got %q", views[1].EventName)
	}
}

func TestLoginReplacesSessionWholesale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login/" {
			w.WriteHeader(404)
			return
		}
		w.Write([]byte(`{"access":"new-token","refresh":"new-refresh","user":{"id":77,"email":"fresh@x.y","is_vendor":true}}`))
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL, model.User{})
	user, err := s.LoginWithCredentials(context.Background(), "fresh@x.y", "pw", false)
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != "77" || !user.IsVendor {
		t.Fatalf("user = %+v", user)
	}

	sess, ok := s.session.Current()
	if !ok || sess.AccessToken != "new-token" || sess.RefreshToken != "new-refresh" {
		t.Fatalf("session = %+v ok=%v", sess, ok)
	}
}

func TestMutationInvalidatesListCache(t *testing.T) {
	listCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			listCalls++
			w.Write([]byte(`[{"id":1,"name":"Gala"}]`))
			return
		}
		w.WriteHeader(201)
		w.Write([]byte(`{"id":2,"name":"New"}`))
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL, model.User{ID: "9"})
	if _, err := s.FetchEvents(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateEvent(context.Background(), dto.EventRequest{Name: "New"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FetchEvents(context.Background()); err != nil {
		t.Fatal(err)
	}

	if listCalls != 2 {
		t.Fatalf("list calls = %d, want 2 (cache invalidated by create)", listCalls)
	}
}
