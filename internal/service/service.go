// Package service orchestrates the synchronization flow: an intent
// comes in, the upstream is called (response cache consulted first
// for reads), the payload is normalized, the store is reconciled and
// the response cache is invalidated after every mutation. When a
// mutating upstream call fails, the same mutation is applied locally
// with client-generated data and flagged pending-sync, so the state
// the caller sees stays internally consistent while the divergence
// remains visible.
package service

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"eventdeck/internal/access"
	"eventdeck/internal/cache"
	"eventdeck/internal/model"
	"eventdeck/internal/normalize"
	"eventdeck/internal/notify"
	"eventdeck/internal/session"
	"eventdeck/internal/store"
	"eventdeck/internal/upstream"
)

const (
	eventsPrefix = "events_"
	guestsPrefix = "guests_"
)

type Service struct {
	client    *upstream.Client
	events    *store.EventStore
	guests    *store.GuestStore
	session   *session.Store
	responses *cache.Cache
	resolver  *access.Resolver
	feed      *notify.Publisher
	log       *zerolog.Logger
	now       func() time.Time
}

type Deps struct {
	Client     *upstream.Client
	Events     *store.EventStore
	Guests     *store.GuestStore
	Session    *session.Store
	Responses  *cache.Cache
	Membership *cache.Cache
	Feed       *notify.Publisher
	Log        *zerolog.Logger
}

func New(d Deps) *Service {
	s := &Service{
		client:    d.Client,
		events:    d.Events,
		guests:    d.Guests,
		session:   d.Session,
		responses: d.Responses,
		feed:      d.Feed,
		log:       d.Log,
		now:       time.Now,
	}
	s.resolver = access.NewResolver(s, d.Membership, d.Log)
	return s
}

func (s *Service) Resolver() *access.Resolver { return s.resolver }

// EventByID returns one normalized event detail, served from the
// response cache when fresh. Implements access.EventFetcher.
func (s *Service) EventByID(ctx context.Context, id string) (model.Event, error) {
	key := eventsPrefix + "detail_" + id
	if v, ok := s.responses.Get(key); ok {
		return v.(model.Event), nil
	}
	ev, err := s.fetchEventDirect(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	s.responses.Set(key, ev)
	return ev, nil
}

// fetchEventDirect always goes to the upstream, bypassing the cache.
// The re-fetch-after-write paths depend on that.
func (s *Service) fetchEventDirect(ctx context.Context, id string) (model.Event, error) {
	payload, err := s.client.Get(ctx, "/events/"+id+"/")
	if err != nil {
		return model.Event{}, err
	}
	ev, err := normalize.EventPayload(payload)
	if err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// RefreshEvent re-fetches one event into the store, dropping any
// cached copy first. Used by the change-feed reader.
func (s *Service) RefreshEvent(ctx context.Context, id string) error {
	s.responses.Invalidate(eventsPrefix + "detail_" + id)
	ev, err := s.fetchEventDirect(ctx, id)
	if err != nil {
		return err
	}
	s.events.ReplaceOne(ev)
	return nil
}

// FetchEvents loads the event list into the store, wholesale.
func (s *Service) FetchEvents(ctx context.Context) ([]model.Event, error) {
	s.events.SetLoading(true)

	key := eventsPrefix + "list"
	if v, ok := s.responses.Get(key); ok {
		events := v.([]model.Event)
		s.events.ReplaceAll(events, len(events))
		return events, nil
	}

	payload, err := s.client.Get(ctx, "/events/")
	if err != nil {
		s.events.Fail(userMessage(err))
		return nil, err
	}
	events := normalize.EventList(payload)
	s.events.ReplaceAll(events, len(events))
	s.responses.Set(key, events)
	return events, nil
}

// VisibleEvents is the access-filtered list for the signed-in user.
func (s *Service) VisibleEvents(ctx context.Context) ([]model.Event, error) {
	sess, ok := s.session.Current()
	if !ok {
		return nil, errNoSession
	}
	events, err := s.FetchEvents(ctx)
	if err != nil {
		return nil, err
	}
	return access.FilterEventsForUser(ctx, events, sess.User, s.resolver), nil
}

// VendorEvents loads the vendor-scoped list for one user.
func (s *Service) VendorEvents(ctx context.Context, userID string) ([]model.Event, error) {
	s.events.SetLoading(true)

	key := eventsPrefix + "vendor_" + userID
	if v, ok := s.responses.Get(key); ok {
		events := v.([]model.Event)
		s.events.ReplaceAll(events, len(events))
		return events, nil
	}

	payload, err := s.client.Get(ctx, "/events/vendor/"+userID+"/")
	if err != nil {
		s.events.Fail(userMessage(err))
		return nil, err
	}
	events := normalize.EventList(payload)
	s.events.ReplaceAll(events, len(events))
	s.responses.Set(key, events)
	return events, nil
}

// Stats loads per-event guest statistics.
func (s *Service) Stats(ctx context.Context, eventID string) (model.EventStats, error) {
	key := eventsPrefix + "stats_" + eventID
	if v, ok := s.responses.Get(key); ok {
		return v.(model.EventStats), nil
	}

	payload, err := s.client.Get(ctx, "/events/"+eventID+"/stats/")
	if err != nil {
		return model.EventStats{}, err
	}
	stats := parseStats(eventID, payload)
	s.responses.Set(key, stats)
	return stats, nil
}

func parseStats(eventID string, payload []byte) model.EventStats {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return model.EventStats{EventID: eventID}
	}
	if inner, ok := raw["data"].(map[string]any); ok {
		raw = inner
	}
	return model.EventStats{
		EventID:        eventID,
		GuestTotal:     pickInt(raw, "guest_total", "total_guests", "guests"),
		GuestConfirmed: pickInt(raw, "guest_confirmed", "confirmed"),
		GuestDeclined:  pickInt(raw, "guest_declined", "declined"),
		GuestCheckedIn: pickInt(raw, "guest_checked_in", "checked_in"),
		TeamSize:       pickInt(raw, "team_size", "team_members"),
	}
}

func pickInt(raw map[string]any, keys ...string) int {
	for _, key := range keys {
		if f, ok := raw[key].(float64); ok {
			return int(f)
		}
	}
	return 0
}

// SearchUsers queries the upstream user directory.
func (s *Service) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	payload, err := s.client.Get(ctx, "/users/search/?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	raws := normalize.Unwrap(payload)
	users := make([]model.User, 0, len(raws))
	for _, raw := range raws {
		users = append(users, normalize.User(raw))
	}
	return users, nil
}

func (s *Service) publish(entity, entityID, op string, pendingSync bool) {
	s.feed.Publish(entity, entityID, op, pendingSync)
}
