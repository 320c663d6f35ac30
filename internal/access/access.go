// Package access decides which events a user may see. Both the
// visibility filter and the membership resolver fail closed: an event
// whose lookup errors is treated as not visible.
package access

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"eventdeck/internal/cache"
	"eventdeck/internal/model"
)

const MembershipTTL = 10 * time.Minute

// EventFetcher loads one normalized event detail from the upstream.
type EventFetcher interface {
	EventByID(ctx context.Context, id string) (model.Event, error)
}

// Resolver answers team-membership questions with a short-TTL cache
// in front of the event-detail fetch.
type Resolver struct {
	fetch EventFetcher
	cache *cache.Cache
	log   *zerolog.Logger
}

func NewResolver(fetch EventFetcher, c *cache.Cache, log *zerolog.Logger) *Resolver {
	return &Resolver{fetch: fetch, cache: c, log: log}
}

// IsTeamMember reports whether user is on the event's team. The
// upstream is inconsistent about which identifier it populates per
// member, so membership is the union of id, user_id and email
// matches. Lookup failure answers false.
func (r *Resolver) IsTeamMember(ctx context.Context, eventID string, user model.User) bool {
	key := "membership_" + eventID + "_" + user.ID
	if v, ok := r.cache.Get(key); ok {
		return v.(bool)
	}

	ev, err := r.fetch.EventByID(ctx, eventID)
	if err != nil {
		r.log.Debug().Err(err).Str("event_id", eventID).Msg("membership lookup failed, answering false")
		return false
	}

	member := false
	ref := user.Ref()
	for _, tm := range ev.TeamMembers {
		if tm.Ref().Matches(ref) {
			member = true
			break
		}
	}
	r.cache.Set(key, member)
	return member
}

// Invalidate drops cached membership answers for one event. Called
// after team mutations so a removed member loses access promptly.
func (r *Resolver) Invalidate(eventID string) {
	r.cache.InvalidatePrefix("membership_" + eventID + "_")
}

// FilterEventsForUser returns the events user may see, in the input
// order. Vendors get the list unchanged: the upstream already scopes
// vendor queries to the vendor's own events. Everyone else sees an
// event only as its creator or as a team member.
func FilterEventsForUser(ctx context.Context, events []model.Event, user model.User, resolver *Resolver) []model.Event {
	if model.IsVendor(user) {
		return events
	}

	visible := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.Owner.Matches(user.Ref()) {
			visible = append(visible, ev)
			continue
		}
		if resolver.IsTeamMember(ctx, ev.ID, user) {
			visible = append(visible, ev)
		}
	}
	return visible
}
