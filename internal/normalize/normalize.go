// Package normalize maps the upstream's inconsistent payload shapes
// onto the canonical model types. The backend is not stable about
// field naming across endpoints (team_members vs teamMembers,
// start_time vs startTime, ...), so every payload is reshaped once at
// this boundary and the rest of the daemon works against one shape.
//
// The per-field key priority order encodes compatibility behavior
// observed against the live backend; do not reorder casually.
package normalize

import (
	"encoding/json"

	"eventdeck/internal/model"
)

// pick returns the first non-empty value among keys, coerced to a
// string, or "" when no variant is present.
func pick(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64, int, int64:
			return model.CoerceID(v)
		}
	}
	return ""
}

func pickBool(raw map[string]any, keys ...string) bool {
	for _, key := range keys {
		if b, ok := raw[key].(bool); ok {
			return b
		}
	}
	return false
}

func pickList(raw map[string]any, keys ...string) []any {
	for _, key := range keys {
		if l, ok := raw[key].([]any); ok {
			return l
		}
	}
	return nil
}

// Event reshapes one raw event object.
func Event(raw map[string]any) model.Event {
	ev := model.Event{
		ID:          model.CoerceID(firstPresent(raw, "id", "event_id")),
		Name:        pick(raw, "name", "title", "event_name"),
		Category:    pick(raw, "category", "type"),
		Date:        pick(raw, "date", "event_date"),
		StartTime:   pick(raw, "startTime", "start_time", "start_Time"),
		EndTime:     pick(raw, "endTime", "end_time", "end_Time"),
		Venue:       pick(raw, "venue", "location"),
		Details:     pick(raw, "details", "description"),
		Image:       pick(raw, "image", "image_url", "photo"),
		YoutubeURL:  pick(raw, "youtubeUrl", "youtube_url"),
		MapLink:     pick(raw, "googleMapLink", "google_map_link", "map_link"),
		CreatedAt:   pick(raw, "created_at", "createdAt"),
		UpdatedAt:   pick(raw, "updated_at", "updatedAt"),
		Owner:       owner(raw),
		TeamMembers: teamMembers(raw),
	}
	for _, d := range pickList(raw, "agenda_days", "agendaDays", "agenda") {
		if m, ok := d.(map[string]any); ok {
			ev.AgendaDays = append(ev.AgendaDays, agendaDay(m))
		}
	}
	for _, h := range pickList(raw, "hosts") {
		if m, ok := h.(map[string]any); ok {
			ev.Hosts = append(ev.Hosts, host(m))
		}
	}
	return ev
}

// owner resolves the event creator across the three field names the
// upstream uses: admin.id, created_by, createdBy.
func owner(raw map[string]any) model.UserRef {
	if admin, ok := raw["admin"].(map[string]any); ok {
		return model.UserRef{
			ID:    model.CoerceID(admin["id"]),
			Email: pick(admin, "email"),
		}
	}
	return model.UserRef{ID: model.CoerceID(firstPresent(raw, "created_by", "createdBy"))}
}

// teamMembers always normalizes to the canonical team_members field,
// whichever of the two names the payload arrived under.
func teamMembers(raw map[string]any) []model.TeamMember {
	list := pickList(raw, "team_members", "teamMembers")
	if list == nil {
		return nil
	}
	members := make([]model.TeamMember, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tm := model.TeamMember{
			ID:        model.CoerceID(firstPresent(m, "id", "user_id", "userId")),
			Email:     pick(m, "email"),
			FirstName: pick(m, "first_name", "firstName"),
			LastName:  pick(m, "last_name", "lastName"),
			Role:      pick(m, "role"),
			AddedAt:   pick(m, "added_at", "addedAt"),
		}
		for _, p := range pickList(m, "permissions") {
			if s, ok := p.(string); ok {
				tm.Permissions = append(tm.Permissions, s)
			}
		}
		members = append(members, tm)
	}
	return members
}

func agendaDay(raw map[string]any) model.AgendaDay {
	day := model.AgendaDay{
		ID:    model.CoerceID(raw["id"]),
		Date:  pick(raw, "date"),
		Title: pick(raw, "title"),
	}
	for _, a := range pickList(raw, "activities") {
		if m, ok := a.(map[string]any); ok {
			day.Activities = append(day.Activities, model.Activity{
				ID:          model.CoerceID(m["id"]),
				Time:        pick(m, "time"),
				Description: pick(m, "description"),
			})
		}
	}
	return day
}

func host(raw map[string]any) model.Host {
	h := model.Host{
		ID:   model.CoerceID(raw["id"]),
		Name: pick(raw, "name"),
	}
	for _, p := range pickList(raw, "parents", "parent_names") {
		if s, ok := p.(string); ok {
			h.Parents = append(h.Parents, s)
		}
	}
	return h
}

// Guest reshapes one raw guest object.
func Guest(raw map[string]any) model.Guest {
	status := model.GuestStatus(pick(raw, "status"))
	switch status {
	case model.GuestPending, model.GuestConfirmed, model.GuestDeclined:
	default:
		status = model.GuestPending
	}
	return model.Guest{
		ID:        model.CoerceID(raw["id"]),
		Name:      pick(raw, "name", "full_name"),
		Email:     pick(raw, "email"),
		Phone:     pick(raw, "phone", "phone_number"),
		EventID:   model.CoerceID(firstPresent(raw, "event_id", "eventId", "event")),
		Status:    status,
		CheckedIn: pickBool(raw, "checked_in", "checkedIn"),
		InvitedAt: pick(raw, "invited_at", "invitedAt", "created_at"),
		UpdatedAt: pick(raw, "updated_at", "updatedAt"),
	}
}

// User reshapes the current-user / auth payload.
func User(raw map[string]any) model.User {
	return model.User{
		ID:           model.CoerceID(firstPresent(raw, "id", "user_id")),
		Email:        pick(raw, "email"),
		FirstName:    pick(raw, "first_name", "firstName"),
		LastName:     pick(raw, "last_name", "lastName"),
		Role:         pick(raw, "role"),
		IsVendor:     pickBool(raw, "is_vendor", "isVendor"),
		ProfileImage: pick(raw, "profile_image", "profileImage", "avatar"),
	}
}

// Unwrap extracts the list out of a response payload. The upstream
// wraps lists inconsistently; the shapes are tried in order: bare
// array, {results}, {events}, {data}, single object (wrapped as a
// one-element list). Unrecognized shapes yield an empty list.
func Unwrap(payload []byte) []map[string]any {
	var asList []map[string]any
	if err := json.Unmarshal(payload, &asList); err == nil {
		return asList
	}

	var asObject map[string]any
	if err := json.Unmarshal(payload, &asObject); err != nil {
		return []map[string]any{}
	}
	for _, key := range []string{"results", "events", "data"} {
		if inner, ok := asObject[key].([]any); ok {
			out := make([]map[string]any, 0, len(inner))
			for _, item := range inner {
				if m, ok := item.(map[string]any); ok {
					out = append(out, m)
				}
			}
			return out
		}
	}
	if len(asObject) > 0 {
		return []map[string]any{asObject}
	}
	return []map[string]any{}
}

// EventList unwraps and normalizes a list payload.
func EventList(payload []byte) []model.Event {
	raws := Unwrap(payload)
	events := make([]model.Event, 0, len(raws))
	for _, raw := range raws {
		events = append(events, Event(raw))
	}
	return events
}

// GuestList unwraps and normalizes a guest list payload.
func GuestList(payload []byte) []model.Guest {
	raws := Unwrap(payload)
	guests := make([]model.Guest, 0, len(raws))
	for _, raw := range raws {
		guests = append(guests, Guest(raw))
	}
	return guests
}

// EventPayload decodes a single-event response body.
func EventPayload(payload []byte) (model.Event, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return model.Event{}, err
	}
	// Some endpoints wrap the object in a data envelope.
	if inner, ok := raw["data"].(map[string]any); ok {
		raw = inner
	}
	return Event(raw), nil
}

// GuestPayload decodes a single-guest response body.
func GuestPayload(payload []byte) (model.Guest, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return model.Guest{}, err
	}
	if inner, ok := raw["data"].(map[string]any); ok {
		raw = inner
	}
	return Guest(raw), nil
}

func firstPresent(raw map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v
		}
	}
	return nil
}
