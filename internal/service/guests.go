package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"eventdeck/internal/dto"
	"eventdeck/internal/model"
	"eventdeck/internal/normalize"
)

func guestBody(req dto.GuestRequest) map[string]any {
	status := req.Status
	if status == "" {
		status = string(model.GuestPending)
	}
	return map[string]any{
		"name":     req.Name,
		"email":    req.Email,
		"phone":    req.Phone,
		"event_id": req.EventID,
		"status":   status,
	}
}

func (s *Service) localGuest(id string, req dto.GuestRequest) model.Guest {
	status := model.GuestStatus(req.Status)
	if status == "" {
		status = model.GuestPending
	}
	return model.Guest{
		ID:        id,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		EventID:   req.EventID,
		Status:    status,
		InvitedAt: s.now().UTC().Format(time.RFC3339),
	}
}

// FetchGuests loads the guest list, optionally scoped to one event.
func (s *Service) FetchGuests(ctx context.Context, eventID string) ([]model.Guest, error) {
	s.guests.SetLoading(true)

	path := "/guests/"
	key := guestsPrefix + "list"
	if eventID != "" {
		path = "/events/" + eventID + "/guests/"
		key = guestsPrefix + "list_" + eventID
	}

	if v, ok := s.responses.Get(key); ok {
		guests := v.([]model.Guest)
		s.guests.ReplaceAll(guests, len(guests))
		return guests, nil
	}

	payload, err := s.client.Get(ctx, path)
	if err != nil {
		s.guests.Fail(userMessage(err))
		return nil, err
	}
	guests := normalize.GuestList(payload)
	s.guests.ReplaceAll(guests, len(guests))
	s.responses.Set(key, guests)
	return guests, nil
}

// GuestViews decorates guests with their resolved event name. A
// dangling event reference renders as "Unknown Event".
func (s *Service) GuestViews(eventID string) []dto.GuestView {
	guests := s.guests.Guests()
	if eventID != "" {
		guests = s.guests.ByEvent(eventID)
	}
	views := make([]dto.GuestView, 0, len(guests))
	for _, g := range guests {
		name := "Unknown Event"
		if ev, ok := s.events.Get(g.EventID); ok {
			name = ev.Name
		}
		views = append(views, dto.GuestView{Guest: g, EventName: name})
	}
	return views
}

// CreateGuest posts a new guest, falling back to a local pending-sync
// create when the upstream rejects the call.
func (s *Service) CreateGuest(ctx context.Context, req dto.GuestRequest) (model.Guest, error) {
	s.guests.SetLoading(true)

	payload, err := s.client.Post(ctx, "/guests/", guestBody(req))
	if err != nil {
		local := s.localGuest(uuid.NewString(), req)
		s.guests.FallbackCreate(local)
		s.guests.Fail(userMessage(err))
		s.responses.InvalidatePrefix(guestsPrefix)
		s.publish("guest", local.ID, "create", true)
		return local, err
	}

	g, perr := normalize.GuestPayload(payload)
	if perr != nil {
		s.guests.Fail(userMessage(perr))
		return model.Guest{}, perr
	}
	s.guests.Upsert(g)
	s.responses.InvalidatePrefix(guestsPrefix)
	s.publish("guest", g.ID, "create", false)
	return g, nil
}

func (s *Service) UpdateGuest(ctx context.Context, id string, req dto.GuestRequest) (model.Guest, error) {
	s.guests.SetLoading(true)

	payload, err := s.client.Put(ctx, "/guests/"+id+"/", guestBody(req))
	if err != nil {
		local := s.localGuest(id, req)
		if existing, ok := s.guests.Get(id); ok {
			local.InvitedAt = existing.InvitedAt
			local.CheckedIn = existing.CheckedIn
		}
		s.guests.FallbackUpdate(local)
		s.guests.Fail(userMessage(err))
		s.responses.InvalidatePrefix(guestsPrefix)
		s.publish("guest", id, "update", true)
		return local, err
	}

	g, perr := normalize.GuestPayload(payload)
	if perr != nil {
		s.guests.Fail(userMessage(perr))
		return model.Guest{}, perr
	}
	s.guests.Upsert(g)
	s.responses.InvalidatePrefix(guestsPrefix)
	s.publish("guest", g.ID, "update", false)
	return g, nil
}

func (s *Service) DeleteGuest(ctx context.Context, id string) error {
	s.guests.SetLoading(true)

	if _, err := s.client.Delete(ctx, "/guests/"+id+"/"); err != nil {
		s.guests.FallbackRemove(id)
		s.guests.Fail(userMessage(err))
		s.responses.InvalidatePrefix(guestsPrefix)
		s.publish("guest", id, "delete", true)
		return err
	}

	s.guests.Remove(id)
	s.responses.InvalidatePrefix(guestsPrefix)
	s.publish("guest", id, "delete", false)
	return nil
}

// CheckInGuest toggles the checked-in flag upstream. The degraded
// path flips the flag locally since check-in happens at the venue
// door where connectivity is least reliable.
func (s *Service) CheckInGuest(ctx context.Context, id string) (model.Guest, error) {
	s.guests.SetLoading(true)

	payload, err := s.client.Post(ctx, "/guests/"+id+"/checkin/", nil)
	if err != nil {
		local, ok := s.guests.Get(id)
		if ok {
			local.CheckedIn = true
			s.guests.FallbackUpdate(local)
		}
		s.guests.Fail(userMessage(err))
		s.responses.InvalidatePrefix(guestsPrefix)
		s.publish("guest", id, "update", true)
		return local, err
	}

	g, perr := normalize.GuestPayload(payload)
	if perr != nil {
		s.guests.Fail(userMessage(perr))
		return model.Guest{}, perr
	}
	s.guests.Upsert(g)
	s.responses.InvalidatePrefix(guestsPrefix)
	s.publish("guest", g.ID, "update", false)
	return g, nil
}
