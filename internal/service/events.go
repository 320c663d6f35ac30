package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"eventdeck/internal/apierr"
	"eventdeck/internal/dto"
	"eventdeck/internal/model"
	"eventdeck/internal/normalize"
)

var errNoSession = errors.New("no active session")

// userMessage extracts the user-facing text of a classified upstream
// failure.
func userMessage(err error) string {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Something went wrong. Please try again."
}

func eventBody(req dto.EventRequest) map[string]any {
	body := map[string]any{
		"name":            req.Name,
		"category":        req.Category,
		"date":            req.Date,
		"start_time":      req.StartTime,
		"end_time":        req.EndTime,
		"venue":           req.Venue,
		"details":         req.Details,
		"image":           req.Image,
		"youtube_url":     req.YoutubeURL,
		"google_map_link": req.MapLink,
	}
	if len(req.AgendaDays) > 0 {
		body["agenda_days"] = req.AgendaDays
	}
	if len(req.Hosts) > 0 {
		body["hosts"] = req.Hosts
	}
	return body
}

// localEvent builds the client-side rendition of a mutation for the
// degraded path, owned by the signed-in user.
func (s *Service) localEvent(id string, req dto.EventRequest) model.Event {
	ev := model.Event{
		ID:         id,
		Name:       req.Name,
		Category:   req.Category,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Venue:      req.Venue,
		Details:    req.Details,
		Image:      req.Image,
		YoutubeURL: req.YoutubeURL,
		MapLink:    req.MapLink,
		CreatedAt:  s.now().UTC().Format(time.RFC3339),
		UpdatedAt:  s.now().UTC().Format(time.RFC3339),
	}
	if sess, ok := s.session.Current(); ok {
		ev.Owner = sess.User.Ref()
	}
	for _, d := range req.AgendaDays {
		day := model.AgendaDay{ID: uuid.NewString(), Date: d.Date, Title: d.Title}
		for _, a := range d.Activities {
			day.Activities = append(day.Activities, model.Activity{
				ID:          uuid.NewString(),
				Time:        a.Time,
				Description: a.Description,
			})
		}
		ev.AgendaDays = append(ev.AgendaDays, day)
	}
	for _, h := range req.Hosts {
		ev.Hosts = append(ev.Hosts, model.Host{ID: uuid.NewString(), Name: h.Name, Parents: h.Parents})
	}
	return ev
}

// CreateEvent posts a new event. On success the normalized server
// copy is prepended and becomes current; on failure the event is
// created locally with a client-generated id and flagged
// pending-sync, and the error is still returned.
func (s *Service) CreateEvent(ctx context.Context, req dto.EventRequest) (model.Event, error) {
	s.events.SetLoading(true)

	payload, err := s.client.Post(ctx, "/events/", eventBody(req))
	if err != nil {
		local := s.localEvent(uuid.NewString(), req)
		s.events.FallbackCreate(local)
		s.events.Fail(userMessage(err))
		s.responses.InvalidatePrefix(eventsPrefix)
		s.publish("event", local.ID, "create", true)
		return local, err
	}

	ev, perr := normalize.EventPayload(payload)
	if perr != nil {
		s.events.Fail(userMessage(perr))
		return model.Event{}, perr
	}
	s.events.Upsert(ev)
	s.events.SetCurrent(ev.ID)
	s.responses.InvalidatePrefix(eventsPrefix)
	s.publish("event", ev.ID, "create", false)
	s.log.Info().Str("event_id", ev.ID).Msg("event created")
	return ev, nil
}

// UpdateEvent puts changed fields. The degraded path rebuilds the
// entity from the request over the stored copy.
func (s *Service) UpdateEvent(ctx context.Context, id string, req dto.EventRequest) (model.Event, error) {
	s.events.SetLoading(true)

	payload, err := s.client.Put(ctx, "/events/"+id+"/", eventBody(req))
	if err != nil {
		local := s.localEvent(id, req)
		if existing, ok := s.events.Get(id); ok {
			local.Owner = existing.Owner
			local.TeamMembers = existing.TeamMembers
			local.CreatedAt = existing.CreatedAt
		}
		s.events.FallbackUpdate(local)
		s.events.Fail(userMessage(err))
		s.responses.InvalidatePrefix(eventsPrefix)
		s.publish("event", id, "update", true)
		return local, err
	}

	ev, perr := normalize.EventPayload(payload)
	if perr != nil {
		s.events.Fail(userMessage(perr))
		return model.Event{}, perr
	}
	s.events.Upsert(ev)
	s.responses.InvalidatePrefix(eventsPrefix)
	s.publish("event", ev.ID, "update", false)
	return ev, nil
}

// DeleteEvent removes an event. The local removal happens regardless
// of the upstream outcome so the visible list matches what the user
// asked for; a failed upstream call still reports its error.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	s.events.SetLoading(true)

	_, err := s.client.Delete(ctx, "/events/"+id+"/")
	if err != nil {
		s.events.FallbackRemove(id)
		s.events.Fail(userMessage(err))
		s.responses.InvalidatePrefix(eventsPrefix)
		s.publish("event", id, "delete", true)
		return err
	}

	s.events.Remove(id)
	s.responses.InvalidatePrefix(eventsPrefix)
	s.publish("event", id, "delete", false)
	s.log.Info().Str("event_id", id).Msg("event deleted")
	return nil
}

// AddTeamMember applies an optimistic local add, posts the mutation,
// then re-fetches the full parent event and replaces the stored copy
// with the server's state. The server list wins over any client-side
// merge. A failed call leaves the optimistic add in place (no
// automatic rollback) and records the error.
func (s *Service) AddTeamMember(ctx context.Context, eventID string, req dto.AddTeamMemberRequest) (model.Event, error) {
	s.events.SetTeamLoading(true)

	s.events.AddTeamMemberOptimistic(eventID, model.TeamMember{
		ID:          req.UserID,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Role:        req.Role,
		Permissions: req.Permissions,
		AddedAt:     s.now().UTC().Format(time.RFC3339),
	})

	body := map[string]any{
		"email":       req.Email,
		"user_id":     req.UserID,
		"role":        req.Role,
		"permissions": req.Permissions,
	}
	if _, err := s.client.Post(ctx, "/events/"+eventID+"/team/", body); err != nil {
		s.events.Fail(userMessage(err))
		return model.Event{}, err
	}

	return s.reloadAfterTeamChange(ctx, eventID, "team_add")
}

// RemoveTeamMember mirrors AddTeamMember for removal.
func (s *Service) RemoveTeamMember(ctx context.Context, eventID, memberID string) (model.Event, error) {
	s.events.SetTeamLoading(true)

	s.events.RemoveTeamMemberOptimistic(eventID, model.UserRef{ID: memberID})

	if _, err := s.client.Delete(ctx, "/events/"+eventID+"/team/"+memberID+"/"); err != nil {
		s.events.Fail(userMessage(err))
		return model.Event{}, err
	}

	return s.reloadAfterTeamChange(ctx, eventID, "team_remove")
}

func (s *Service) reloadAfterTeamChange(ctx context.Context, eventID, op string) (model.Event, error) {
	ev, err := s.fetchEventDirect(ctx, eventID)
	if err != nil {
		s.events.Fail(userMessage(err))
		return model.Event{}, err
	}
	s.events.ReplaceOne(ev)
	s.resolver.Invalidate(eventID)
	s.responses.InvalidatePrefix(eventsPrefix)
	s.publish("event", eventID, op, false)
	return ev, nil
}
