package service

import (
	"fmt"

	"github.com/wb-go/wbf/ginext"

	"eventdeck/internal/dto"
	"eventdeck/pkg/validator"
)

// Gateway handlers. Each one binds and validates the request, runs
// the corresponding sync operation and writes the response envelope.

func (s *Service) HandleLogin(ctx *ginext.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse login request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := s.LoginWithCredentials(ctx.Request.Context(), req.Email, req.Password, req.Remember)
	if err != nil {
		dto.UpstreamError(ctx, err, nil)
		return
	}
	dto.SuccessResponse(ctx, user)
}

func (s *Service) HandleSignup(ctx *ginext.Context) {
	var req dto.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := s.Signup(ctx.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName, req.Vendor, true)
	if err != nil {
		dto.UpstreamError(ctx, err, nil)
		return
	}
	dto.SuccessCreatedResponse(ctx, user)
}

func (s *Service) HandleLogout(ctx *ginext.Context) {
	if err := s.Logout(ctx.Request.Context()); err != nil {
		s.log.Error().Err(err).Msg("failed to clear session on logout")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, nil)
}

func (s *Service) HandleSession(ctx *ginext.Context) {
	sess, ok := s.session.Current()
	dto.SuccessResponse(ctx, dto.SessionView{
		User:          sess.User,
		Authenticated: ok,
		Initialized:   s.session.Initialized(),
	})
}

func (s *Service) HandlePatchProfile(ctx *ginext.Context) {
	if _, ok := s.session.Current(); !ok {
		dto.NotSignedInError(ctx)
		return
	}
	var req dto.PatchUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := s.PatchProfile(req.FirstName, req.LastName, req.ProfileImage)
	if err != nil {
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, user)
}

func (s *Service) HandleListEvents(ctx *ginext.Context) {
	events, err := s.FetchEvents(ctx.Request.Context())
	if err != nil {
		dto.UpstreamError(ctx, err, nil)
		return
	}
	dto.SuccessResponse(ctx, dto.EventListView{Events: events, Total: s.events.Total()})
}

func (s *Service) HandleVisibleEvents(ctx *ginext.Context) {
	events, err := s.VisibleEvents(ctx.Request.Context())
	if err == errNoSession {
		dto.NotSignedInError(ctx)
		return
	}
	if err != nil {
		dto.UpstreamError(ctx, err, nil)
		return
	}
	dto.SuccessResponse(ctx, dto.EventListView{Events: events, Total: len(events)})
}

func (s *Service) HandleVendorEvents(ctx *ginext.Context) {
	events, err := s.VendorEvents(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		dto.UpstreamError(ctx, err, nil)
		return
	}
	dto.SuccessResponse(ctx, dto.EventListView{Events: events, Total: len(events)})
}

func (s *Service) HandleGetEvent(ctx *ginext.Context) {
	id := ctx.Param("id")
	ev, err := s.EventByID(ctx.Request.Context(), id)
	if err != nil {
		dto.UpstreamError(ctx, err, nil)
		return
	}
	s.events.Upsert(ev)
	s.events.SetCurrent(id)
	dto.SuccessResponse(ctx, ev)
}

func (s *Service) HandleCreateEvent(ctx *ginext.Context) {
	if _, ok := s.session.Current(); !ok {
		dto.NotSignedInError(ctx)
		return
	}
	var req dto.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create event request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	ev, err := s.CreateEvent(ctx.Request.Context(), req)
	if err != nil {
		// The local fallback copy rides along so the caller sees the
		// degraded-mode state it will find in the store.
		dto.UpstreamError(ctx, err, ev)
		return
	}
	dto.SuccessCreatedResponse(ctx, ev)
}

func (s *Service) HandleUpdateEvent(ctx *ginext.Context) {
	if _, ok := s.session.Current(); !ok {
		dto.NotSignedInError(ctx)
		return
	}
	var req dto.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	ev, err := s.UpdateEvent(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		dto.UpstreamError(ctx, err, ev)
		return
	}
	dto.SuccessResponse(ctx, ev)
}

func (s *Service) HandleDeleteEvent(ctx *ginext.Context) {
	if _, ok := s.session.Current(); !ok {
		dto.NotSignedInError(ctx)
		return
	}
	id := ctx.Param("id")
	if err := s.DeleteEvent(ctx.Request.Context(), id); err != nil {
		dto.UpstreamError(ctx, err, map[string]any{"id": id, "pending_sync": true})
		return
	}
	dto.SuccessResponse(ctx, map[string]any{"id": id})
}

func (s *Service) HandleAddTeamMember(ctx *ginext.Context) {
	if _, ok := s.session.Current(); !ok {
		dto.NotSignedInError(ctx)
		return
	}
	var req dto.AddTeamMemberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	ev, err := s.AddTeamMember(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		dto.UpstreamError(ctx, err, nil)
		return
	}
	dto.SuccessResponse(ctx, ev)
}

func (s *Service) HandleRemoveTeamMember(ctx *ginext.Context) {
	if _, ok := s.session.Current(); !ok {
		dto.NotSignedInError(ctx)
		return
	}
	ev, err := s.RemoveTeamMember(ctx.Request.Context(), ctx.Param("id"), ctx.Param("memberId"))
	if err != nil {
		dto.UpstreamError(ctx, err, nil)
		return
	}
	dto.SuccessResponse(ctx, ev)
}

func (s *Service) HandleStats(ctx *ginext.Context) {
	stats, err := s.Stats(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		dto.UpstreamError(ctx, err, nil)
		return
	}
	dto.SuccessResponse(ctx, stats)
}

func (s *Service) HandleSearchUsers(ctx *ginext.Context) {
	query := ctx.Query("q")
	if query == "" {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Query parameter 'q' is required")
		return
	}
	users, err := s.SearchUsers(ctx.Request.Context(), query)
	if err != nil {
		dto.UpstreamError(ctx, err, nil)
		return
	}
	dto.SuccessResponse(ctx, users)
}

func (s *Service) HandleListGuests(ctx *ginext.Context) {
	eventID := ctx.Query("event")
	if _, err := s.FetchGuests(ctx.Request.Context(), eventID); err != nil {
		dto.UpstreamError(ctx, err, nil)
		return
	}
	dto.SuccessResponse(ctx, s.GuestViews(eventID))
}

func (s *Service) HandleCreateGuest(ctx *ginext.Context) {
	if _, ok := s.session.Current(); !ok {
		dto.NotSignedInError(ctx)
		return
	}
	var req dto.GuestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	g, err := s.CreateGuest(ctx.Request.Context(), req)
	if err != nil {
		dto.UpstreamError(ctx, err, g)
		return
	}
	dto.SuccessCreatedResponse(ctx, g)
}

func (s *Service) HandleUpdateGuest(ctx *ginext.Context) {
	if _, ok := s.session.Current(); !ok {
		dto.NotSignedInError(ctx)
		return
	}
	var req dto.GuestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	g, err := s.UpdateGuest(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		dto.UpstreamError(ctx, err, g)
		return
	}
	dto.SuccessResponse(ctx, g)
}

func (s *Service) HandleDeleteGuest(ctx *ginext.Context) {
	if _, ok := s.session.Current(); !ok {
		dto.NotSignedInError(ctx)
		return
	}
	id := ctx.Param("id")
	if err := s.DeleteGuest(ctx.Request.Context(), id); err != nil {
		dto.UpstreamError(ctx, err, map[string]any{"id": id, "pending_sync": true})
		return
	}
	dto.SuccessResponse(ctx, map[string]any{"id": id})
}

func (s *Service) HandleCheckInGuest(ctx *ginext.Context) {
	if _, ok := s.session.Current(); !ok {
		dto.NotSignedInError(ctx)
		return
	}
	g, err := s.CheckInGuest(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		dto.UpstreamError(ctx, err, g)
		return
	}
	dto.SuccessResponse(ctx, g)
}
