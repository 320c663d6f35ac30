package dto

import (
	"errors"

	"github.com/wb-go/wbf/ginext"

	"eventdeck/internal/apierr"
	"eventdeck/internal/model"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound   = "EVENT_NOT_FOUND"
	GuestNotFound   = "GUEST_NOT_FOUND"
	NotSignedIn     = "NOT_SIGNED_IN"
	SessionExpired  = "SESSION_EXPIRED"
	UpstreamErrCode = "UPSTREAM_ERROR"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

type SignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Vendor    bool   `json:"vendor"`
}

type PatchUserRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ProfileImage string `json:"profile_image" validate:"omitempty,webresource"`
}

type AgendaActivity struct {
	Time        string `json:"time"`
	Description string `json:"description" validate:"required"`
}

type AgendaDayRequest struct {
	Date       string           `json:"date"`
	Title      string           `json:"title"`
	Activities []AgendaActivity `json:"activities" validate:"dive"`
}

type HostRequest struct {
	Name    string   `json:"name" validate:"required"`
	Parents []string `json:"parents" validate:"max=2"`
}

type EventRequest struct {
	Name       string             `json:"name" validate:"required"`
	Category   string             `json:"category"`
	Date       string             `json:"date"`
	StartTime  string             `json:"start_time"`
	EndTime    string             `json:"end_time"`
	Venue      string             `json:"venue"`
	Details    string             `json:"details"`
	Image      string             `json:"image" validate:"omitempty,webresource"`
	YoutubeURL string             `json:"youtube_url"`
	MapLink    string             `json:"map_link"`
	AgendaDays []AgendaDayRequest `json:"agenda_days" validate:"dive"`
	Hosts      []HostRequest      `json:"hosts" validate:"dive"`
}

type AddTeamMemberRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	UserID      string   `json:"user_id"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type GuestRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	EventID string `json:"event_id" validate:"required"`
	Status  string `json:"status" validate:"omitempty,gueststatus"`
}

// GuestView decorates a guest with its resolved event name. A guest
// whose event reference does not resolve is shown against "Unknown
// Event" rather than dropped.
type GuestView struct {
	model.Guest
	EventName string `json:"event_name"`
}

type SessionView struct {
	User          model.User `json:"user"`
	Authenticated bool       `json:"authenticated"`
	Initialized   bool       `json:"initialized"`
}

type EventListView struct {
	Events []model.Event `json:"events"`
	Total  int           `json:"total"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func FieldBadFormatError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldBadFormat, "Field '"+fieldName+"' has bad format")
}

func EventNotFoundError(c *ginext.Context) {
	c.JSON(404, Response{
		Status: "error",
		Error:  &Error{Code: EventNotFound, Desc: "Event not found"},
	})
}

func GuestNotFoundError(c *ginext.Context) {
	c.JSON(404, Response{
		Status: "error",
		Error:  &Error{Code: GuestNotFound, Desc: "Guest not found"},
	})
}

func NotSignedInError(c *ginext.Context) {
	c.JSON(401, Response{
		Status: "error",
		Error:  &Error{Code: NotSignedIn, Desc: "Sign in to continue"},
	})
}

// UpstreamError maps a classified upstream failure onto the gateway
// response. Data may carry the locally-applied fallback entity so the
// caller still sees the degraded-mode state.
func UpstreamError(c *ginext.Context, err error, data any) {
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		InternalServerError(c)
		return
	}

	status := 502
	switch ae.Kind {
	case apierr.KindNetwork:
		status = 504
	case apierr.KindBadRequest:
		status = 400
	case apierr.KindUnauthorized:
		status = 401
	case apierr.KindForbidden:
		status = 403
	case apierr.KindNotFound:
		status = 404
	}

	code := UpstreamErrCode
	if ae.ForcedLogout {
		code = SessionExpired
	}
	c.JSON(status, Response{
		Status: "error",
		Error:  &Error{Code: code, Desc: ae.Message},
		Data:   data,
	})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
