package model

import (
	"strconv"
	"strings"
)

// GuestStatus is the invitation state of a guest.
type GuestStatus string

const (
	GuestPending   GuestStatus = "pending"
	GuestConfirmed GuestStatus = "confirmed"
	GuestDeclined  GuestStatus = "declined"
)

const VendorRole = "vendor"

type Event struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category,omitempty"`
	Date        string       `json:"date,omitempty"`
	StartTime   string       `json:"start_time,omitempty"`
	EndTime     string       `json:"end_time,omitempty"`
	Venue       string       `json:"venue,omitempty"`
	Details     string       `json:"details,omitempty"`
	AgendaDays  []AgendaDay  `json:"agenda_days,omitempty"`
	Hosts       []Host       `json:"hosts,omitempty"`
	Image       string       `json:"image,omitempty"`
	YoutubeURL  string       `json:"youtube_url,omitempty"`
	MapLink     string       `json:"map_link,omitempty"`
	CreatedAt   string       `json:"created_at,omitempty"`
	UpdatedAt   string       `json:"updated_at,omitempty"`
	Owner       UserRef      `json:"owner"`
	TeamMembers []TeamMember `json:"team_members"`

	// PendingSync marks an entity whose last mutation was applied
	// locally after the upstream call failed and is therefore not
	// confirmed by the server.
	PendingSync bool `json:"pending_sync,omitempty"`
}

type AgendaDay struct {
	ID         string     `json:"id"`
	Date       string     `json:"date,omitempty"`
	Title      string     `json:"title,omitempty"`
	Activities []Activity `json:"activities,omitempty"`
}

type Activity struct {
	ID          string `json:"id"`
	Time        string `json:"time,omitempty"`
	Description string `json:"description,omitempty"`
}

type Host struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Parents []string `json:"parents,omitempty"`
}

type TeamMember struct {
	ID          string   `json:"id"`
	Email       string   `json:"email,omitempty"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	AddedAt     string   `json:"added_at,omitempty"`
}

// Ref returns the member's identity as a UserRef.
func (m TeamMember) Ref() UserRef {
	return UserRef{ID: m.ID, Email: m.Email}
}

type Guest struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	EventID     string      `json:"event_id"`
	Status      GuestStatus `json:"status"`
	CheckedIn   bool        `json:"checked_in"`
	InvitedAt   string      `json:"invited_at,omitempty"`
	UpdatedAt   string      `json:"updated_at,omitempty"`
	PendingSync bool        `json:"pending_sync,omitempty"`
}

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Role         string `json:"role,omitempty"`
	IsVendor     bool   `json:"is_vendor,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// Ref returns the user's identity as a UserRef.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Email: u.Email}
}

// IsVendor is the single vendor-capability predicate. The upstream is
// inconsistent about whether it sets role or the is_vendor flag, so a
// user with either marker counts as a vendor.
func IsVendor(u User) bool {
	return u.IsVendor || strings.EqualFold(u.Role, VendorRole)
}

// UserRef identifies a user by id, email or both. Upstream payloads
// are inconsistent about which of the two is populated, so equality
// matches on whichever side both refs carry.
type UserRef struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
}

// Matches reports whether two refs denote the same user: equal
// non-empty ids, or equal non-empty emails (case-insensitive).
func (r UserRef) Matches(other UserRef) bool {
	if r.ID != "" && r.ID == other.ID {
		return true
	}
	if r.Email != "" && strings.EqualFold(r.Email, other.Email) {
		return true
	}
	return false
}

// IsZero reports whether the ref carries no identity at all.
func (r UserRef) IsZero() bool {
	return r.ID == "" && r.Email == ""
}

type EventStats struct {
	EventID        string `json:"event_id"`
	GuestTotal     int    `json:"guest_total"`
	GuestConfirmed int    `json:"guest_confirmed"`
	GuestDeclined  int    `json:"guest_declined"`
	GuestCheckedIn int    `json:"guest_checked_in"`
	TeamSize       int    `json:"team_size"`
}

// CoerceID renders an upstream identifier as its canonical string
// form. Ids arrive as strings or numbers depending on the endpoint.
func CoerceID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case nil:
		return ""
	default:
		return ""
	}
}
