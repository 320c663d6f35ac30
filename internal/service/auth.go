package service

import (
	"context"
	"encoding/json"
	"fmt"

	"eventdeck/internal/model"
	"eventdeck/internal/normalize"
	"eventdeck/internal/session"
)

// tokenField tries the token key variants the auth endpoints use.
func tokenField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func sessionFromPayload(payload []byte) (session.Session, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return session.Session{}, fmt.Errorf("decode auth response: %w", err)
	}
	if inner, ok := raw["data"].(map[string]any); ok {
		raw = inner
	}

	sess := session.Session{
		AccessToken:  tokenField(raw, "access", "access_token", "token"),
		RefreshToken: tokenField(raw, "refresh", "refresh_token"),
	}
	if userRaw, ok := raw["user"].(map[string]any); ok {
		sess.User = normalize.User(userRaw)
	} else {
		sess.User = normalize.User(raw)
	}
	return sess, nil
}

// LoginWithCredentials signs in against the upstream and replaces the
// session wholesale.
func (s *Service) LoginWithCredentials(ctx context.Context, email, password string, remember bool) (model.User, error) {
	payload, err := s.client.Post(ctx, "/auth/login/", map[string]any{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return model.User{}, err
	}

	sess, err := sessionFromPayload(payload)
	if err != nil {
		return model.User{}, err
	}
	if err := s.session.Login(sess, remember); err != nil {
		return model.User{}, err
	}
	if exp, ok := s.session.TokenExpiry(); ok {
		s.log.Info().Time("token_expiry", exp).Str("user_id", sess.User.ID).Msg("signed in")
	} else {
		s.log.Info().Str("user_id", sess.User.ID).Msg("signed in")
	}
	return sess.User, nil
}

// Signup registers a new account and signs it in.
func (s *Service) Signup(ctx context.Context, email, password, firstName, lastName string, vendor, remember bool) (model.User, error) {
	body := map[string]any{
		"email":      email,
		"password":   password,
		"first_name": firstName,
		"last_name":  lastName,
	}
	if vendor {
		body["role"] = model.VendorRole
		body["is_vendor"] = true
	}
	payload, err := s.client.Post(ctx, "/auth/signup/", body)
	if err != nil {
		return model.User{}, err
	}

	sess, err := sessionFromPayload(payload)
	if err != nil {
		return model.User{}, err
	}
	if sess.AccessToken == "" {
		// Some backends do not auto-login on signup.
		return s.LoginWithCredentials(ctx, email, password, remember)
	}
	if err := s.session.Login(sess, remember); err != nil {
		return model.User{}, err
	}
	return sess.User, nil
}

// Logout tells the upstream, then clears local state regardless of
// the upstream outcome.
func (s *Service) Logout(ctx context.Context) error {
	if _, err := s.client.Post(ctx, "/auth/logout/", nil); err != nil {
		s.log.Warn().Err(err).Msg("upstream logout failed, clearing local session anyway")
	}
	return s.session.Logout()
}

// PatchProfile applies a narrow user-record edit locally. Field
// values are only changed when the request carries them.
func (s *Service) PatchProfile(firstName, lastName, profileImage string) (model.User, error) {
	err := s.session.PatchUser(func(u *model.User) {
		if firstName != "" {
			u.FirstName = firstName
		}
		if lastName != "" {
			u.LastName = lastName
		}
		if profileImage != "" {
			u.ProfileImage = profileImage
		}
	})
	if err != nil {
		return model.User{}, err
	}
	sess, _ := s.session.Current()
	return sess.User, nil
}
