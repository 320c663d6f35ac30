// Package session holds the authenticated-user state and persists the
// token pair across restarts. Two storage scopes mirror the dashboard
// frontend's remember-me toggle: a durable file that survives process
// restarts, and an ephemeral file removed on shutdown.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"

	"eventdeck/internal/model"
)

const (
	durableFile   = "session.json"
	ephemeralFile = "session.ephemeral.json"
)

// Session is the process-wide auth state. It is replaced wholesale on
// login and cleared wholesale on logout; the only partial mutation is
// PatchUser for profile edits.
type Session struct {
	User          model.User `json:"user"`
	AccessToken   string     `json:"access_token"`
	RefreshToken  string     `json:"refresh_token,omitempty"`
	Authenticated bool       `json:"authenticated"`
}

type Store struct {
	mu          sync.RWMutex
	dir         string
	sess        Session
	remember    bool
	initialized bool
	log         *zerolog.Logger
}

func NewStore(dir string, log *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Rehydrate loads persisted state at startup, preferring the durable
// scope. A missing or unreadable file leaves the store signed out.
func (s *Store) Rehydrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true

	for _, name := range []string{durableFile, ephemeralFile} {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				s.log.Warn().Err(err).Str("file", name).Msg("failed to read persisted session")
			}
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			s.log.Warn().Err(err).Str("file", name).Msg("corrupt persisted session, ignoring")
			continue
		}
		s.sess = sess
		s.remember = name == durableFile
		s.log.Info().Str("user_id", sess.User.ID).Bool("remember", s.remember).Msg("session rehydrated")
		return nil
	}
	return nil
}

// Login replaces the session wholesale and persists it in the scope
// chosen by remember. The other scope is cleared so stale state can
// never shadow the new session.
func (s *Store) Login(sess Session, remember bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.Authenticated = true
	s.sess = sess
	s.remember = remember
	s.initialized = true

	target, other := ephemeralFile, durableFile
	if remember {
		target, other = durableFile, ephemeralFile
	}
	_ = os.Remove(filepath.Join(s.dir, other))
	return s.save(target)
}

// Logout clears the in-memory session and both persisted scopes.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = Session{}
	return s.removeFiles()
}

// Clear is the forced-logout path used by the HTTP client when an
// auth-critical call returns 401.
func (s *Store) Clear() error { return s.Logout() }

// PatchUser applies a narrow in-place edit to the current user record
// and re-persists the session in its current scope.
func (s *Store) PatchUser(patch func(*model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sess.Authenticated {
		return errors.New("no active session")
	}
	patch(&s.sess.User)
	target := ephemeralFile
	if s.remember {
		target = durableFile
	}
	return s.save(target)
}

// Current returns a copy of the session and whether it is
// authenticated.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess, s.sess.Authenticated
}

// AccessToken returns the bearer token, or "" when signed out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.AccessToken
}

func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// TokenExpiry reports the access token's exp claim when the token is
// a JWT. The claim is read without signature verification; the daemon
// uses it only to schedule proactive refresh, never to grant access.
func (s *Store) TokenExpiry() (time.Time, bool) {
	s.mu.RLock()
	token := s.sess.AccessToken
	s.mu.RUnlock()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Close removes the ephemeral scope; called on daemon shutdown so a
// non-remembered session does not outlive the process.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.remember {
		_ = os.Remove(filepath.Join(s.dir, ephemeralFile))
	}
}

func (s *Store) save(name string) error {
	data, err := json.Marshal(s.sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, filepath.Join(s.dir, name))
}

func (s *Store) removeFiles() error {
	var firstErr error
	for _, name := range []string{durableFile, ephemeralFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
