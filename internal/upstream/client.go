// Package upstream is the HTTP wrapper around the event-management
// backend. It injects the bearer token, enforces a fixed timeout and
// classifies failures into the apierr taxonomy.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"eventdeck/internal/apierr"
)

const requestTimeout = 10 * time.Second

// SessionSource supplies the bearer token and absorbs a forced
// logout. Implemented by session.Store.
type SessionSource interface {
	AccessToken() string
	Clear() error
}

type Client struct {
	base    string
	httpc   *http.Client
	session SessionSource
	log     *zerolog.Logger
}

func New(baseURL string, sess SessionSource, log *zerolog.Logger) *Client {
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: requestTimeout},
		session: sess,
		log:     log,
	}
}

// authCritical paths are the ones where a 401 means the session
// itself is dead. A 401 anywhere else is an ordinary permission
// error and must not log the user out.
func authCritical(path string) bool {
	return strings.HasPrefix(path, "/auth/me") || strings.HasPrefix(path, "/auth/refresh")
}

// Do performs one request against the upstream. body, when non-nil,
// is JSON-encoded. The returned bytes are the raw response body of a
// 2xx response; any other outcome is an *apierr.Error.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("upstream request failed")
		return nil, apierr.Network(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.Network(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return payload, nil
	}

	classified := apierr.Classify(resp.StatusCode, payload)
	if resp.StatusCode == http.StatusUnauthorized && authCritical(path) {
		if err := c.session.Clear(); err != nil {
			c.log.Error().Err(err).Msg("failed to clear session after auth failure")
		}
		classified.ForcedLogout = true
		c.log.Info().Str("path", path).Msg("session cleared after 401 on auth-critical path")
	}
	c.log.Debug().
		Int("status", resp.StatusCode).
		Str("method", method).
		Str("path", path).
		Msg("upstream returned error status")
	return nil, classified
}

func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}
