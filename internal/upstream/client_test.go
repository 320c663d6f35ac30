package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"eventdeck/internal/apierr"
)

var nopLog = zerolog.Nop()

type fakeSession struct {
	token   string
	cleared bool
}

func (f *fakeSession) AccessToken() string { return f.token }
func (f *fakeSession) Clear() error        { f.cleared = true; return nil }

func TestBearerTokenInjected(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &fakeSession{token: "tok"}, &nopLog)
	if _, err := c.Get(context.Background(), "/events/"); err != nil {
		t.Fatal(err)
	}
	if got != "Bearer tok" {
		t.Fatalf("Authorization = %q", got)
	}
}

func TestNoHeaderWhenSignedOut(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &fakeSession{}, &nopLog)
	if _, err := c.Get(context.Background(), "/events/"); err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Fatalf("Authorization = %q, want empty", got)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		kind   apierr.Kind
	}{
		{400, apierr.KindBadRequest},
		{401, apierr.KindUnauthorized},
		{403, apierr.KindForbidden},
		{404, apierr.KindNotFound},
		{500, apierr.KindServer},
		{418, apierr.KindUnclassified},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c := New(srv.URL, &fakeSession{}, &nopLog)
		_, err := c.Get(context.Background(), "/events/")
		srv.Close()

		var ae *apierr.Error
		if !errors.As(err, &ae) {
			t.Fatalf("status %d: err = %v", tc.status, err)
		}
		if ae.Kind != tc.kind {
			t.Fatalf("status %d: kind = %v, want %v", tc.status, ae.Kind, tc.kind)
		}
	}
}

func TestServerMessagePreferred(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		w.Write([]byte(`{"detail":"name already taken"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &fakeSession{}, &nopLog)
	_, err := c.Get(context.Background(), "/events/")

	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatal(err)
	}
	if ae.Message != "name already taken" {
		t.Fatalf("Message = %q", ae.Message)
	}
}

func TestAuthCritical401ForcesLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
	}))
	defer srv.Close()

	sess := &fakeSession{token: "stale"}
	c := New(srv.URL, sess, &nopLog)
	_, err := c.Get(context.Background(), "/auth/me/")

	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatal(err)
	}
	if !ae.ForcedLogout {
		t.Fatal("401 on auth-critical path must force logout")
	}
	if !sess.cleared {
		t.Fatal("session must be cleared")
	}
}

func TestOrdinary401DoesNotForceLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
	}))
	defer srv.Close()

	sess := &fakeSession{token: "tok"}
	c := New(srv.URL, sess, &nopLog)
	_, err := c.Get(context.Background(), "/events/1/")

	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatal(err)
	}
	if ae.ForcedLogout {
		t.Fatal("ordinary 401 must not force logout")
	}
	if sess.cleared {
		t.Fatal("session must stay intact on ordinary 401")
	}
}

func TestConnectionFailureIsNetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1", &fakeSession{}, &nopLog)
	_, err := c.Get(context.Background(), "/events/")

	if apierr.KindOf(err) != apierr.KindNetwork {
		t.Fatalf("kind = %v, want network", apierr.KindOf(err))
	}
}
