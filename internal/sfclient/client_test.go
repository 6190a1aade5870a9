package sfclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hris-tools/sf-apidoc/internal/common"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGet_DynamicTokenPreferred(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer dynamic-token" {
			_, _ = w.Write([]byte("ok"))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := New(Options{BearerToken: "static-token"}, testLogger())
	c.dynamicToken = "dynamic-token"

	body, status, err := c.Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != http.StatusOK || string(body) != "ok" {
		t.Errorf("got status=%d body=%q", status, body)
	}
}

func TestGet_FallsThroughToStaticTokenOn401(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer dynamic-token":
			w.WriteHeader(http.StatusUnauthorized)
		case "Bearer static-token":
			_, _ = w.Write([]byte("static ok"))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer ts.Close()

	c := New(Options{BearerToken: "static-token", Username: "u", Password: "p"}, testLogger())
	c.dynamicToken = "dynamic-token"

	body, status, err := c.Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != http.StatusOK || string(body) != "static ok" {
		t.Errorf("got status=%d body=%q", status, body)
	}
}

func TestGet_BasicTierIsUnguarded(t *testing.T) {
	var sawBasic bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); ok {
			sawBasic = true
		}
		// Even a server error is returned to the caller from tier 3.
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer ts.Close()

	c := New(Options{Username: "u", Password: "p"}, testLogger())

	body, status, err := c.Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sawBasic {
		t.Error("expected basic auth credentials on final tier")
	}
	if status != http.StatusInternalServerError || string(body) != "boom" {
		t.Errorf("got status=%d body=%q", status, body)
	}
}

func TestGet_NonAuthStatusDoesNotFallThrough(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := New(Options{BearerToken: "static-token", Username: "u", Password: "p"}, testLogger())
	c.dynamicToken = "dynamic-token"

	_, status, err := c.Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 404 is not an auth failure: the first tier's response is final.
	if status != http.StatusNotFound || requests != 1 {
		t.Errorf("got status=%d after %d requests", status, requests)
	}
}

func TestAuthenticate_SetsToken(t *testing.T) {
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("client_id") != "client-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("signed-assertion"))
	}))
	defer idp.Close()

	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("grant_type") != saml2BearerGrant {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("assertion") != "signed-assertion" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-token"}`))
	}))
	defer token.Close()

	c := New(Options{OAuth: common.OAuthConfig{
		ClientID: "client-1",
		UserID:   "admin",
		IDPURL:   idp.URL,
		TokenURL: token.URL,
	}}, testLogger())

	c.Authenticate(context.Background())
	if c.Token() != "fresh-token" {
		t.Errorf("expected fresh-token, got %q", c.Token())
	}
}

func TestAuthenticate_FailsSoft(t *testing.T) {
	tests := []struct {
		name      string
		idpStatus int
		tokenBody string
	}{
		{"idp error", http.StatusInternalServerError, `{"access_token":"x"}`},
		{"missing access_token", http.StatusOK, `{"error":"invalid_grant"}`},
		{"token response not json", http.StatusOK, `<html>error</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.idpStatus)
				_, _ = w.Write([]byte("assertion"))
			}))
			defer idp.Close()

			token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.tokenBody)
			}))
			defer token.Close()

			c := New(Options{OAuth: common.OAuthConfig{
				ClientID: "client-1",
				UserID:   "admin",
				IDPURL:   idp.URL,
				TokenURL: token.URL,
			}}, testLogger())

			c.Authenticate(context.Background())
			if c.Token() != "" {
				t.Errorf("expected empty token, got %q", c.Token())
			}
		})
	}
}

func TestAuthenticate_SkippedWithoutClientID(t *testing.T) {
	c := New(Options{Username: "u", Password: "p"}, testLogger())
	c.Authenticate(context.Background())
	if c.Token() != "" {
		t.Errorf("expected no token, got %q", c.Token())
	}
}

func TestGet_TransportErrorFallsThrough(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("recovered"))
	}))
	defer ok.Close()

	// Point the client at a live server, but make the earlier tiers fail at
	// the transport level by shutting down a throwaway server first.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	c := New(Options{BearerToken: "static-token", Username: "u", Password: "p"}, testLogger())
	c.dynamicToken = "dynamic-token"

	// All tiers target the same URL; a dead endpoint exhausts them and the
	// final error surfaces.
	_, _, err := c.Get(context.Background(), deadURL)
	if err == nil {
		t.Error("expected transport error from final tier")
	}

	// Against the healthy server the first tier succeeds immediately.
	body, status, err := c.Get(context.Background(), ok.URL)
	if err != nil || status != http.StatusOK || string(body) != "recovered" {
		t.Errorf("got body=%q status=%d err=%v", body, status, err)
	}
}
