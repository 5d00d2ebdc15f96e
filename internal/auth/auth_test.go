package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/moodplaylist/moodlist/internal/shared"
	"github.com/moodplaylist/moodlist/internal/store"
	tu "github.com/moodplaylist/moodlist/internal/testing"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newAuthenticator(t *testing.T, s *store.Store, tokenURL string) *Authenticator {
	t.Helper()
	a, err := New(Opts{
		Store: s,
		Spotify: shared.SpotifyConfig{
			ClientID:    "test_client_id",
			RedirectURI: "http://localhost:8080/callback",
		},
		TokenURL: tokenURL,
		Now:      func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}
	return a
}

func mustGet(t *testing.T, s *store.Store, key string) string {
	t.Helper()
	value, err := s.Get(key)
	if err != nil {
		t.Fatalf("get %s failed: %v", key, err)
	}
	return value
}

func TestBeginLogin(t *testing.T) {
	t.Run("Builds Authorization URL", func(t *testing.T) {
		s := tu.TempStore(t)
		a := newAuthenticator(t, s, "")

		authURL, err := a.BeginLogin(false)
		if err != nil {
			t.Fatalf("begin login failed: %v", err)
		}

		parsed, err := url.Parse(authURL)
		if err != nil {
			t.Fatalf("auth URL does not parse: %v", err)
		}

		query := parsed.Query()
		if query.Get("response_type") != "code" {
			t.Errorf("expected response_type=code, got %s", query.Get("response_type"))
		}
		if query.Get("client_id") != "test_client_id" {
			t.Errorf("expected client_id, got %s", query.Get("client_id"))
		}
		if query.Get("code_challenge_method") != "S256" {
			t.Errorf("expected S256 challenge method, got %s", query.Get("code_challenge_method"))
		}
		if query.Get("code_challenge") == "" {
			t.Error("expected a code challenge")
		}
		if query.Get("redirect_uri") != "http://localhost:8080/callback" {
			t.Errorf("unexpected redirect_uri %s", query.Get("redirect_uri"))
		}
		if query.Get("show_dialog") != "" {
			t.Error("show_dialog should be absent without force consent")
		}

		state := mustGet(t, s, store.KeyPKCEState)
		if state == "" {
			t.Fatal("expected state to be persisted")
		}
		if query.Get("state") != state {
			t.Error("URL state should match persisted state")
		}

		verifier := mustGet(t, s, store.KeyCodeVerifier)
		if len(verifier) != 128 {
			t.Errorf("expected 128-char verifier, got %d chars", len(verifier))
		}
		if query.Get("code_challenge") != challengeS256(verifier) {
			t.Error("challenge should be S256 of the persisted verifier")
		}
	})

	t.Run("Force Consent Adds show_dialog", func(t *testing.T) {
		s := tu.TempStore(t)
		a := newAuthenticator(t, s, "")

		authURL, err := a.BeginLogin(true)
		if err != nil {
			t.Fatalf("begin login failed: %v", err)
		}
		if !strings.Contains(authURL, "show_dialog=true") {
			t.Error("expected show_dialog=true in auth URL")
		}
	})

	t.Run("Clears Prior Session", func(t *testing.T) {
		s := tu.TempStore(t)
		a := newAuthenticator(t, s, "")

		if err := s.Set(store.KeyAccessToken, "stale"); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		if _, err := a.BeginLogin(false); err != nil {
			t.Fatalf("begin login failed: %v", err)
		}

		if token := mustGet(t, s, store.KeyAccessToken); token != "" {
			t.Errorf("expected stale token cleared, got %q", token)
		}
	})
}

func TestExchangeCode(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		s := tu.TempStore(t)

		var gotForm url.Values
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			gotForm = r.PostForm
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"new_access","refresh_token":"new_refresh","expires_in":1800}`))
		}))
		defer srv.Close()

		a := newAuthenticator(t, s, srv.URL)
		if _, err := a.BeginLogin(false); err != nil {
			t.Fatalf("begin login failed: %v", err)
		}
		verifier := mustGet(t, s, store.KeyCodeVerifier)
		state := mustGet(t, s, store.KeyPKCEState)

		token, err := a.ExchangeCode(ctx, "auth_code_1", state)
		if err != nil {
			t.Fatalf("exchange failed: %v", err)
		}
		if token != "new_access" {
			t.Errorf("expected new_access, got %q", token)
		}

		if gotForm.Get("grant_type") != "authorization_code" {
			t.Errorf("expected authorization_code grant, got %s", gotForm.Get("grant_type"))
		}
		if gotForm.Get("code") != "auth_code_1" {
			t.Errorf("expected code forwarded, got %s", gotForm.Get("code"))
		}
		if gotForm.Get("code_verifier") != verifier {
			t.Error("expected stored verifier in exchange form")
		}
		if gotForm.Get("client_id") != "test_client_id" {
			t.Errorf("expected client_id in form, got %s", gotForm.Get("client_id"))
		}
		if gotForm.Get("redirect_uri") != "http://localhost:8080/callback" {
			t.Errorf("expected redirect_uri in form, got %s", gotForm.Get("redirect_uri"))
		}

		if got := mustGet(t, s, store.KeyAccessToken); got != "new_access" {
			t.Errorf("expected access token stored, got %q", got)
		}
		if got := mustGet(t, s, store.KeyRefreshToken); got != "new_refresh" {
			t.Errorf("expected refresh token stored, got %q", got)
		}

		expiry, ok, err := s.Expiry()
		if err != nil || !ok {
			t.Fatalf("expected stored expiry, ok=%v err=%v", ok, err)
		}
		if want := fixedNow.Add(1800 * time.Second); !expiry.Equal(want) {
			t.Errorf("expected expiry %v, got %v", want, expiry)
		}

		// Verifier and state are single use.
		if got := mustGet(t, s, store.KeyCodeVerifier); got != "" {
			t.Error("expected verifier deleted after exchange")
		}
		if got := mustGet(t, s, store.KeyPKCEState); got != "" {
			t.Error("expected state deleted after exchange")
		}
	})

	t.Run("Missing Verifier", func(t *testing.T) {
		s := tu.TempStore(t)
		a := newAuthenticator(t, s, "")

		_, err := a.ExchangeCode(ctx, "code", "state")
		if !errors.Is(err, shared.ErrMissingVerifier) {
			t.Errorf("expected ErrMissingVerifier, got %v", err)
		}
	})

	t.Run("State Mismatch Wipes Credentials", func(t *testing.T) {
		s := tu.TempStore(t)
		a := newAuthenticator(t, s, "")

		if _, err := a.BeginLogin(false); err != nil {
			t.Fatalf("begin login failed: %v", err)
		}

		_, err := a.ExchangeCode(ctx, "code", "some_other_state")
		if !errors.Is(err, shared.ErrStateMismatch) {
			t.Fatalf("expected ErrStateMismatch, got %v", err)
		}

		if got := mustGet(t, s, store.KeyCodeVerifier); got != "" {
			t.Error("expected credentials wiped on state mismatch")
		}
	})

	t.Run("Missing Stored State Skips Check", func(t *testing.T) {
		s := tu.TempStore(t)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
		}))
		defer srv.Close()

		a := newAuthenticator(t, s, srv.URL)
		if _, err := a.BeginLogin(false); err != nil {
			t.Fatalf("begin login failed: %v", err)
		}
		if err := s.Delete(store.KeyPKCEState); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		if _, err := a.ExchangeCode(ctx, "code", "whatever_state"); err != nil {
			t.Errorf("expected exchange to succeed without stored state, got %v", err)
		}
	})

	t.Run("Upstream Rejection", func(t *testing.T) {
		s := tu.TempStore(t)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid authorization code"}`))
		}))
		defer srv.Close()

		a := newAuthenticator(t, s, srv.URL)
		if _, err := a.BeginLogin(false); err != nil {
			t.Fatalf("begin login failed: %v", err)
		}
		state := mustGet(t, s, store.KeyPKCEState)

		_, err := a.ExchangeCode(ctx, "bad_code", state)
		if !errors.Is(err, shared.ErrTokenExchange) {
			t.Fatalf("expected ErrTokenExchange, got %v", err)
		}
		if !strings.Contains(err.Error(), "Invalid authorization code") {
			t.Errorf("expected upstream detail in error, got %v", err)
		}

		if got := mustGet(t, s, store.KeyAccessToken); got != "" {
			t.Error("expected credentials wiped on exchange failure")
		}
	})

	t.Run("No Token Returned", func(t *testing.T) {
		s := tu.TempStore(t)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"scope":"user-read-private"}`))
		}))
		defer srv.Close()

		a := newAuthenticator(t, s, srv.URL)
		if _, err := a.BeginLogin(false); err != nil {
			t.Fatalf("begin login failed: %v", err)
		}
		state := mustGet(t, s, store.KeyPKCEState)

		_, err := a.ExchangeCode(ctx, "code", state)
		if !errors.Is(err, shared.ErrNoTokenReturned) {
			t.Errorf("expected ErrNoTokenReturned, got %v", err)
		}
	})

	t.Run("Non-Numeric expires_in Defaults To An Hour", func(t *testing.T) {
		s := tu.TempStore(t)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"tok","expires_in":"soon"}`))
		}))
		defer srv.Close()

		a := newAuthenticator(t, s, srv.URL)
		if _, err := a.BeginLogin(false); err != nil {
			t.Fatalf("begin login failed: %v", err)
		}
		state := mustGet(t, s, store.KeyPKCEState)

		if _, err := a.ExchangeCode(ctx, "code", state); err != nil {
			t.Fatalf("exchange failed: %v", err)
		}

		expiry, ok, err := s.Expiry()
		if err != nil || !ok {
			t.Fatalf("expected stored expiry, ok=%v err=%v", ok, err)
		}
		if want := fixedNow.Add(time.Hour); !expiry.Equal(want) {
			t.Errorf("expected default 3600s lifetime, got expiry %v", expiry)
		}
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("No Refresh Token", func(t *testing.T) {
		s := tu.TempStore(t)
		a := newAuthenticator(t, s, "")

		if err := s.Set(store.KeyAccessToken, "stale"); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		_, err := a.Refresh(ctx)
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Fatalf("expected ErrNoRefreshToken, got %v", err)
		}

		if got := mustGet(t, s, store.KeyAccessToken); got != "" {
			t.Error("expected credentials wiped")
		}
	})

	t.Run("Success With Rotation", func(t *testing.T) {
		s := tu.TempStore(t)

		var gotForm url.Values
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			gotForm = r.PostForm
			w.Write([]byte(`{"access_token":"rotated_access","refresh_token":"rotated_refresh","expires_in":3600}`))
		}))
		defer srv.Close()

		a := newAuthenticator(t, s, srv.URL)
		if err := s.SetTokens("old_access", "old_refresh", fixedNow); err != nil {
			t.Fatalf("set tokens failed: %v", err)
		}

		token, err := a.Refresh(ctx)
		if err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
		if token != "rotated_access" {
			t.Errorf("expected rotated_access, got %q", token)
		}

		if gotForm.Get("grant_type") != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %s", gotForm.Get("grant_type"))
		}
		if gotForm.Get("refresh_token") != "old_refresh" {
			t.Errorf("expected stored refresh token in form, got %s", gotForm.Get("refresh_token"))
		}

		if got := mustGet(t, s, store.KeyRefreshToken); got != "rotated_refresh" {
			t.Errorf("expected rotated refresh token stored, got %q", got)
		}
	})

	t.Run("Success Without Rotation Keeps Old Refresh Token", func(t *testing.T) {
		s := tu.TempStore(t)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"rotated_access","expires_in":3600}`))
		}))
		defer srv.Close()

		a := newAuthenticator(t, s, srv.URL)
		if err := s.SetTokens("old_access", "old_refresh", fixedNow); err != nil {
			t.Fatalf("set tokens failed: %v", err)
		}

		if _, err := a.Refresh(ctx); err != nil {
			t.Fatalf("refresh failed: %v", err)
		}

		if got := mustGet(t, s, store.KeyRefreshToken); got != "old_refresh" {
			t.Errorf("expected old refresh token kept, got %q", got)
		}
	})

	t.Run("Upstream Rejection Wipes Credentials", func(t *testing.T) {
		s := tu.TempStore(t)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
		}))
		defer srv.Close()

		a := newAuthenticator(t, s, srv.URL)
		if err := s.SetTokens("old_access", "old_refresh", fixedNow); err != nil {
			t.Fatalf("set tokens failed: %v", err)
		}

		_, err := a.Refresh(ctx)
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Fatalf("expected ErrRefreshFailed, got %v", err)
		}

		if got := mustGet(t, s, store.KeyAccessToken); got != "" {
			t.Error("expected credentials wiped on refresh failure")
		}
	})
}
