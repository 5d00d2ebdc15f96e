// package auth implements the PKCE authorization-code flow against the
// Spotify accounts service: login initiation, code exchange, and refresh.
//
// The authenticator owns no token state of its own; everything is read and
// written through the credential [store.Store] so concurrent callers always
// observe the latest issued token.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/moodplaylist/moodlist/internal/shared"
	"github.com/moodplaylist/moodlist/internal/store"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// defaultTokenLifetime is assumed when the token endpoint omits
	// expires_in or sends a non-numeric value.
	defaultTokenLifetime = 3600 * time.Second
)

// Authenticator performs the PKCE handshake and token refresh exchanges.
type Authenticator struct {
	store      *store.Store
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time

	clientID    string
	redirectURI string
	scopes      []string
	authURL     string
	tokenURL    string
}

// Opts contains configuration options for creating an [Authenticator].
type Opts struct {
	Store      *store.Store
	Spotify    shared.SpotifyConfig
	HTTPClient *http.Client
	Logger     *log.Logger

	// AuthURL and TokenURL override the Spotify accounts endpoints.
	// Used by tests; zero values select the real endpoints.
	AuthURL  string
	TokenURL string

	// Now overrides the clock used to compute token expiry.
	Now func() time.Time
}

// New creates an [Authenticator] backed by the given credential store.
func New(opts Opts) (*Authenticator, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: credential store is required", shared.ErrInvalidArgument)
	}
	if opts.Spotify.ClientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id must be set", shared.ErrMissingCredentials)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.AuthURL == "" {
		opts.AuthURL = spotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	scopes := opts.Spotify.Scopes
	if len(scopes) == 0 {
		scopes = shared.DefaultScopes()
	}
	redirect := opts.Spotify.RedirectURI
	if redirect == "" {
		redirect = "http://localhost:8080/callback"
	}

	return &Authenticator{
		store:       opts.Store,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		now:         opts.Now,
		clientID:    opts.Spotify.ClientID,
		redirectURI: redirect,
		scopes:      scopes,
		authURL:     opts.AuthURL,
		tokenURL:    opts.TokenURL,
	}, nil
}

// oauthConfig builds the [oauth2.Config] used for authorize-URL construction.
func (a *Authenticator) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:    a.clientID,
		RedirectURL: a.redirectURI,
		Scopes:      a.scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  a.authURL,
			TokenURL: a.tokenURL,
		},
	}
}

// BeginLogin starts a fresh login attempt and returns the authorization URL
// the user agent must visit.
//
// Any prior session is invalidated first: all stored credentials are
// cleared before the new verifier and state are persisted. When
// forceConsent is set, the consent dialog is shown even if the user has
// previously approved the app.
func (a *Authenticator) BeginLogin(forceConsent bool) (string, error) {
	if err := a.store.ClearAll(); err != nil {
		return "", err
	}

	verifier, err := newVerifier()
	if err != nil {
		return "", err
	}
	state, err := newState()
	if err != nil {
		return "", err
	}

	if err := a.store.Set(store.KeyCodeVerifier, verifier); err != nil {
		return "", err
	}
	if err := a.store.Set(store.KeyPKCEState, state); err != nil {
		return "", err
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("code_challenge", challengeS256(verifier)),
	}
	if forceConsent {
		opts = append(opts, oauth2.SetAuthURLParam("show_dialog", "true"))
	}

	a.logger.Debugf("login initiated, verifier length %d", len(verifier))

	return a.oauthConfig().AuthCodeURL(state, opts...), nil
}

// ExchangeCode trades an authorization code for tokens.
//
// Requires the verifier persisted by [Authenticator.BeginLogin]; its absence
// means the user navigated back or cleared storage mid-flow and must
// restart login. When both a stored state and a returned state exist they
// must match; a mismatch is treated as a potential CSRF and wipes
// credentials. A missing stored state skips the check.
//
// Returns the new access token on success.
func (a *Authenticator) ExchangeCode(ctx context.Context, code, returnedState string) (string, error) {
	verifier, err := a.store.Get(store.KeyCodeVerifier)
	if err != nil {
		return "", err
	}
	if verifier == "" {
		return "", a.fail(fmt.Errorf("%w: restart login", shared.ErrMissingVerifier))
	}

	storedState, err := a.store.Get(store.KeyPKCEState)
	if err != nil {
		return "", err
	}
	if storedState != "" && returnedState != "" && storedState != returnedState {
		return "", a.fail(shared.ErrStateMismatch)
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {a.redirectURI},
		"code_verifier": {verifier},
		"client_id":     {a.clientID},
	}

	token, err := a.tokenRequest(ctx, form)
	if err != nil {
		return "", a.fail(fmt.Errorf("%w: %v", shared.ErrTokenExchange, err))
	}
	if token.AccessToken == "" {
		return "", a.fail(shared.ErrNoTokenReturned)
	}

	expiry := a.now().Add(token.lifetime())
	if err := a.store.SetTokens(token.AccessToken, token.RefreshToken, expiry); err != nil {
		return "", err
	}

	// Verifier and state are single use.
	if err := a.store.Delete(store.KeyCodeVerifier); err != nil {
		return "", err
	}
	if err := a.store.Delete(store.KeyPKCEState); err != nil {
		return "", err
	}

	a.logger.Info("authorization code exchanged")

	return token.AccessToken, nil
}

// Refresh exchanges the stored refresh token for a new access token.
//
// A missing refresh token is a hard stop requiring full re-login. On
// success the access token and expiry are updated, and the refresh token
// is replaced if the service rotated it.
func (a *Authenticator) Refresh(ctx context.Context) (string, error) {
	refresh, err := a.store.RefreshToken()
	if err != nil {
		return "", err
	}
	if refresh == "" {
		return "", a.fail(shared.ErrNoRefreshToken)
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refresh},
		"client_id":     {a.clientID},
	}

	token, err := a.tokenRequest(ctx, form)
	if err != nil {
		return "", a.fail(fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err))
	}
	if token.AccessToken == "" {
		return "", a.fail(shared.ErrRefreshFailed)
	}

	expiry := a.now().Add(token.lifetime())
	if err := a.store.SetTokens(token.AccessToken, token.RefreshToken, expiry); err != nil {
		return "", err
	}

	a.logger.Debug("access token refreshed")

	return token.AccessToken, nil
}

// fail wipes stored credentials before propagating err. Auth failures
// always invalidate the session.
func (a *Authenticator) fail(err error) error {
	if clearErr := a.store.ClearAll(); clearErr != nil {
		a.logger.Warnf("failed to clear credentials: %v", clearErr)
	}
	return err
}

// tokenResponse models the fields the token endpoint is known to return.
type tokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    json.RawMessage `json:"expires_in"`
	Error        string          `json:"error"`
	ErrorDesc    string          `json:"error_description"`
}

// lifetime parses expires_in leniently: bare numbers and quoted numbers
// are honored, anything else falls back to the default lifetime.
func (t *tokenResponse) lifetime() time.Duration {
	raw := strings.Trim(string(t.ExpiresIn), `"`)
	if raw == "" || raw == "null" {
		return defaultTokenLifetime
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds <= 0 {
		return defaultTokenLifetime
	}
	return time.Duration(seconds * float64(time.Second))
}

// tokenRequest POSTs a form-encoded grant to the token endpoint and decodes
// the response, surfacing the service's own error description when present.
func (a *Authenticator) tokenRequest(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	var token tokenResponse
	// A non-JSON body is handled below by status code alone.
	_ = json.Unmarshal(body, &token)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := token.ErrorDesc
		if detail == "" {
			detail = token.Error
		}
		if detail == "" {
			detail = strings.TrimSpace(string(body))
		}
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, detail)
	}

	return &token, nil
}
