// package spotify implements the authenticated Spotify Web API client.
//
// Every upstream call funnels through [Client.Call], which resolves a
// usable token from the credential store (refreshing when stale), retries
// once on an authentication failure, classifies errors, and emits optional
// diagnostic records. Typed endpoint wrappers live in api.go.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/moodplaylist/moodlist/internal/shared"
	"github.com/moodplaylist/moodlist/internal/store"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// expiryMargin is the safety window before the stored expiry within
	// which the access token is treated as already expired.
	expiryMargin = 5 * time.Second

	// maxAuthRetries bounds re-dispatch after a 401. A second consecutive
	// 401 surfaces as an error.
	maxAuthRetries = 1
)

// Refresher exchanges the stored refresh token for a new access token.
// Satisfied by [auth.Authenticator].
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Event is a diagnostic record for one dispatched request attempt.
type Event struct {
	ID      string
	Time    time.Time
	Method  string
	URL     string
	Status  int
	Attempt int
	Err     string
}

// Observer receives diagnostic [Event] records. Implementations must never
// alter control flow; recording failures are the observer's own problem.
type Observer interface {
	Record(event Event)
}

// noopObserver is the default when no observer is supplied.
type noopObserver struct{}

func (noopObserver) Record(Event) {}

// Response represents a raw API response with status and body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Client is the single chokepoint for all Spotify Web API calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *store.Store
	auth       Refresher
	logger     *log.Logger
	observer   Observer
	limiter    *rate.Limiter
	now        func() time.Time
}

// Opts contains configuration options for creating a [Client].
type Opts struct {
	Store      *store.Store
	Auth       Refresher
	HTTPClient *http.Client
	Logger     *log.Logger

	// Observer receives a record per request attempt. Nil means no-op.
	Observer Observer

	// Limiter throttles outgoing requests client-side. Nil means unthrottled.
	Limiter *rate.Limiter

	// BaseURL overrides the API base. Used by tests.
	BaseURL string

	// Now overrides the clock used for the expiry-margin check.
	Now func() time.Time
}

// NewClient creates a [Client] backed by the given credential store and
// refresher.
func NewClient(opts Opts) (*Client, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: credential store is required", shared.ErrInvalidArgument)
	}
	if opts.Auth == nil {
		return nil, fmt.Errorf("%w: refresher is required", shared.ErrInvalidArgument)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		store:      opts.Store,
		auth:       opts.Auth,
		logger:     opts.Logger,
		observer:   opts.Observer,
		limiter:    opts.Limiter,
		now:        opts.Now,
	}, nil
}

// resolveURL normalizes a target path into a fully-qualified URL.
//
// Accepts relative paths ("/me"), absolute URLs, and bare host-prefixed
// strings ("api.spotify.com/v1/me"). Already-encoded query strings are
// passed through untouched.
func (c *Client) resolveURL(path string) string {
	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "api.spotify.com"), strings.HasPrefix(path, "accounts.spotify.com"):
		return "https://" + path
	case strings.HasPrefix(path, "/"):
		return c.baseURL + path
	default:
		return c.baseURL + "/" + path
	}
}

// resolveToken returns a usable access token: the stored one if present,
// otherwise whatever a refresh yields.
func (c *Client) resolveToken(ctx context.Context) (string, error) {
	token, err := c.store.AccessToken()
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}

	token, err = c.auth.Refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrNoToken, err)
	}
	return token, nil
}

// Call dispatches an authenticated request and returns the classified
// response.
//
// body may be nil, a []byte sent verbatim, or any JSON-marshalable value.
// headers are merged over the defaults and win on conflict; a
// caller-supplied Authorization header bypasses token resolution entirely.
func (c *Client) Call(ctx context.Context, method, path string, body any, headers map[string]string) (*Response, error) {
	token := ""
	explicitAuth := headers["Authorization"] != ""

	if !explicitAuth {
		var err error
		token, err = c.resolveToken(ctx)
		if err != nil {
			return nil, err
		}

		// Proactively refresh when the stored expiry is inside the
		// safety margin.
		if expiry, ok, err := c.store.Expiry(); err != nil {
			return nil, err
		} else if ok && !c.now().Add(expiryMargin).Before(expiry) {
			token, err = c.auth.Refresh(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", shared.ErrSessionExpired, err)
			}
		}
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	fullURL := c.resolveURL(path)

	for attempt := 0; ; attempt++ {
		resp, err := c.dispatch(ctx, method, fullURL, token, payload, headers, attempt)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt < maxAuthRetries && !explicitAuth {
			token, err = c.auth.Refresh(ctx)
			if err != nil {
				return nil, err
			}
			continue
		}

		return c.classify(resp)
	}
}

// dispatch performs a single HTTP round trip and records a diagnostic event.
func (c *Client) dispatch(ctx context.Context, method, fullURL, token string, payload []byte, headers map[string]string, attempt int) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	event := Event{
		ID:      shared.GenerateID(),
		Time:    c.now(),
		Method:  method,
		URL:     fullURL,
		Attempt: attempt,
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		event.Err = err.Error()
		c.observer.Record(event)
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		event.Err = err.Error()
		c.observer.Record(event)
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}

	event.Status = resp.StatusCode
	c.observer.Record(event)

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       bodyBytes,
	}, nil
}

// classify maps a completed response onto the request error taxonomy.
//
// A 403 also wipes credentials: scope or consent problems require a full
// re-login.
func (c *Client) classify(resp *Response) (*Response, error) {
	switch {
	case resp.StatusCode == http.StatusNoContent:
		return resp, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var jsonData any
		if err := json.Unmarshal(resp.Body, &jsonData); err == nil {
			resp.IsJSON = true
			resp.JSONData = jsonData
		}
		// Upstream is not assumed to always return JSON; a parse failure
		// leaves the raw text in Body.
		return resp, nil

	case resp.StatusCode == http.StatusForbidden:
		if err := c.store.ClearAll(); err != nil {
			c.logger.Warnf("failed to clear credentials: %v", err)
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrForbidden, serverMessage(resp))

	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, serverMessage(resp))

	default:
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrUpstream, resp.StatusCode, serverMessage(resp))
	}
}

// serverMessage extracts a human-readable error message, preferring the
// structured error field, then raw response text, then the status phrase.
//
// The error field arrives in two shapes: the Web API's object
// ({"error":{"message":...}}) and the accounts service's bare code string
// ({"error":"invalid_grant","error_description":...}). Both are handled.
func serverMessage(resp *Response) string {
	var envelope struct {
		Error     json.RawMessage `json:"error"`
		ErrorDesc string          `json:"error_description"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err == nil {
		var structured struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &structured) == nil && structured.Message != "" {
			return structured.Message
		}
		if envelope.ErrorDesc != "" {
			return envelope.ErrorDesc
		}
		var code string
		if json.Unmarshal(envelope.Error, &code) == nil && code != "" {
			return code
		}
	}
	if text := strings.TrimSpace(string(resp.Body)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		return payload, nil
	}
}
