package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// ExchangeFunc trades an authorization code and returned state for an
// access token. Satisfied by [auth.Authenticator.ExchangeCode].
type ExchangeFunc func(ctx context.Context, code, state string) (string, error)

// CallbackResult contains the result of one authorization redirect.
type CallbackResult struct {
	AccessToken string
	err         error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler handles the authorization redirect for the PKCE flow.
//
// State validation and the token exchange are delegated to the
// [ExchangeFunc] so the handler stays a thin wire adapter. The handler
// processes at most one callback; the result is delivered exactly once
// through the result channel.
type CallbackHandler struct {
	exchange    ExchangeFunc
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a [CallbackHandler] delegating to exchange.
func NewCallbackHandler(exchange ExchangeFunc) *CallbackHandler {
	return &CallbackHandler{
		exchange:   exchange,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the authorization redirect request.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		err := fmt.Errorf("authorization denied: %s - %s", errParam, query.Get("error_description"))
		h.send(CallbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		err := fmt.Errorf("authorization redirect carried no code")
		h.send(CallbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.exchange(r.Context(), code, query.Get("state"))
	if err != nil {
		h.send(CallbackResult{err: err})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(CallbackResult{AccessToken: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// send delivers the callback result through the channel (only once).
func (h *CallbackHandler) send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving flow completion.
//
// The channel receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

const successPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Login Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>&#10003; Login Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
