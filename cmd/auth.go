package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/moodplaylist/moodlist/internal/server"
	"github.com/moodplaylist/moodlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// authTimeout bounds how long the login command waits for the user to
// complete the consent flow in the browser.
const authTimeout = 2 * time.Minute

// Login performs the PKCE authorization flow.
//
// Starts a local HTTP callback server, opens the browser to the Spotify
// consent page, and exchanges the returned authorization code for tokens.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: authenticator not initialized (is spotify client_id configured?)", shared.ErrServiceUnavailable)
	}

	authURL, err := r.auth.BeginLogin(cmd.Bool("force-consent"))
	if err != nil {
		return fmt.Errorf("failed to begin login: %w", err)
	}

	handler := server.NewCallbackHandler(r.auth.ExchangeCode)
	router := server.NewRouter(r.logger)
	router.Handler(handler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-handler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}

	r.writePlainln("✓ Login successful")
	r.writePlain("You can now use: moodlist generate <mood>\n")

	return nil
}

// Logout clears every stored credential.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: credential store not initialized", shared.ErrServiceUnavailable)
	}

	if err := r.store.ClearAll(); err != nil {
		return err
	}

	return r.writePlain("✓ Logged out\n")
}

// Status reports whether a session is stored and when it expires.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: credential store not initialized", shared.ErrServiceUnavailable)
	}

	access, err := r.store.AccessToken()
	if err != nil {
		return err
	}
	if access == "" {
		return r.writePlain("✗ Not logged in\n")
	}

	r.writePlain("✓ Logged in\n")

	refresh, err := r.store.RefreshToken()
	if err != nil {
		return err
	}
	if refresh != "" {
		r.writePlain("Refresh token: present\n")
	} else {
		r.writePlain("Refresh token: absent\n")
	}

	if expiry, ok, err := r.store.Expiry(); err != nil {
		return err
	} else if ok {
		if time.Now().After(expiry) {
			r.writePlain("Access token: expired %s\n", expiry.Format(time.RFC1123))
		} else {
			r.writePlain("Access token: valid until %s\n", expiry.Format(time.RFC1123))
		}
	}

	r.writePlain("Scopes: %s\n", r.config.Credentials.Spotify.ScopeString())

	return nil
}
