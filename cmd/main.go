package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/moodplaylist/moodlist/internal/auth"
	"github.com/moodplaylist/moodlist/internal/diag"
	"github.com/moodplaylist/moodlist/internal/playlist"
	"github.com/moodplaylist/moodlist/internal/shared"
	"github.com/moodplaylist/moodlist/internal/spotify"
	"github.com/moodplaylist/moodlist/internal/store"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warnf("failed to load config.toml, using defaults: %v", err)
		}
	}

	var credStore *store.Store
	if path, err := storePath(config); err != nil {
		logger.Warnf("failed to resolve store path: %v", err)
	} else if credStore, err = store.Open(path); err != nil {
		logger.Warnf("failed to open credential store: %v", err)
		credStore = nil
	}

	var recorder *diag.Recorder
	if config.Diagnostics.Enabled {
		if path, err := diagPath(config); err != nil {
			logger.Warnf("failed to resolve diagnostics path: %v", err)
		} else if recorder, err = diag.Open(path, logger); err != nil {
			logger.Warnf("failed to open diagnostics db: %v", err)
			recorder = nil
		}
	}

	var authenticator *auth.Authenticator
	var api *spotify.Client
	var generator *playlist.Generator

	if credStore != nil && config.Credentials.Spotify.ClientID != "" {
		var err error
		authenticator, err = auth.New(auth.Opts{
			Store:   credStore,
			Spotify: config.Credentials.Spotify,
			Logger:  logger,
		})
		if err != nil {
			logger.Warnf("failed to create authenticator: %v", err)
		}

		if authenticator != nil {
			opts := spotify.Opts{
				Store:   credStore,
				Auth:    authenticator,
				Logger:  logger,
				Limiter: rate.NewLimiter(rate.Limit(10), 5),
			}
			if recorder != nil {
				opts.Observer = recorder
			}

			if api, err = spotify.NewClient(opts); err != nil {
				logger.Warnf("failed to create spotify client: %v", err)
			} else {
				generator = playlist.NewGenerator(api, logger)
			}
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:    config,
		Store:     credStore,
		Auth:      authenticator,
		API:       api,
		Generator: generator,
		Diag:      recorder,
		Logger:    logger,
	})

	app := &cli.Command{
		Name:     "moodlist",
		Usage:    "Generate Spotify playlists from a mood",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)

	if credStore != nil {
		credStore.Close()
	}
	if recorder != nil {
		recorder.Close()
	}

	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func storePath(config *shared.Config) (string, error) {
	if config.Store.Path != "" {
		return config.Store.Path, nil
	}
	dir, err := shared.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.db"), nil
}

func diagPath(config *shared.Config) (string, error) {
	if config.Diagnostics.Path != "" {
		return config.Diagnostics.Path, nil
	}
	dir, err := shared.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "diagnostics.db"), nil
}
