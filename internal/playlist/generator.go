// package playlist turns a mood into a generated Spotify playlist.
//
// Track sourcing runs through an ordered fallback chain: each tier is an
// independent attempt whose failure is logged and skipped, and the first
// tier yielding any tracks wins. A built-in static track list anchors the
// chain so generation makes forward progress even when the recommendation
// endpoint is fully unavailable.
package playlist

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/moodplaylist/moodlist/internal/mood"
	"github.com/moodplaylist/moodlist/internal/shared"
	"github.com/moodplaylist/moodlist/internal/spotify"
)

const (
	// maxTracks caps how many sourced tracks end up in the playlist.
	maxTracks = 25

	namePrefix  = "MoodPlayl.ist: "
	nameSuffix  = " Vibe"
	description = "Generated by MoodPlayl.ist from your listening history."
)

// API is the slice of the Spotify client the generator depends on.
// Satisfied by [spotify.Client]; substituted with a fake in tests.
type API interface {
	Profile(ctx context.Context) (*spotify.User, error)
	TopArtists(ctx context.Context, limit int) ([]spotify.Artist, error)
	TopTracks(ctx context.Context, limit int) ([]spotify.Track, error)
	SavedTracks(ctx context.Context, limit int) ([]spotify.Track, error)
	Recommendations(ctx context.Context, params spotify.RecommendationParams) ([]spotify.Track, error)
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*spotify.Playlist, error)
	AddTracks(ctx context.Context, playlistID string, uris []string) error
}

// Result summarizes a successful generation for display.
type Result struct {
	Name   string `json:"name"`
	URL    string `json:"url,omitempty"`
	Tracks int    `json:"tracks"`
}

// Generator drives playlist generation against the Spotify API.
type Generator struct {
	api    API
	logger *log.Logger
}

// NewGenerator creates a [Generator].
func NewGenerator(api API, logger *log.Logger) *Generator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Generator{api: api, logger: logger}
}

// PlaylistName returns the deterministic playlist name for a mood.
func PlaylistName(m mood.Mood) string {
	return namePrefix + m.Title() + nameSuffix
}

// Generate validates the mood and session, sources tracks through the
// fallback chain, creates the playlist, and populates it in batches.
func (g *Generator) Generate(ctx context.Context, moodName string, makePublic bool) (*Result, error) {
	m, err := mood.Parse(moodName)
	if err != nil {
		return nil, err
	}

	user, err := g.api.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: profile response carried no user id", shared.ErrInvalidSession)
	}

	tracks := g.sourceTracks(ctx, m)
	if len(tracks) == 0 {
		return nil, shared.ErrNoTracksAvailable
	}
	if len(tracks) > maxTracks {
		tracks = tracks[:maxTracks]
	}

	name := PlaylistName(m)
	created, err := g.api.CreatePlaylist(ctx, name, description, makePublic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlaylistCreate, err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: no playlist id returned", shared.ErrPlaylistCreate)
	}

	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		uris = append(uris, t.URI)
	}

	if err := g.insertTracks(ctx, created.ID, uris); err != nil {
		return nil, err
	}

	g.logger.Infof("created playlist %q with %d tracks", name, len(uris))

	return &Result{
		Name:   name,
		URL:    created.ExternalURLs.Spotify,
		Tracks: len(uris),
	}, nil
}

// sourceTracks folds over the fallback chain and returns the first
// non-empty tier's tracks. Tier failures are non-fatal.
func (g *Generator) sourceTracks(ctx context.Context, m mood.Mood) []spotify.Track {
	for _, source := range g.sources(m) {
		tracks, err := source.fetch(ctx)
		if err != nil {
			g.logger.Warnf("track source %s failed: %v", source.name, err)
			continue
		}
		if len(tracks) == 0 {
			g.logger.Debugf("track source %s yielded nothing", source.name)
			continue
		}

		g.logger.Debugf("track source %s yielded %d tracks", source.name, len(tracks))
		return tracks
	}
	return nil
}

// insertTracks adds URIs to the playlist in sequential fixed-size batches.
// A batch failure aborts the remaining batches and reports how many tracks
// made it in.
func (g *Generator) insertTracks(ctx context.Context, playlistID string, uris []string) error {
	inserted := 0
	for start := 0; start < len(uris); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(uris) {
			end = len(uris)
		}

		if err := g.api.AddTracks(ctx, playlistID, uris[start:end]); err != nil {
			return fmt.Errorf("%w: %d tracks inserted before failure: %v", shared.ErrTrackInsert, inserted, err)
		}
		inserted += end - start
	}
	return nil
}
