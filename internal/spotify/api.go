package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// RecommendationParams describes one /recommendations query: seeds plus
// the audio-feature targets to bias toward. Zero-valued tempo bounds are
// omitted from the query.
type RecommendationParams struct {
	Limit              int
	SeedArtists        []string
	SeedTracks         []string
	SeedGenres         []string
	TargetValence      float64
	TargetEnergy       float64
	TargetDanceability float64
	MinTempo           float64
	MaxTempo           float64
}

// maxTracksPerInsert is the upstream hard limit on URIs per insertion call.
const maxTracksPerInsert = 100

// Profile retrieves the current authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	resp, err := c.Call(ctx, "GET", "/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &user, nil
}

// TopArtists retrieves the user's top artists.
func (c *Client) TopArtists(ctx context.Context, limit int) ([]Artist, error) {
	resp, err := c.Call(ctx, "GET", fmt.Sprintf("/me/top/artists?limit=%d", limit), nil, nil)
	if err != nil {
		return nil, err
	}

	var page pagedArtists
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode top artists: %w", err)
	}
	return page.Items, nil
}

// TopTracks retrieves the user's top tracks.
func (c *Client) TopTracks(ctx context.Context, limit int) ([]Track, error) {
	resp, err := c.Call(ctx, "GET", fmt.Sprintf("/me/top/tracks?limit=%d", limit), nil, nil)
	if err != nil {
		return nil, err
	}

	var page pagedTracks
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode top tracks: %w", err)
	}
	return page.Items, nil
}

// SavedTracks retrieves tracks from the user's library.
func (c *Client) SavedTracks(ctx context.Context, limit int) ([]Track, error) {
	resp, err := c.Call(ctx, "GET", fmt.Sprintf("/me/tracks?limit=%d", limit), nil, nil)
	if err != nil {
		return nil, err
	}

	var page pagedSavedTracks
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode saved tracks: %w", err)
	}

	tracks := make([]Track, 0, len(page.Items))
	for _, item := range page.Items {
		tracks = append(tracks, item.Track)
	}
	return tracks, nil
}

// Recommendations queries the recommendation endpoint with the given seeds
// and audio targets.
func (c *Client) Recommendations(ctx context.Context, params RecommendationParams) ([]Track, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(params.Limit))

	if len(params.SeedArtists) > 0 {
		query.Set("seed_artists", strings.Join(params.SeedArtists, ","))
	}
	if len(params.SeedTracks) > 0 {
		query.Set("seed_tracks", strings.Join(params.SeedTracks, ","))
	}
	if len(params.SeedGenres) > 0 {
		query.Set("seed_genres", strings.Join(params.SeedGenres, ","))
	}

	query.Set("target_valence", formatFloat(params.TargetValence))
	query.Set("target_energy", formatFloat(params.TargetEnergy))
	query.Set("target_danceability", formatFloat(params.TargetDanceability))
	if params.MinTempo > 0 {
		query.Set("min_tempo", formatFloat(params.MinTempo))
	}
	if params.MaxTempo > 0 {
		query.Set("max_tempo", formatFloat(params.MaxTempo))
	}

	resp, err := c.Call(ctx, "GET", "/recommendations?"+query.Encode(), nil, nil)
	if err != nil {
		return nil, err
	}

	var recs recommendationsResponse
	if err := json.Unmarshal(resp.Body, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode recommendations: %w", err)
	}
	return recs.Tracks, nil
}

// CreatePlaylist creates a new playlist owned by the current user.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string, public bool) (*Playlist, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	resp, err := c.Call(ctx, "POST", "/me/playlists", body, nil)
	if err != nil {
		return nil, err
	}

	var playlist Playlist
	if err := json.Unmarshal(resp.Body, &playlist); err != nil {
		return nil, fmt.Errorf("failed to decode playlist: %w", err)
	}
	return &playlist, nil
}

// AddTracks inserts track URIs into a playlist, at most 100 per call.
func (c *Client) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) > maxTracksPerInsert {
		return fmt.Errorf("at most %d tracks per insertion call, got %d", maxTracksPerInsert, len(uris))
	}

	body := map[string]any{"uris": uris}
	_, err := c.Call(ctx, "POST", fmt.Sprintf("/playlists/%s/tracks", playlistID), body, nil)
	return err
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
