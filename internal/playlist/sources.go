package playlist

import (
	"context"

	"github.com/moodplaylist/moodlist/internal/mood"
	"github.com/moodplaylist/moodlist/internal/spotify"
)

// insertBatchSize is the upstream hard limit on URIs per insertion call.
const insertBatchSize = 100

// seedLimit is how many top artists/tracks seed a recommendation query.
// The recommendation endpoint accepts at most five seeds total.
const seedLimit = 5

// safeGenres is the fixed genre set used when personalized seeding is
// unavailable.
var safeGenres = []string{"pop", "indie", "electronic"}

// fallbackURIs is the built-in last-resort track list. It guarantees
// forward progress in demos and tests even when the recommendation
// mechanism is fully unavailable.
var fallbackURIs = []string{
	"spotify:track:4uLU6hMCjMI75M1A2tKUQC",
	"spotify:track:7qiZfU4dY1lWllzX7mPBI3",
	"spotify:track:0VjIjW4GlUZAMYd2vXMi3b",
	"spotify:track:3n3Ppam7vgaVa1iaRUc9Lp",
	"spotify:track:2takcwOaAZWiXQijPHIx7B",
	"spotify:track:7ouMYWpwJ422jRcDASZB7P",
	"spotify:track:5ChkMS8OtdzJeqyybCc9R5",
	"spotify:track:1mea3bSkSGXuIRvnydlB5b",
	"spotify:track:6habFhsOp2NvshLv26DqMb",
	"spotify:track:3AJwUDP919kvQ9QcozQPxg",
}

// trackSource is one tier of the fallback chain. Adding, removing, or
// reordering tiers is a data change in [Generator.sources].
type trackSource struct {
	name  string
	fetch func(ctx context.Context) ([]spotify.Track, error)
}

// sources returns the ordered fallback chain for a mood.
func (g *Generator) sources(m mood.Mood) []trackSource {
	targets := m.Targets()

	return []trackSource{
		{
			name: "artist-seeded recommendations",
			fetch: func(ctx context.Context) ([]spotify.Track, error) {
				artists, err := g.api.TopArtists(ctx, seedLimit)
				if err != nil {
					return nil, err
				}
				if len(artists) == 0 {
					return nil, nil
				}

				seeds := make([]string, 0, len(artists))
				for _, a := range artists {
					seeds = append(seeds, a.ID)
				}
				return g.api.Recommendations(ctx, recommendationParams(targets, spotify.RecommendationParams{SeedArtists: seeds}))
			},
		},
		{
			name: "track-seeded recommendations",
			fetch: func(ctx context.Context) ([]spotify.Track, error) {
				tracks, err := g.api.TopTracks(ctx, seedLimit)
				if err != nil {
					return nil, err
				}
				if len(tracks) == 0 {
					return nil, nil
				}

				seeds := make([]string, 0, len(tracks))
				for _, t := range tracks {
					seeds = append(seeds, t.ID)
				}
				return g.api.Recommendations(ctx, recommendationParams(targets, spotify.RecommendationParams{SeedTracks: seeds}))
			},
		},
		{
			name: "genre-seeded recommendations",
			fetch: func(ctx context.Context) ([]spotify.Track, error) {
				return g.api.Recommendations(ctx, recommendationParams(targets, spotify.RecommendationParams{SeedGenres: safeGenres}))
			},
		},
		{
			name: "top tracks",
			fetch: func(ctx context.Context) ([]spotify.Track, error) {
				return g.api.TopTracks(ctx, maxTracks)
			},
		},
		{
			name: "saved tracks",
			fetch: func(ctx context.Context) ([]spotify.Track, error) {
				return g.api.SavedTracks(ctx, maxTracks)
			},
		},
		{
			name: "static fallback",
			fetch: func(ctx context.Context) ([]spotify.Track, error) {
				return staticFallbackTracks(), nil
			},
		},
	}
}

// recommendationParams fills a seed-carrying params struct with the mood's
// audio targets and the track cap.
func recommendationParams(targets mood.AudioTargets, seeds spotify.RecommendationParams) spotify.RecommendationParams {
	seeds.Limit = maxTracks
	seeds.TargetValence = targets.Valence
	seeds.TargetEnergy = targets.Energy
	seeds.TargetDanceability = targets.Danceability
	seeds.MinTempo = targets.MinTempo
	seeds.MaxTempo = targets.MaxTempo
	return seeds
}

func staticFallbackTracks() []spotify.Track {
	tracks := make([]spotify.Track, 0, len(fallbackURIs))
	for _, uri := range fallbackURIs {
		tracks = append(tracks, spotify.Track{URI: uri})
	}
	return tracks
}
