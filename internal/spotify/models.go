// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package spotify

// ExternalURLs holds known external links for a resource.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// User represents a Spotify user profile.
type User struct {
	ID           string       `json:"id"`
	DisplayName  string       `json:"display_name"`
	Country      string       `json:"country"`
	Product      string       `json:"product"` // premium, free, etc.
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
	URI    string   `json:"uri"`
}

// Track represents a Spotify track.
type Track struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []Artist `json:"artists"`
	URI     string   `json:"uri"`
}

// Playlist represents a Spotify playlist.
type Playlist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Public       bool         `json:"public"`
	URI          string       `json:"uri"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// savedTrack represents a track saved in the user's library.
type savedTrack struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

// pagedArtists represents a paginated response of artists.
type pagedArtists struct {
	Items []Artist `json:"items"`
	Total int      `json:"total"`
}

// pagedTracks represents a paginated response of tracks.
type pagedTracks struct {
	Items []Track `json:"items"`
	Total int     `json:"total"`
}

// pagedSavedTracks represents a paginated response of saved tracks.
type pagedSavedTracks struct {
	Items []savedTrack `json:"items"`
	Total int          `json:"total"`
}

// recommendationsResponse wraps the /recommendations track list.
type recommendationsResponse struct {
	Tracks []Track `json:"tracks"`
}
