package spotify

// Payload types for the subset of the Spotify Web API this pipeline reads.
// Fields not consumed downstream are omitted.

type Image struct {
	URL string `json:"url"`
}

type Artist struct {
	Id         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Followers  struct {
		Total int `json:"total"`
	} `json:"followers"`
	Images []Image `json:"images"`
}

type Album struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	Artists     []*Artist `json:"artists"`
	AlbumType   string    `json:"album_type"`
	TotalTracks int       `json:"total_tracks"`
	ReleaseDate string    `json:"release_date"`
	Images      []Image   `json:"images"`
}

type Track struct {
	Id         string    `json:"id"`
	Name       string    `json:"name"`
	Album      *Album    `json:"album"`
	Artists    []*Artist `json:"artists"`
	Popularity int       `json:"popularity"`
	DurationMS int       `json:"duration_ms"`
	Explicit   bool      `json:"explicit"`
	PreviewURL string    `json:"preview_url"`
}

type AudioFeatures struct {
	Id               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Key              int     `json:"key"`
	Loudness         float64 `json:"loudness"`
	Mode             int     `json:"mode"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	TimeSignature    int     `json:"time_signature"`
}

type Playlist struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Owner struct {
		Id          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type User struct {
	Id          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
	Followers   struct {
		Total int `json:"total"`
	} `json:"followers"`
}

// PlayHistoryItem is one entry of the recently-played feed.
type PlayHistoryItem struct {
	Track    *Track `json:"track"`
	PlayedAt string `json:"played_at"`
}

type RecentlyPlayedResponse struct {
	Items   []PlayHistoryItem `json:"items"`
	Next    string            `json:"next"`
	Cursors struct {
		After  string `json:"after"`
		Before string `json:"before"`
	} `json:"cursors"`
}

type SavedTrackItem struct {
	AddedAt string `json:"added_at"`
	Track   *Track `json:"track"`
}

type SavedTracksResponse struct {
	Items []SavedTrackItem `json:"items"`
	Next  string           `json:"next"`
	Total int              `json:"total"`
}

type PlaylistsResponse struct {
	Items []Playlist `json:"items"`
	Next  string     `json:"next"`
}

type PlaylistTracksResponse struct {
	Items []SavedTrackItem `json:"items"`
	Next  string           `json:"next"`
}

type AudioFeaturesResponse struct {
	AudioFeatures []*AudioFeatures `json:"audio_features"`
}

type ArtistsResponse struct {
	Artists []*Artist `json:"artists"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope"`
}
