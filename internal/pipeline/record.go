package pipeline

import "time"

// Extraction modes. Each record is tagged with the mode that produced it.
const (
	ExtractionRecentlyPlayed = "recently_played"
	ExtractionLikedTracks    = "liked_tracks"
	ExtractionPlaylist       = "playlist"
)

// Record is one denormalized track-level row: track, artist, album and
// listening-event columns side by side, plus enrichment columns merged in
// by the extractor and derived columns added by the transform stage. The
// loader later splits it into per-table subsets.
//
// Pointer fields model missing values: nil means the column is absent for
// this row (an unenriched artist, a track without a play timestamp).
type Record struct {
	TrackID   string
	TrackName *string

	ArtistID   string
	ArtistName *string

	AlbumID     string
	AlbumName   *string
	ReleaseDate *string
	TotalTracks *int
	AlbumType   *string

	PlayedAt *time.Time

	DurationMS *int
	Popularity *int
	Explicit   bool
	PreviewURL *string

	ExtractionType string

	PlaylistID    *string
	PlaylistName  *string
	PlaylistOwner *string

	// Audio-feature enrichment (left-joined by TrackID).
	Danceability     *float64
	Energy           *float64
	Key              *int
	Loudness         *float64
	Mode             *int
	Speechiness      *float64
	Acousticness     *float64
	Instrumentalness *float64
	Liveness         *float64
	Valence          *float64
	Tempo            *float64
	TimeSignature    *int

	// Artist enrichment (left-joined by ArtistID).
	ArtistGenres     *string
	ArtistPopularity *int
	ArtistFollowers  *int
	ArtistImageURL   *string

	// Derived by the transform stage.
	PlayedDate         *string
	PlayedHour         *int
	PlayedDayOfWeek    *string
	PlayedMonth        *int
	ReleaseYear        *int
	MoodCategory       *string
	DurationCategory   *string
	DurationMinutes    *float64
	PopularityCategory *string
}

func strptr(s string) *string     { return &s }
func intptr(n int) *int           { return &n }
func floatptr(f float64) *float64 { return &f }
