package db

import (
	"time"

	"spotifyetl.com/m/internal/pipeline"
)

// Row types mirror the target tables. Derivation from the denormalized
// record set is pure so it can be tested without a database.

type ArtistRow struct {
	ArtistID   string
	Name       *string
	Genres     *string
	Popularity *int
	Followers  *int
	ImageURL   *string
	LoadedAt   time.Time
}

type AlbumRow struct {
	AlbumID     string
	Name        *string
	ArtistID    *string
	ReleaseDate *string
	ReleaseYear *int
	TotalTracks *int
	AlbumType   *string
	LoadedAt    time.Time
}

type TrackRow struct {
	TrackID            string
	Name               *string
	ArtistID           *string
	AlbumID            *string
	DurationMS         *int
	DurationMinutes    *float64
	DurationCategory   *string
	Popularity         *int
	PopularityCategory *string
	Explicit           bool
	PreviewURL         *string
	LoadedAt           time.Time
}

type AudioFeaturesRow struct {
	TrackID          string
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
	MoodCategory     *string
	LoadedAt         time.Time
}

type ListeningHistoryRow struct {
	TrackID         string
	PlayedAt        time.Time
	PlayedDate      *string
	PlayedHour      *int
	PlayedDayOfWeek *string
	PlayedMonth     *int
	ExtractionType  string
	PlaylistID      *string
	PlaylistName    *string
	LoadedAt        time.Time
}

// DeriveArtistRows extracts one row per unique artist id, first occurrence
// wins. Records without an artist id contribute nothing.
func DeriveArtistRows(records []pipeline.Record, loadedAt time.Time) []ArtistRow {
	seen := make(map[string]struct{}, len(records))
	rows := make([]ArtistRow, 0, len(records))
	for i := range records {
		r := &records[i]
		if r.ArtistID == "" {
			continue
		}
		if _, dup := seen[r.ArtistID]; dup {
			continue
		}
		seen[r.ArtistID] = struct{}{}
		rows = append(rows, ArtistRow{
			ArtistID:   r.ArtistID,
			Name:       r.ArtistName,
			Genres:     r.ArtistGenres,
			Popularity: r.ArtistPopularity,
			Followers:  r.ArtistFollowers,
			ImageURL:   r.ArtistImageURL,
			LoadedAt:   loadedAt,
		})
	}
	return rows
}

// DeriveAlbumRows extracts one row per unique album id.
func DeriveAlbumRows(records []pipeline.Record, loadedAt time.Time) []AlbumRow {
	seen := make(map[string]struct{}, len(records))
	rows := make([]AlbumRow, 0, len(records))
	for i := range records {
		r := &records[i]
		if r.AlbumID == "" {
			continue
		}
		if _, dup := seen[r.AlbumID]; dup {
			continue
		}
		seen[r.AlbumID] = struct{}{}
		row := AlbumRow{
			AlbumID:     r.AlbumID,
			Name:        r.AlbumName,
			ReleaseDate: r.ReleaseDate,
			ReleaseYear: r.ReleaseYear,
			TotalTracks: r.TotalTracks,
			AlbumType:   r.AlbumType,
			LoadedAt:    loadedAt,
		}
		if r.ArtistID != "" {
			artistID := r.ArtistID
			row.ArtistID = &artistID
		}
		rows = append(rows, row)
	}
	return rows
}

// DeriveTrackRows extracts one row per unique track id.
func DeriveTrackRows(records []pipeline.Record, loadedAt time.Time) []TrackRow {
	seen := make(map[string]struct{}, len(records))
	rows := make([]TrackRow, 0, len(records))
	for i := range records {
		r := &records[i]
		if r.TrackID == "" {
			continue
		}
		if _, dup := seen[r.TrackID]; dup {
			continue
		}
		seen[r.TrackID] = struct{}{}
		row := TrackRow{
			TrackID:            r.TrackID,
			Name:               r.TrackName,
			DurationMS:         r.DurationMS,
			DurationMinutes:    r.DurationMinutes,
			DurationCategory:   r.DurationCategory,
			Popularity:         r.Popularity,
			PopularityCategory: r.PopularityCategory,
			Explicit:           r.Explicit,
			PreviewURL:         r.PreviewURL,
			LoadedAt:           loadedAt,
		}
		if r.ArtistID != "" {
			artistID := r.ArtistID
			row.ArtistID = &artistID
		}
		if r.AlbumID != "" {
			albumID := r.AlbumID
			row.AlbumID = &albumID
		}
		rows = append(rows, row)
	}
	return rows
}

// DeriveAudioFeaturesRows extracts one row per unique track id that carries
// at least one audio-feature value.
func DeriveAudioFeaturesRows(records []pipeline.Record, loadedAt time.Time) []AudioFeaturesRow {
	seen := make(map[string]struct{}, len(records))
	rows := make([]AudioFeaturesRow, 0, len(records))
	for i := range records {
		r := &records[i]
		if r.TrackID == "" || !hasAudioFeatures(r) {
			continue
		}
		if _, dup := seen[r.TrackID]; dup {
			continue
		}
		seen[r.TrackID] = struct{}{}
		rows = append(rows, AudioFeaturesRow{
			TrackID:          r.TrackID,
			Danceability:     r.Danceability,
			Energy:           r.Energy,
			Key:              r.Key,
			Loudness:         r.Loudness,
			Mode:             r.Mode,
			Speechiness:      r.Speechiness,
			Acousticness:     r.Acousticness,
			Instrumentalness: r.Instrumentalness,
			Liveness:         r.Liveness,
			Valence:          r.Valence,
			Tempo:            r.Tempo,
			TimeSignature:    r.TimeSignature,
			MoodCategory:     r.MoodCategory,
			LoadedAt:         loadedAt,
		})
	}
	return rows
}

func hasAudioFeatures(r *pipeline.Record) bool {
	return r.Danceability != nil || r.Energy != nil || r.Valence != nil ||
		r.Tempo != nil || r.Loudness != nil
}

// DeriveListeningHistoryRows extracts one play event per record that carries
// a play timestamp. History is append-only so no deduplication happens here;
// the loader's existence check handles replays across runs.
func DeriveListeningHistoryRows(records []pipeline.Record, loadedAt time.Time) []ListeningHistoryRow {
	rows := make([]ListeningHistoryRow, 0, len(records))
	for i := range records {
		r := &records[i]
		if r.TrackID == "" || r.PlayedAt == nil {
			continue
		}
		rows = append(rows, ListeningHistoryRow{
			TrackID:         r.TrackID,
			PlayedAt:        *r.PlayedAt,
			PlayedDate:      r.PlayedDate,
			PlayedHour:      r.PlayedHour,
			PlayedDayOfWeek: r.PlayedDayOfWeek,
			PlayedMonth:     r.PlayedMonth,
			ExtractionType:  r.ExtractionType,
			PlaylistID:      r.PlaylistID,
			PlaylistName:    r.PlaylistName,
			LoadedAt:        loadedAt,
		})
	}
	return rows
}
