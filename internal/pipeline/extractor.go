package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"spotifyetl.com/m/internal/spotify"
)

// Source selects which listening data an extraction run pulls.
type Source string

const (
	SourceRecent    Source = "recent"
	SourceLiked     Source = "liked"
	SourcePlaylists Source = "playlists"
)

// Extractor produces the denormalized record set for one run.
type Extractor interface {
	Extract(ctx context.Context, source Source, limit int, after time.Time) ([]Record, error)
}

// SpotifyExtractor extracts track rows from the Spotify API and enriches
// them with audio features and artist details. Features and Artists default
// to the client itself (real lookups with synthetic fallback on permission
// failures); tests can swap in a fully synthetic source.
type SpotifyExtractor struct {
	client *spotify.Client

	Features spotify.FeatureSource
	Artists  spotify.ArtistSource

	playlistFilter string
}

var _ Extractor = (*SpotifyExtractor)(nil)

func NewSpotifyExtractor(client *spotify.Client, playlistFilter string) *SpotifyExtractor {
	return &SpotifyExtractor{
		client:         client,
		Features:       client,
		Artists:        client,
		playlistFilter: playlistFilter,
	}
}

// Extract pulls up to limit track rows from the selected source and merges
// in audio features and artist details. after narrows the recently-played
// window for incremental runs; the other sources ignore it.
func (e *SpotifyExtractor) Extract(ctx context.Context, source Source, limit int, after time.Time) ([]Record, error) {
	// Authentication check: fail the run before any extraction work when
	// the credentials are bad.
	if _, err := e.client.CurrentUser(ctx); err != nil {
		return nil, fmt.Errorf("spotify authentication check: %w", err)
	}

	var (
		records []Record
		err     error
	)

	switch source {
	case SourceRecent, "":
		records, err = e.extractRecent(ctx, limit, after)
	case SourceLiked:
		records, err = e.extractLiked(ctx, limit)
	case SourcePlaylists:
		records, err = e.extractPlaylists(ctx, limit)
	default:
		return nil, fmt.Errorf("unknown extraction source %q", source)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		logger.Warn("No records extracted", zap.String("source", string(source)))
		return nil, nil
	}

	if err := e.enrich(ctx, records); err != nil {
		return nil, err
	}

	logger.Info("Extraction complete",
		zap.String("source", string(source)),
		zap.Int("records", len(records)))
	return records, nil
}

func (e *SpotifyExtractor) extractRecent(ctx context.Context, limit int, after time.Time) ([]Record, error) {
	items, err := e.client.RecentlyPlayed(ctx, limit, after)
	if err != nil {
		return nil, fmt.Errorf("extracting recent tracks: %w", err)
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		record := recordFromTrack(item.Track)
		record.ExtractionType = ExtractionRecentlyPlayed
		if playedAt, err := time.Parse(time.RFC3339, item.PlayedAt); err == nil {
			utc := playedAt.UTC()
			record.PlayedAt = &utc
		}
		records = append(records, record)
	}
	return records, nil
}

func (e *SpotifyExtractor) extractLiked(ctx context.Context, limit int) ([]Record, error) {
	items, err := e.client.SavedTracks(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("extracting liked tracks: %w", err)
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		record := recordFromTrack(item.Track)
		record.ExtractionType = ExtractionLikedTracks
		records = append(records, record)
	}
	return records, nil
}

func (e *SpotifyExtractor) extractPlaylists(ctx context.Context, limit int) ([]Record, error) {
	items, err := e.client.PlaylistTracks(ctx, limit, e.playlistFilter)
	if err != nil {
		return nil, fmt.Errorf("extracting playlist tracks: %w", err)
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		record := recordFromTrack(item.Track)
		record.ExtractionType = ExtractionPlaylist
		record.PlaylistID = strptr(item.Playlist.Id)
		record.PlaylistName = strptr(item.Playlist.Name)
		record.PlaylistOwner = strptr(item.Playlist.Owner.Id)
		records = append(records, record)
	}
	return records, nil
}

// recordFromTrack flattens one track payload. Missing album or artist data
// is defaulted rather than treated as an error.
func recordFromTrack(track *spotify.Track) Record {
	record := Record{
		TrackID:    track.Id,
		TrackName:  strptr(track.Name),
		ArtistName: strptr("Unknown"),
		AlbumName:  strptr("Unknown"),
		DurationMS: intptr(track.DurationMS),
		Popularity: intptr(track.Popularity),
		Explicit:   track.Explicit,
	}

	if track.PreviewURL != "" {
		record.PreviewURL = strptr(track.PreviewURL)
	}

	// The primary artist is the first of the track's artist list.
	if len(track.Artists) > 0 && track.Artists[0] != nil {
		record.ArtistID = track.Artists[0].Id
		record.ArtistName = strptr(track.Artists[0].Name)
	}

	if track.Album != nil {
		record.AlbumID = track.Album.Id
		record.AlbumName = strptr(track.Album.Name)
		if track.Album.ReleaseDate != "" {
			record.ReleaseDate = strptr(track.Album.ReleaseDate)
		}
		if track.Album.AlbumType != "" {
			record.AlbumType = strptr(track.Album.AlbumType)
		}
		if track.Album.TotalTracks > 0 {
			record.TotalTracks = intptr(track.Album.TotalTracks)
		}
	}

	return record
}

// enrich left-joins audio features (by track id) and artist details (by
// artist id) onto the record set. Records without a match keep nil
// enrichment columns; they are never dropped.
func (e *SpotifyExtractor) enrich(ctx context.Context, records []Record) error {
	trackIDs := make([]string, 0, len(records))
	artistIDs := make([]string, 0, len(records))
	seenTracks := make(map[string]struct{}, len(records))
	for i := range records {
		if _, dup := seenTracks[records[i].TrackID]; !dup {
			seenTracks[records[i].TrackID] = struct{}{}
			trackIDs = append(trackIDs, records[i].TrackID)
		}
		if records[i].ArtistID != "" {
			artistIDs = append(artistIDs, records[i].ArtistID)
		}
	}

	features, err := e.Features.AudioFeatures(ctx, trackIDs)
	if err != nil {
		return fmt.Errorf("enriching with audio features: %w", err)
	}
	featuresByTrack := make(map[string]*spotify.AudioFeatures, len(features))
	for _, f := range features {
		featuresByTrack[f.Id] = f
	}

	artists, err := e.Artists.Artists(ctx, artistIDs)
	if err != nil {
		return fmt.Errorf("enriching with artist details: %w", err)
	}
	artistsByID := make(map[string]*spotify.Artist, len(artists))
	for _, artist := range artists {
		artistsByID[artist.Id] = artist
	}

	for i := range records {
		if f, ok := featuresByTrack[records[i].TrackID]; ok {
			mergeFeatures(&records[i], f)
		}
		if artist, ok := artistsByID[records[i].ArtistID]; ok {
			mergeArtist(&records[i], artist)
		}
	}

	logger.Info("Enrichment complete",
		zap.Int("audio_features", len(features)),
		zap.Int("artists", len(artists)))
	return nil
}

func mergeFeatures(record *Record, f *spotify.AudioFeatures) {
	record.Danceability = floatptr(f.Danceability)
	record.Energy = floatptr(f.Energy)
	record.Key = intptr(f.Key)
	record.Loudness = floatptr(f.Loudness)
	record.Mode = intptr(f.Mode)
	record.Speechiness = floatptr(f.Speechiness)
	record.Acousticness = floatptr(f.Acousticness)
	record.Instrumentalness = floatptr(f.Instrumentalness)
	record.Liveness = floatptr(f.Liveness)
	record.Valence = floatptr(f.Valence)
	record.Tempo = floatptr(f.Tempo)
	record.TimeSignature = intptr(f.TimeSignature)
}

func mergeArtist(record *Record, artist *spotify.Artist) {
	record.ArtistGenres = strptr(strings.Join(artist.Genres, ", "))
	record.ArtistPopularity = intptr(artist.Popularity)
	record.ArtistFollowers = intptr(artist.Followers.Total)
	if len(artist.Images) > 0 && artist.Images[0].URL != "" {
		record.ArtistImageURL = strptr(artist.Images[0].URL)
	}
}
