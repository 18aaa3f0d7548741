package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"spotifyetl.com/m/internal/spotify"
)

func TestRecordFromTrack(t *testing.T) {
	track := &spotify.Track{
		Id:         "t1",
		Name:       "Karma Police",
		Popularity: 80,
		DurationMS: 261000,
		Explicit:   false,
		PreviewURL: "https://p.example/t1",
		Artists: []*spotify.Artist{
			{Id: "a1", Name: "Radiohead"},
			{Id: "a2", Name: "Other"},
		},
		Album: &spotify.Album{
			Id:          "al1",
			Name:        "OK Computer",
			AlbumType:   "album",
			TotalTracks: 12,
			ReleaseDate: "1997-05-21",
		},
	}

	record := recordFromTrack(track)

	require.Equal(t, "t1", record.TrackID)
	require.Equal(t, "Karma Police", *record.TrackName)
	// Primary artist only.
	require.Equal(t, "a1", record.ArtistID)
	require.Equal(t, "Radiohead", *record.ArtistName)
	require.Equal(t, "al1", record.AlbumID)
	require.Equal(t, "1997-05-21", *record.ReleaseDate)
	require.Equal(t, 12, *record.TotalTracks)
	require.Equal(t, 261000, *record.DurationMS)
	require.Equal(t, "https://p.example/t1", *record.PreviewURL)
}

func TestRecordFromTrackDefaults(t *testing.T) {
	record := recordFromTrack(&spotify.Track{Id: "t1", Name: "Orphan"})

	require.Equal(t, "Unknown", *record.ArtistName)
	require.Equal(t, "Unknown", *record.AlbumName)
	require.Empty(t, record.ArtistID)
	require.Empty(t, record.AlbumID)
	require.Nil(t, record.ReleaseDate)
	require.Nil(t, record.PreviewURL)
}

func TestEnrichLeftJoins(t *testing.T) {
	e := &SpotifyExtractor{
		Features: spotify.SyntheticFeatureSource{},
		Artists:  spotify.SyntheticArtistSource{},
	}

	records := []Record{
		{TrackID: "t1", ArtistID: "a1"},
		{TrackID: "t2"}, // no artist id, keeps nil artist columns
		{TrackID: "t1", ArtistID: "a1"},
	}

	require.NoError(t, e.enrich(context.Background(), records))

	wantFeatures := spotify.SyntheticAudioFeatures("t1")
	require.Equal(t, wantFeatures.Danceability, *records[0].Danceability)
	require.Equal(t, wantFeatures.Tempo, *records[0].Tempo)
	require.Equal(t, wantFeatures.TimeSignature, *records[0].TimeSignature)

	wantArtist := spotify.SyntheticArtist("a1")
	require.Equal(t, strings.Join(wantArtist.Genres, ", "), *records[0].ArtistGenres)
	require.Equal(t, wantArtist.Popularity, *records[0].ArtistPopularity)
	require.Equal(t, wantArtist.Followers.Total, *records[0].ArtistFollowers)

	// Unmatched records are enriched where possible, never dropped.
	require.NotNil(t, records[1].Danceability)
	require.Nil(t, records[1].ArtistGenres)
	require.Nil(t, records[1].ArtistPopularity)

	// Duplicate track/artist ids share the same enrichment values.
	require.Equal(t, *records[0].Danceability, *records[2].Danceability)
	require.Equal(t, *records[0].ArtistGenres, *records[2].ArtistGenres)
}
