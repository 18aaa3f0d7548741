package spotify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSyntheticAudioFeaturesDeterministic(t *testing.T) {
	a := SyntheticAudioFeatures("track0000000000000001a")
	b := SyntheticAudioFeatures("track0000000000000001a")
	require.Equal(t, a, b)

	c := SyntheticAudioFeatures("track0000000000000002b")
	require.NotEqual(t, a, c)
}

func TestSyntheticAudioFeaturesRanges(t *testing.T) {
	ids := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	for _, id := range ids {
		f := SyntheticAudioFeatures(id)

		require.Equal(t, id, f.Id)
		require.GreaterOrEqual(t, f.Danceability, 0.3)
		require.LessOrEqual(t, f.Danceability, 0.9)
		require.GreaterOrEqual(t, f.Energy, 0.2)
		require.LessOrEqual(t, f.Energy, 0.95)
		require.GreaterOrEqual(t, f.Key, 0)
		require.LessOrEqual(t, f.Key, 11)
		require.GreaterOrEqual(t, f.Loudness, -20.0)
		require.LessOrEqual(t, f.Loudness, -5.0)
		require.Contains(t, []int{0, 1}, f.Mode)
		require.GreaterOrEqual(t, f.Valence, 0.2)
		require.LessOrEqual(t, f.Valence, 0.9)
		require.GreaterOrEqual(t, f.Tempo, 80.0)
		require.LessOrEqual(t, f.Tempo, 180.0)
		require.Contains(t, []int{3, 4, 5}, f.TimeSignature)
	}
}

func TestSyntheticAudioFeaturesForPreservesOrder(t *testing.T) {
	ids := []string{"one", "two", "three"}
	features := SyntheticAudioFeaturesFor(ids)
	require.Len(t, features, 3)
	for i, f := range features {
		require.Equal(t, ids[i], f.Id)
	}
}

func TestSyntheticArtist(t *testing.T) {
	artist := SyntheticArtist("4Z8W4fKeB5YxbusRsdQVPb")

	require.Equal(t, "4Z8W4fKeB5YxbusRsdQVPb", artist.Id)
	require.Equal(t, "Artist_4Z8W4fKe", artist.Name)
	require.GreaterOrEqual(t, len(artist.Genres), 1)
	require.LessOrEqual(t, len(artist.Genres), 3)
	for _, genre := range artist.Genres {
		require.Contains(t, genreVocabulary, genre)
	}
	require.GreaterOrEqual(t, artist.Popularity, 20)
	require.LessOrEqual(t, artist.Popularity, 95)
	require.GreaterOrEqual(t, artist.Followers.Total, 1000)
	require.LessOrEqual(t, artist.Followers.Total, 1000000)

	again := SyntheticArtist("4Z8W4fKeB5YxbusRsdQVPb")
	require.Equal(t, artist, again)
}

func TestSyntheticArtistShortID(t *testing.T) {
	artist := SyntheticArtist("abc")
	require.Equal(t, "Artist_abc", artist.Name)
}
