package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	records []Record
	err     error

	gotSource Source
	gotLimit  int
	gotAfter  time.Time
}

func (f *fakeExtractor) Extract(_ context.Context, source Source, limit int, after time.Time) ([]Record, error) {
	f.gotSource = source
	f.gotLimit = limit
	f.gotAfter = after
	return f.records, f.err
}

type fakeLoader struct {
	loaded []Record
	err    error
	counts map[string]int64
}

func (f *fakeLoader) LoadAll(_ context.Context, records []Record) (LoadCounts, error) {
	f.loaded = records

	artists := map[string]struct{}{}
	albums := map[string]struct{}{}
	tracks := map[string]struct{}{}
	plays := 0
	for _, r := range records {
		if r.ArtistID != "" {
			artists[r.ArtistID] = struct{}{}
		}
		if r.AlbumID != "" {
			albums[r.AlbumID] = struct{}{}
		}
		if r.TrackID != "" {
			tracks[r.TrackID] = struct{}{}
		}
		if r.PlayedAt != nil {
			plays++
		}
	}

	return LoadCounts{
		Artists:          len(artists),
		Albums:           len(albums),
		Tracks:           len(tracks),
		AudioFeatures:    len(tracks),
		ListeningHistory: plays,
	}, f.err
}

func (f *fakeLoader) TableCounts(context.Context) (map[string]int64, error) {
	return f.counts, nil
}

func listeningRecords(t *testing.T) []Record {
	t.Helper()
	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	mk := func(trackID, artistID, albumID string, offset time.Duration) Record {
		playedAt := base.Add(offset)
		return Record{
			TrackID:        trackID,
			TrackName:      strptr("Song " + trackID),
			ArtistID:       artistID,
			ArtistName:     strptr("Artist " + artistID),
			AlbumID:        albumID,
			AlbumName:      strptr("Album " + albumID),
			PlayedAt:       &playedAt,
			DurationMS:     intptr(210000),
			Popularity:     intptr(55),
			Valence:        floatptr(0.7),
			Energy:         floatptr(0.65),
			ExtractionType: ExtractionRecentlyPlayed,
		}
	}

	return []Record{
		mk("t1", "a1", "al1", 0),
		mk("t2", "a1", "al1", time.Minute),
		mk("t3", "a2", "al2", 2*time.Minute),
	}
}

func TestPipelineRunEndToEnd(t *testing.T) {
	extractor := &fakeExtractor{records: listeningRecords(t)}
	loader := &fakeLoader{}
	p := New(extractor, loader)

	result := p.Run(context.Background(), SourceRecent, 50)

	require.True(t, result.Success)
	require.Empty(t, result.Errors)
	require.Equal(t, SourceRecent, extractor.gotSource)
	require.Equal(t, 50, extractor.gotLimit)
	require.True(t, extractor.gotAfter.IsZero())

	require.Equal(t, 3, result.RecordsExtracted)
	require.Equal(t, 3, result.TotalRecordsProcessed)
	require.Equal(t, 2, result.LoadCounts.Artists)
	require.Equal(t, 2, result.LoadCounts.Albums)
	require.Equal(t, 3, result.LoadCounts.Tracks)
	require.Equal(t, 3, result.LoadCounts.ListeningHistory)
	// Rows written across all five tables: 2+2+3+3+3.
	require.Equal(t, 13, result.RecordsLoaded)
	require.Equal(t, result.LoadCounts.Total(), result.RecordsLoaded)

	// The loader received transformed records: derived columns present.
	require.Len(t, loader.loaded, 3)
	require.Equal(t, "Happy/Energetic", *loader.loaded[0].MoodCategory)
	require.Equal(t, "Medium", *loader.loaded[0].DurationCategory)
}

func TestPipelineLikedRunReportsLoadedRows(t *testing.T) {
	// Liked tracks carry no play timestamp, so no history rows are written.
	// The loaded count still reflects the catalog upserts.
	records := listeningRecords(t)
	for i := range records {
		records[i].PlayedAt = nil
		records[i].ExtractionType = ExtractionLikedTracks
	}
	extractor := &fakeExtractor{records: records}
	p := New(extractor, &fakeLoader{})

	result := p.Run(context.Background(), SourceLiked, 50)

	require.True(t, result.Success)
	require.Zero(t, result.LoadCounts.ListeningHistory)
	require.Equal(t, 10, result.RecordsLoaded)
}

func TestPipelineRunIncrementalWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	extractor := &fakeExtractor{records: listeningRecords(t)}
	p := New(extractor, &fakeLoader{})
	p.now = func() time.Time { return now }

	result := p.RunIncremental(context.Background(), 50, 3)

	require.True(t, result.Success)
	require.Equal(t, SourceRecent, extractor.gotSource)
	require.Equal(t, now.Add(-3*time.Hour), extractor.gotAfter)
}

func TestPipelineEmptyExtractionSucceeds(t *testing.T) {
	p := New(&fakeExtractor{}, &fakeLoader{})

	result := p.Run(context.Background(), SourceRecent, 50)

	require.True(t, result.Success)
	require.Zero(t, result.RecordsExtracted)
	require.Zero(t, result.TotalRecordsProcessed)
	require.Empty(t, result.Errors)
}

func TestPipelineExtractFailureRecorded(t *testing.T) {
	p := New(&fakeExtractor{err: errors.New("api unreachable")}, &fakeLoader{})

	result := p.Run(context.Background(), SourceRecent, 50)

	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "extract: api unreachable")
}

func TestPipelineTransformFailureRecorded(t *testing.T) {
	// Records with no identity columns make the transform stage fail.
	extractor := &fakeExtractor{records: []Record{{}}}
	p := New(extractor, &fakeLoader{})

	result := p.Run(context.Background(), SourceRecent, 50)

	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "transform:")
}

func TestPipelineLoadFailureRecordedWithPartialCounts(t *testing.T) {
	extractor := &fakeExtractor{records: listeningRecords(t)}
	loader := &fakeLoader{err: errors.New("albums chunk 1: connection reset")}
	p := New(extractor, loader)

	result := p.Run(context.Background(), SourceRecent, 50)

	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "load:")
	// Counts from the partially successful load are still reported.
	require.Equal(t, 2, result.LoadCounts.Artists)
	require.Equal(t, 3, result.TotalRecordsProcessed)
}

func TestPipelineStats(t *testing.T) {
	loader := &fakeLoader{counts: map[string]int64{"tracks": 42}}
	p := New(&fakeExtractor{}, loader)

	counts, err := p.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(42), counts["tracks"])
}
