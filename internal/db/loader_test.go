package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"spotifyetl.com/m/internal/pipeline"
)

// fakeDB stands in for the pgx pool. Stored plays are keyed by
// (track_id, played_at) so the existence check behaves like the real table.
type fakeDB struct {
	plays     map[string]bool
	inserts   int
	failTable string          // statements touching this table fail
	failPlays map[string]bool // individual play inserts that fail
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		plays:     make(map[string]bool),
		failPlays: make(map[string]bool),
	}
}

func playKey(trackID, playedAt any) string {
	return fmt.Sprintf("%v|%v", trackID, playedAt)
}

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	return &fakeTx{db: f}, nil
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.failTable != "" && strings.Contains(sql, "INSERT INTO "+f.failTable) {
		return pgconn.CommandTag{}, fmt.Errorf("%s unavailable", f.failTable)
	}
	key := playKey(args[0], args[1])
	if f.failPlays[key] {
		return pgconn.CommandTag{}, errors.New("insert rejected")
	}
	f.plays[key] = true
	f.inserts++
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	return existsRow{exists: f.plays[playKey(args[0], args[1])]}
}

type existsRow struct{ exists bool }

func (r existsRow) Scan(dest ...any) error {
	*(dest[0].(*bool)) = r.exists
	return nil
}

type fakeTx struct {
	db *fakeDB
}

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(context.Context) error { return nil }

func (t *fakeTx) Rollback(context.Context) error { return nil }

func (t *fakeTx) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	var err error
	for _, q := range b.QueuedQueries {
		if t.db.failTable != "" && strings.Contains(q.SQL, "INSERT INTO "+t.db.failTable) {
			err = fmt.Errorf("%s unavailable", t.db.failTable)
			break
		}
	}
	return &fakeBatchResults{err: err}
}

func (t *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *fakeTx) Conn() *pgx.Conn { return nil }

type fakeBatchResults struct {
	err error
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}
func (r *fakeBatchResults) Query() (pgx.Rows, error) { return nil, r.err }

func (r *fakeBatchResults) QueryRow() pgx.Row { return existsRow{} }

func (r *fakeBatchResults) Close() error { return nil }

func newFakeStore(db *fakeDB) *Store {
	return &Store{db: db, batchThreshold: 1000, chunkSize: 500}
}

func TestInsertListeningHistorySkipsExistingPlays(t *testing.T) {
	playedAt := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	loadedAt := time.Now().UTC()

	fake := newFakeDB()
	// t1 was stored by an earlier run.
	fake.plays[playKey("t1", playedAt)] = true

	rows := []ListeningHistoryRow{
		{TrackID: "t1", PlayedAt: playedAt, ExtractionType: "recently_played", LoadedAt: loadedAt},
		{TrackID: "t2", PlayedAt: playedAt, ExtractionType: "recently_played", LoadedAt: loadedAt},
		{TrackID: "t2", PlayedAt: playedAt, ExtractionType: "recently_played", LoadedAt: loadedAt},
		{TrackID: "t2", PlayedAt: playedAt.Add(time.Minute), ExtractionType: "recently_played", LoadedAt: loadedAt},
	}

	s := newFakeStore(fake)
	inserted, err := s.InsertListeningHistory(context.Background(), rows)

	require.NoError(t, err)
	require.Equal(t, 2, inserted)
	require.Equal(t, 2, fake.inserts)
	// The same play replayed within one call is stored exactly once.
	require.True(t, fake.plays[playKey("t2", playedAt)])
}

func TestInsertListeningHistoryAccumulatesRowErrors(t *testing.T) {
	playedAt := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)

	fake := newFakeDB()
	fake.failPlays[playKey("t-bad", playedAt)] = true

	rows := []ListeningHistoryRow{
		{TrackID: "t1", PlayedAt: playedAt, ExtractionType: "recently_played"},
		{TrackID: "t-bad", PlayedAt: playedAt, ExtractionType: "recently_played"},
		{TrackID: "t2", PlayedAt: playedAt, ExtractionType: "recently_played"},
	}

	s := newFakeStore(fake)
	inserted, err := s.InsertListeningHistory(context.Background(), rows)

	require.Error(t, err)
	require.Contains(t, err.Error(), "t-bad")
	require.Equal(t, 2, inserted)
}

func loadRecords(t *testing.T) []pipeline.Record {
	t.Helper()
	first := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	return []pipeline.Record{
		{
			TrackID:        "t1",
			TrackName:      strptr("One"),
			ArtistID:       "a1",
			AlbumID:        "al1",
			Danceability:   floatptr(0.5),
			PlayedAt:       &first,
			ExtractionType: pipeline.ExtractionRecentlyPlayed,
		},
		{
			TrackID:        "t2",
			TrackName:      strptr("Two"),
			ArtistID:       "a2",
			AlbumID:        "al2",
			Energy:         floatptr(0.7),
			PlayedAt:       &second,
			ExtractionType: pipeline.ExtractionRecentlyPlayed,
		},
	}
}

func TestLoadAllContinuesPastFailedTable(t *testing.T) {
	fake := newFakeDB()
	fake.failTable = "albums"

	s := newFakeStore(fake)
	counts, err := s.LoadAll(context.Background(), loadRecords(t))

	require.Error(t, err)
	require.Contains(t, err.Error(), "albums")
	require.Equal(t, 0, counts.Albums)
	require.Equal(t, 2, counts.Artists)
	require.Equal(t, 2, counts.Tracks)
	require.Equal(t, 2, counts.AudioFeatures)
	require.Equal(t, 2, counts.ListeningHistory)
}

func TestLoadAllAllTablesSucceed(t *testing.T) {
	fake := newFakeDB()

	s := newFakeStore(fake)
	counts, err := s.LoadAll(context.Background(), loadRecords(t))

	require.NoError(t, err)
	require.Equal(t, 2, counts.Artists)
	require.Equal(t, 2, counts.Albums)
	require.Equal(t, 2, counts.Tracks)
	require.Equal(t, 2, counts.AudioFeatures)
	require.Equal(t, 2, counts.ListeningHistory)
	require.Equal(t, 10, counts.Total())
}
