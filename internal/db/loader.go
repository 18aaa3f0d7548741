package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"spotifyetl.com/m/internal/pipeline"
)

var _ pipeline.Loader = (*Store)(nil)

// chunks partitions params into slices of at most size entries. When the
// total stays under the store's batch threshold the whole set goes out as
// one chunk.
func (s *Store) chunks(params [][]any) [][][]any {
	if len(params) <= s.batchThreshold || s.chunkSize <= 0 {
		return [][][]any{params}
	}
	var out [][][]any
	for start := 0; start < len(params); start += s.chunkSize {
		end := min(start+s.chunkSize, len(params))
		out = append(out, params[start:end])
	}
	return out
}

// saveChunk runs one chunk of upserts inside a single transaction.
func (s *Store) saveChunk(ctx context.Context, query string, chunk [][]any) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, params := range chunk {
		batch.Queue(query, params...)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range chunk {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("error executing batch item %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("error closing batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("transaction commit error: %w", err)
	}
	return nil
}

// upsert writes all rows for one table. Above the batch threshold the rows
// go out in chunks with one transaction each, so a bad chunk costs only its
// own rows. The saved count reflects partial success.
func (s *Store) upsert(ctx context.Context, table, query string, params [][]any) (int, error) {
	if len(params) == 0 {
		return 0, nil
	}

	saved := 0
	var errs []error
	for i, chunk := range s.chunks(params) {
		if err := s.saveChunk(ctx, query, chunk); err != nil {
			logger.Error("Chunk failed",
				zap.String("table", table),
				zap.Int("chunk", i+1),
				zap.Int("rows", len(chunk)),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s chunk %d: %w", table, i+1, err))
			continue
		}
		saved += len(chunk)
	}

	logger.Info("Table load complete",
		zap.String("table", table),
		zap.Int("saved", saved),
		zap.Int("total", len(params)))
	return saved, errors.Join(errs...)
}

// UpsertArtists writes artist rows, updating details on conflict.
func (s *Store) UpsertArtists(ctx context.Context, rows []ArtistRow) (int, error) {
	params := make([][]any, 0, len(rows))
	for _, r := range rows {
		params = append(params, []any{
			r.ArtistID, r.Name, r.Genres, r.Popularity, r.Followers, r.ImageURL, r.LoadedAt,
		})
	}
	return s.upsert(ctx, "artists", upsertArtistQuery, params)
}

// UpsertAlbums writes album rows, updating details on conflict.
func (s *Store) UpsertAlbums(ctx context.Context, rows []AlbumRow) (int, error) {
	params := make([][]any, 0, len(rows))
	for _, r := range rows {
		params = append(params, []any{
			r.AlbumID, r.Name, r.ArtistID, r.ReleaseDate, r.ReleaseYear,
			r.TotalTracks, r.AlbumType, r.LoadedAt,
		})
	}
	return s.upsert(ctx, "albums", upsertAlbumQuery, params)
}

// UpsertTracks writes track rows, updating details on conflict.
func (s *Store) UpsertTracks(ctx context.Context, rows []TrackRow) (int, error) {
	params := make([][]any, 0, len(rows))
	for _, r := range rows {
		params = append(params, []any{
			r.TrackID, r.Name, r.ArtistID, r.AlbumID,
			r.DurationMS, r.DurationMinutes, r.DurationCategory,
			r.Popularity, r.PopularityCategory, r.Explicit, r.PreviewURL, r.LoadedAt,
		})
	}
	return s.upsert(ctx, "tracks", upsertTrackQuery, params)
}

// UpsertAudioFeatures writes audio-feature rows keyed by track id.
func (s *Store) UpsertAudioFeatures(ctx context.Context, rows []AudioFeaturesRow) (int, error) {
	params := make([][]any, 0, len(rows))
	for _, r := range rows {
		params = append(params, []any{
			r.TrackID, r.Danceability, r.Energy, r.Key, r.Loudness, r.Mode,
			r.Speechiness, r.Acousticness, r.Instrumentalness, r.Liveness,
			r.Valence, r.Tempo, r.TimeSignature, r.MoodCategory, r.LoadedAt,
		})
	}
	return s.upsert(ctx, "audio_features", upsertAudioFeaturesQuery, params)
}

// InsertListeningHistory appends play events that are not already recorded.
// The table is append-only; a (track_id, played_at) pair seen in an earlier
// run is skipped, never updated.
func (s *Store) InsertListeningHistory(ctx context.Context, rows []ListeningHistoryRow) (int, error) {
	inserted, skipped := 0, 0
	var errs []error
	for _, r := range rows {
		var exists bool
		if err := s.db.QueryRow(ctx, playExistsQuery, r.TrackID, r.PlayedAt).Scan(&exists); err != nil {
			errs = append(errs, fmt.Errorf("checking play %s@%s: %w", r.TrackID, r.PlayedAt, err))
			continue
		}
		if exists {
			skipped++
			continue
		}
		_, err := s.db.Exec(ctx, insertPlayQuery,
			r.TrackID, r.PlayedAt, r.PlayedDate, r.PlayedHour, r.PlayedDayOfWeek,
			r.PlayedMonth, r.ExtractionType, r.PlaylistID, r.PlaylistName, r.LoadedAt)
		if err != nil {
			errs = append(errs, fmt.Errorf("inserting play %s@%s: %w", r.TrackID, r.PlayedAt, err))
			continue
		}
		inserted++
	}

	logger.Info("Listening history load complete",
		zap.Int("inserted", inserted),
		zap.Int("skipped", skipped))
	return inserted, errors.Join(errs...)
}

// LoadAll splits the record set into per-table rows and loads them in
// foreign-key order. A failed table zeroes its own count but the remaining
// tables are still attempted; the combined error reports every failure.
func (s *Store) LoadAll(ctx context.Context, records []pipeline.Record) (pipeline.LoadCounts, error) {
	loadedAt := time.Now().UTC()
	var counts pipeline.LoadCounts
	var errs []error

	run := func(target *int, load func() (int, error)) {
		n, err := load()
		if err != nil {
			errs = append(errs, err)
		}
		*target = n
	}

	run(&counts.Artists, func() (int, error) {
		return s.UpsertArtists(ctx, DeriveArtistRows(records, loadedAt))
	})
	run(&counts.Albums, func() (int, error) {
		return s.UpsertAlbums(ctx, DeriveAlbumRows(records, loadedAt))
	})
	run(&counts.Tracks, func() (int, error) {
		return s.UpsertTracks(ctx, DeriveTrackRows(records, loadedAt))
	})
	run(&counts.AudioFeatures, func() (int, error) {
		return s.UpsertAudioFeatures(ctx, DeriveAudioFeaturesRows(records, loadedAt))
	})
	run(&counts.ListeningHistory, func() (int, error) {
		return s.InsertListeningHistory(ctx, DeriveListeningHistoryRows(records, loadedAt))
	})

	return counts, errors.Join(errs...)
}
