package db

// Upsert statements. Enrichment columns use COALESCE so a row extracted
// without enrichment never wipes details written by an earlier run.
const (
	upsertArtistQuery = `
		INSERT INTO artists (
			artist_id,
			artist_name,
			artist_genres,
			artist_popularity,
			artist_followers,
			artist_image_url,
			loaded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (artist_id) DO UPDATE
		SET
			artist_name = COALESCE(EXCLUDED.artist_name, artists.artist_name),
			artist_genres = COALESCE(EXCLUDED.artist_genres, artists.artist_genres),
			artist_popularity = COALESCE(EXCLUDED.artist_popularity, artists.artist_popularity),
			artist_followers = COALESCE(EXCLUDED.artist_followers, artists.artist_followers),
			artist_image_url = COALESCE(EXCLUDED.artist_image_url, artists.artist_image_url),
			loaded_at = EXCLUDED.loaded_at
	`

	upsertAlbumQuery = `
		INSERT INTO albums (
			album_id,
			album_name,
			artist_id,
			release_date,
			release_year,
			total_tracks,
			album_type,
			loaded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (album_id) DO UPDATE
		SET
			album_name = COALESCE(EXCLUDED.album_name, albums.album_name),
			artist_id = COALESCE(EXCLUDED.artist_id, albums.artist_id),
			release_date = COALESCE(EXCLUDED.release_date, albums.release_date),
			release_year = COALESCE(EXCLUDED.release_year, albums.release_year),
			total_tracks = COALESCE(EXCLUDED.total_tracks, albums.total_tracks),
			album_type = COALESCE(EXCLUDED.album_type, albums.album_type),
			loaded_at = EXCLUDED.loaded_at
	`

	upsertTrackQuery = `
		INSERT INTO tracks (
			track_id,
			track_name,
			artist_id,
			album_id,
			duration_ms,
			duration_minutes,
			duration_category,
			popularity,
			popularity_category,
			explicit,
			preview_url,
			loaded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (track_id) DO UPDATE
		SET
			track_name = COALESCE(EXCLUDED.track_name, tracks.track_name),
			artist_id = COALESCE(EXCLUDED.artist_id, tracks.artist_id),
			album_id = COALESCE(EXCLUDED.album_id, tracks.album_id),
			duration_ms = COALESCE(EXCLUDED.duration_ms, tracks.duration_ms),
			duration_minutes = COALESCE(EXCLUDED.duration_minutes, tracks.duration_minutes),
			duration_category = COALESCE(EXCLUDED.duration_category, tracks.duration_category),
			popularity = COALESCE(EXCLUDED.popularity, tracks.popularity),
			popularity_category = COALESCE(EXCLUDED.popularity_category, tracks.popularity_category),
			explicit = EXCLUDED.explicit,
			preview_url = COALESCE(EXCLUDED.preview_url, tracks.preview_url),
			loaded_at = EXCLUDED.loaded_at
	`

	upsertAudioFeaturesQuery = `
		INSERT INTO audio_features (
			track_id,
			danceability,
			energy,
			key,
			loudness,
			mode,
			speechiness,
			acousticness,
			instrumentalness,
			liveness,
			valence,
			tempo,
			time_signature,
			mood_category,
			loaded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (track_id) DO UPDATE
		SET
			danceability = COALESCE(EXCLUDED.danceability, audio_features.danceability),
			energy = COALESCE(EXCLUDED.energy, audio_features.energy),
			key = COALESCE(EXCLUDED.key, audio_features.key),
			loudness = COALESCE(EXCLUDED.loudness, audio_features.loudness),
			mode = COALESCE(EXCLUDED.mode, audio_features.mode),
			speechiness = COALESCE(EXCLUDED.speechiness, audio_features.speechiness),
			acousticness = COALESCE(EXCLUDED.acousticness, audio_features.acousticness),
			instrumentalness = COALESCE(EXCLUDED.instrumentalness, audio_features.instrumentalness),
			liveness = COALESCE(EXCLUDED.liveness, audio_features.liveness),
			valence = COALESCE(EXCLUDED.valence, audio_features.valence),
			tempo = COALESCE(EXCLUDED.tempo, audio_features.tempo),
			time_signature = COALESCE(EXCLUDED.time_signature, audio_features.time_signature),
			mood_category = COALESCE(EXCLUDED.mood_category, audio_features.mood_category),
			loaded_at = EXCLUDED.loaded_at
	`

	playExistsQuery = `
		SELECT EXISTS (
			SELECT 1 FROM listening_history
			WHERE track_id = $1 AND played_at = $2
		)
	`

	insertPlayQuery = `
		INSERT INTO listening_history (
			track_id,
			played_at,
			played_date,
			played_hour,
			played_day_of_week,
			played_month,
			extraction_type,
			playlist_id,
			playlist_name,
			loaded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
)
