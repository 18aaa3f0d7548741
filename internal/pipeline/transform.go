package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	maxTrackNameLen = 300
	maxTextLen      = 200
)

// Characters outside this set cause trouble in names pulled from the API.
var textCleanPattern = regexp.MustCompile(`[^\w\s\-'()&]`)

// Transformer cleans, normalizes and enriches the denormalized record set
// before loading. Every step is idempotent and skips itself when its input
// column is absent; only missing identity columns (track id, track name)
// fail the whole call.
type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

// Transform runs the full sequence: text cleaning, timestamp normalization,
// audio-feature clamping, derived features, missing-value handling and
// deduplication. It returns the cleaned records plus a quality report for
// observability; the report never blocks loading.
func (t *Transformer) Transform(records []Record) ([]Record, QualityReport, error) {
	if len(records) == 0 {
		return records, QualityReport{}, nil
	}

	if err := t.validateIdentity(records); err != nil {
		return nil, QualityReport{}, err
	}

	logger.Info("Starting transformation", zap.Int("rows", len(records)))

	t.CleanTextFields(records)
	t.NormalizeTimestamps(records)
	t.NormalizeAudioFeatures(records)
	t.CreateDerivedFeatures(records)
	t.HandleMissingValues(records)
	records, removed := t.RemoveDuplicates(records)

	report := buildQualityReport(records, removed)

	logger.Info("Transformation complete",
		zap.Int("rows", report.TotalRows),
		zap.Int("duplicates_removed", removed))
	return records, report, nil
}

// validateIdentity fails fast when the identity columns are entirely
// absent. Individual rows missing a name still pass; a dataset where no row
// carries a track id or name cannot be keyed at all.
func (t *Transformer) validateIdentity(records []Record) error {
	hasID, hasName := false, false
	for i := range records {
		if records[i].TrackID != "" {
			hasID = true
		}
		if records[i].TrackName != nil {
			hasName = true
		}
		if hasID && hasName {
			return nil
		}
	}
	missing := []string{}
	if !hasID {
		missing = append(missing, "track_id")
	}
	if !hasName {
		missing = append(missing, "track_name")
	}
	return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
}

// CleanTextFields trims, strips disallowed characters, truncates and
// nils out empty text fields.
func (t *Transformer) CleanTextFields(records []Record) {
	for i := range records {
		records[i].TrackName = cleanText(records[i].TrackName, maxTrackNameLen)
		records[i].ArtistName = cleanText(records[i].ArtistName, maxTextLen)
		records[i].AlbumName = cleanText(records[i].AlbumName, maxTextLen)
		records[i].PlaylistName = cleanText(records[i].PlaylistName, maxTextLen)
	}
}

func cleanText(s *string, maxLen int) *string {
	if s == nil {
		return nil
	}
	cleaned := strings.TrimSpace(*s)
	cleaned = textCleanPattern.ReplaceAllString(cleaned, "")
	if runes := []rune(cleaned); len(runes) > maxLen {
		cleaned = string(runes[:maxLen])
	}
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// NormalizeTimestamps derives calendar fields from the play timestamp and
// parses the release date tolerantly (year precision is common for old
// albums; anything unparsable becomes nil).
func (t *Transformer) NormalizeTimestamps(records []Record) {
	for i := range records {
		if records[i].PlayedAt != nil {
			playedAt := records[i].PlayedAt.UTC()
			records[i].PlayedAt = &playedAt
			records[i].PlayedDate = strptr(playedAt.Format("2006-01-02"))
			records[i].PlayedHour = intptr(playedAt.Hour())
			records[i].PlayedDayOfWeek = strptr(playedAt.Weekday().String())
			records[i].PlayedMonth = intptr(int(playedAt.Month()))
		}

		if records[i].ReleaseDate != nil {
			if year, ok := parseReleaseYear(*records[i].ReleaseDate); ok {
				records[i].ReleaseYear = intptr(year)
			} else {
				records[i].ReleaseDate = nil
			}
		}
	}
}

func parseReleaseYear(raw string) (int, bool) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Year(), true
		}
	}
	return 0, false
}

// NormalizeAudioFeatures clamps every audio-feature field to its documented
// range and rounds to fixed precision. Out-of-range values are never
// persisted unclamped.
func (t *Transformer) NormalizeAudioFeatures(records []Record) {
	for i := range records {
		for _, field := range ratioFields(&records[i]) {
			if *field != nil {
				**field = roundTo(clamp(**field, 0, 1), 3)
			}
		}
		if records[i].Tempo != nil {
			*records[i].Tempo = roundTo(clamp(*records[i].Tempo, 0, 300), 2)
		}
		if records[i].Loudness != nil {
			*records[i].Loudness = roundTo(clamp(*records[i].Loudness, -60, 0), 2)
		}
	}
}

func ratioFields(r *Record) []**float64 {
	return []**float64{
		&r.Danceability, &r.Energy, &r.Speechiness, &r.Acousticness,
		&r.Instrumentalness, &r.Liveness, &r.Valence,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// CreateDerivedFeatures adds the categorical analysis columns: a mood label
// from the valence/energy quadrant, a duration bucket and a popularity tier.
func (t *Transformer) CreateDerivedFeatures(records []Record) {
	for i := range records {
		records[i].MoodCategory = strptr(moodCategory(records[i].Valence, records[i].Energy))

		if records[i].DurationMS != nil {
			minutes := float64(*records[i].DurationMS) / 60000
			records[i].DurationMinutes = floatptr(roundTo(minutes, 2))
			records[i].DurationCategory = strptr(durationCategory(minutes))
		} else {
			records[i].DurationCategory = strptr("Unknown")
		}

		if records[i].Popularity != nil {
			records[i].PopularityCategory = strptr(popularityCategory(*records[i].Popularity))
		} else {
			records[i].PopularityCategory = strptr("Unknown")
		}
	}
}

func moodCategory(valence, energy *float64) string {
	if valence == nil || energy == nil {
		return "Unknown"
	}
	v, e := *valence, *energy
	switch {
	case v > 0.6 && e > 0.6:
		return "Happy/Energetic"
	case v > 0.6:
		return "Happy/Calm"
	case v <= 0.4 && e > 0.6:
		return "Angry/Intense"
	case v <= 0.4 && e <= 0.4:
		return "Sad/Melancholic"
	default:
		return "Neutral"
	}
}

func durationCategory(minutes float64) string {
	switch {
	case minutes < 2:
		return "Very Short"
	case minutes < 3:
		return "Short"
	case minutes < 4:
		return "Medium"
	case minutes < 6:
		return "Long"
	default:
		return "Very Long"
	}
}

func popularityCategory(popularity int) string {
	switch {
	case popularity >= 80:
		return "Viral"
	case popularity >= 60:
		return "Popular"
	case popularity >= 40:
		return "Moderate"
	case popularity >= 20:
		return "Niche"
	default:
		return "Obscure"
	}
}

// HandleMissingValues fills numeric columns with the column median, ratio
// features with a neutral 0.5, and categorical columns with "Unknown".
func (t *Transformer) HandleMissingValues(records []Record) {
	fillIntMedian(records, func(r *Record) **int { return &r.Popularity })
	fillIntMedian(records, func(r *Record) **int { return &r.DurationMS })
	fillFloatMedian(records, func(r *Record) **float64 { return &r.Tempo })
	fillFloatMedian(records, func(r *Record) **float64 { return &r.Loudness })

	for i := range records {
		for _, field := range ratioFields(&records[i]) {
			if *field == nil {
				*field = floatptr(0.5)
			}
		}
		if records[i].AlbumType == nil {
			records[i].AlbumType = strptr("Unknown")
		}
		if records[i].MoodCategory == nil {
			records[i].MoodCategory = strptr("Unknown")
		}
		if records[i].DurationCategory == nil {
			records[i].DurationCategory = strptr("Unknown")
		}
	}
}

func fillIntMedian(records []Record, field func(*Record) **int) {
	var values []float64
	for i := range records {
		if v := *field(&records[i]); v != nil {
			values = append(values, float64(*v))
		}
	}
	if len(values) == 0 {
		return
	}
	median := int(math.Round(medianOf(values)))
	for i := range records {
		if v := field(&records[i]); *v == nil {
			*v = intptr(median)
		}
	}
}

func fillFloatMedian(records []Record, field func(*Record) **float64) {
	var values []float64
	for i := range records {
		if v := *field(&records[i]); v != nil {
			values = append(values, *v)
		}
	}
	if len(values) == 0 {
		return
	}
	median := medianOf(values)
	for i := range records {
		if v := field(&records[i]); *v == nil {
			*v = floatptr(median)
		}
	}
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// RemoveDuplicates drops duplicate rows, keeping the first occurrence. When
// any row carries a play timestamp the key is (track_id, played_at), since
// the same track played twice is two distinct events; otherwise track_id
// alone.
func (t *Transformer) RemoveDuplicates(records []Record) ([]Record, int) {
	hasPlayedAt := false
	for i := range records {
		if records[i].PlayedAt != nil {
			hasPlayedAt = true
			break
		}
	}

	type dedupKey struct {
		trackID  string
		playedAt int64
		hasTS    bool
	}

	seen := make(map[dedupKey]struct{}, len(records))
	out := records[:0]
	for i := range records {
		key := dedupKey{trackID: records[i].TrackID}
		if hasPlayedAt && records[i].PlayedAt != nil {
			key.playedAt = records[i].PlayedAt.UnixMilli()
			key.hasTS = true
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, records[i])
	}

	removed := len(records) - len(out)
	if removed > 0 {
		logger.Info("Removed duplicate records", zap.Int("count", removed))
	}
	return out, removed
}
