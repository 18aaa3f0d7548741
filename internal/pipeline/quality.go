package pipeline

import "math"

// ColumnMissing counts the rows missing a value in one column.
type ColumnMissing struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ValueRange summarizes one numeric column over the rows that carry it.
type ValueRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// QualityReport describes the record set after transformation. It is logged
// and surfaced through the run result but never fails a run.
type QualityReport struct {
	TotalRows         int                      `json:"total_rows"`
	DuplicatesRemoved int                      `json:"duplicates_removed"`
	ColumnTypes       map[string]string        `json:"column_types"`
	MissingValues     map[string]ColumnMissing `json:"missing_values"`
	ValueRanges       map[string]ValueRange    `json:"value_ranges"`
}

type columnProbe struct {
	name    string
	dtype   string
	present func(*Record) bool
	value   func(*Record) (float64, bool)
}

func numericProbe(name string, get func(*Record) *float64) columnProbe {
	return columnProbe{
		name:    name,
		dtype:   "float",
		present: func(r *Record) bool { return get(r) != nil },
		value: func(r *Record) (float64, bool) {
			if v := get(r); v != nil {
				return *v, true
			}
			return 0, false
		},
	}
}

func intProbe(name string, get func(*Record) *int) columnProbe {
	p := numericProbe(name, func(r *Record) *float64 {
		if v := get(r); v != nil {
			f := float64(*v)
			return &f
		}
		return nil
	})
	p.dtype = "integer"
	return p
}

func textProbe(name string, get func(*Record) *string) columnProbe {
	return columnProbe{
		name:    name,
		dtype:   "text",
		present: func(r *Record) bool { return get(r) != nil },
	}
}

func qualityProbes() []columnProbe {
	return []columnProbe{
		textProbe("track_name", func(r *Record) *string { return r.TrackName }),
		textProbe("artist_name", func(r *Record) *string { return r.ArtistName }),
		textProbe("album_name", func(r *Record) *string { return r.AlbumName }),
		textProbe("artist_genres", func(r *Record) *string { return r.ArtistGenres }),
		intProbe("popularity", func(r *Record) *int { return r.Popularity }),
		intProbe("duration_ms", func(r *Record) *int { return r.DurationMS }),
		numericProbe("danceability", func(r *Record) *float64 { return r.Danceability }),
		numericProbe("energy", func(r *Record) *float64 { return r.Energy }),
		numericProbe("valence", func(r *Record) *float64 { return r.Valence }),
		numericProbe("tempo", func(r *Record) *float64 { return r.Tempo }),
		numericProbe("loudness", func(r *Record) *float64 { return r.Loudness }),
	}
}

func buildQualityReport(records []Record, duplicatesRemoved int) QualityReport {
	report := QualityReport{
		TotalRows:         len(records),
		DuplicatesRemoved: duplicatesRemoved,
		ColumnTypes:       make(map[string]string),
		MissingValues:     make(map[string]ColumnMissing),
		ValueRanges:       make(map[string]ValueRange),
	}
	for _, probe := range qualityProbes() {
		report.ColumnTypes[probe.name] = probe.dtype
	}
	if len(records) == 0 {
		return report
	}

	for _, probe := range qualityProbes() {
		missing := 0
		min, max, sum := math.Inf(1), math.Inf(-1), 0.0
		numericCount := 0

		for i := range records {
			if !probe.present(&records[i]) {
				missing++
				continue
			}
			if probe.value == nil {
				continue
			}
			if v, ok := probe.value(&records[i]); ok {
				min = math.Min(min, v)
				max = math.Max(max, v)
				sum += v
				numericCount++
			}
		}

		if missing > 0 {
			report.MissingValues[probe.name] = ColumnMissing{
				Count:      missing,
				Percentage: roundTo(float64(missing)/float64(len(records))*100, 2),
			}
		}
		if numericCount > 0 {
			report.ValueRanges[probe.name] = ValueRange{
				Min:  min,
				Max:  max,
				Mean: roundTo(sum/float64(numericCount), 4),
			}
		}
	}

	return report
}
