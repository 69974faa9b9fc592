package models

import (
	"fmt"
	"strconv"
	"strings"
)

// WeeklyRecord is one municipality-week observation of case counts and climate.
// Climate fields are pointers because upstream sources frequently lack one or
// more observations for a given week.
type WeeklyRecord struct {
	Municipality string   `json:"municipality"`
	Year         int      `json:"year"`
	Week         int      `json:"week"`
	Cases        int      `json:"cases"`
	RainfallMM   *float64 `json:"rainfall_mm,omitempty"`
	TempMeanC    *float64 `json:"temp_mean_c,omitempty"`
	TempMinC     *float64 `json:"temp_min_c,omitempty"`
	TempMaxC     *float64 `json:"temp_max_c,omitempty"`
	HumidityPct  *float64 `json:"humidity_pct,omitempty"`
}

// EpiWeek formats the record's time axis as "YYYY-WW".
func (r WeeklyRecord) EpiWeek() string {
	return FormatEpiWeek(r.Year, r.Week)
}

// Validate checks the invariants ingestion must guarantee.
func (r WeeklyRecord) Validate() error {
	if strings.TrimSpace(r.Municipality) == "" {
		return fmt.Errorf("municipality is required")
	}
	if r.Year < 1900 || r.Year > 2200 {
		return fmt.Errorf("year %d out of range", r.Year)
	}
	if r.Week < 1 || r.Week > 53 {
		return fmt.Errorf("week %d out of range 1-53", r.Week)
	}
	if r.Cases < 0 {
		return fmt.Errorf("cases must be non-negative, got %d", r.Cases)
	}
	if r.RainfallMM != nil && *r.RainfallMM < 0 {
		return fmt.Errorf("rainfall_mm must be non-negative, got %f", *r.RainfallMM)
	}
	if r.HumidityPct != nil && (*r.HumidityPct < 0 || *r.HumidityPct > 100) {
		return fmt.Errorf("humidity_pct %f out of range 0-100", *r.HumidityPct)
	}
	return nil
}

// FormatEpiWeek renders a (year, week) pair as "YYYY-WW".
func FormatEpiWeek(year, week int) string {
	return fmt.Sprintf("%04d-%02d", year, week)
}

// ParseEpiWeek parses "YYYY-WW" into a (year, week) pair.
func ParseEpiWeek(s string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid epi week %q, expected YYYY-WW", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in epi week %q", s)
	}
	week, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid week in epi week %q", s)
	}
	if week < 1 || week > 53 {
		return 0, 0, fmt.Errorf("week %d out of range 1-53", week)
	}
	return year, week, nil
}
