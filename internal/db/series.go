package db

import (
	"context"
	"fmt"

	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

// UpsertWeeklyRecord inserts one municipality-week observation, replacing an
// existing row at the same (municipality, year, week) grain.
func (d *DB) UpsertWeeklyRecord(ctx context.Context, rec models.WeeklyRecord) error {
	query := `
	INSERT INTO weekly_series (
		municipality, year, week, cases,
		rainfall_mm, temp_mean_c, temp_min_c, temp_max_c, humidity_pct
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (municipality, year, week) DO UPDATE SET
		cases = EXCLUDED.cases,
		rainfall_mm = EXCLUDED.rainfall_mm,
		temp_mean_c = EXCLUDED.temp_mean_c,
		temp_min_c = EXCLUDED.temp_min_c,
		temp_max_c = EXCLUDED.temp_max_c,
		humidity_pct = EXCLUDED.humidity_pct`

	_, err := d.Pool.Exec(ctx, query,
		rec.Municipality, rec.Year, rec.Week, rec.Cases,
		rec.RainfallMM, rec.TempMeanC, rec.TempMinC, rec.TempMaxC, rec.HumidityPct,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert weekly record %s %s: %w", rec.Municipality, rec.EpiWeek(), err)
	}
	return nil
}

// GetSeries returns the weekly series ordered by (municipality, year, week).
// municipality filters to one area when non-empty; fromYear/toYear bound the
// range when positive.
func (d *DB) GetSeries(ctx context.Context, municipality string, fromYear, toYear int) ([]models.WeeklyRecord, error) {
	query := `
	SELECT municipality, year, week, cases,
	       rainfall_mm, temp_mean_c, temp_min_c, temp_max_c, humidity_pct
	FROM weekly_series
	WHERE ($1 = '' OR LOWER(municipality) = LOWER($1))
	  AND ($2 <= 0 OR year >= $2)
	  AND ($3 <= 0 OR year <= $3)
	ORDER BY municipality, year, week`

	rows, err := d.Pool.Query(ctx, query, municipality, fromYear, toYear)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly series: %w", err)
	}
	defer rows.Close()

	var list []models.WeeklyRecord
	for rows.Next() {
		var rec models.WeeklyRecord
		err := rows.Scan(
			&rec.Municipality, &rec.Year, &rec.Week, &rec.Cases,
			&rec.RainfallMM, &rec.TempMeanC, &rec.TempMinC, &rec.TempMaxC, &rec.HumidityPct,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weekly record: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// GetRecentSeries returns the most recent maxWeeks observations of one
// municipality in chronological order.
func (d *DB) GetRecentSeries(ctx context.Context, municipality string, maxWeeks int) ([]models.WeeklyRecord, error) {
	query := `
	SELECT municipality, year, week, cases,
	       rainfall_mm, temp_mean_c, temp_min_c, temp_max_c, humidity_pct
	FROM (
		SELECT * FROM weekly_series
		WHERE LOWER(municipality) = LOWER($1)
		ORDER BY year DESC, week DESC
		LIMIT $2
	) recent
	ORDER BY year, week`

	rows, err := d.Pool.Query(ctx, query, municipality, maxWeeks)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent series for %s: %w", municipality, err)
	}
	defer rows.Close()

	var list []models.WeeklyRecord
	for rows.Next() {
		var rec models.WeeklyRecord
		err := rows.Scan(
			&rec.Municipality, &rec.Year, &rec.Week, &rec.Cases,
			&rec.RainfallMM, &rec.TempMeanC, &rec.TempMinC, &rec.TempMaxC, &rec.HumidityPct,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weekly record: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
