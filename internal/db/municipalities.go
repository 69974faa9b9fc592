package db

import (
	"context"
	"fmt"

	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

// UpsertMunicipality inserts a municipality or updates its province.
func (d *DB) UpsertMunicipality(ctx context.Context, m models.Municipality) error {
	query := `
	INSERT INTO municipalities (name, province)
	VALUES ($1, $2)
	ON CONFLICT (name) DO UPDATE SET province = EXCLUDED.province`

	if _, err := d.Pool.Exec(ctx, query, m.Name, m.Province); err != nil {
		return fmt.Errorf("failed to upsert municipality %s: %w", m.Name, err)
	}
	return nil
}

// GetMunicipalities returns all municipalities ordered by name.
func (d *DB) GetMunicipalities(ctx context.Context) ([]models.Municipality, error) {
	rows, err := d.Pool.Query(ctx, `SELECT id, name, COALESCE(province, '') FROM municipalities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get municipalities: %w", err)
	}
	defer rows.Close()

	var list []models.Municipality
	for rows.Next() {
		var m models.Municipality
		if err := rows.Scan(&m.ID, &m.Name, &m.Province); err != nil {
			return nil, fmt.Errorf("failed to scan municipality: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// GetMunicipality looks a municipality up by case-insensitive name.
func (d *DB) GetMunicipality(ctx context.Context, name string) (models.Municipality, error) {
	var m models.Municipality
	err := d.Pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(province, '') FROM municipalities WHERE LOWER(name) = LOWER($1)`,
		name,
	).Scan(&m.ID, &m.Name, &m.Province)
	if err != nil {
		return models.Municipality{}, fmt.Errorf("failed to get municipality %s: %w", name, err)
	}
	return m, nil
}
