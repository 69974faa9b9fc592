package db

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS municipalities (
	id       SERIAL PRIMARY KEY,
	name     TEXT NOT NULL UNIQUE,
	province TEXT
);

CREATE TABLE IF NOT EXISTS weekly_series (
	municipality TEXT NOT NULL,
	year         INT  NOT NULL,
	week         INT  NOT NULL CHECK (week BETWEEN 1 AND 53),
	cases        INT  NOT NULL CHECK (cases >= 0),
	rainfall_mm  DOUBLE PRECISION,
	temp_mean_c  DOUBLE PRECISION,
	temp_min_c   DOUBLE PRECISION,
	temp_max_c   DOUBLE PRECISION,
	humidity_pct DOUBLE PRECISION,
	PRIMARY KEY (municipality, year, week)
);

CREATE TABLE IF NOT EXISTS predictions (
	municipality  TEXT NOT NULL,
	target_year   INT  NOT NULL,
	target_week   INT  NOT NULL,
	risk_class    TEXT NOT NULL,
	risk_score    DOUBLE PRECISION NOT NULL,
	prob_low      DOUBLE PRECISION NOT NULL,
	prob_medium   DOUBLE PRECISION NOT NULL,
	prob_high     DOUBLE PRECISION NOT NULL,
	model_version TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (municipality, target_year, target_week, model_version)
);

CREATE TABLE IF NOT EXISTS model_metrics (
	model_version   TEXT NOT NULL,
	trained_at      TIMESTAMPTZ NOT NULL,
	accuracy        DOUBLE PRECISION NOT NULL,
	precision_macro DOUBLE PRECISION NOT NULL,
	recall_macro    DOUBLE PRECISION NOT NULL,
	f1_macro        DOUBLE PRECISION NOT NULL,
	cv_folds        INT,
	cv_f1_mean      DOUBLE PRECISION,
	cv_f1_std       DOUBLE PRECISION,
	train_samples   INT NOT NULL,
	test_samples    INT NOT NULL,
	feature_count   INT NOT NULL,
	PRIMARY KEY (model_version, trained_at)
);
`

// ApplySchema creates the tables if they do not exist yet.
func (d *DB) ApplySchema(ctx context.Context) error {
	if _, err := d.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
