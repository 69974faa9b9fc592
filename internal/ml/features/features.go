// Package features turns ordered weekly municipality records into the
// model-ready feature table: lag features, rolling statistics, temporal
// encodings, climate normalization, interaction terms, and risk labels.
//
// Derived values that are undefined (for example a lag with no predecessor)
// are represented as NaN. Training filters those rows out explicitly;
// nothing in this package silently substitutes zeros.
package features

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

// Label derivation methods.
const (
	LabelMethodQuantile  = "quantile"
	LabelMethodThreshold = "threshold"
)

// Base column names. These double as feature names for the raw values.
const (
	ColCases    = "cases"
	ColRainfall = "rainfall_mm"
	ColTempMean = "temp_mean_c"
	ColTempMin  = "temp_min_c"
	ColTempMax  = "temp_max_c"
	ColHumidity = "humidity_pct"
)

var (
	baseColumns = []string{ColCases, ColRainfall, ColTempMean, ColTempMin, ColTempMax, ColHumidity}

	// Columns that receive lag and rolling variants.
	laggedColumns  = []string{ColCases, ColRainfall, ColTempMean}
	rollingColumns = []string{ColCases, ColRainfall, ColTempMean}

	// Climate columns normalized with dataset-wide z-scores.
	climateColumns = []string{ColRainfall, ColTempMean, ColTempMin, ColTempMax, ColHumidity}
)

// Config controls feature derivation and label construction.
type Config struct {
	LagPeriods     []int
	RollingWindows []int

	// LabelMethod selects quantile (per-municipality tertiles) or threshold
	// (fixed absolute cutoffs) label derivation.
	LabelMethod   string
	QuantileLow   float64
	QuantileHigh  float64
	ThresholdLow  float64
	ThresholdHigh float64
}

// DefaultConfig returns the canonical pipeline configuration.
func DefaultConfig() Config {
	return Config{
		LagPeriods:     []int{1, 2, 3, 4},
		RollingWindows: []int{2, 4, 8},
		LabelMethod:    LabelMethodQuantile,
		QuantileLow:    0.33,
		QuantileHigh:   0.66,
		ThresholdLow:   20,
		ThresholdHigh:  50,
	}
}

// Validate reports the first invalid option.
func (c Config) Validate() error {
	if len(c.LagPeriods) == 0 {
		return fmt.Errorf("lag_periods must not be empty")
	}
	for _, lag := range c.LagPeriods {
		if lag < 1 {
			return fmt.Errorf("lag_periods must be >= 1, got %d", lag)
		}
	}
	if len(c.RollingWindows) == 0 {
		return fmt.Errorf("rolling_windows must not be empty")
	}
	for _, w := range c.RollingWindows {
		if w < 1 {
			return fmt.Errorf("rolling_windows must be >= 1, got %d", w)
		}
	}
	switch c.LabelMethod {
	case LabelMethodQuantile:
		if c.QuantileLow <= 0 || c.QuantileHigh >= 1 || c.QuantileLow >= c.QuantileHigh {
			return fmt.Errorf("quantiles must satisfy 0 < low < high < 1, got %g/%g", c.QuantileLow, c.QuantileHigh)
		}
	case LabelMethodThreshold:
		if c.ThresholdLow >= c.ThresholdHigh {
			return fmt.Errorf("thresholds must satisfy low < high, got %g/%g", c.ThresholdLow, c.ThresholdHigh)
		}
	default:
		return fmt.Errorf("unknown label_method %q", c.LabelMethod)
	}
	return nil
}

// Row is one weekly observation extended with derived feature values.
// Undefined values are NaN. Label is empty for rows whose one-step-ahead
// target does not exist (the last week of each municipality).
type Row struct {
	Municipality string
	Year         int
	Week         int
	Cases        int
	Values       map[string]float64
	FutureCases  float64
	Label        models.RiskLabel
}

// Table is the enriched feature table with its ordered feature-name list.
type Table struct {
	Names []string
	Rows  []Row
}

// Trainable returns the rows that carry a risk label.
func (t *Table) Trainable() []Row {
	out := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Label != "" {
			out = append(out, r)
		}
	}
	return out
}

// Vector assembles a row's values in the given feature order. Features the
// row does not carry are filled with zero; NaN values are kept as NaN so the
// caller can decide whether the vector is usable.
func (r Row) Vector(names []string) []float64 {
	vec := make([]float64, len(names))
	for i, name := range names {
		if v, ok := r.Values[name]; ok {
			vec[i] = v
		}
	}
	return vec
}

// Complete reports whether the row defines every named feature.
func (r Row) Complete(names []string) bool {
	for _, name := range names {
		v, ok := r.Values[name]
		if !ok || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Build runs the full feature pipeline over the records. Input order does
// not matter: rows are sorted by (municipality, year, week) before any
// derivation, since lag and rolling features are undefined otherwise.
func Build(records []models.WeeklyRecord, cfg Config) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to build features from")
	}

	sorted := make([]models.WeeklyRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Municipality != b.Municipality {
			return a.Municipality < b.Municipality
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Week < b.Week
	})

	table := &Table{Rows: baseRows(sorted)}
	names := append([]string{}, baseColumns...)

	groups := groupByMunicipality(table.Rows)

	names = append(names, addLagFeatures(groups, cfg.LagPeriods)...)
	names = append(names, addRollingFeatures(groups, cfg.RollingWindows)...)
	names = append(names, addTemporalFeatures(table.Rows)...)
	names = append(names, addClimateZScores(table.Rows)...)
	names = append(names, addInteractionFeatures(table.Rows)...)

	if err := deriveLabels(groups, cfg); err != nil {
		return nil, err
	}

	table.Names = names
	return table, nil
}

func baseRows(records []models.WeeklyRecord) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		values := map[string]float64{
			ColCases:    float64(rec.Cases),
			ColRainfall: floatOrNaN(rec.RainfallMM),
			ColTempMean: floatOrNaN(rec.TempMeanC),
			ColTempMin:  floatOrNaN(rec.TempMinC),
			ColTempMax:  floatOrNaN(rec.TempMaxC),
			ColHumidity: floatOrNaN(rec.HumidityPct),
		}
		rows[i] = Row{
			Municipality: rec.Municipality,
			Year:         rec.Year,
			Week:         rec.Week,
			Cases:        rec.Cases,
			Values:       values,
			FutureCases:  math.NaN(),
		}
	}
	return rows
}

// groupByMunicipality returns per-municipality row slices backed by the
// table, preserving first-seen order.
func groupByMunicipality(rows []Row) [][]Row {
	var groups [][]Row
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i == len(rows) || rows[i].Municipality != rows[start].Municipality {
			groups = append(groups, rows[start:i])
			start = i
		}
	}
	return groups
}

// addLagFeatures derives col_lagN per municipality. Rows without a valid
// predecessor stay NaN; lags never cross municipality boundaries.
func addLagFeatures(groups [][]Row, lags []int) []string {
	var names []string
	for _, col := range laggedColumns {
		for _, lag := range lags {
			names = append(names, fmt.Sprintf("%s_lag%d", col, lag))
		}
	}
	for _, group := range groups {
		for _, col := range laggedColumns {
			for _, lag := range lags {
				name := fmt.Sprintf("%s_lag%d", col, lag)
				for i := range group {
					if i < lag {
						group[i].Values[name] = math.NaN()
						continue
					}
					group[i].Values[name] = group[i-lag].Values[col]
				}
			}
		}
	}
	return names
}

// addRollingFeatures derives trailing mean/std/max per municipality with a
// shrinking window: early rows aggregate whatever history exists instead of
// going NaN, since these act as smoothing signals rather than strict lags.
// The standard deviation of a single observation is 0.
func addRollingFeatures(groups [][]Row, windows []int) []string {
	var names []string
	for _, col := range rollingColumns {
		for _, w := range windows {
			names = append(names,
				fmt.Sprintf("%s_mean_%dw", col, w),
				fmt.Sprintf("%s_std_%dw", col, w),
				fmt.Sprintf("%s_max_%dw", col, w),
			)
		}
	}
	for _, group := range groups {
		for _, col := range rollingColumns {
			for _, w := range windows {
				meanName := fmt.Sprintf("%s_mean_%dw", col, w)
				stdName := fmt.Sprintf("%s_std_%dw", col, w)
				maxName := fmt.Sprintf("%s_max_%dw", col, w)
				for i := range group {
					lo := i - w + 1
					if lo < 0 {
						lo = 0
					}
					window := make([]float64, 0, w)
					for j := lo; j <= i; j++ {
						if v := group[j].Values[col]; !math.IsNaN(v) {
							window = append(window, v)
						}
					}
					if len(window) == 0 {
						group[i].Values[meanName] = math.NaN()
						group[i].Values[stdName] = math.NaN()
						group[i].Values[maxName] = math.NaN()
						continue
					}
					mean, std := stat.MeanStdDev(window, nil)
					if len(window) < 2 {
						std = 0
					}
					group[i].Values[meanName] = mean
					group[i].Values[stdName] = std
					group[i].Values[maxName] = maxOf(window)
				}
			}
		}
	}
	return names
}

// addTemporalFeatures derives the cyclical week encoding, the dataset-wide
// monotonic trend index, and the coarse 13-week season bucket.
func addTemporalFeatures(rows []Row) []string {
	minYear := rows[0].Year
	for _, r := range rows {
		if r.Year < minYear {
			minYear = r.Year
		}
	}
	for i := range rows {
		week := float64(rows[i].Week)
		rows[i].Values["week_sin"] = math.Sin(2 * math.Pi * week / 52)
		rows[i].Values["week_cos"] = math.Cos(2 * math.Pi * week / 52)
		rows[i].Values["trend"] = float64((rows[i].Year-minYear)*52 + rows[i].Week - 1)
		rows[i].Values["season"] = float64((rows[i].Week-1)/13 + 1)
	}
	return []string{"week_sin", "week_cos", "trend", "season"}
}

// addClimateZScores normalizes each climate column against its dataset-wide
// mean and standard deviation. Zero-variance columns normalize to 0 instead
// of dividing by zero; NaN inputs stay NaN.
func addClimateZScores(rows []Row) []string {
	var names []string
	for _, col := range climateColumns {
		name := col + "_z"
		names = append(names, name)

		var defined []float64
		for _, r := range rows {
			if v := r.Values[col]; !math.IsNaN(v) {
				defined = append(defined, v)
			}
		}
		if len(defined) == 0 {
			for i := range rows {
				rows[i].Values[name] = math.NaN()
			}
			continue
		}
		mean, std := stat.MeanStdDev(defined, nil)
		if len(defined) < 2 || std == 0 || math.IsNaN(std) {
			std = 0
		}
		for i := range rows {
			v := rows[i].Values[col]
			switch {
			case math.IsNaN(v):
				rows[i].Values[name] = math.NaN()
			case std == 0:
				rows[i].Values[name] = 0
			default:
				rows[i].Values[name] = (v - mean) / std
			}
		}
	}
	return names
}

// addInteractionFeatures derives the fixed pairwise interaction set. The set
// is deliberately small and documented, not a combinatorial expansion.
func addInteractionFeatures(rows []Row) []string {
	names := []string{"rain_temp_interaction", "cases_rain_interaction", "rain_temp_ratio"}
	for i := range rows {
		rain := rows[i].Values[ColRainfall]
		temp := rows[i].Values[ColTempMean]
		cases := rows[i].Values[ColCases]
		rainLag1, ok := rows[i].Values[ColRainfall+"_lag1"]
		if !ok {
			rainLag1 = math.NaN()
		}

		rows[i].Values["rain_temp_interaction"] = rain * temp
		rows[i].Values["cases_rain_interaction"] = cases * rainLag1
		rows[i].Values["rain_temp_ratio"] = rain / (temp + 1e-8)
	}
	return names
}

// deriveLabels computes the one-step-ahead case count per municipality and
// buckets it into the three risk classes. The last row of each municipality
// has no future target and keeps an empty label; training drops it.
func deriveLabels(groups [][]Row, cfg Config) error {
	for _, group := range groups {
		for i := range group {
			if i+1 < len(group) {
				group[i].FutureCases = float64(group[i+1].Cases)
			}
		}

		low, high := cfg.ThresholdLow, cfg.ThresholdHigh
		if cfg.LabelMethod == LabelMethodQuantile {
			futures := make([]float64, 0, len(group))
			for _, r := range group {
				if !math.IsNaN(r.FutureCases) {
					futures = append(futures, r.FutureCases)
				}
			}
			if len(futures) == 0 {
				continue
			}
			sort.Float64s(futures)
			low = stat.Quantile(cfg.QuantileLow, stat.LinInterp, futures, nil)
			high = stat.Quantile(cfg.QuantileHigh, stat.LinInterp, futures, nil)
		}

		for i := range group {
			future := group[i].FutureCases
			if math.IsNaN(future) {
				continue
			}
			switch {
			case future <= low:
				group[i].Label = models.RiskLow
			case future <= high:
				group[i].Label = models.RiskMedium
			default:
				group[i].Label = models.RiskHigh
			}
		}
	}
	return nil
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
