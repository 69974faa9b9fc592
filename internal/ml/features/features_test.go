package features_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/features"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

func ptr(v float64) *float64 { return &v }

// makeSeries builds one municipality's weekly records with fixed climate so
// tests can focus on the case-derived features.
func makeSeries(municipality string, year int, cases []int) []models.WeeklyRecord {
	records := make([]models.WeeklyRecord, len(cases))
	for i, c := range cases {
		records[i] = models.WeeklyRecord{
			Municipality: municipality,
			Year:         year,
			Week:         i + 1,
			Cases:        c,
			RainfallMM:   ptr(100 + float64(i)),
			TempMeanC:    ptr(25),
			TempMinC:     ptr(18),
			TempMaxC:     ptr(31),
			HumidityPct:  ptr(70),
		}
	}
	return records
}

func rowValues(t *testing.T, table *features.Table, municipality string, week int) map[string]float64 {
	t.Helper()
	for _, r := range table.Rows {
		if r.Municipality == municipality && r.Week == week {
			return r.Values
		}
	}
	t.Fatalf("no row for %s week %d", municipality, week)
	return nil
}

func TestBuild_LagFeatures(t *testing.T) {
	cfg := features.DefaultConfig()
	cfg.LagPeriods = []int{1, 2}

	table, err := features.Build(makeSeries("Cuito", 2023, []int{10, 20, 30, 40}), cfg)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(rowValues(t, table, "Cuito", 1)["cases_lag1"]))
	assert.Equal(t, 10.0, rowValues(t, table, "Cuito", 2)["cases_lag1"])
	assert.Equal(t, 20.0, rowValues(t, table, "Cuito", 3)["cases_lag1"])
	assert.Equal(t, 30.0, rowValues(t, table, "Cuito", 4)["cases_lag1"])

	assert.True(t, math.IsNaN(rowValues(t, table, "Cuito", 2)["cases_lag2"]))
	assert.Equal(t, 10.0, rowValues(t, table, "Cuito", 3)["cases_lag2"])
	assert.Equal(t, 20.0, rowValues(t, table, "Cuito", 4)["cases_lag2"])
}

func TestBuild_LagsDoNotCrossMunicipalities(t *testing.T) {
	cfg := features.DefaultConfig()
	cfg.LagPeriods = []int{1}

	records := append(
		makeSeries("Andulo", 2023, []int{5, 6}),
		makeSeries("Cuito", 2023, []int{50, 60})...,
	)
	table, err := features.Build(records, cfg)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(rowValues(t, table, "Andulo", 1)["cases_lag1"]))
	assert.True(t, math.IsNaN(rowValues(t, table, "Cuito", 1)["cases_lag1"]))
	assert.Equal(t, 50.0, rowValues(t, table, "Cuito", 2)["cases_lag1"])
}

func TestBuild_RollingFeatures(t *testing.T) {
	cfg := features.DefaultConfig()
	cfg.RollingWindows = []int{2}

	table, err := features.Build(makeSeries("Cuito", 2023, []int{10, 20, 30}), cfg)
	require.NoError(t, err)

	assert.Equal(t, 10.0, rowValues(t, table, "Cuito", 1)["cases_mean_2w"])
	assert.Equal(t, 15.0, rowValues(t, table, "Cuito", 2)["cases_mean_2w"])
	assert.Equal(t, 25.0, rowValues(t, table, "Cuito", 3)["cases_mean_2w"])

	// A window of one observation has zero spread.
	assert.Equal(t, 0.0, rowValues(t, table, "Cuito", 1)["cases_std_2w"])
	assert.InDelta(t, math.Sqrt2*5, rowValues(t, table, "Cuito", 2)["cases_std_2w"], 1e-9)

	assert.Equal(t, 10.0, rowValues(t, table, "Cuito", 1)["cases_max_2w"])
	assert.Equal(t, 20.0, rowValues(t, table, "Cuito", 2)["cases_max_2w"])
	assert.Equal(t, 30.0, rowValues(t, table, "Cuito", 3)["cases_max_2w"])
}

func TestBuild_TemporalFeatures(t *testing.T) {
	records := makeSeries("Cuito", 2023, make([]int, 30))
	records = append(records, models.WeeklyRecord{
		Municipality: "Cuito", Year: 2024, Week: 2, Cases: 1,
		RainfallMM: ptr(90), TempMeanC: ptr(24),
	})

	table, err := features.Build(records, features.DefaultConfig())
	require.NoError(t, err)

	week13 := rowValues(t, table, "Cuito", 13)
	assert.InDelta(t, 1.0, week13["week_sin"], 1e-9)
	assert.InDelta(t, 0.0, week13["week_cos"], 1e-9)

	assert.Equal(t, 0.0, rowValues(t, table, "Cuito", 1)["trend"])
	assert.Equal(t, 12.0, week13["trend"])

	assert.Equal(t, 1.0, rowValues(t, table, "Cuito", 1)["season"])
	assert.Equal(t, 1.0, week13["season"])
	assert.Equal(t, 2.0, rowValues(t, table, "Cuito", 14)["season"])
	assert.Equal(t, 3.0, rowValues(t, table, "Cuito", 27)["season"])

	// Week 2 of 2024: one full year past the origin.
	for _, r := range table.Rows {
		if r.Year == 2024 {
			assert.Equal(t, 53.0, r.Values["trend"])
		}
	}
}

func TestBuild_InteractionFeatures(t *testing.T) {
	table, err := features.Build(makeSeries("Cuito", 2023, []int{10, 20}), features.DefaultConfig())
	require.NoError(t, err)

	week2 := rowValues(t, table, "Cuito", 2)
	assert.InDelta(t, 101*25.0, week2["rain_temp_interaction"], 1e-9)
	// Uses the previous week's rainfall.
	assert.InDelta(t, 20*100.0, week2["cases_rain_interaction"], 1e-9)
	assert.InDelta(t, 101.0/25.0, week2["rain_temp_ratio"], 1e-6)

	// No rainfall lag exists for the first week.
	assert.True(t, math.IsNaN(rowValues(t, table, "Cuito", 1)["cases_rain_interaction"]))
}

func TestBuild_ClimateZScores(t *testing.T) {
	records := makeSeries("Cuito", 2023, []int{1, 2, 3})
	table, err := features.Build(records, features.DefaultConfig())
	require.NoError(t, err)

	// Constant temperature normalizes to zero everywhere.
	for week := 1; week <= 3; week++ {
		assert.Equal(t, 0.0, rowValues(t, table, "Cuito", week)["temp_mean_c_z"])
	}
	// Rainfall 100,101,102 is symmetric around its mean.
	assert.InDelta(t, -1.0, rowValues(t, table, "Cuito", 1)["rainfall_mm_z"], 1e-9)
	assert.InDelta(t, 0.0, rowValues(t, table, "Cuito", 2)["rainfall_mm_z"], 1e-9)
	assert.InDelta(t, 1.0, rowValues(t, table, "Cuito", 3)["rainfall_mm_z"], 1e-9)
}

func TestBuild_MissingClimateStaysNaN(t *testing.T) {
	records := makeSeries("Cuito", 2023, []int{1, 2, 3})
	records[1].HumidityPct = nil

	table, err := features.Build(records, features.DefaultConfig())
	require.NoError(t, err)

	assert.True(t, math.IsNaN(rowValues(t, table, "Cuito", 2)["humidity_pct"]))
	assert.True(t, math.IsNaN(rowValues(t, table, "Cuito", 2)["humidity_pct_z"]))
	assert.False(t, math.IsNaN(rowValues(t, table, "Cuito", 1)["humidity_pct_z"]))
}

func TestBuild_ThresholdLabels(t *testing.T) {
	cfg := features.DefaultConfig()
	cfg.LabelMethod = features.LabelMethodThreshold
	cfg.ThresholdLow = 20
	cfg.ThresholdHigh = 50

	table, err := features.Build(makeSeries("Cuito", 2023, []int{5, 10, 30, 60, 20, 50}), cfg)
	require.NoError(t, err)

	want := []models.RiskLabel{
		models.RiskLow,    // next week 10
		models.RiskMedium, // next week 30
		models.RiskHigh,   // next week 60
		models.RiskLow,    // next week 20, at the low cutoff
		models.RiskMedium, // next week 50, at the high cutoff
		"",                // no future week
	}
	for i, r := range table.Rows {
		assert.Equal(t, want[i], r.Label, "week %d", r.Week)
	}
}

func TestBuild_QuantileLabels(t *testing.T) {
	cases := make([]int, 30)
	for i := range cases {
		cases[i] = (i * 7) % 40
	}
	table, err := features.Build(makeSeries("Cuito", 2023, cases), features.DefaultConfig())
	require.NoError(t, err)

	counts := map[models.RiskLabel]int{}
	for _, r := range table.Rows {
		if r.Label != "" {
			counts[r.Label]++
		}
	}
	assert.Greater(t, counts[models.RiskLow], 0)
	assert.Greater(t, counts[models.RiskMedium], 0)
	assert.Greater(t, counts[models.RiskHigh], 0)

	// Tertile thresholds put roughly a third of the rows in each class.
	labeled := counts[models.RiskLow] + counts[models.RiskMedium] + counts[models.RiskHigh]
	third := float64(labeled) / 3
	assert.InDelta(t, third, float64(counts[models.RiskLow]), 2)
	assert.InDelta(t, third, float64(counts[models.RiskHigh]), 2)

	// Labels must be monotone in the future case count.
	maxLowFuture, minHighFuture := math.Inf(-1), math.Inf(1)
	for _, r := range table.Rows {
		switch r.Label {
		case models.RiskLow:
			maxLowFuture = math.Max(maxLowFuture, r.FutureCases)
		case models.RiskHigh:
			minHighFuture = math.Min(minHighFuture, r.FutureCases)
		}
	}
	assert.Less(t, maxLowFuture, minHighFuture)
}

func TestBuild_LastWeekHasNoLabel(t *testing.T) {
	table, err := features.Build(makeSeries("Cuito", 2023, []int{1, 2, 3, 4}), features.DefaultConfig())
	require.NoError(t, err)

	last := table.Rows[len(table.Rows)-1]
	assert.Equal(t, 4, last.Week)
	assert.Empty(t, last.Label)
	assert.True(t, math.IsNaN(last.FutureCases))
}

func TestBuild_OrderIndependence(t *testing.T) {
	records := append(
		makeSeries("Andulo", 2023, []int{3, 9, 4, 12, 8, 2}),
		makeSeries("Cuito", 2023, []int{20, 14, 31, 7, 16, 25})...,
	)

	sortedTable, err := features.Build(records, features.DefaultConfig())
	require.NoError(t, err)

	shuffled := make([]models.WeeklyRecord, len(records))
	copy(shuffled, records)
	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	shuffledTable, err := features.Build(shuffled, features.DefaultConfig())
	require.NoError(t, err)

	require.Equal(t, sortedTable.Names, shuffledTable.Names)
	require.Len(t, shuffledTable.Rows, len(sortedTable.Rows))
	for i, want := range sortedTable.Rows {
		got := shuffledTable.Rows[i]
		assert.Equal(t, want.Municipality, got.Municipality)
		assert.Equal(t, want.Week, got.Week)
		assert.Equal(t, want.Label, got.Label)
		for name, v := range want.Values {
			if math.IsNaN(v) {
				assert.True(t, math.IsNaN(got.Values[name]), "%s week %d %s", want.Municipality, want.Week, name)
				continue
			}
			assert.InDelta(t, v, got.Values[name], 1e-12, "%s week %d %s", want.Municipality, want.Week, name)
		}
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	_, err := features.Build(nil, features.DefaultConfig())
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*features.Config)
		wantErr bool
	}{
		{"defaults", func(c *features.Config) {}, false},
		{"no lags", func(c *features.Config) { c.LagPeriods = nil }, true},
		{"zero lag", func(c *features.Config) { c.LagPeriods = []int{0} }, true},
		{"no windows", func(c *features.Config) { c.RollingWindows = nil }, true},
		{"zero window", func(c *features.Config) { c.RollingWindows = []int{4, 0} }, true},
		{"quantiles inverted", func(c *features.Config) { c.QuantileLow, c.QuantileHigh = 0.8, 0.2 }, true},
		{"quantile at bound", func(c *features.Config) { c.QuantileHigh = 1.0 }, true},
		{"unknown label method", func(c *features.Config) { c.LabelMethod = "kmeans" }, true},
		{"thresholds inverted", func(c *features.Config) {
			c.LabelMethod = features.LabelMethodThreshold
			c.ThresholdLow, c.ThresholdHigh = 50, 20
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := features.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRow_VectorAndComplete(t *testing.T) {
	row := features.Row{Values: map[string]float64{
		"a": 1.5,
		"b": math.NaN(),
	}}

	vec := row.Vector([]string{"a", "b", "missing"})
	assert.Equal(t, 1.5, vec[0])
	assert.True(t, math.IsNaN(vec[1]))
	assert.Equal(t, 0.0, vec[2])

	assert.True(t, row.Complete([]string{"a"}))
	assert.False(t, row.Complete([]string{"a", "b"}))
	assert.False(t, row.Complete([]string{"a", "missing"}))
}
