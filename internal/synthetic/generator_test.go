package synthetic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edgar-Del/malaria-predict-mono/internal/synthetic"
)

func TestGenerate_ShapeAndValidity(t *testing.T) {
	records := synthetic.Generate(synthetic.DefaultOptions())
	require.Len(t, records, len(synthetic.Municipalities)*104)

	for _, rec := range records {
		require.NoError(t, rec.Validate(), "%s %s", rec.Municipality, rec.EpiWeek())
		require.NotNil(t, rec.RainfallMM)
		require.NotNil(t, rec.TempMeanC)
		require.NotNil(t, rec.HumidityPct)
		assert.LessOrEqual(t, *rec.TempMinC, *rec.TempMeanC)
		assert.GreaterOrEqual(t, *rec.TempMaxC, *rec.TempMeanC)
	}

	// 104 weeks span two calendar years.
	first, last := records[0], records[103]
	assert.Equal(t, 2022, first.Year)
	assert.Equal(t, 1, first.Week)
	assert.Equal(t, 2023, last.Year)
	assert.Equal(t, 52, last.Week)
}

func TestGenerate_Deterministic(t *testing.T) {
	a := synthetic.Generate(synthetic.DefaultOptions())
	b := synthetic.Generate(synthetic.DefaultOptions())
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Cases, b[i].Cases)
		assert.Equal(t, *a[i].RainfallMM, *b[i].RainfallMM)
	}

	opts := synthetic.DefaultOptions()
	opts.Seed = 7
	c := synthetic.Generate(opts)
	different := false
	for i := range a {
		if a[i].Cases != c[i].Cases {
			different = true
			break
		}
	}
	assert.True(t, different, "changing the seed must change the data")
}

func TestGenerate_SeasonalSignal(t *testing.T) {
	opts := synthetic.DefaultOptions()
	opts.Municipalities = opts.Municipalities[:1]
	records := synthetic.Generate(opts)

	// Week 13 sits at the seasonal peak, week 39 at the trough.
	var peak, trough int
	for _, rec := range records {
		switch rec.Week {
		case 13:
			peak += rec.Cases
		case 39:
			trough += rec.Cases
		}
	}
	assert.Greater(t, peak, trough)
}
