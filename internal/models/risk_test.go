package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

func TestRiskLabel_Index(t *testing.T) {
	assert.Equal(t, 0, models.RiskLow.Index())
	assert.Equal(t, 1, models.RiskMedium.Index())
	assert.Equal(t, 2, models.RiskHigh.Index())
	assert.Equal(t, -1, models.RiskLabel("extreme").Index())
}

func TestParseRiskLabel(t *testing.T) {
	tests := []struct {
		in   string
		want models.RiskLabel
	}{
		{"low", models.RiskLow},
		{"LOW", models.RiskLow},
		{" medium ", models.RiskMedium},
		{"high", models.RiskHigh},
		// Legacy Portuguese spellings from older datasets.
		{"baixo", models.RiskLow},
		{"medio", models.RiskMedium},
		{"médio", models.RiskMedium},
		{"Alto", models.RiskHigh},
	}
	for _, tt := range tests {
		got, err := models.ParseRiskLabel(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	for _, bad := range []string{"", "severe", "altíssimo"} {
		_, err := models.ParseRiskLabel(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
