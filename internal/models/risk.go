package models

import (
	"fmt"
	"strings"
)

// RiskLabel is the canonical three-level risk classification.
type RiskLabel string

const (
	RiskLow    RiskLabel = "low"
	RiskMedium RiskLabel = "medium"
	RiskHigh   RiskLabel = "high"
)

// RiskLabels lists the canonical classes in ascending severity order. The
// order defines the class indices used by the model's label encoder.
var RiskLabels = [3]RiskLabel{RiskLow, RiskMedium, RiskHigh}

// Index returns the class index of the label, or -1 if unknown.
func (l RiskLabel) Index() int {
	for i, label := range RiskLabels {
		if l == label {
			return i
		}
	}
	return -1
}

// ParseRiskLabel normalizes a label spelling to the canonical vocabulary.
// Input is case-insensitive and the legacy Portuguese spellings used by older
// datasets (baixo/medio/alto) are accepted at the boundary.
func ParseRiskLabel(s string) (RiskLabel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "baixo":
		return RiskLow, nil
	case "medium", "medio", "médio":
		return RiskMedium, nil
	case "high", "alto":
		return RiskHigh, nil
	}
	return "", fmt.Errorf("unknown risk label %q", s)
}
