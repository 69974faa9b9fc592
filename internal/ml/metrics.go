package ml

import (
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

// evaluate computes accuracy plus per-class and macro precision/recall/F1
// over a held-out fold. Classes absent from the fold get no per-class entry
// and are excluded from the macro average rather than counted as zero.
func evaluate(yTrue, yPred []int, classes []models.RiskLabel) models.EvaluationMetrics {
	n := len(yTrue)
	perClass := make(map[models.RiskLabel]models.ClassMetrics)

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}

	var sumP, sumR, sumF float64
	present := 0
	for idx, label := range classes {
		var tp, fp, fn, support int
		for i := range yTrue {
			switch {
			case yTrue[i] == idx && yPred[i] == idx:
				tp++
			case yTrue[i] != idx && yPred[i] == idx:
				fp++
			case yTrue[i] == idx && yPred[i] != idx:
				fn++
			}
			if yTrue[i] == idx {
				support++
			}
		}
		if support == 0 {
			continue
		}
		precision := safeDiv(float64(tp), float64(tp+fp))
		recall := safeDiv(float64(tp), float64(tp+fn))
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		perClass[label] = models.ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support,
		}
		sumP += precision
		sumR += recall
		sumF += f1
		present++
	}

	m := models.EvaluationMetrics{
		PerClass:    perClass,
		TestSamples: n,
	}
	if n > 0 {
		m.Accuracy = float64(correct) / float64(n)
	}
	if present > 0 {
		m.PrecisionMacro = sumP / float64(present)
		m.RecallMacro = sumR / float64(present)
		m.F1Macro = sumF / float64(present)
	}
	return m
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
