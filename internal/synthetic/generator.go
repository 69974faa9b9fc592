// Package synthetic generates seasonal malaria datasets for seeding and
// testing. Output is deterministic for a fixed seed.
package synthetic

import (
	"math"
	"math/rand"

	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

// Municipalities are the nine monitored areas of the Bié province.
var Municipalities = []string{
	"Andulo", "Camacupa", "Catabola", "Chinguar", "Chitembo",
	"Cuemba", "Cunhinga", "Kuito", "Nharea",
}

// Options controls the generated dataset.
type Options struct {
	Municipalities []string
	StartYear      int
	Weeks          int
	Seed           int64
}

// DefaultOptions generates 2 years of weekly data for all municipalities.
func DefaultOptions() Options {
	return Options{
		Municipalities: Municipalities,
		StartYear:      2022,
		Weeks:          104,
		Seed:           42,
	}
}

// Generate produces weekly records with a sinusoidal rainy-season signal:
// case counts, rainfall, temperature and humidity all peak together, with
// noise on top, so a trained model has real seasonal structure to learn.
func Generate(opts Options) []models.WeeklyRecord {
	rng := rand.New(rand.NewSource(opts.Seed))
	records := make([]models.WeeklyRecord, 0, len(opts.Municipalities)*opts.Weeks)

	for mi, municipality := range opts.Municipalities {
		// Per-municipality baseline so quantile labels differ across areas.
		baseline := 10.0 + 5.0*float64(mi)

		for w := 0; w < opts.Weeks; w++ {
			year := opts.StartYear + w/52
			week := w%52 + 1
			phase := 2 * math.Pi * float64(week) / 52

			seasonal := 1 + 0.5*math.Sin(phase)
			tempMean := 20 + 10*math.Sin(phase) + rng.NormFloat64()*2
			rainfall := math.Max(0, 50+100*math.Sin(phase)+rng.NormFloat64()*20)
			humidity := clamp(60+20*math.Sin(phase)+rng.NormFloat64()*5, 0, 100)
			tempMin := tempMean - 5 - rng.Float64()*2
			tempMax := tempMean + 5 + rng.Float64()*2

			cases := int(baseline + 20*seasonal + float64(poisson(rng, 5)))
			if cases < 0 {
				cases = 0
			}

			records = append(records, models.WeeklyRecord{
				Municipality: municipality,
				Year:         year,
				Week:         week,
				Cases:        cases,
				RainfallMM:   ptr(round1(rainfall)),
				TempMeanC:    ptr(round1(tempMean)),
				TempMinC:     ptr(round1(tempMin)),
				TempMaxC:     ptr(round1(tempMax)),
				HumidityPct:  ptr(round1(humidity)),
			})
		}
	}
	return records
}

// poisson draws a Poisson variate via Knuth's method; fine for small lambda.
func poisson(rng *rand.Rand, lambda float64) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func ptr(v float64) *float64 { return &v }
