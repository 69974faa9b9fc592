// Package forest implements a random forest of CART classification trees.
//
// It exposes only the surface the pipeline needs: fit, class prediction,
// class probabilities, and impurity-based feature importance. Callers never
// reach into tree internals.
package forest

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Config bundles the recognized hyperparameters.
type Config struct {
	// NumTrees is the ensemble size; more trees reduce variance.
	NumTrees int
	// MaxDepth limits tree depth to control overfitting. <= 0 means unlimited.
	MaxDepth int
	// MinSamplesSplit is the minimum number of samples a node needs to be split.
	MinSamplesSplit int
	// MinSamplesLeaf is the minimum number of samples each child must keep.
	MinSamplesLeaf int
	// Balanced reweights classes inversely to their frequency to compensate
	// class imbalance.
	Balanced bool
	// Seed drives bootstrap sampling and feature subsampling.
	Seed int64
}

// DefaultConfig mirrors the canonical training hyperparameters.
func DefaultConfig() Config {
	return Config{
		NumTrees:        100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
}

// Node is one tree node. Leaves carry the weighted class distribution of
// their training samples; internal nodes carry the split.
type Node struct {
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
	// Dist is non-nil for leaves: weighted class counts, not yet normalized.
	Dist []float64
}

// Forest is a fitted ensemble. Fields are exported for gob serialization;
// treat a fitted forest as immutable.
type Forest struct {
	Cfg         Config
	NumClasses  int
	NumFeatures int
	Trees       []*Node
	Importance  []float64
}

// Fit trains the ensemble on X (rows of feature vectors) and y (class
// indices in [0, numClasses)).
func Fit(x [][]float64, y []int, numClasses int, cfg Config) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("need matching non-empty X and y, got %d/%d", len(x), len(y))
	}
	if numClasses < 2 {
		return nil, fmt.Errorf("need at least 2 classes, got %d", numClasses)
	}
	if cfg.NumTrees < 1 {
		return nil, fmt.Errorf("num trees must be >= 1, got %d", cfg.NumTrees)
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = 1
	}
	numFeatures := len(x[0])
	for i, row := range x {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), numFeatures)
		}
	}
	for i, cls := range y {
		if cls < 0 || cls >= numClasses {
			return nil, fmt.Errorf("label %d at row %d out of range", cls, i)
		}
	}

	weights := classWeights(y, numClasses, cfg.Balanced)

	f := &Forest{
		Cfg:         cfg,
		NumClasses:  numClasses,
		NumFeatures: numFeatures,
		Trees:       make([]*Node, cfg.NumTrees),
		Importance:  make([]float64, numFeatures),
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	mtry := int(math.Sqrt(float64(numFeatures)))
	if mtry < 1 {
		mtry = 1
	}

	for t := 0; t < cfg.NumTrees; t++ {
		indices := make([]int, len(x))
		for i := range indices {
			indices[i] = rng.Intn(len(x))
		}
		b := &builder{
			x:          x,
			y:          y,
			weights:    weights,
			numClasses: numClasses,
			cfg:        cfg,
			mtry:       mtry,
			rng:        rng,
			importance: f.Importance,
		}
		f.Trees[t] = b.grow(indices, 0)
	}

	normalize(f.Importance)
	return f, nil
}

// Proba returns the class probability distribution for one feature vector,
// averaged over all trees. The result sums to 1.
func (f *Forest) Proba(x []float64) []float64 {
	probs := make([]float64, f.NumClasses)
	for _, root := range f.Trees {
		leaf := root
		for leaf.Dist == nil {
			if x[leaf.Feature] <= leaf.Threshold {
				leaf = leaf.Left
			} else {
				leaf = leaf.Right
			}
		}
		total := 0.0
		for _, c := range leaf.Dist {
			total += c
		}
		if total == 0 {
			continue
		}
		for c, w := range leaf.Dist {
			probs[c] += w / total
		}
	}
	normalize(probs)
	return probs
}

// Predict returns the most probable class index for one feature vector.
func (f *Forest) Predict(x []float64) int {
	probs := f.Proba(x)
	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return best
}

// FeatureImportance returns the normalized mean impurity decrease per
// feature, in input-column order.
func (f *Forest) FeatureImportance() []float64 {
	out := make([]float64, len(f.Importance))
	copy(out, f.Importance)
	return out
}

// builder grows one tree over bootstrap indices.
type builder struct {
	x          [][]float64
	y          []int
	weights    []float64
	numClasses int
	cfg        Config
	mtry       int
	rng        *rand.Rand
	importance []float64
}

func (b *builder) grow(indices []int, depth int) *Node {
	dist := b.distribution(indices)

	if len(indices) < b.cfg.MinSamplesSplit ||
		(b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) ||
		isPure(dist) {
		return &Node{Dist: dist}
	}

	feature, threshold, gain, ok := b.bestSplit(indices, dist)
	if !ok {
		return &Node{Dist: dist}
	}

	var left, right []int
	for _, idx := range indices {
		if b.x[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) < b.cfg.MinSamplesLeaf || len(right) < b.cfg.MinSamplesLeaf {
		return &Node{Dist: dist}
	}

	b.importance[feature] += gain

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.grow(left, depth+1),
		Right:     b.grow(right, depth+1),
	}
}

// bestSplit searches a random subset of mtry features for the threshold with
// the largest weighted gini decrease.
func (b *builder) bestSplit(indices []int, parentDist []float64) (feature int, threshold, gain float64, ok bool) {
	parentTotal := sum(parentDist)
	parentGini := gini(parentDist, parentTotal)

	bestGain := 0.0
	candidates := b.rng.Perm(len(b.x[0]))[:b.mtry]

	type sample struct {
		value  float64
		class  int
		weight float64
	}

	for _, f := range candidates {
		samples := make([]sample, 0, len(indices))
		for _, idx := range indices {
			v := b.x[idx][f]
			if math.IsNaN(v) {
				continue
			}
			samples = append(samples, sample{v, b.y[idx], b.weights[b.y[idx]]})
		}
		if len(samples) < 2 {
			continue
		}
		sort.Slice(samples, func(i, j int) bool { return samples[i].value < samples[j].value })

		leftDist := make([]float64, b.numClasses)
		rightDist := make([]float64, b.numClasses)
		for _, s := range samples {
			rightDist[s.class] += s.weight
		}
		leftTotal, rightTotal := 0.0, sum(rightDist)

		for i := 0; i < len(samples)-1; i++ {
			s := samples[i]
			leftDist[s.class] += s.weight
			rightDist[s.class] -= s.weight
			leftTotal += s.weight
			rightTotal -= s.weight

			if samples[i+1].value == s.value {
				continue
			}

			child := (leftTotal*gini(leftDist, leftTotal) + rightTotal*gini(rightDist, rightTotal)) / (leftTotal + rightTotal)
			g := parentGini - child
			if g > bestGain {
				bestGain = g
				feature = f
				threshold = (s.value + samples[i+1].value) / 2
			}
		}
	}

	if bestGain <= 0 {
		return 0, 0, 0, false
	}
	return feature, threshold, bestGain * parentTotal, true
}

func (b *builder) distribution(indices []int) []float64 {
	dist := make([]float64, b.numClasses)
	for _, idx := range indices {
		dist[b.y[idx]] += b.weights[b.y[idx]]
	}
	return dist
}

// classWeights returns per-class sample weights: uniform, or inversely
// proportional to class frequency when balanced.
func classWeights(y []int, numClasses int, balanced bool) []float64 {
	weights := make([]float64, numClasses)
	if !balanced {
		for c := range weights {
			weights[c] = 1
		}
		return weights
	}
	counts := make([]float64, numClasses)
	for _, cls := range y {
		counts[cls]++
	}
	n := float64(len(y))
	for c := range weights {
		if counts[c] > 0 {
			weights[c] = n / (float64(numClasses) * counts[c])
		}
	}
	return weights
}

func gini(dist []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, c := range dist {
		p := c / total
		g -= p * p
	}
	return g
}

func isPure(dist []float64) bool {
	nonZero := 0
	for _, c := range dist {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func normalize(values []float64) {
	total := sum(values)
	if total == 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}
