package service

import (
	"math"
	"math/rand"

	"github.com/andreypavlenko/jobscout/modules/preferences/model"
)

const (
	forestTreeCount  = 25
	forestMaxDepth   = 3
	forestMinLeaf    = 1
)

// fitForest trains a small random-forest-style ensemble: each tree is fit
// on a bootstrap resample of the scenarios with a random subset of
// features considered at each split, the classic recipe for decorrelating
// trees so the ensemble captures non-linear interactions a single ridge
// fit cannot. seed makes the
// whole process deterministic given the same scenario set.
func fitForest(X [][]float64, y []float64, seed int64) []model.Tree {
	n := len(X)
	if n == 0 {
		return nil
	}
	p := len(X[0])
	rng := rand.New(rand.NewSource(seed))

	featuresPerSplit := int(math.Sqrt(float64(p)))
	if featuresPerSplit < 1 {
		featuresPerSplit = 1
	}

	trees := make([]model.Tree, 0, forestTreeCount)
	for t := 0; t < forestTreeCount; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		tree := buildTree(X, y, idx, 0, featuresPerSplit, rng)
		trees = append(trees, tree)
	}
	return trees
}

func buildTree(X [][]float64, y []float64, idx []int, depth, featuresPerSplit int, rng *rand.Rand) model.Tree {
	if depth >= forestMaxDepth || len(idx) <= forestMinLeaf || !rowsVary(X, idx) {
		return model.Tree{Leaf: true, Value: meanAt(y, idx)}
	}

	p := len(X[0])
	candidates := rng.Perm(p)[:featuresPerSplit]

	bestFeature := -1
	bestThreshold := 0.0
	bestScore := math.Inf(1)
	var bestLeft, bestRight []int

	for _, feature := range candidates {
		thresholds := candidateThresholds(X, idx, feature)
		for _, threshold := range thresholds {
			left, right := splitAt(X, idx, feature, threshold)
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			score := weightedVariance(y, left) + weightedVariance(y, right)
			if score < bestScore {
				bestScore = score
				bestFeature = feature
				bestThreshold = threshold
				bestLeft = left
				bestRight = right
			}
		}
	}

	if bestFeature == -1 {
		return model.Tree{Leaf: true, Value: meanAt(y, idx)}
	}

	left := buildTree(X, y, bestLeft, depth+1, featuresPerSplit, rng)
	right := buildTree(X, y, bestRight, depth+1, featuresPerSplit, rng)
	return model.Tree{
		Feature:   model.Variables[bestFeature],
		Threshold: bestThreshold,
		Left:      &left,
		Right:     &right,
	}
}

func rowsVary(X [][]float64, idx []int) bool {
	if len(idx) < 2 {
		return false
	}
	first := X[idx[0]]
	for _, i := range idx[1:] {
		for j := range first {
			if X[i][j] != first[j] {
				return true
			}
		}
	}
	return false
}

func candidateThresholds(X [][]float64, idx []int, feature int) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, i := range idx {
		v := X[i][feature]
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func splitAt(X [][]float64, idx []int, feature int, threshold float64) (left, right []int) {
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func weightedVariance(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	mean := meanAt(y, idx)
	var sum float64
	for _, i := range idx {
		d := y[i] - mean
		sum += d * d
	}
	return sum
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

// predictForest averages every tree's prediction for one feature vector.
func predictForest(trees []model.Tree, vec []float64) float64 {
	if len(trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range trees {
		sum += predictTree(&t, vec)
	}
	return sum / float64(len(trees))
}

func predictTree(t *model.Tree, vec []float64) float64 {
	for !t.Leaf {
		idx := variableIndex(t.Feature)
		if vec[idx] <= t.Threshold {
			t = t.Left
		} else {
			t = t.Right
		}
	}
	return t.Value
}

func variableIndex(v model.Variable) int {
	for i, candidate := range model.Variables {
		if candidate == v {
			return i
		}
	}
	return 0
}
