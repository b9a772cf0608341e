package textclf

import "math"

// logisticRegression is a multinomial (softmax) linear classifier.
type logisticRegression struct {
	weights [][]float64 // [class][feature]
	bias    []float64
}

type fitParams struct {
	maxIter      int
	c            float64 // inverse regularisation strength
	learningRate float64
	tol          float64
}

// fitLogistic minimises the mean cross-entropy plus an L2 penalty of
// ||W||^2 / (2·C·n) by full-batch gradient descent from zero weights. Training
// stops after maxIter steps or once every gradient component is below tol.
// The result depends only on the inputs. Returns the model and the number of
// iterations run.
func fitLogistic(xs []sparseVector, ys []int, nClasses, nFeatures int, p fitParams) (*logisticRegression, int) {
	m := &logisticRegression{
		weights: make([][]float64, nClasses),
		bias:    make([]float64, nClasses),
	}
	gradW := make([][]float64, nClasses)
	for k := range m.weights {
		m.weights[k] = make([]float64, nFeatures)
		gradW[k] = make([]float64, nFeatures)
	}
	gradB := make([]float64, nClasses)

	n := float64(len(xs))
	lambda := 1 / (p.c * n)

	iter := 0
	for iter < p.maxIter {
		iter++
		for k := range gradW {
			clear(gradW[k])
		}
		clear(gradB)

		for i, x := range xs {
			probs := softmax(m.scores(x))
			for k, pk := range probs {
				g := pk
				if k == ys[i] {
					g--
				}
				gradB[k] += g
				row := gradW[k]
				for j, f := range x.idx {
					row[f] += g * x.val[j]
				}
			}
		}

		maxGrad := 0.0
		for k := range gradW {
			gradB[k] /= n
			maxGrad = math.Max(maxGrad, math.Abs(gradB[k]))
			row, w := gradW[k], m.weights[k]
			for f := range row {
				row[f] = row[f]/n + lambda*w[f]
				maxGrad = math.Max(maxGrad, math.Abs(row[f]))
			}
		}
		if maxGrad < p.tol {
			break
		}

		for k := range gradW {
			m.bias[k] -= p.learningRate * gradB[k]
			row, w := gradW[k], m.weights[k]
			for f := range w {
				w[f] -= p.learningRate * row[f]
			}
		}
	}
	return m, iter
}

// scores returns the raw linear score of every class for x.
func (m *logisticRegression) scores(x sparseVector) []float64 {
	out := make([]float64, len(m.bias))
	for k := range out {
		s := m.bias[k]
		w := m.weights[k]
		for j, f := range x.idx {
			s += w[f] * x.val[j]
		}
		out[k] = s
	}
	return out
}

// predict returns the index of the most probable class and its probability.
// Ties resolve to the lowest class index.
func (m *logisticRegression) predict(x sparseVector) (int, float64) {
	probs := softmax(m.scores(x))
	best := 0
	for k := 1; k < len(probs); k++ {
		if probs[k] > probs[best] {
			best = k
		}
	}
	return best, probs[best]
}

func softmax(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}
	maxScore := scores[0]
	for _, s := range scores[1:] {
		maxScore = math.Max(maxScore, s)
	}
	var sum float64
	out := make([]float64, len(scores))
	for k, s := range scores {
		out[k] = math.Exp(s - maxScore)
		sum += out[k]
	}
	for k := range out {
		out[k] /= sum
	}
	return out
}
