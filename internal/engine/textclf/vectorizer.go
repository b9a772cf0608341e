package textclf

import (
	"math"
	"sort"
)

// sparseVector is a feature vector holding only its non-zero entries, with
// indices in ascending order.
type sparseVector struct {
	idx []int
	val []float64
}

// vectorizer maps text to L2-normalised TF-IDF vectors over a vocabulary
// frozen at fit time. Terms outside the vocabulary are ignored.
type vectorizer struct {
	terms []string
	index map[string]int
	idf   []float64
}

// fitVectorizer learns the vocabulary and smoothed inverse document
// frequencies, idf(t) = ln((1+n)/(1+df(t))) + 1, from the training documents.
// Terms are indexed in lexical order.
func fitVectorizer(docs []string) *vectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range analyze(doc) {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return newVectorizer(terms, idf)
}

func newVectorizer(terms []string, idf []float64) *vectorizer {
	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}
	return &vectorizer{terms: terms, index: index, idf: idf}
}

// size returns the number of features.
func (v *vectorizer) size() int {
	return len(v.terms)
}

// transform converts text to its TF-IDF vector. Text without any known term
// yields the zero vector.
func (v *vectorizer) transform(text string) sparseVector {
	counts := make(map[int]float64)
	for _, tok := range analyze(text) {
		if i, ok := v.index[tok]; ok {
			counts[i]++
		}
	}
	if len(counts) == 0 {
		return sparseVector{}
	}

	idx := make([]int, 0, len(counts))
	for i := range counts {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	val := make([]float64, len(idx))
	var norm float64
	for j, i := range idx {
		w := counts[i] * v.idf[i]
		val[j] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for j := range val {
		val[j] /= norm
	}
	return sparseVector{idx: idx, val: val}
}
