package textclf

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// splitExamples shuffles the examples with a seeded generator and holds out
// ceil(testSize·n) of them for evaluation. The same seed always produces the
// same split.
func splitExamples(examples []Example, testSize float64, seed uint64) (train, test []Example, err error) {
	n := len(examples)
	nTest := int(math.Ceil(testSize * float64(n)))
	if n-nTest < 1 {
		return nil, nil, fmt.Errorf("%w: %d examples leave no training data at test size %.2f",
			ErrInsufficientData, n, testSize)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)

	test = make([]Example, 0, nTest)
	train = make([]Example, 0, n-nTest)
	for i, p := range perm {
		if i < nTest {
			test = append(test, examples[p])
		} else {
			train = append(train, examples[p])
		}
	}
	return train, test, nil
}
