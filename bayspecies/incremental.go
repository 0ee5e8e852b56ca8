package bayspecies

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Incremental processes a batch one observed category at a time, in
// discovery order. Revealing the m-th category multiplies each
// candidate's likelihood by the unseen-species factor (N - m + 1): the
// number of still-unseen categories the new one could have been.
//
// Applying the factor once per category rather than once per batch is a
// distinct model from the batch strategies, not an approximation of
// them; with counts arriving in decreasing order it weighs hypotheses
// slightly differently.
type Incremental struct {
	ns         []int
	params     []float64
	iterations int
	src        rand.Source

	gammas []float64
	cum    []float64
}

// NewIncremental returns a suite over ns that updates one category at a
// time against a flattened concentration array of length max(ns).
func NewIncremental(ns []int, iterations int, seed uint64) (*Suite, error) {
	if err := validateNs(ns); err != nil {
		return nil, err
	}
	if iterations < 1 {
		return nil, fmt.Errorf("bayspecies: iterations (%v) must be positive", iterations)
	}
	nmax := ns[len(ns)-1]
	params := make([]float64, nmax)
	for i := range params {
		params[i] = 1.0
	}
	strategy := &Incremental{
		ns:         append([]int(nil), ns...),
		params:     params,
		iterations: iterations,
		src:        rand.NewSource(seed),
		gammas:     make([]float64, nmax),
		cum:        make([]float64, nmax),
	}
	return NewSuite(ns, strategy)
}

// Update walks the batch in discovery order, reweighting the outer
// distribution for each newly revealed category and committing its
// count before moving to the next.
func (inc *Incremental) Update(outer *NDist, data []int) error {
	for i, x := range data {
		if err := inc.updateOne(outer, i+1, x); err != nil {
			return err
		}
		inc.params[i] += float64(x)
	}
	return nil
}

// updateOne reweights every candidate for the m-th revealed category
// carrying count individuals.
func (inc *Incremental) updateOne(outer *NDist, m, count int) error {
	likes := make([]float64, len(inc.ns))
	sample := make([]float64, len(inc.ns))
	for k := 0; k < inc.iterations; k++ {
		inc.sampleLikelihood(m, count, sample)
		floats.Add(likes, sample)
	}
	for j, n := range inc.ns {
		likes[j] *= float64(n - m + 1)
	}
	return outer.Reweight(likes)
}

// sampleLikelihood scores one shared Gamma draw: the m-th category's
// share of the stick under each candidate, raised to its count.
func (inc *Incremental) sampleLikelihood(m, count int, out []float64) {
	for i, a := range inc.params {
		inc.gammas[i] = distuv.Gamma{Alpha: a, Beta: 1, Src: inc.src}.Rand()
	}
	floats.CumSum(inc.cum, inc.gammas)

	maxLog := math.Inf(-1)
	for j, n := range inc.ns {
		ll := float64(count) * math.Log(inc.gammas[m-1]/inc.cum[n-1])
		out[j] = ll
		if ll > maxLog {
			maxLog = ll
		}
	}
	for j := range out {
		out[j] = math.Exp(out[j] - maxLog)
	}
}

// MarginalBeta returns the prevalence marginal of one category under
// the hypothesis of n total categories, read off the shared array.
func (inc *Incremental) MarginalBeta(n, index int) distuv.Beta {
	alpha0 := floats.Sum(inc.params[:n])
	alpha := inc.params[index]
	return distuv.Beta{Alpha: alpha, Beta: alpha0 - alpha, Src: inc.src}
}
