package bayspecies

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// A Strategy estimates, for each incoming batch of observed counts, the
// likelihood of the batch under every candidate N, and owns whatever
// Dirichlet state those estimates condition on.
type Strategy interface {
	// Update folds one batch of counts into outer and into the
	// strategy's own Dirichlet state. After return the outer weights
	// are normalized.
	Update(outer *NDist, data []int) error
	// MarginalBeta returns the Beta marginal of one category's
	// prevalence under the hypothesis of n total categories.
	MarginalBeta(n, index int) distuv.Beta
}

// NDist is the outer discrete distribution over candidate values of N.
type NDist struct {
	ns    []int
	probs []float64
}

// NewNDist returns a uniform (unnormalized) distribution over ns.
func NewNDist(ns []int) *NDist {
	probs := make([]float64, len(ns))
	for i := range probs {
		probs[i] = 1.0
	}
	return &NDist{ns: append([]int(nil), ns...), probs: probs}
}

// Ns returns the candidate values in order.
func (d *NDist) Ns() []int {
	return d.ns
}

// Reweight multiplies each candidate's weight by its likelihood and
// renormalizes. Total collapse is a DegenerateNormalizationError.
func (d *NDist) Reweight(likes []float64) error {
	for i, like := range likes {
		d.probs[i] *= like
	}
	total := floats.Sum(d.probs)
	if total == 0 {
		return &DegenerateNormalizationError{Op: "NDist.Reweight"}
	}
	floats.Scale(1/total, d.probs)
	return nil
}

// Pmf returns the distribution as a Pmf over N.
func (d *NDist) Pmf() *Pmf[int] {
	pmf := NewPmf[int]()
	for i, n := range d.ns {
		pmf.Set(n, d.probs[i])
	}
	return pmf
}

// Suite is the hierarchical model: a discrete distribution over
// candidate N values, each candidate backed by Dirichlet state managed
// by the strategy.
type Suite struct {
	outer    *NDist
	strategy Strategy
}

// NewSuite builds a suite over the candidate range ns, which must be
// positive and strictly increasing.
func NewSuite(ns []int, strategy Strategy) (*Suite, error) {
	if err := validateNs(ns); err != nil {
		return nil, err
	}
	return &Suite{outer: NewNDist(ns), strategy: strategy}, nil
}

func validateNs(ns []int) error {
	if len(ns) == 0 {
		return fmt.Errorf("bayspecies: empty candidate range")
	}
	for i, n := range ns {
		if n < 1 {
			return fmt.Errorf("bayspecies: candidate N (%v) must be positive", n)
		}
		if i > 0 && n <= ns[i-1] {
			return fmt.Errorf("bayspecies: candidate range must be strictly increasing")
		}
	}
	return nil
}

// Update incorporates one batch of observed category counts, one count
// per category in discovery order. Every candidate N must be able to
// account for the m categories observed; an infeasible candidate is an
// InvalidRangeError and no state is touched.
func (s *Suite) Update(data []int) error {
	for _, x := range data {
		if x < 0 {
			return fmt.Errorf("bayspecies: negative observed count (%v)", x)
		}
	}
	m := len(data)
	for _, n := range s.outer.ns {
		if n < m {
			return &InvalidRangeError{N: n, Observed: m}
		}
	}
	return s.strategy.Update(s.outer, data)
}

// DistOfN returns the posterior over the total number of categories.
func (s *Suite) DistOfN() *Pmf[int] {
	return s.outer.Pmf()
}

// DistOfPrevalence returns the posterior prevalence of one observed
// category: its Beta marginal under each candidate N, mixed by the
// candidates' posterior probabilities.
func (s *Suite) DistOfPrevalence(index int) (*Pmf[float64], error) {
	if index < 0 || index >= s.outer.ns[0] {
		return nil, fmt.Errorf("bayspecies: category index %v outside the smallest candidate N (%v)", index, s.outer.ns[0])
	}
	meta := make(map[*Pmf[float64]]float64, len(s.outer.ns))
	for i, n := range s.outer.ns {
		pmf, err := makeBetaPmf(s.strategy.MarginalBeta(n, index))
		if err != nil {
			return nil, err
		}
		meta[pmf] = s.outer.probs[i]
	}
	mix := MakeMixture(meta)
	if _, err := mix.Normalize(); err != nil {
		return nil, err
	}
	return mix, nil
}
