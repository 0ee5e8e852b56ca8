package bayspecies

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/combin"
	"gonum.org/v1/gonum/stat/distuv"
)

// Restricted is the per-N strategy backed by importance-restricted
// Dirichlet models. Every model first peeks at the incoming batch,
// trimming its sampling region to where the posterior will keep its
// mass; the restricted likelihoods already carry the compensating
// inclusion weights, so the outer update proceeds as in PerN.
//
// The trimmed conditionals are only valid against a flat prior, so the
// strategy accepts exactly one batch; a second Update is an error.
type Restricted struct {
	models     []*OversampledDirichlet
	iterations int
	updated    bool
}

// NewRestricted returns a suite backed by one restricted Dirichlet
// model per candidate.
func NewRestricted(ns []int, iterations int, seed uint64) (*Suite, error) {
	if err := validateNs(ns); err != nil {
		return nil, err
	}
	if iterations < 1 {
		return nil, fmt.Errorf("bayspecies: iterations (%v) must be positive", iterations)
	}
	models := make([]*OversampledDirichlet, len(ns))
	for i, n := range ns {
		models[i] = NewOversampledDirichlet(n, rand.NewSource(seed+uint64(i)))
	}
	strategy := &Restricted{models: models, iterations: iterations}
	return NewSuite(ns, strategy)
}

// Update peeks every model at the batch, folds the weighted likelihoods
// into the outer distribution and commits the conjugate updates.
func (r *Restricted) Update(outer *NDist, data []int) error {
	if r.updated {
		return fmt.Errorf("bayspecies: restricted strategy accepts a single batch; the trimmed conditionals are only valid against a flat prior")
	}
	for _, model := range r.models {
		if err := model.Peek(data); err != nil {
			return err
		}
	}

	m := len(data)
	likes := make([]float64, len(r.models))
	for i, model := range r.models {
		like := 0.0
		for k := 0; k < r.iterations; k++ {
			like += model.Likelihood(data)
		}
		likes[i] = like * combin.GeneralizedBinomial(float64(model.N()), float64(m))
	}
	if err := outer.Reweight(likes); err != nil {
		return err
	}
	for _, model := range r.models {
		model.Update(data)
	}
	r.updated = true
	return nil
}

// MarginalBeta returns the exact prevalence marginal of one category
// under the candidate n's model.
func (r *Restricted) MarginalBeta(n, index int) distuv.Beta {
	for _, model := range r.models {
		if model.N() == n {
			return model.MarginalBeta(index)
		}
	}
	panic(fmt.Sprintf("bayspecies: no model for candidate N (%v)", n))
}
