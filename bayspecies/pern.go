package bayspecies

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/combin"
	"gonum.org/v1/gonum/stat/distuv"
)

// PerN is the baseline strategy: one independent Dirichlet model per
// candidate N. The likelihood of a batch under a candidate is the sum
// of iterations Monte-Carlo draws from that candidate's model, scaled
// by C(N, m), the number of ways the m observed categories could have
// been chosen out of N.
type PerN struct {
	models     []*Dirichlet
	iterations int
	threads    int
}

// NewPerN returns a suite backed by one Dirichlet model per candidate.
// Each model gets its own random source derived from seed, so results
// are reproducible regardless of how the update is scheduled.
func NewPerN(ns []int, iterations int, seed uint64) (*Suite, error) {
	if err := validateNs(ns); err != nil {
		return nil, err
	}
	if iterations < 1 {
		return nil, fmt.Errorf("bayspecies: iterations (%v) must be positive", iterations)
	}
	models := make([]*Dirichlet, len(ns))
	for i, n := range ns {
		models[i] = NewDirichlet(n, rand.NewSource(seed+uint64(i)))
	}
	strategy := &PerN{
		models:     models,
		iterations: iterations,
		threads:    runtime.GOMAXPROCS(0),
	}
	return NewSuite(ns, strategy)
}

// Update estimates the batch likelihood under every candidate, folds it
// into the outer weights and commits the conjugate update to each
// model. Candidates are scored on a bounded goroutine pool; each
// goroutine touches only its own model.
func (p *PerN) Update(outer *NDist, data []int) error {
	m := len(data)
	likes := make([]float64, len(p.models))
	ch := make(chan int, p.threads)
	wg := sync.WaitGroup{}
	for i := range p.models {
		ch <- 1
		wg.Add(1)
		go func(i int) {
			model := p.models[i]
			like := 0.0
			for k := 0; k < p.iterations; k++ {
				like += model.Likelihood(data)
			}
			likes[i] = like * combin.GeneralizedBinomial(float64(model.N()), float64(m))
			<-ch
			wg.Done()
		}(i)
	}
	wg.Wait()

	if err := outer.Reweight(likes); err != nil {
		return err
	}
	for _, model := range p.models {
		model.Update(data)
	}
	return nil
}

// MarginalBeta returns the exact prevalence marginal of one category
// under the candidate n's model.
func (p *PerN) MarginalBeta(n, index int) distuv.Beta {
	for _, model := range p.models {
		if model.N() == n {
			return model.MarginalBeta(index)
		}
	}
	panic(fmt.Sprintf("bayspecies: no model for candidate N (%v)", n))
}
