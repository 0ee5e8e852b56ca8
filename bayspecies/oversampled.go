package bayspecies

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// OversampledDirichlet restricts random draws to the region where the
// posterior keeps non-negligible mass. Peek inspects the would-be
// posterior marginals, trims each stick-breaking conditional to its
// 2nd-98th percentile band and records the retained mass; Likelihood
// compensates for the narrowed sampling domain with that weight.
//
// Peek must be called exactly once, with the full batch, before Update:
// the trimmed conditionals are only valid while the prior is still
// flat. There is no incremental update path.
type OversampledDirichlet struct {
	*Dirichlet

	// conditionals[i] is the trimmed stick-breaking distribution of
	// coordinate i's share of the remaining stick. nil until Peek.
	conditionals []*Cdf[float64]
	weight       float64
	rng          *rand.Rand
}

// NewOversampledDirichlet returns a flat restricted prior over n
// categories drawing randomness from src.
func NewOversampledDirichlet(n int, src rand.Source) *OversampledDirichlet {
	return &OversampledDirichlet{
		Dirichlet: NewDirichlet(n, src),
		weight:    1.0,
		rng:       rand.New(src),
	}
}

// Weight returns the inclusion weight of the restricted region: the
// prior probability mass the trimmed conditionals retain.
func (o *OversampledDirichlet) Weight() float64 {
	return o.weight
}

// Peek prepares the restricted sampler for one batch of counts without
// committing the posterior update.
func (o *OversampledDirichlet) Peek(data []int) error {
	if len(data) > o.n {
		return &InvalidRangeError{N: o.n, Observed: len(data)}
	}
	priors := o.makeConditionals(o.params)
	pmfs := make([]*Pmf[float64], len(priors))
	for i, beta := range priors {
		pmf, err := makeBetaPmf(beta)
		if err != nil {
			return err
		}
		pmfs[i] = pmf
	}
	return o.trimConditionals(pmfs, data)
}

// trimConditionals cuts each prior conditional down to the 2nd-98th
// percentile band of the corresponding posterior marginal.
func (o *OversampledDirichlet) trimConditionals(pmfs []*Pmf[float64], data []int) error {
	posterior := make([]float64, len(o.params))
	copy(posterior, o.params)
	for i, x := range data {
		posterior[i] += float64(x)
	}
	marginals := o.makeMarginals(posterior)

	pHit := 1.0
	conditionals := make([]*Cdf[float64], len(pmfs))
	for i, pmf := range pmfs {
		low := marginals[i].Quantile(0.02)
		high := marginals[i].Quantile(0.98)
		mass, err := trimPmf(pmf, low, high)
		if err != nil {
			return &DegenerateNormalizationError{Op: "OversampledDirichlet.Peek"}
		}
		pHit *= mass
		conditionals[i] = MakeCdf(pmf)
	}
	o.weight = pHit
	o.conditionals = conditionals
	return nil
}

// trimPmf removes every value outside [low, high], renormalizes and
// returns the retained mass.
func trimPmf(pmf *Pmf[float64], low, high float64) (float64, error) {
	for _, v := range pmf.Values() {
		if v < low || v > high {
			pmf.Remove(v)
		}
	}
	return pmf.Normalize()
}

// makeMarginals returns the Beta marginal of every coordinate under the
// given parameters.
func (o *OversampledDirichlet) makeMarginals(params []float64) []distuv.Beta {
	total := floats.Sum(params)
	betas := make([]distuv.Beta, len(params))
	for i, x := range params {
		betas[i] = distuv.Beta{Alpha: x, Beta: total - x, Src: o.src}
	}
	return betas
}

// makeConditionals returns the stick-breaking conditionals of the first
// n-1 coordinates: coordinate i's share of the stick left after the
// coordinates before it are removed.
func (o *OversampledDirichlet) makeConditionals(params []float64) []distuv.Beta {
	total := floats.Sum(params)
	betas := make([]distuv.Beta, 0, len(params)-1)
	for _, x := range params[:len(params)-1] {
		total -= x
		betas = append(betas, distuv.Beta{Alpha: x, Beta: total, Src: o.src})
	}
	return betas
}

// Likelihood estimates the probability of data from one restricted draw
// and scales it by the inclusion weight of the restricted region.
func (o *OversampledDirichlet) Likelihood(data []int) float64 {
	if o.n < len(data) {
		return 0
	}
	ps := o.Random()
	like := 1.0
	for i, x := range data {
		like *= math.Pow(ps[i], float64(x))
	}
	return like * o.weight
}

// Random draws by stick breaking: each trimmed conditional yields the
// share of the remaining stick for its coordinate. Before Peek it falls
// back to the plain Dirichlet draw.
func (o *OversampledDirichlet) Random() []float64 {
	if o.conditionals == nil {
		return o.Dirichlet.Random()
	}
	ps := make([]float64, o.n)
	fraction := 1.0
	for i, cond := range o.conditionals {
		p := cond.Random(o.rng)
		ps[i] = p * fraction
		fraction *= 1 - p
	}
	ps[o.n-1] = fraction
	return ps
}
