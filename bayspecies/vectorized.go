package bayspecies

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/combin"
	"gonum.org/v1/gonum/stat/distuv"
)

// Vectorized shares one concentration array of the maximum candidate
// length across all hypotheses. Each Monte-Carlo iteration draws a
// single shared Gamma vector; slicing its cumulative sum at every
// candidate's boundary scores all hypotheses in one pass. Hypotheses
// share randomness within a draw, which is acceptable because draws are
// repeated and averaged.
type Vectorized struct {
	ns         []int
	params     []float64
	iterations int
	src        rand.Source

	// scratch buffers reused across draws
	gammas []float64
	cum    []float64
}

// NewVectorized returns a suite over ns backed by one flattened
// concentration array of length max(ns).
func NewVectorized(ns []int, iterations int, seed uint64) (*Suite, error) {
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
	strategy := &Vectorized{
		ns:         append([]int(nil), ns...),
		params:     params,
		iterations: iterations,
		src:        rand.NewSource(seed),
		gammas:     make([]float64, nmax),
		cum:        make([]float64, nmax),
	}
	return NewSuite(ns, strategy)
}

// Update sums the per-draw likelihood vectors, folds them into the
// outer weights and commits the first m concentration parameters.
func (v *Vectorized) Update(outer *NDist, data []int) error {
	likes := make([]float64, len(v.ns))
	sample := make([]float64, len(v.ns))
	for k := 0; k < v.iterations; k++ {
		v.sampleLikelihood(data, sample)
		floats.Add(likes, sample)
	}
	if err := outer.Reweight(likes); err != nil {
		return err
	}
	for i, x := range data {
		v.params[i] += float64(x)
	}
	return nil
}

// sampleLikelihood scores one shared Gamma draw under every candidate.
// Log-likelihoods are shifted by their maximum before exponentiating so
// a single draw cannot underflow the whole batch; the binomial
// correction C(n, m) enters in log domain for the same reason.
func (v *Vectorized) sampleLikelihood(data []int, out []float64) {
	for i, a := range v.params {
		v.gammas[i] = distuv.Gamma{Alpha: a, Beta: 1, Src: v.src}.Rand()
	}
	floats.CumSum(v.cum, v.gammas)

	m := len(data)
	maxLog := math.Inf(-1)
	for j, n := range v.ns {
		total := v.cum[n-1]
		ll := 0.0
		for i, x := range data {
			ll += float64(x) * math.Log(v.gammas[i]/total)
		}
		ll += combin.LogGeneralizedBinomial(float64(n), float64(m))
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
func (v *Vectorized) MarginalBeta(n, index int) distuv.Beta {
	alpha0 := floats.Sum(v.params[:n])
	alpha := v.params[index]
	return distuv.Beta{Alpha: alpha, Beta: alpha0 - alpha, Src: v.src}
}
