package bayspecies

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Dirichlet is a Dirichlet distribution over the proportions of n
// categories, represented by its concentration parameters. A fresh
// instance carries the flat prior (all parameters 1). The parameter
// vector is owned exclusively and only ever grows by conjugate updates.
type Dirichlet struct {
	n      int
	params []float64
	src    rand.Source
}

// NewDirichlet returns a flat Dirichlet prior over n categories drawing
// randomness from src.
func NewDirichlet(n int, src rand.Source) *Dirichlet {
	if n < 1 {
		panic("bayspecies: Dirichlet needs at least one category")
	}
	params := make([]float64, n)
	for i := range params {
		params[i] = 1.0
	}
	return &Dirichlet{n: n, params: params, src: src}
}

// N returns the number of categories.
func (d *Dirichlet) N() int {
	return d.n
}

// Update folds observed counts into the concentration parameters. This
// is the conjugate posterior update and is exact.
func (d *Dirichlet) Update(data []int) {
	for i, x := range data {
		d.params[i] += float64(x)
	}
}

// MarginalBeta returns the exact marginal distribution of coordinate i,
// Beta(params[i], alpha0 - params[i]). No sampling is involved.
func (d *Dirichlet) MarginalBeta(i int) distuv.Beta {
	alpha0 := floats.Sum(d.params)
	alpha := d.params[i]
	return distuv.Beta{Alpha: alpha, Beta: alpha0 - alpha, Src: d.src}
}

// Likelihood returns a one-draw Monte-Carlo estimate of the probability
// of data under this distribution. A single draw has high variance;
// callers average many draws.
func (d *Dirichlet) Likelihood(data []int) float64 {
	if d.n < len(data) {
		return 0
	}
	ps := d.Random()
	like := 1.0
	for i, x := range data {
		like *= math.Pow(ps[i], float64(x))
	}
	return like
}

// LogLikelihood is Likelihood evaluated in log domain on one draw.
func (d *Dirichlet) LogLikelihood(data []int) float64 {
	if d.n < len(data) {
		return math.Inf(-1)
	}
	ps := d.Random()
	ll := 0.0
	for i, x := range data {
		ll += float64(x) * math.Log(ps[i])
	}
	return ll
}

// Random draws one point from the distribution: independent Gamma
// variates normalized by their sum.
func (d *Dirichlet) Random() []float64 {
	ps := make([]float64, d.n)
	for i, a := range d.params {
		ps[i] = distuv.Gamma{Alpha: a, Beta: 1, Src: d.src}.Rand()
	}
	floats.Scale(1/floats.Sum(ps), ps)
	return ps
}
