package bayspecies

import (
	"cmp"
	"slices"
	"sort"

	"golang.org/x/exp/rand"
)

// Pmf is a discrete probability mass function over values of type V.
// Weights are not kept normalized automatically; Normalize must be
// called explicitly after a run of Set/Incr/Mult operations.
type Pmf[V cmp.Ordered] struct {
	d map[V]float64
}

// NewPmf returns an empty Pmf.
func NewPmf[V cmp.Ordered]() *Pmf[V] {
	return &Pmf[V]{d: make(map[V]float64)}
}

// Set assigns the weight of value.
func (p *Pmf[V]) Set(value V, weight float64) {
	p.d[value] = weight
}

// Incr adds delta to the weight of value.
func (p *Pmf[V]) Incr(value V, delta float64) {
	p.d[value] += delta
}

// Mult scales the weight of value by factor.
func (p *Pmf[V]) Mult(value V, factor float64) {
	p.d[value] *= factor
}

// Remove drops value from the distribution.
func (p *Pmf[V]) Remove(value V) {
	delete(p.d, value)
}

// Prob returns the weight of value, 0 if absent.
func (p *Pmf[V]) Prob(value V) float64 {
	return p.d[value]
}

// Len returns the number of values carrying weight.
func (p *Pmf[V]) Len() int {
	return len(p.d)
}

// Values returns the values in increasing order.
func (p *Pmf[V]) Values() []V {
	values := make([]V, 0, len(p.d))
	for v := range p.d {
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}

// Total returns the sum of all weights.
func (p *Pmf[V]) Total() float64 {
	total := 0.0
	for _, w := range p.d {
		total += w
	}
	return total
}

// Normalize rescales the weights to sum to 1 and returns the total mass
// before rescaling. A zero total is a DegenerateNormalizationError.
func (p *Pmf[V]) Normalize() (float64, error) {
	total := p.Total()
	if total == 0 {
		return 0, &DegenerateNormalizationError{Op: "Pmf.Normalize"}
	}
	for v := range p.d {
		p.d[v] /= total
	}
	return total, nil
}

// Percentile returns the smallest value whose cumulative weight reaches
// pct percent. The weights must already be normalized.
func (p *Pmf[V]) Percentile(pct float64) V {
	target := pct / 100.0
	var last V
	cum := 0.0
	for _, v := range p.Values() {
		last = v
		cum += p.d[v]
		if cum >= target {
			return v
		}
	}
	return last
}

// Copy returns an independent copy of the distribution.
func (p *Pmf[V]) Copy() *Pmf[V] {
	c := NewPmf[V]()
	for v, w := range p.d {
		c.d[v] = w
	}
	return c
}

// Mode returns the value carrying the largest weight.
func (p *Pmf[V]) Mode() V {
	var mode V
	best := -1.0
	for _, v := range p.Values() {
		if p.d[v] > best {
			best = p.d[v]
			mode = v
		}
	}
	return mode
}

type number interface {
	~int | ~int64 | ~float64
}

// Mean returns the expectation of a numeric Pmf. The weights must
// already be normalized.
func Mean[V number](p *Pmf[V]) float64 {
	m := 0.0
	for v, w := range p.d {
		m += float64(v) * w
	}
	return m
}

// MakeMixture flattens a meta-distribution over Pmfs into a single Pmf:
// each inner weight is scaled by its distribution's mixing weight and
// summed pointwise. The result is not normalized.
func MakeMixture[V cmp.Ordered](meta map[*Pmf[V]]float64) *Pmf[V] {
	mix := NewPmf[V]()
	for pmf, weight := range meta {
		for v, w := range pmf.d {
			mix.Incr(v, weight*w)
		}
	}
	return mix
}

// Cdf is the cumulative form of a Pmf, for percentile queries and
// inverse-transform sampling.
type Cdf[V cmp.Ordered] struct {
	values []V
	cum    []float64
}

// MakeCdf builds the cumulative form of a normalized Pmf.
func MakeCdf[V cmp.Ordered](p *Pmf[V]) *Cdf[V] {
	values := p.Values()
	cum := make([]float64, len(values))
	run := 0.0
	for i, v := range values {
		run += p.d[v]
		cum[i] = run
	}
	return &Cdf[V]{values: values, cum: cum}
}

// Percentile returns the smallest value whose cumulative probability
// reaches pct percent.
func (c *Cdf[V]) Percentile(pct float64) V {
	return c.value(pct / 100.0)
}

// Random draws one value by inverse-transform sampling.
func (c *Cdf[V]) Random(rng *rand.Rand) V {
	return c.value(rng.Float64())
}

func (c *Cdf[V]) value(p float64) V {
	i := sort.SearchFloat64s(c.cum, p)
	if i >= len(c.values) {
		i = len(c.values) - 1
	}
	return c.values[i]
}
