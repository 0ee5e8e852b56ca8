package bayspecies

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/cheggaaa/pb/v3"
)

// Variant names one of the likelihood-estimation strategies.
type Variant string

const (
	VariantPerN        Variant = "pern"
	VariantVectorized  Variant = "vectorized"
	VariantIncremental Variant = "incremental"
	VariantRestricted  Variant = "restricted"
)

// New builds a suite over the candidate range ns using the named
// variant.
func New(variant Variant, ns []int, iterations int, seed uint64) (*Suite, error) {
	switch variant {
	case VariantPerN:
		return NewPerN(ns, iterations, seed)
	case VariantVectorized:
		return NewVectorized(ns, iterations, seed)
	case VariantIncremental:
		return NewIncremental(ns, iterations, seed)
	case VariantRestricted:
		return NewRestricted(ns, iterations, seed)
	default:
		return nil, fmt.Errorf("bayspecies: unknown variant %q", variant)
	}
}

// MakePosterior builds a suite for the variant, updates it with one
// batch of counts and returns the posterior over N.
func MakePosterior(variant Variant, data []int, ns []int, iterations int, seed uint64) (*Pmf[int], error) {
	suite, err := New(variant, ns, iterations, seed)
	if err != nil {
		return nil, err
	}
	if err := suite.Update(data); err != nil {
		return nil, err
	}
	return suite.DistOfN(), nil
}

// CandidateRange returns the conventional candidate range for m
// observed categories: m up to ceil(1.5*m).
func CandidateRange(m int) []int {
	hi := int(math.Ceil(1.5 * float64(m)))
	if hi <= m {
		hi = m + 1
	}
	ns := make([]int, 0, hi-m+1)
	for n := m; n <= hi; n++ {
		ns = append(ns, n)
	}
	return ns
}

// BatchParam carries the knobs of a multi-subject run.
type BatchParam struct {
	Variant    Variant
	Iterations int
	Threads    int
	Seed       uint64
	Progress   bool
}

// ProcessSubjects computes the posterior over N for every batch of
// counts, each over its own conventional candidate range. Subjects are
// scored on a bounded goroutine pool; the first failure is returned
// after all workers finish.
func ProcessSubjects(countsPerSubject [][]int, param BatchParam) ([]*Pmf[int], error) {
	threads := param.Threads
	if threads < 1 {
		threads = runtime.GOMAXPROCS(0)
	}
	var bar *pb.ProgressBar
	if param.Progress {
		bar = pb.StartNew(len(countsPerSubject))
	}

	posteriors := make([]*Pmf[int], len(countsPerSubject))
	errs := make([]error, len(countsPerSubject))
	ch := make(chan int, threads)
	wg := sync.WaitGroup{}
	for i, counts := range countsPerSubject {
		ch <- 1
		wg.Add(1)
		go func(i int, counts []int) {
			ns := CandidateRange(len(counts))
			seed := param.Seed + uint64(i)*9973
			posteriors[i], errs[i] = MakePosterior(param.Variant, counts, ns, param.Iterations, seed)
			if bar != nil {
				bar.Increment()
			}
			<-ch
			wg.Done()
		}(i, counts)
	}
	wg.Wait()
	if bar != nil {
		bar.Finish()
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("bayspecies: subject %v: %w", i, err)
		}
	}
	return posteriors, nil
}
