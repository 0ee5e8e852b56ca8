package bayspecies

import (
	"errors"
	"math"
	"testing"
)

func candidateRange(lo, hi int) []int {
	ns := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		ns = append(ns, n)
	}
	return ns
}

func checkNormalized(t *testing.T, pmf *Pmf[int]) {
	t.Helper()
	if total := pmf.Total(); math.Abs(total-1.0) > 1e-9 {
		t.Error("DistOfN total =", total, "want 1.0")
	}
}

// totalVariation is half the L1 distance between two distributions over
// the same support.
func totalVariation(p, q *Pmf[int]) float64 {
	tv := 0.0
	for _, v := range p.Values() {
		tv += math.Abs(p.Prob(v) - q.Prob(v))
	}
	return tv / 2
}

func TestSuiteNormalizationInvariant(t *testing.T) {
	suite, err := NewVectorized(candidateRange(3, 10), 200, 9)
	if err != nil {
		t.Fatal("NewVectorized returned error:", err)
	}
	for k := 0; k < 3; k++ {
		if err := suite.Update([]int{3, 2, 1}); err != nil {
			t.Fatal("Update returned error:", err)
		}
		checkNormalized(t, suite.DistOfN())
	}
}

func TestSuiteInvalidRange(t *testing.T) {
	suite, err := NewVectorized([]int{2, 3, 4}, 100, 10)
	if err != nil {
		t.Fatal("NewVectorized returned error:", err)
	}
	err = suite.Update([]int{1, 1, 1})
	if err == nil {
		t.Fatal("Update accepted a batch with more categories than the smallest candidate")
	}
	var invalid *InvalidRangeError
	if !errors.As(err, &invalid) {
		t.Fatal("err =", err, "want InvalidRangeError")
	}
	if invalid.N != 2 || invalid.Observed != 3 {
		t.Error("InvalidRangeError =", invalid, "want N=2 Observed=3")
	}
	// the rejected batch must not have touched the outer weights
	checkUniform := suite.DistOfN()
	for _, n := range checkUniform.Values() {
		if checkUniform.Prob(n) != 1.0 {
			t.Error("outer weight of", n, "=", checkUniform.Prob(n), "want untouched prior 1.0")
		}
	}
}

func TestSuiteRejectsNegativeCounts(t *testing.T) {
	suite, err := NewPerN([]int{3, 4}, 10, 11)
	if err != nil {
		t.Fatal("NewPerN returned error:", err)
	}
	if err := suite.Update([]int{3, -2, 1}); err == nil {
		t.Fatal("Update accepted a negative count")
	}
}

func TestCandidateRangeValidation(t *testing.T) {
	if _, err := NewIncremental([]int{0, 1, 2}, 10, 12); err == nil {
		t.Error("constructor accepted candidate N = 0")
	}
	if _, err := NewIncremental([]int{3, 3, 4}, 10, 12); err == nil {
		t.Error("constructor accepted a non-increasing candidate range")
	}
	if _, err := NewIncremental(nil, 10, 12); err == nil {
		t.Error("constructor accepted an empty candidate range")
	}
	if _, err := NewIncremental([]int{3, 4}, 0, 12); err == nil {
		t.Error("constructor accepted zero iterations")
	}
}

// The per-N and vectorized strategies estimate the same posterior by
// different numerical paths, so their disagreement must shrink as the
// number of Monte-Carlo draws grows.
func TestPerNVectorizedConvergence(t *testing.T) {
	ns := candidateRange(3, 15)
	data := []int{3, 2, 1}
	iterations := []int{100, 1000, 10000}
	bounds := []float64{0.5, 0.25, 0.1}

	for i, iters := range iterations {
		if iters > 1000 && testing.Short() {
			t.Log("skipping the", iters, "iteration tier in short mode")
			break
		}
		perN, err := NewPerN(ns, iters, 13)
		if err != nil {
			t.Fatal("NewPerN returned error:", err)
		}
		if err := perN.Update(data); err != nil {
			t.Fatal("per-N Update returned error:", err)
		}

		vectorized, err := NewVectorized(ns, iters, 14)
		if err != nil {
			t.Fatal("NewVectorized returned error:", err)
		}
		if err := vectorized.Update(data); err != nil {
			t.Fatal("vectorized Update returned error:", err)
		}

		tv := totalVariation(perN.DistOfN(), vectorized.DistOfN())
		if tv > bounds[i] {
			t.Error("iterations =", iters, ": total variation =", tv, "want <=", bounds[i])
		}
	}
}

// A batch no candidate can explain numerically (every per-draw
// likelihood underflows to zero) must surface as a typed error from
// Update, not as a silently uniform posterior.
func TestSuiteDegenerateCollapse(t *testing.T) {
	suite, err := NewPerN([]int{3, 4, 5}, 10, 37)
	if err != nil {
		t.Fatal("NewPerN returned error:", err)
	}
	// counts this large drive every product-of-powers draw to zero
	err = suite.Update([]int{300000, 200000, 100000})
	if err == nil {
		t.Fatal("Update accepted a batch whose likelihoods all underflow")
	}
	var degenerate *DegenerateNormalizationError
	if !errors.As(err, &degenerate) {
		t.Error("err =", err, "want DegenerateNormalizationError")
	}
}

// With a single observed category there must be room for unseen ones:
// hypotheses larger than 1 keep strictly positive posterior mass.
func TestIncrementalUnseenSpecies(t *testing.T) {
	suite, err := NewIncremental([]int{1, 2, 3}, 2000, 15)
	if err != nil {
		t.Fatal("NewIncremental returned error:", err)
	}
	if err := suite.Update([]int{1}); err != nil {
		t.Fatal("Update returned error:", err)
	}
	posterior := suite.DistOfN()
	checkNormalized(t, posterior)
	if posterior.Prob(2) <= 0 {
		t.Error("P(N=2) =", posterior.Prob(2), "want > 0")
	}
	if posterior.Prob(3) <= 0 {
		t.Error("P(N=3) =", posterior.Prob(3), "want > 0")
	}
}

// The lions-tigers-bears example: three species observed with counts
// 3, 2, 1 and candidates 3..29. The posterior concentrates on small N
// and the category seen three times is more prevalent than the one
// seen once.
func TestHierarchicalExample(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 8000-iteration example in short mode")
	}
	ns := candidateRange(3, 29)
	data := []int{3, 2, 1}

	suite, err := NewPerN(ns, 8000, 17)
	if err != nil {
		t.Fatal("NewPerN returned error:", err)
	}
	if err := suite.Update(data); err != nil {
		t.Fatal("Update returned error:", err)
	}

	posterior := suite.DistOfN()
	checkNormalized(t, posterior)
	mode := posterior.Mode()
	if mode < 3 || mode > 6 {
		t.Error("posterior mode of N =", mode, "want within 3..6")
	}

	first, err := suite.DistOfPrevalence(0)
	if err != nil {
		t.Fatal("DistOfPrevalence(0) returned error:", err)
	}
	third, err := suite.DistOfPrevalence(2)
	if err != nil {
		t.Fatal("DistOfPrevalence(2) returned error:", err)
	}
	if Mean(first) <= Mean(third) {
		t.Error("mean prevalence of count-3 category =", Mean(first),
			"must exceed that of count-1 category =", Mean(third))
	}
}

func TestRestrictedSingleBatch(t *testing.T) {
	suite, err := NewRestricted([]int{3, 4, 5}, 500, 19)
	if err != nil {
		t.Fatal("NewRestricted returned error:", err)
	}
	data := []int{3, 2, 1}
	if err := suite.Update(data); err != nil {
		t.Fatal("first Update returned error:", err)
	}
	checkNormalized(t, suite.DistOfN())
	if err := suite.Update(data); err == nil {
		t.Fatal("restricted suite accepted a second batch")
	}
}

// The restricted sampler trades a little bias (the trimmed 4% tails
// and the grid discretization) for far fewer wasted draws; the
// posterior it produces must still favor small N on the same data the
// baseline does.
func TestRestrictedPosteriorShape(t *testing.T) {
	ns := candidateRange(3, 10)
	suite, err := NewRestricted(ns, 4000, 21)
	if err != nil {
		t.Fatal("NewRestricted returned error:", err)
	}
	if err := suite.Update([]int{3, 2, 1}); err != nil {
		t.Fatal("Update returned error:", err)
	}
	posterior := suite.DistOfN()
	checkNormalized(t, posterior)
	for _, n := range posterior.Values() {
		if math.IsNaN(posterior.Prob(n)) || math.IsInf(posterior.Prob(n), 0) {
			t.Fatal("posterior weight of", n, "is not finite:", posterior.Prob(n))
		}
	}
	if mode := posterior.Mode(); mode > 7 {
		t.Error("restricted posterior mode of N =", mode, "want <= 7")
	}
}
