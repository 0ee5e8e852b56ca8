package bayspecies

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

func TestOversampledPeek(t *testing.T) {
	model := NewOversampledDirichlet(3, rand.NewSource(5))
	if err := model.Peek([]int{3, 2, 1}); err != nil {
		t.Fatal("Peek returned error:", err)
	}
	weight := model.Weight()
	if weight <= 0 || weight > 1 {
		t.Error("inclusion weight outside (0,1]:", weight)
	}
	if len(model.conditionals) != 2 {
		t.Error("conditionals =", len(model.conditionals), "want 2 (n-1 stick-breaking coordinates)")
	}
}

func TestOversampledPeekInfeasible(t *testing.T) {
	model := NewOversampledDirichlet(2, rand.NewSource(6))
	err := model.Peek([]int{3, 2, 1})
	if err == nil {
		t.Fatal("Peek accepted more categories than the hypothesis allows")
	}
	var invalid *InvalidRangeError
	if !errors.As(err, &invalid) {
		t.Error("err =", err, "want InvalidRangeError")
	}
}

func TestOversampledRandomSimplex(t *testing.T) {
	model := NewOversampledDirichlet(4, rand.NewSource(7))
	if err := model.Peek([]int{5, 3, 1}); err != nil {
		t.Fatal("Peek returned error:", err)
	}
	for k := 0; k < 100; k++ {
		ps := model.Random()
		if len(ps) != 4 {
			t.Fatal("Random returned", len(ps), "values, want 4")
		}
		total := 0.0
		for _, p := range ps {
			if p < 0 || p > 1 {
				t.Fatal("Random component outside [0,1]:", p)
			}
			total += p
		}
		if math.Abs(total-1.0) > 1e-9 {
			t.Fatal("Random did not sum to 1:", total)
		}
	}
}

func TestOversampledLikelihoodCarriesWeight(t *testing.T) {
	model := NewOversampledDirichlet(3, rand.NewSource(8))
	data := []int{3, 2, 1}
	if err := model.Peek(data); err != nil {
		t.Fatal("Peek returned error:", err)
	}
	for k := 0; k < 100; k++ {
		like := model.Likelihood(data)
		if like <= 0 {
			t.Fatal("restricted likelihood not positive:", like)
		}
		if like > model.Weight() {
			t.Fatal("likelihood", like, "exceeds the inclusion weight", model.Weight())
		}
	}
}
