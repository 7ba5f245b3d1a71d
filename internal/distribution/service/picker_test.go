package service

import (
	"testing"

	"github.com/google/uuid"

	"leadrouter_backend/internal/distribution/repository"
)

func candidateSet(weights ...int) []repository.Candidate {
	candidates := make([]repository.Candidate, 0, len(weights))
	for i, w := range weights {
		candidates = append(candidates, repository.Candidate{
			OperatorID:        uuid.New(),
			OperatorName:      string(rune('A' + i)),
			Weight:            w,
			MaxActiveContacts: 10,
		})
	}
	return candidates
}

func TestPick_EmptySet(t *testing.T) {
	picker := NewPicker(1)
	if _, ok := picker.Pick(nil); ok {
		t.Fatal("expected no pick from an empty candidate set")
	}
}

func TestPick_ZeroWeightsOnly(t *testing.T) {
	picker := NewPicker(1)
	candidates := candidateSet(0, 0)
	if _, ok := picker.Pick(candidates); ok {
		t.Fatal("expected no pick when no candidate carries positive weight")
	}
}

func TestPick_SingleCandidateAlwaysWins(t *testing.T) {
	picker := NewPicker(7)
	candidates := candidateSet(3)
	for i := 0; i < 100; i++ {
		picked, ok := picker.Pick(candidates)
		if !ok {
			t.Fatal("expected a pick")
		}
		if picked.OperatorID != candidates[0].OperatorID {
			t.Fatal("single candidate must always be picked")
		}
	}
}

func TestPick_SkipsZeroWeightCandidates(t *testing.T) {
	picker := NewPicker(42)
	candidates := candidateSet(0, 5, 0)
	for i := 0; i < 200; i++ {
		picked, ok := picker.Pick(candidates)
		if !ok {
			t.Fatal("expected a pick")
		}
		if picked.Weight == 0 {
			t.Fatal("zero-weight candidate must never be picked")
		}
	}
}

// Weights 10/30/20 should converge on roughly 17%/50%/33% of the draws.
func TestPick_ProportionalToWeights(t *testing.T) {
	picker := NewPicker(1234)
	candidates := candidateSet(10, 30, 20)

	const draws = 60000
	counts := map[uuid.UUID]int{}
	for i := 0; i < draws; i++ {
		picked, ok := picker.Pick(candidates)
		if !ok {
			t.Fatal("expected a pick")
		}
		counts[picked.OperatorID]++
	}

	expected := []float64{10.0 / 60, 30.0 / 60, 20.0 / 60}
	for i, cand := range candidates {
		got := float64(counts[cand.OperatorID]) / draws
		if diff := got - expected[i]; diff < -0.02 || diff > 0.02 {
			t.Fatalf("candidate %s: got share %.3f, want %.3f +/- 0.02", cand.OperatorName, got, expected[i])
		}
	}
}

func TestPick_EqualWeightsSplitEvenly(t *testing.T) {
	picker := NewPicker(99)
	candidates := candidateSet(5, 5)

	const draws = 40000
	first := 0
	for i := 0; i < draws; i++ {
		picked, ok := picker.Pick(candidates)
		if !ok {
			t.Fatal("expected a pick")
		}
		if picked.OperatorID == candidates[0].OperatorID {
			first++
		}
	}

	share := float64(first) / draws
	if share < 0.47 || share > 0.53 {
		t.Fatalf("equal weights must split evenly, got share %.3f", share)
	}
}

func TestDescribeDistribution(t *testing.T) {
	if got := DescribeDistribution(nil); got != "no eligible operators" {
		t.Fatalf("empty set: got %q", got)
	}

	candidates := candidateSet(10, 30)
	candidates[0].OperatorName = "Alice"
	candidates[1].OperatorName = "Bob"
	got := DescribeDistribution(candidates)
	want := "Alice: weight 10 (25%), Bob: weight 30 (75%)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
