package reputation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name       string
		helpful    int
		notHelpful int
		want       float64
	}{
		{"no votes is neutral", 0, 0, 1.0},
		{"equal votes is neutral", 5, 5, 1.0},
		// (log10(10) + 2) / 4 + 0.5 = 1.25
		{"nine helpful", 9, 0, 1.25},
		// (log10(100) + 2) / 4 + 0.5 = 1.5
		{"ninety nine helpful hits ceiling", 99, 0, 1.5},
		{"huge helpful stays at ceiling", 1_000_000, 0, 1.5},
		// (-1 + 2) / 4 + 0.5 = 0.75
		{"nine not helpful", 0, 9, 0.75},
		{"many not helpful hits floor", 0, 99, 0.5},
		{"huge not helpful stays at floor", 0, 1_000_000, 0.5},
		// (log10(2) + 2) / 4 + 0.5 = 1.0753 -> 1.08
		{"rounded to two decimals", 1, 0, 1.08},
		{"negative counts treated as zero", -3, -1, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeScore(tt.helpful, tt.notHelpful)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeScore_Bounds(t *testing.T) {
	for h := 0; h <= 200; h += 7 {
		for n := 0; n <= 200; n += 7 {
			s := ComputeScore(h, n)
			if s < MinScore || s > MaxScore {
				t.Fatalf("ComputeScore(%d, %d) = %v, out of [%v, %v]", h, n, s, MinScore, MaxScore)
			}
		}
	}
}

func TestComputeScore_Monotonic(t *testing.T) {
	for fixed := 0; fixed <= 50; fixed += 5 {
		prev := ComputeScore(0, fixed)
		for h := 1; h <= 300; h++ {
			s := ComputeScore(h, fixed)
			if s < prev {
				t.Fatalf("score decreased in helpful: ComputeScore(%d, %d) = %v < %v", h, fixed, s, prev)
			}
			prev = s
		}

		prev = ComputeScore(fixed, 0)
		for n := 1; n <= 300; n++ {
			s := ComputeScore(fixed, n)
			if s > prev {
				t.Fatalf("score increased in notHelpful: ComputeScore(%d, %d) = %v > %v", fixed, n, s, prev)
			}
			prev = s
		}
	}
}

func TestWeightForScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  float64
	}{
		{"floor score", 0.5, 0.6},
		{"neutral score", 1.0, 0.7},
		{"ceiling score", 1.5, 0.8},
		{"below range clamps to min weight", -10, MinWeight},
		{"above range clamps to max weight", 100, MaxWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WeightForScore(tt.score), 1e-9)
		})
	}
}

func TestWeightForScore_StaysInBoundsForValidScores(t *testing.T) {
	for s := MinScore; s <= MaxScore; s += 0.01 {
		w := WeightForScore(s)
		if w < MinWeight || w > MaxWeight {
			t.Fatalf("WeightForScore(%v) = %v, out of [%v, %v]", s, w, MinWeight, MaxWeight)
		}
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 4.25, Round2(4.25))
	assert.Equal(t, 3.33, Round2(10.0/3.0))
	assert.Equal(t, 2.68, Round2(2.675))
	assert.Equal(t, 0.0, Round2(0))
}
