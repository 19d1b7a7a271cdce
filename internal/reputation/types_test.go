package reputation

import (
	"testing"

	"github.com/mtlprog/foodlog/internal/model"
)

func TestClassifyTrust(t *testing.T) {
	tests := []struct {
		name    string
		score   float64
		reviews int
		want    model.TrustLevel
	}{
		{"new user", 1.0, 0, model.TrustBeginner},
		{"experienced at boundary", 1.2, 5, model.TrustExperienced},
		{"high score but few reviews", 1.5, 4, model.TrustBeginner},
		{"experienced not trusted below 10 reviews", 1.5, 9, model.TrustExperienced},
		{"trusted at boundary", 1.5, 10, model.TrustTrusted},
		{"max score many reviews is trusted", 1.5, 500, model.TrustTrusted},
		{"expert needs score above the score band", 2.0, 20, model.TrustExpert},
		{"just below experienced score", 1.19, 50, model.TrustBeginner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTrust(tt.score, tt.reviews); got != tt.want {
				t.Errorf("ClassifyTrust(%v, %d) = %q, want %q", tt.score, tt.reviews, got, tt.want)
			}
		})
	}
}

func TestCounterDelta(t *testing.T) {
	tests := []struct {
		name         string
		kind         model.VoteKind
		wantHelpful  int
		wantNot      int
		wantRecorded bool
	}{
		{"helpful", model.VoteHelpful, 2, 0, true},
		{"not helpful", model.VoteNotHelpful, 0, 2, true},
		{"unknown", model.VoteKind("meh"), 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, n, ok := counterDelta(tt.kind, 2)
			if h != tt.wantHelpful || n != tt.wantNot || ok != tt.wantRecorded {
				t.Errorf("counterDelta(%q, 2) = (%d, %d, %v), want (%d, %d, %v)",
					tt.kind, h, n, ok, tt.wantHelpful, tt.wantNot, tt.wantRecorded)
			}
		})
	}
}
