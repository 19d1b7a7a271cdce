package reputation

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// MinScore and MaxScore bound the reputation score.
	MinScore = 0.5
	MaxScore = 1.5

	// DefaultScore is the score of a user nobody has voted on.
	DefaultScore = 1.0

	// MinWeight and MaxWeight bound the author weight.
	MinWeight = 0.5
	MaxWeight = 2.0

	// DefaultWeight is used when an author has no reputation record.
	DefaultWeight = 1.0
)

// ComputeScore maps lifetime helpful / not-helpful vote counts to a score.
// score = clamp((log10(1+helpful) - log10(1+notHelpful) + 2) / 4 + 0.5, 0.5, 1.5)
// rounded to 2 decimals. The raw log ratio spans roughly [-2, 2] for realistic
// counts and lands on 1.0 for a user with no votes.
func ComputeScore(helpful, notHelpful int) float64 {
	helpful = max(helpful, 0)
	notHelpful = max(notHelpful, 0)

	raw := math.Log10(1+float64(helpful)) - math.Log10(1+float64(notHelpful))
	normalized := clamp((raw+2)/4+0.5, MinScore, MaxScore)

	return Round2(normalized)
}

// WeightForScore converts a reputation score into an author weight.
// weight = clamp(0.5 + score*0.2, 0.5, 2.0)
func WeightForScore(score float64) float64 {
	return clamp(0.5+score*0.2, MinWeight, MaxWeight)
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
