package reputation

import "github.com/mtlprog/foodlog/internal/model"

// ClassifyTrust derives the reviewer tier from reputation score and review count.
func ClassifyTrust(score float64, totalReviews int) model.TrustLevel {
	switch {
	case score >= 2.0 && totalReviews >= 20:
		return model.TrustExpert
	case score >= 1.5 && totalReviews >= 10:
		return model.TrustTrusted
	case score >= 1.2 && totalReviews >= 5:
		return model.TrustExperienced
	default:
		return model.TrustBeginner
	}
}

// counterDelta returns the (helpful, notHelpful) increments for a vote kind.
func counterDelta(kind model.VoteKind, delta int) (int, int, bool) {
	switch kind {
	case model.VoteHelpful:
		return delta, 0, true
	case model.VoteNotHelpful:
		return 0, delta, true
	default:
		return 0, 0, false
	}
}
