package model

import "time"

// UserReputation is the vote-derived trust record of a user.
type UserReputation struct {
	UserID               string    `json:"userId"`
	TotalHelpfulVotes    int       `json:"totalHelpfulVotes"`
	TotalNotHelpfulVotes int       `json:"totalNotHelpfulVotes"`
	ReputationScore      float64   `json:"reputationScore"` // 0.5 - 1.5
	LastUpdated          time.Time `json:"lastUpdated"`
}

// TrustLevel is the reviewer tier shown on user dashboards.
type TrustLevel string

const (
	TrustBeginner    TrustLevel = "beginner"
	TrustExperienced TrustLevel = "experienced"
	TrustTrusted     TrustLevel = "trusted"
	TrustExpert      TrustLevel = "expert"
)

// Label returns the display label of the trust level.
func (t TrustLevel) Label() string {
	switch t {
	case TrustBeginner:
		return "Beginner reviewer"
	case TrustExperienced:
		return "Experienced reviewer"
	case TrustTrusted:
		return "Trusted reviewer"
	case TrustExpert:
		return "Expert reviewer"
	default:
		return ""
	}
}

// Color returns the CSS classes used for the trust level badge.
func (t TrustLevel) Color() string {
	switch t {
	case TrustBeginner:
		return "from-gray-100 to-gray-200 text-gray-700"
	case TrustExperienced:
		return "from-blue-100 to-blue-200 text-blue-700"
	case TrustTrusted:
		return "from-purple-100 to-purple-200 text-purple-700"
	case TrustExpert:
		return "from-gold-100 to-gold-200 text-gold-700"
	default:
		return ""
	}
}

// UserStats is the per-user dashboard aggregate.
type UserStats struct {
	TotalReviews      int            `json:"totalReviews"`
	AverageRating     float64        `json:"averageRating"`
	ReputationScore   float64        `json:"reputationScore"`
	HelpfulVotes      int            `json:"helpfulVotes"`
	NotHelpfulVotes   int            `json:"notHelpfulVotes"`
	ReviewsByCategory map[string]int `json:"reviewsByCategory"`
	RecentReviews     []Review       `json:"recentReviews"`
	AuthorWeight      float64        `json:"authorWeight"`
	TrustLevel        TrustLevel     `json:"trustLevel"`
}
