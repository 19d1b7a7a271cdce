package model

import "time"

// Review is a single user review of a restaurant.
type Review struct {
	ID                string    `json:"id"`
	RestaurantID      string    `json:"restaurantId"`
	AuthorID          string    `json:"authorId"`
	AuthorName        string    `json:"authorName"`
	Rating            float64   `json:"rating"`
	Comment           string    `json:"comment,omitempty"`
	VisitDate         string    `json:"visitDate,omitempty"`
	PhotoURLs         []string  `json:"photoUrls,omitempty"`
	AtmosphereRating  *float64  `json:"atmosphereRating,omitempty"`
	TasteRating       *float64  `json:"tasteRating,omitempty"`
	ServiceRating     *float64  `json:"serviceRating,omitempty"`
	ValuePriceRating  *float64  `json:"valuePriceRating,omitempty"`
	CleanlinessRating *float64  `json:"cleanlinessRating,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ReviewVote is a helpful / not-helpful vote on a review.
// At most one live vote exists per (ReviewID, VoterID).
type ReviewVote struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"reviewId"`
	VoterID   string    `json:"voterId"`
	VoteType  VoteKind  `json:"voteType"`
	CreatedAt time.Time `json:"createdAt"`
}

// Like records a token-minting like of a review. Keyed by {review}_{liker}.
type Like struct {
	ReviewID  string    `json:"reviewId"`
	LikerID   string    `json:"likerId"`
	AuthorID  string    `json:"authorId"`
	TxHash    string    `json:"txHash"`
	CreatedAt time.Time `json:"createdAt"`
}
