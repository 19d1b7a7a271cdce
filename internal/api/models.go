package api

import "github.com/mtlprog/foodlog/internal/model"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// PaginatedResponse wraps a list of items with pagination metadata.
type PaginatedResponse struct {
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination holds offset-based pagination metadata.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// RestaurantResponse is a restaurant with its rolling stats.
type RestaurantResponse struct {
	model.Restaurant
	MainCategory model.MainCategory     `json:"mainCategory"`
	Stats        *model.RestaurantStats `json:"stats"`
}

// TopRatedItem is a ranked restaurant.
type TopRatedItem struct {
	model.RestaurantStats
	Name     string         `json:"name"`
	Category model.Category `json:"category"`
}

// ReviewResponse is a review with rendered comment and like count.
type ReviewResponse struct {
	model.Review
	CommentHTML string `json:"commentHtml,omitempty"`
	LikeCount   int    `json:"likeCount"`
	// StatsStale is set when the review was saved but restaurant stats could not be refreshed.
	StatsStale bool `json:"statsStale,omitempty"`
}

// VoteRequest is the body of PUT /api/v1/reviews/{id}/vote.
type VoteRequest struct {
	VoteType model.VoteKind `json:"voteType"`
}

// VotesResponse is the vote tally of a review and the caller's own vote.
type VotesResponse struct {
	ReviewID   string          `json:"reviewId"`
	Helpful    int             `json:"helpful"`
	NotHelpful int             `json:"notHelpful"`
	Total      int             `json:"total"`
	MyVote     *model.VoteKind `json:"myVote"`
}

// VoteResponse is the result of casting a vote.
type VoteResponse struct {
	Vote       model.ReviewVote `json:"vote"`
	FirstVote  bool             `json:"firstVote"`
	Changed    bool             `json:"changed"`
	StatsStale bool             `json:"statsStale,omitempty"`
}

// LikeResponse is the result of liking a review.
type LikeResponse struct {
	model.Like
	Amount string `json:"amount"`
}

// ReputationResponse is the reputation of a user.
type ReputationResponse struct {
	UserID          string           `json:"userId"`
	HelpfulVotes    int              `json:"helpfulVotes"`
	NotHelpfulVotes int              `json:"notHelpfulVotes"`
	ReputationScore float64          `json:"reputationScore"`
	AuthorWeight    float64          `json:"authorWeight"`
	TotalReviews    int              `json:"totalReviews"`
	TrustLevel      model.TrustLevel `json:"trustLevel"`
	TrustLabel      string           `json:"trustLabel"`
}

// ProfileResponse is a user's public profile.
type ProfileResponse struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// BalanceResponse is a user's token balance.
type BalanceResponse struct {
	UserID  string `json:"userId"`
	Balance string `json:"balance"`
}

// RecomputeResponse is the refreshed stats of a restaurant.
type RecomputeResponse struct {
	Stats *model.RestaurantStats      `json:"stats"`
	Daily *model.RestaurantDailyStats `json:"daily,omitempty"`
}

// ImageUploadResponse is the URL of an uploaded image.
type ImageUploadResponse struct {
	URL string `json:"url"`
}
