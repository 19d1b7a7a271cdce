package api

import (
	"net/http"

	"github.com/mtlprog/foodlog/internal/reputation"
)

// GetReputation handles GET /api/v1/users/{id}/reputation.
//
//	@Summary		Get user reputation
//	@Description	Returns vote counters, reputation score, author weight and trust level of a user
//	@Tags			reputation
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	ReputationResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/users/{id}/reputation [get]
func (h *Handler) GetReputation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.PathValue("id")

	rep, err := h.Reputation.GetUserReputation(ctx, userID)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch reputation")
		return
	}
	reviews, err := h.Reviews.ListByAuthor(ctx, userID)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch reputation")
		return
	}

	level := reputation.ClassifyTrust(rep.ReputationScore, len(reviews))
	h.writeJSON(w, http.StatusOK, ReputationResponse{
		UserID:          userID,
		HelpfulVotes:    rep.TotalHelpfulVotes,
		NotHelpfulVotes: rep.TotalNotHelpfulVotes,
		ReputationScore: rep.ReputationScore,
		AuthorWeight:    h.Reputation.GetAuthorWeight(ctx, userID),
		TotalReviews:    len(reviews),
		TrustLevel:      level,
		TrustLabel:      level.Label(),
	})
}

// TopContributors handles GET /api/v1/reputation/top.
//
//	@Summary		Top contributors
//	@Description	Returns users ordered by reputation score
//	@Tags			reputation
//	@Produce		json
//	@Param			limit	query	int	false	"Number of results"	default(10)	maximum(100)
//	@Success		200		{array}	model.UserReputation
//	@Router			/api/v1/reputation/top [get]
func (h *Handler) TopContributors(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Reputation.TopContributors(r.Context(), parseIntParam(r, "limit", 10, maxLimit)))
}
