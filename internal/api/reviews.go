package api

import (
	"errors"
	"net/http"

	"github.com/mtlprog/foodlog/internal/model"
	"github.com/mtlprog/foodlog/internal/review"
	"github.com/mtlprog/foodlog/internal/token"
)

// CreateReview handles POST /api/v1/reviews.
//
//	@Summary		Create review
//	@Description	Stores a review by the caller and refreshes the restaurant stats
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		review.CreateInput	true	"Review"
//	@Success		201		{object}	ReviewResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/v1/reviews [post]
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var in review.CreateInput
	if !h.decodeJSON(w, r, &in) {
		return
	}
	in.AuthorID = currentUser(r)

	rv, err := h.Reviews.Create(r.Context(), in)
	if err != nil && !errors.Is(err, review.ErrStatsRecompute) {
		h.writeServiceError(w, r, err, "failed to create review")
		return
	}

	resp := h.reviewResponse(r, *rv)
	resp.StatsStale = err != nil
	h.writeJSON(w, http.StatusCreated, resp)
}

// GetReview handles GET /api/v1/reviews/{id}.
//
//	@Summary		Get review
//	@Tags			reviews
//	@Produce		json
//	@Param			id	path		string	true	"Review ID"
//	@Success		200	{object}	ReviewResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/v1/reviews/{id} [get]
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	rv, err := h.Reviews.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch review")
		return
	}
	h.writeJSON(w, http.StatusOK, h.reviewResponse(r, *rv))
}

// UpdateReview handles PUT /api/v1/reviews/{id}.
//
//	@Summary		Update review
//	@Description	Replaces the content of the caller's review
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string			true	"Review ID"
//	@Param			body	body		review.Content	true	"Review content"
//	@Success		200		{object}	ReviewResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/v1/reviews/{id} [put]
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var in review.Content
	if !h.decodeJSON(w, r, &in) {
		return
	}

	rv, err := h.Reviews.Update(r.Context(), r.PathValue("id"), currentUser(r), in)
	if err != nil && !errors.Is(err, review.ErrStatsRecompute) {
		h.writeServiceError(w, r, err, "failed to update review")
		return
	}

	resp := h.reviewResponse(r, *rv)
	resp.StatsStale = err != nil
	h.writeJSON(w, http.StatusOK, resp)
}

// DeleteReview handles DELETE /api/v1/reviews/{id}.
//
//	@Summary		Delete review
//	@Tags			reviews
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Review ID"
//	@Success		204
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/v1/reviews/{id} [delete]
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	err := h.Reviews.Delete(r.Context(), r.PathValue("id"), currentUser(r))
	if err != nil && !errors.Is(err, review.ErrStatsRecompute) {
		h.writeServiceError(w, r, err, "failed to delete review")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetVotes handles GET /api/v1/reviews/{id}/votes.
//
//	@Summary		Get review votes
//	@Description	Returns the helpful tally of a review and, when authenticated, the caller's vote
//	@Tags			votes
//	@Produce		json
//	@Param			id	path		string	true	"Review ID"
//	@Success		200	{object}	VotesResponse
//	@Router			/api/v1/reviews/{id}/votes [get]
func (h *Handler) GetVotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	tally, err := h.Votes.GetVotesForReview(ctx, id)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch votes")
		return
	}

	resp := VotesResponse{
		ReviewID:   id,
		Helpful:    tally.Helpful,
		NotHelpful: tally.NotHelpful,
		Total:      tally.Total(),
	}
	if me := currentUser(r); me != "" {
		mine, err := h.Votes.GetUserVoteForReview(ctx, id, me)
		if err != nil {
			h.writeServiceError(w, r, err, "failed to fetch votes")
			return
		}
		if mine != nil {
			resp.MyVote = &mine.VoteType
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// CastVote handles PUT /api/v1/reviews/{id}/vote.
//
//	@Summary		Vote on review
//	@Description	Casts or changes the caller's helpful vote on a review
//	@Tags			votes
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string		true	"Review ID"
//	@Param			body	body		VoteRequest	true	"Vote"
//	@Success		200		{object}	VoteResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/v1/reviews/{id}/vote [put]
func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if !req.VoteType.IsValid() {
		h.writeError(w, http.StatusBadRequest, "invalid_vote_type", "voteType must be helpful or not_helpful")
		return
	}

	res, err := h.Voting.Cast(r.Context(), r.PathValue("id"), currentUser(r), req.VoteType)
	if err != nil && (res == nil || !errors.Is(err, review.ErrStatsRecompute)) {
		h.writeServiceError(w, r, err, "failed to cast vote")
		return
	}

	h.writeJSON(w, http.StatusOK, VoteResponse{
		Vote:       *res.Vote,
		FirstVote:  res.Previous == nil,
		Changed:    res.Changed(),
		StatsStale: err != nil,
	})
}

// WithdrawVote handles DELETE /api/v1/reviews/{id}/vote.
//
//	@Summary		Withdraw vote
//	@Tags			votes
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Review ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/v1/reviews/{id}/vote [delete]
func (h *Handler) WithdrawVote(w http.ResponseWriter, r *http.Request) {
	err := h.Voting.Withdraw(r.Context(), r.PathValue("id"), currentUser(r))
	if err != nil && !errors.Is(err, review.ErrStatsRecompute) {
		h.writeServiceError(w, r, err, "failed to withdraw vote")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LikeReview handles POST /api/v1/reviews/{id}/like.
//
//	@Summary		Like review
//	@Description	Likes a review once and mints the reward to its author
//	@Tags			tokens
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Review ID"
//	@Success		201	{object}	LikeResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/v1/reviews/{id}/like [post]
func (h *Handler) LikeReview(w http.ResponseWriter, r *http.Request) {
	if h.Likes == nil {
		h.writeError(w, http.StatusServiceUnavailable, "unavailable", "token rewards are not configured")
		return
	}

	like, err := h.Likes.LikeReview(r.Context(), r.PathValue("id"), currentUser(r))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to like review")
		return
	}
	h.writeJSON(w, http.StatusCreated, LikeResponse{
		Like:   *like,
		Amount: token.FormatAmount(h.Likes.Reward()),
	})
}

func (h *Handler) reviewResponse(r *http.Request, rv model.Review) ReviewResponse {
	resp := ReviewResponse{Review: rv}
	if rv.Comment != "" {
		resp.CommentHTML = review.RenderComment(rv.Comment)
	}
	if h.Likes != nil {
		resp.LikeCount = h.Likes.LikeCount(r.Context(), rv.ID)
	}
	return resp
}
