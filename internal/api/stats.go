package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/mtlprog/foodlog/internal/review"
)

// GetDailyStats handles GET /api/v1/restaurants/{id}/stats/daily/{date}.
//
//	@Summary		Get daily stats
//	@Description	Returns the review aggregate of a restaurant for one day
//	@Tags			stats
//	@Produce		json
//	@Param			id		path		string	true	"Restaurant ID"
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Success		200		{object}	model.RestaurantDailyStats
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/v1/restaurants/{id}/stats/daily/{date} [get]
func (h *Handler) GetDailyStats(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_date", "date must be formatted as YYYY-MM-DD")
		return
	}

	daily := h.Stats.GetDailyStats(r.Context(), r.PathValue("id"), date)
	if daily == nil {
		h.writeError(w, http.StatusNotFound, "not_found", "no stats for this day")
		return
	}
	h.writeJSON(w, http.StatusOK, daily)
}

// RecomputeStats handles POST /api/v1/restaurants/{id}/stats/recompute.
//
//	@Summary		Recompute restaurant stats
//	@Description	Recomputes the rolling stats and today's daily stats of a restaurant
//	@Tags			stats
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Restaurant ID"
//	@Success		200	{object}	RecomputeResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/restaurants/{id}/stats/recompute [post]
func (h *Handler) RecomputeStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if _, err := h.Restaurants.Get(ctx, id); err != nil {
		h.writeServiceError(w, r, err, "failed to fetch restaurant")
		return
	}

	if err := h.Reviews.Recompute(ctx, id); err != nil {
		if errors.Is(err, review.ErrStatsRecompute) {
			h.logger.Error("api: stats recompute failed", "restaurant_id", id, "error", err)
			h.writeError(w, http.StatusInternalServerError, "recompute_failed", "failed to recompute stats")
			return
		}
		h.writeServiceError(w, r, err, "failed to recompute stats")
		return
	}

	h.writeJSON(w, http.StatusOK, RecomputeResponse{
		Stats: h.Stats.GetRestaurantStats(ctx, id),
		Daily: h.Stats.GetDailyStats(ctx, id, h.Stats.Today()),
	})
}
