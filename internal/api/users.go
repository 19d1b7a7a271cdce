package api

import (
	"net/http"

	"github.com/mtlprog/foodlog/internal/token"
	"github.com/mtlprog/foodlog/internal/user"
)

// GetProfile handles GET /api/v1/users/{id}.
//
//	@Summary		Get user profile
//	@Description	Returns the display name of a user, falling back to a generated one
//	@Tags			users
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	ProfileResponse
//	@Router			/api/v1/users/{id} [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.writeJSON(w, http.StatusOK, ProfileResponse{
		UserID:      id,
		DisplayName: h.Users.DisplayName(r.Context(), id),
	})
}

// UpdateProfile handles PUT /api/v1/users/me.
//
//	@Summary		Update own profile
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		user.ProfileInput	true	"Profile"
//	@Success		200		{object}	ProfileResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/v1/users/me [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in user.ProfileInput
	if !h.decodeJSON(w, r, &in) {
		return
	}

	profile, err := h.Users.Upsert(r.Context(), currentUser(r), in)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update profile")
		return
	}
	h.writeJSON(w, http.StatusOK, ProfileResponse{
		UserID:      profile.PrincipalID,
		DisplayName: profile.DisplayName,
	})
}

// GetUserStats handles GET /api/v1/users/{id}/stats.
//
//	@Summary		Get user dashboard stats
//	@Tags			users
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	model.UserStats
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/users/{id}/stats [get]
func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.UserStats.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch user stats")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// GetBalance handles GET /api/v1/users/{id}/balance.
//
//	@Summary		Get token balance
//	@Tags			tokens
//	@Produce		json
//	@Param			id	path		string	true	"User account ID"
//	@Success		200	{object}	BalanceResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/v1/users/{id}/balance [get]
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	if h.Likes == nil {
		h.writeError(w, http.StatusServiceUnavailable, "unavailable", "token rewards are not configured")
		return
	}

	id := r.PathValue("id")
	balance, err := h.Likes.Balance(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch balance")
		return
	}
	h.writeJSON(w, http.StatusOK, BalanceResponse{
		UserID:  id,
		Balance: token.FormatAmount(balance),
	})
}
