package api

import (
	"net/http"

	"github.com/samber/lo"

	"github.com/mtlprog/foodlog/internal/model"
	"github.com/mtlprog/foodlog/internal/restaurant"
)

// ListRestaurants handles GET /api/v1/restaurants.
//
//	@Summary		List restaurants
//	@Description	Returns restaurants ordered by name with their rolling stats
//	@Tags			restaurants
//	@Produce		json
//	@Param			category	query		string	false	"Main category"	Enums(japanese, western, chinese, other)
//	@Param			limit		query		int		false	"Number of results"	default(20)	maximum(100)
//	@Param			offset		query		int		false	"Offset for pagination"	default(0)
//	@Success		200			{object}	PaginatedResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/v1/restaurants [get]
func (h *Handler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := parseIntParam(r, "limit", defaultLimit, maxLimit)
	offset := parseIntParam(r, "offset", 0, 0)

	items, err := h.Restaurants.List(ctx, restaurant.ListOptions{
		Main:   model.MainCategory(r.URL.Query().Get("category")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list restaurants")
		return
	}

	stats := h.Stats.StatsForRestaurants(ctx, lo.Map(items, func(item model.Restaurant, _ int) string {
		return item.ID
	}))

	h.writeJSON(w, http.StatusOK, PaginatedResponse{
		Data: lo.Map(items, func(item model.Restaurant, _ int) RestaurantResponse {
			return restaurantResponse(item, stats[item.ID])
		}),
		Pagination: Pagination{Limit: limit, Offset: offset},
	})
}

// GetRestaurant handles GET /api/v1/restaurants/{id}.
//
//	@Summary		Get restaurant
//	@Tags			restaurants
//	@Produce		json
//	@Param			id	path		string	true	"Restaurant ID"
//	@Success		200	{object}	RestaurantResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/v1/restaurants/{id} [get]
func (h *Handler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	item, err := h.Restaurants.Get(ctx, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch restaurant")
		return
	}
	h.writeJSON(w, http.StatusOK, restaurantResponse(*item, h.Stats.GetRestaurantStats(ctx, item.ID)))
}

// CreateRestaurant handles POST /api/v1/restaurants.
//
//	@Summary		Create restaurant
//	@Tags			restaurants
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		restaurant.Input	true	"Restaurant"
//	@Success		201		{object}	RestaurantResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/api/v1/restaurants [post]
func (h *Handler) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	var in restaurant.Input
	if !h.decodeJSON(w, r, &in) {
		return
	}

	item, err := h.Restaurants.Create(r.Context(), currentUser(r), in)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create restaurant")
		return
	}
	h.writeJSON(w, http.StatusCreated, restaurantResponse(*item, &model.RestaurantStats{RestaurantID: item.ID}))
}

// UpdateRestaurant handles PUT /api/v1/restaurants/{id}.
//
//	@Summary		Update restaurant
//	@Tags			restaurants
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string				true	"Restaurant ID"
//	@Param			body	body		restaurant.Input	true	"Restaurant"
//	@Success		200		{object}	RestaurantResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/v1/restaurants/{id} [put]
func (h *Handler) UpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	var in restaurant.Input
	if !h.decodeJSON(w, r, &in) {
		return
	}

	ctx := r.Context()
	item, err := h.Restaurants.Update(ctx, r.PathValue("id"), currentUser(r), in)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update restaurant")
		return
	}
	h.writeJSON(w, http.StatusOK, restaurantResponse(*item, h.Stats.GetRestaurantStats(ctx, item.ID)))
}

// ListRestaurantReviews handles GET /api/v1/restaurants/{id}/reviews.
//
//	@Summary		List restaurant reviews
//	@Description	Returns the reviews of a restaurant, newest first
//	@Tags			reviews
//	@Produce		json
//	@Param			id	path		string	true	"Restaurant ID"
//	@Success		200	{array}		ReviewResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/v1/restaurants/{id}/reviews [get]
func (h *Handler) ListRestaurantReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if _, err := h.Restaurants.Get(ctx, id); err != nil {
		h.writeServiceError(w, r, err, "failed to fetch restaurant")
		return
	}

	reviews, err := h.Reviews.ListByRestaurant(ctx, id)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list reviews")
		return
	}
	h.writeJSON(w, http.StatusOK, lo.Map(reviews, func(rv model.Review, _ int) ReviewResponse {
		return h.reviewResponse(r, rv)
	}))
}

// TopRated handles GET /api/v1/restaurants/top.
//
//	@Summary		Top rated restaurants
//	@Description	Returns restaurants with enough reviews ordered by weighted average rating
//	@Tags			restaurants
//	@Produce		json
//	@Param			limit	query	int	false	"Number of results"	default(10)	maximum(100)
//	@Success		200		{array}	TopRatedItem
//	@Router			/api/v1/restaurants/top [get]
func (h *Handler) TopRated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	top := h.Stats.GetTopRatedRestaurants(ctx, parseIntParam(r, "limit", 10, maxLimit))

	items := make([]TopRatedItem, 0, len(top))
	for _, s := range top {
		item, err := h.Restaurants.Get(ctx, s.RestaurantID)
		if err != nil {
			// stats can outlive a removed restaurant
			h.logger.Debug("skipping ranked restaurant", "restaurant_id", s.RestaurantID, "error", err)
			continue
		}
		items = append(items, TopRatedItem{
			RestaurantStats: s,
			Name:            item.Name,
			Category:        item.Category,
		})
	}
	h.writeJSON(w, http.StatusOK, items)
}

func restaurantResponse(item model.Restaurant, stats *model.RestaurantStats) RestaurantResponse {
	if stats == nil {
		stats = &model.RestaurantStats{RestaurantID: item.ID}
	}
	return RestaurantResponse{
		Restaurant:   item,
		MainCategory: item.Category.Main(),
		Stats:        stats,
	}
}
