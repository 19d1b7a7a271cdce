// Package api serves the JSON HTTP API.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/mtlprog/foodlog/internal/auth"
	"github.com/mtlprog/foodlog/internal/restaurant"
	"github.com/mtlprog/foodlog/internal/review"
	"github.com/mtlprog/foodlog/internal/storage"
	"github.com/mtlprog/foodlog/internal/token"
	"github.com/mtlprog/foodlog/internal/user"
	"github.com/mtlprog/foodlog/internal/validate"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	maxBodySize  = 1 << 20
)

// Services are the dependencies of the API. Likes and Images are optional;
// their routes answer 503 when unset.
type Services struct {
	Restaurants restaurantService
	Reviews     reviewService
	Voting      votingService
	Votes       voteReader
	Stats       statsReader
	Reputation  reputationReader
	Users       profileService
	UserStats   userStatsReader
	Likes       likeService
	Images      imageStore
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Services
	logger     *slog.Logger
	bufferPool *sync.Pool
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// New creates a new API Handler.
func New(s Services, opts ...Option) (*Handler, error) {
	switch {
	case s.Restaurants == nil:
		return nil, errors.New("restaurant service is required")
	case s.Reviews == nil:
		return nil, errors.New("review service is required")
	case s.Voting == nil || s.Votes == nil:
		return nil, errors.New("voting services are required")
	case s.Stats == nil:
		return nil, errors.New("stats reader is required")
	case s.Reputation == nil:
		return nil, errors.New("reputation reader is required")
	case s.Users == nil || s.UserStats == nil:
		return nil, errors.New("user services are required")
	}

	h := &Handler{
		Services: s,
		logger:   slog.Default(),
		bufferPool: &sync.Pool{
			New: func() any {
				return new(bytes.Buffer)
			},
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// RegisterRoutes registers all API routes on the given mux. Write routes
// require an authenticated user; auth.Verifier.Middleware must run first.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	authed := func(fn http.HandlerFunc) http.Handler {
		return auth.Require(fn)
	}

	mux.HandleFunc("GET /api/v1/restaurants", h.ListRestaurants)
	mux.Handle("POST /api/v1/restaurants", authed(h.CreateRestaurant))
	mux.HandleFunc("GET /api/v1/restaurants/top", h.TopRated)
	mux.HandleFunc("GET /api/v1/restaurants/{id}", h.GetRestaurant)
	mux.Handle("PUT /api/v1/restaurants/{id}", authed(h.UpdateRestaurant))
	mux.HandleFunc("GET /api/v1/restaurants/{id}/reviews", h.ListRestaurantReviews)
	mux.HandleFunc("GET /api/v1/restaurants/{id}/stats/daily/{date}", h.GetDailyStats)
	mux.Handle("POST /api/v1/restaurants/{id}/stats/recompute", authed(h.RecomputeStats))

	mux.Handle("POST /api/v1/reviews", authed(h.CreateReview))
	mux.HandleFunc("GET /api/v1/reviews/{id}", h.GetReview)
	mux.Handle("PUT /api/v1/reviews/{id}", authed(h.UpdateReview))
	mux.Handle("DELETE /api/v1/reviews/{id}", authed(h.DeleteReview))
	mux.HandleFunc("GET /api/v1/reviews/{id}/votes", h.GetVotes)
	mux.Handle("PUT /api/v1/reviews/{id}/vote", authed(h.CastVote))
	mux.Handle("DELETE /api/v1/reviews/{id}/vote", authed(h.WithdrawVote))
	mux.Handle("POST /api/v1/reviews/{id}/like", authed(h.LikeReview))

	mux.Handle("PUT /api/v1/users/me", authed(h.UpdateProfile))
	mux.HandleFunc("GET /api/v1/users/{id}", h.GetProfile)
	mux.HandleFunc("GET /api/v1/users/{id}/reputation", h.GetReputation)
	mux.HandleFunc("GET /api/v1/users/{id}/stats", h.GetUserStats)
	mux.HandleFunc("GET /api/v1/users/{id}/balance", h.GetBalance)
	mux.HandleFunc("GET /api/v1/reputation/top", h.TopContributors)

	mux.Handle("POST /api/v1/images", authed(h.UploadImage))
	mux.HandleFunc("GET /api/v1/images/{key}", h.GetImage)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	buf := h.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		h.bufferPool.Put(buf)
	}()

	if err := json.NewEncoder(buf).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
		http.Error(w, `{"error":"internal server error","code":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

// writeServiceError maps service errors to HTTP responses. Unknown errors
// are logged and reported as 500 with msg.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  verr.Error(),
			Code:   "validation_failed",
			Fields: verr.Fields(),
		})
	case errors.Is(err, review.ErrNotFound),
		errors.Is(err, review.ErrRestaurantNotFound),
		errors.Is(err, restaurant.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, review.ErrForbidden),
		errors.Is(err, restaurant.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, review.ErrSelfVote):
		h.writeError(w, http.StatusForbidden, "self_vote", err.Error())
	case errors.Is(err, token.ErrSelfLike):
		h.writeError(w, http.StatusForbidden, "self_like", err.Error())
	case errors.Is(err, token.ErrAlreadyLiked):
		h.writeError(w, http.StatusConflict, "already_liked", err.Error())
	case errors.Is(err, token.ErrInvalidAccount):
		h.writeError(w, http.StatusBadRequest, "invalid_account", err.Error())
	case errors.Is(err, user.ErrDisplayNameTaken):
		h.writeError(w, http.StatusConflict, "display_name_taken", err.Error())
	case errors.Is(err, storage.ErrTooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge, "too_large", err.Error())
	case errors.Is(err, storage.ErrUnsupportedType):
		h.writeError(w, http.StatusUnsupportedMediaType, "unsupported_type", err.Error())
	default:
		h.logger.Error("api: "+msg, "method", r.Method, "path", r.URL.Path, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal", msg)
	}
}

// decodeJSON reads a JSON body into v and reports a 400 on failure.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// currentUser returns the authenticated caller. Routes wrapped by
// auth.Require always have one.
func currentUser(r *http.Request) string {
	u, _ := auth.UserFromContext(r.Context())
	return u
}

func parseIntParam(r *http.Request, name string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
