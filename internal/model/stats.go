package model

import "time"

// RestaurantStats is the rolling aggregate of a restaurant's reviews.
// One record per restaurant, fully recomputed on every triggering event.
type RestaurantStats struct {
	RestaurantID          string    `json:"restaurantId"`
	TotalReviews          int       `json:"totalReviews"`
	AverageRating         float64   `json:"averageRating"`
	WeightedAverageRating float64   `json:"weightedAverageRating"`
	ReviewCount30d        int       `json:"reviewCount30d"`
	AverageRating90d      float64   `json:"averageRating90d"`
	LastUpdated           time.Time `json:"lastUpdated"`
}

// RestaurantDailyStats aggregates a restaurant's reviews for one calendar day.
type RestaurantDailyStats struct {
	RestaurantID  string  `json:"restaurantId"`
	Date          string  `json:"date"` // YYYY-MM-DD
	ReviewCount   int     `json:"reviewCount"`
	TotalRating   float64 `json:"totalRating"`
	AverageRating float64 `json:"averageRating"`
}
