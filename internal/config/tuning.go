package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Tuning holds the knobs of the aggregation and incentive pipeline.
// Zero values in a loaded file fall back to the defaults.
type Tuning struct {
	// RecentWindowDays is the window of the recent review count (30d).
	RecentWindowDays int `toml:"recent_window_days"`
	// AverageWindowDays is the window of the recent average rating (90d).
	AverageWindowDays int `toml:"average_window_days"`
	// MinReviewsForRanking gates restaurants out of top-rated lists.
	MinReviewsForRanking int `toml:"min_reviews_for_ranking"`
	// ScanPageSize caps full collection scans.
	ScanPageSize int `toml:"scan_page_size"`
	// StatsConcurrency bounds the read-only stats fan-out.
	StatsConcurrency int `toml:"stats_concurrency"`
	// DailyStatsTimezone is the IANA zone used to bucket reviews into days.
	DailyStatsTimezone string `toml:"daily_stats_timezone"`

	NameCacheSize int      `toml:"name_cache_size"`
	NameCacheTTL  Duration `toml:"name_cache_ttl"`

	// MintPerLike is the token amount paid to a review author per like.
	MintPerLike string `toml:"mint_per_like"`
}

// Duration is a time.Duration decoded from a TOML string like "10m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// DefaultTuning returns the production defaults.
func DefaultTuning() Tuning {
	return Tuning{
		RecentWindowDays:     30,
		AverageWindowDays:    90,
		MinReviewsForRanking: 3,
		ScanPageSize:         10000,
		StatsConcurrency:     8,
		DailyStatsTimezone:   "UTC",
		NameCacheSize:        1000,
		NameCacheTTL:         Duration{10 * time.Minute},
		MintPerLike:          "1",
	}
}

// LoadTuning reads a TOML tuning file. An empty path returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	var fromFile Tuning
	if _, err := toml.DecodeFile(path, &fromFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return t, fmt.Errorf("tuning file %q not found: %w", path, err)
		}
		return t, fmt.Errorf("decode tuning file: %w", err)
	}

	t.merge(fromFile)
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

func (t *Tuning) merge(o Tuning) {
	if o.RecentWindowDays != 0 {
		t.RecentWindowDays = o.RecentWindowDays
	}
	if o.AverageWindowDays != 0 {
		t.AverageWindowDays = o.AverageWindowDays
	}
	if o.MinReviewsForRanking != 0 {
		t.MinReviewsForRanking = o.MinReviewsForRanking
	}
	if o.ScanPageSize != 0 {
		t.ScanPageSize = o.ScanPageSize
	}
	if o.StatsConcurrency != 0 {
		t.StatsConcurrency = o.StatsConcurrency
	}
	if o.DailyStatsTimezone != "" {
		t.DailyStatsTimezone = o.DailyStatsTimezone
	}
	if o.NameCacheSize != 0 {
		t.NameCacheSize = o.NameCacheSize
	}
	if o.NameCacheTTL.Duration != 0 {
		t.NameCacheTTL = o.NameCacheTTL
	}
	if o.MintPerLike != "" {
		t.MintPerLike = o.MintPerLike
	}
}

// Validate checks the tuning values for consistency.
func (t Tuning) Validate() error {
	if t.RecentWindowDays < 0 || t.AverageWindowDays < 0 {
		return errors.New("window days must not be negative")
	}
	if t.ScanPageSize < 1 {
		return fmt.Errorf("scan page size must be positive, got %d", t.ScanPageSize)
	}
	if t.StatsConcurrency < 1 {
		return fmt.Errorf("stats concurrency must be positive, got %d", t.StatsConcurrency)
	}
	if _, err := time.LoadLocation(t.DailyStatsTimezone); err != nil {
		return fmt.Errorf("invalid daily stats timezone %q: %w", t.DailyStatsTimezone, err)
	}
	return nil
}

// Location returns the time zone used for daily buckets.
func (t Tuning) Location() *time.Location {
	loc, err := time.LoadLocation(t.DailyStatsTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
