package planner

import (
	"os"
	"strconv"
	"time"
)

// Config holds the scoring weights, normalization caps and the seasonal
// nightly-price table. The demo variants disagree slightly on the caps, so
// they are configuration rather than constants.
type Config struct {
	// Transport weights (sum ≈ 1).
	PriceWeight    float64
	TimeWeight     float64
	TransferWeight float64

	// Transport caps: values at or past the cap contribute a zero score.
	PriceCap    float64
	DurationCap float64 // minutes
	TransferCap float64

	// Lodging.
	RatingWeight       float64
	LodgingPriceWeight float64
	NightlyPriceCap    float64

	// Seasonal multipliers applied to a base nightly estimate when no
	// priced lodging offer is available.
	SeasonPeak     float64 // August
	SeasonHigh     float64 // July
	SeasonShoulder float64 // June, September
	SeasonOff      float64 // everything else

	BaseNightly float64
}

func DefaultConfig() Config {
	return Config{
		PriceWeight:    0.55,
		TimeWeight:     0.35,
		TransferWeight: 0.10,

		PriceCap:    200,
		DurationCap: 420,
		TransferCap: 2,

		RatingWeight:       0.7,
		LodgingPriceWeight: 0.3,
		NightlyPriceCap:    180,

		SeasonPeak:     1.25,
		SeasonHigh:     1.15,
		SeasonShoulder: 1.05,
		SeasonOff:      0.95,

		BaseNightly: 90,
	}
}

// ConfigFromEnv returns DefaultConfig with any PLAN_* overrides applied.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	envFloat("PLAN_PRICE_CAP", &cfg.PriceCap)
	envFloat("PLAN_DURATION_CAP", &cfg.DurationCap)
	envFloat("PLAN_TRANSFER_CAP", &cfg.TransferCap)
	envFloat("PLAN_NIGHTLY_PRICE_CAP", &cfg.NightlyPriceCap)
	envFloat("PLAN_BASE_NIGHTLY", &cfg.BaseNightly)
	return cfg
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			*dst = f
		}
	}
}

// SeasonFactor returns the nightly-price multiplier for a departure month.
func (c Config) SeasonFactor(month time.Month) float64 {
	switch month {
	case time.August:
		return c.SeasonPeak
	case time.July:
		return c.SeasonHigh
	case time.June, time.September:
		return c.SeasonShoulder
	default:
		return c.SeasonOff
	}
}

// NightlyEstimate is the seasonally adjusted per-night estimate used when
// lodging was not priced by a provider.
func (c Config) NightlyEstimate(month time.Month) float64 {
	return c.BaseNightly * c.SeasonFactor(month)
}
