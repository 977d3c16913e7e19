package planner

import (
	"errors"
	"math"
)

// ErrNoOptions is returned when a selection is attempted over an empty list.
// Callers surface it as "no flights/hotels found", never as a default pick.
var ErrNoOptions = errors.New("no options found")

// ─── Scoring ─────────────────────────────────────────────────────────────────

// capScore maps a cost-like value into [0,1]: zero cost scores 1, anything at
// or beyond the cap scores 0, never negative.
func capScore(value, cap float64) float64 {
	return math.Max(0, 1-value/cap)
}

// ScoreTransport scores a leg on price, duration and transfer count.
// Cheaper, faster, more direct is better.
func ScoreTransport(opt TransportOption, cfg Config) float64 {
	sPrice := capScore(opt.Price, cfg.PriceCap)
	sTime := capScore(float64(opt.DurationMin), cfg.DurationCap)
	sTransfers := capScore(float64(opt.Transfers), cfg.TransferCap)
	return cfg.PriceWeight*sPrice + cfg.TimeWeight*sTime + cfg.TransferWeight*sTransfers
}

// ScoreLodging scores a stay on rating and nightly price, with a small bonus
// for review volume capped at 0.1.
func ScoreLodging(opt LodgingOption, cfg Config) float64 {
	ratingScore := opt.Rating / 5
	priceScore := capScore(opt.PricePerNight, cfg.NightlyPriceCap)
	reviewBonus := math.Min(0.1, float64(opt.Reviews)/2000*0.1)
	return cfg.RatingWeight*ratingScore + cfg.LodgingPriceWeight*priceScore + reviewBonus
}

// ─── Selection ───────────────────────────────────────────────────────────────

// PickBest returns the highest-scoring option. Ties keep the first option in
// input order. Empty input returns ErrNoOptions.
func PickBest[T any](opts []T, score func(T) float64) (T, error) {
	var best T
	if len(opts) == 0 {
		return best, ErrNoOptions
	}
	best = opts[0]
	bestScore := score(opts[0])
	for _, opt := range opts[1:] {
		if s := score(opt); s > bestScore {
			best, bestScore = opt, s
		}
	}
	return best, nil
}
