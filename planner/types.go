package planner

import "time"

// ─── Options ─────────────────────────────────────────────────────────────────

type Mode string

const (
	ModeFlight Mode = "flight"
	ModeTrain  Mode = "train"
	ModeDrive  Mode = "drive"
)

// TransportOption is one candidate leg (outbound or return). Built by a
// provider source and never mutated afterwards.
type TransportOption struct {
	Mode        Mode      `json:"mode"`
	Provider    string    `json:"provider"`
	Departure   time.Time `json:"departure"`
	Arrival     time.Time `json:"arrival"`
	Price       float64   `json:"price"`
	DurationMin int       `json:"duration_min"`
	Transfers   int       `json:"transfers"`
	Notes       string    `json:"notes,omitempty"`
}

// LodgingOption is one candidate stay.
type LodgingOption struct {
	Name          string  `json:"name"`
	Location      string  `json:"location"`
	PricePerNight float64 `json:"price_per_night"`
	Rating        float64 `json:"rating"` // 0..5
	Reviews       int     `json:"reviews"`
	URL           string  `json:"url,omitempty"`
}

// ─── Proposal ────────────────────────────────────────────────────────────────

// Proposal is a fully assembled candidate trip: selected legs, lodging (a
// priced offer or search links plus a nightly estimate) and computed totals.
type Proposal struct {
	Destination  string          `json:"destination"`
	Outbound     TransportOption `json:"outbound"`
	Return       TransportOption `json:"return"`
	Lodging      *LodgingOption  `json:"lodging,omitempty"`
	LodgingLinks []string        `json:"lodging_links,omitempty"`
	PerNight     float64         `json:"per_night"`
	Nights       int             `json:"nights"`
	Total        float64         `json:"total"`
	Budget       float64         `json:"budget,omitempty"`
	UnderBudget  bool            `json:"under_budget"`
	TrendScore   float64         `json:"trend_score,omitempty"`
}
