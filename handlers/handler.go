package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"tripplanner/database"
	"tripplanner/planner"
	"tripplanner/services"
)

// Handler carries the collaborators every route needs. Everything is injected
// so tests run against fakes without process-wide state.
type Handler struct {
	Transport services.TransportProviders
	Lodging   services.LodgingChain
	AI        *services.AIClient
	Trends    *services.TrendClient
	Amadeus   *services.AmadeusClient
	Store     database.Store
	Config    planner.Config
}

func New(transport services.TransportProviders, lodging services.LodgingChain, ai *services.AIClient, trends *services.TrendClient, amadeus *services.AmadeusClient, store database.Store, cfg planner.Config) *Handler {
	return &Handler{
		Transport: transport,
		Lodging:   lodging,
		AI:        ai,
		Trends:    trends,
		Amadeus:   amadeus,
		Store:     store,
		Config:    cfg,
	}
}

// APIKeyMiddleware enforces the optional static credential check: when a key
// is configured, requests must carry it in X-API-Key.
func APIKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key != "" && c.GetHeader("X-API-Key") != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
			return
		}
		c.Next()
	}
}

func (h *Handler) Health(c *gin.Context) {
	storeStatus := "ok"
	if h.Store == nil {
		storeStatus = "not initialized"
	} else if err := h.Store.Ping(); err != nil {
		storeStatus = "error: " + err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"service":     "TripPlanner API",
		"store":       storeStatus,
		"live_search": h.Amadeus != nil,
		"ai":          h.AI.Configured(),
	})
}

// ─── Shared planning logic ───────────────────────────────────────────────────

// assembleProposal searches legs and lodging for one destination and builds a
// priced proposal. Outbound, return and lodging lookups are independent and
// run concurrently. A transport leg with no options fails the whole
// destination; lodging falls back to a seasonal nightly estimate with search
// deep links.
func (h *Handler) assembleProposal(ctx context.Context, origin, dest string, depDay, retDay time.Time, modes []planner.Mode, adults int, budget, maxPerNight float64) (planner.Proposal, error) {
	var outOpts, retOpts []planner.TransportOption
	var lodgingOpts []planner.LodgingOption
	var lodgingErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		outOpts, err = h.Transport.Options(gctx, origin, dest, depDay, modes, adults)
		if err != nil {
			return fmt.Errorf("outbound: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		retOpts, err = h.Transport.Options(gctx, dest, origin, retDay, modes, adults)
		if err != nil {
			return fmt.Errorf("return: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// Lodging failure never aborts the group; the estimate covers it.
		lodgingOpts, lodgingErr = h.Lodging.Search(gctx, dest, depDay, retDay, adults, maxPerNight)
		return nil
	})
	if err := g.Wait(); err != nil {
		return planner.Proposal{}, err
	}

	scoreLeg := func(o planner.TransportOption) float64 { return planner.ScoreTransport(o, h.Config) }
	outbound, err := planner.PickBest(outOpts, scoreLeg)
	if err != nil {
		return planner.Proposal{}, fmt.Errorf("outbound: %w", err)
	}
	ret, err := planner.PickBest(retOpts, scoreLeg)
	if err != nil {
		return planner.Proposal{}, fmt.Errorf("return: %w", err)
	}

	nights := int(retDay.Sub(depDay).Hours() / 24)

	var lodging *planner.LodgingOption
	var links []string
	perNight := 0.0
	if lodgingErr == nil {
		best, pickErr := planner.PickBest(lodgingOpts, func(o planner.LodgingOption) float64 {
			return planner.ScoreLodging(o, h.Config)
		})
		if pickErr == nil {
			lodging = &best
		}
	}
	if lodging == nil {
		perNight = h.Config.NightlyEstimate(depDay.Month())
		links = services.LodgingSearchLinks(dest, depDay, retDay)
	}

	p := planner.BuildProposal(dest, outbound, ret, lodging, perNight, nights, budget)
	p.LodgingLinks = links
	return p, nil
}

// abortForError maps planning failures onto the error taxonomy: no options
// found is a 404, anything else from a provider is a 502.
func abortForError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, planner.ErrNoOptions) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// parseModes validates and normalizes transport mode names, defaulting to all
// modes when none are given.
func parseModes(raw []string) ([]planner.Mode, error) {
	if len(raw) == 0 {
		return []planner.Mode{planner.ModeFlight, planner.ModeTrain, planner.ModeDrive}, nil
	}
	modes := make([]planner.Mode, 0, len(raw))
	for _, m := range raw {
		switch planner.Mode(strings.ToLower(strings.TrimSpace(m))) {
		case planner.ModeFlight:
			modes = append(modes, planner.ModeFlight)
		case planner.ModeTrain:
			modes = append(modes, planner.ModeTrain)
		case planner.ModeDrive:
			modes = append(modes, planner.ModeDrive)
		default:
			return nil, fmt.Errorf("unknown transport mode %q", m)
		}
	}
	return modes, nil
}

// parseTripDates validates the departure/return date pair.
func parseTripDates(depart, ret string) (time.Time, time.Time, error) {
	depDay, err := time.Parse("2006-01-02", depart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid departure date format, use YYYY-MM-DD")
	}
	retDay, err := time.Parse("2006-01-02", ret)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid return date format, use YYYY-MM-DD")
	}
	if !retDay.After(depDay) {
		return time.Time{}, time.Time{}, fmt.Errorf("return date must be after departure date")
	}
	return depDay, retDay, nil
}

// ─── Response shaping ────────────────────────────────────────────────────────

type LegSummary struct {
	Mode        string  `json:"mode"`
	Provider    string  `json:"provider"`
	Depart      string  `json:"depart"`
	Arrive      string  `json:"arrive"`
	DurationMin int     `json:"duration_min"`
	Transfers   int     `json:"transfers"`
	Price       float64 `json:"price"`
	Notes       string  `json:"notes,omitempty"`
}

type ProposalView struct {
	Destination  string                 `json:"destination"`
	Outbound     LegSummary             `json:"outbound"`
	Return       LegSummary             `json:"return"`
	Lodging      *planner.LodgingOption `json:"lodging,omitempty"`
	LodgingLinks []string               `json:"lodging_links,omitempty"`
	PerNight     float64                `json:"per_night"`
	Nights       int                    `json:"nights"`
	Total        float64                `json:"total"`
	Budget       float64                `json:"budget,omitempty"`
	UnderBudget  bool                   `json:"under_budget"`
	TrendScore   float64                `json:"trend_score,omitempty"`
}

func legSummary(leg planner.TransportOption) LegSummary {
	return LegSummary{
		Mode:        string(leg.Mode),
		Provider:    leg.Provider,
		Depart:      leg.Departure.Format("02 Jan 15:04"),
		Arrive:      leg.Arrival.Format("15:04"),
		DurationMin: leg.DurationMin,
		Transfers:   leg.Transfers,
		Price:       leg.Price,
		Notes:       leg.Notes,
	}
}

func proposalView(p planner.Proposal) ProposalView {
	return ProposalView{
		Destination:  p.Destination,
		Outbound:     legSummary(p.Outbound),
		Return:       legSummary(p.Return),
		Lodging:      p.Lodging,
		LodgingLinks: p.LodgingLinks,
		PerNight:     p.PerNight,
		Nights:       p.Nights,
		Total:        p.Total,
		Budget:       p.Budget,
		UnderBudget:  p.UnderBudget,
		TrendScore:   p.TrendScore,
	}
}
