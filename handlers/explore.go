package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tripplanner/database"
	"tripplanner/planner"
	"tripplanner/services"
)

type ExploreRequest struct {
	Origin        string   `json:"origin" binding:"required"`
	Destinations  []string `json:"destinations"`
	DepartureDate string   `json:"departure_date" binding:"required"`
	ReturnDate    string   `json:"return_date" binding:"required"`
	Modes         []string `json:"modes"`
	Interests     []string `json:"interests"`
	Adults        int      `json:"adults"`
	Budget        float64  `json:"budget"`
	MaxPerNight   float64  `json:"max_per_night"`
}

type RankedProposal struct {
	ProposalView
	PlanID      string   `json:"plan_id"`
	ICS         string   `json:"ics"`
	GcalLinks   []string `json:"gcal_links"`
	DownloadURL string   `json:"download_url"`
}

type ExploreResponse struct {
	SearchID  string           `json:"search_id"`
	Proposals []RankedProposal `json:"proposals"`
	Skipped   []string         `json:"skipped,omitempty"`
}

// Explore handles multi-destination planning: resolve a candidate list, build
// a proposal per candidate, rank them. A candidate whose lookups fail is
// skipped; the request fails only when no candidate survives.
func (h *Handler) Explore(c *gin.Context) {
	var req ExploreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	req.Origin = strings.TrimSpace(req.Origin)
	if req.Adults <= 0 {
		req.Adults = 1
	}

	depDay, retDay, err := parseTripDates(req.DepartureDate, req.ReturnDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	modes, err := parseModes(req.Modes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidates := h.resolveCandidates(c.Request.Context(), req, depDay)
	if len(candidates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No destinations given and no suggestions available"})
		return
	}

	var proposals []planner.Proposal
	var skipped []string
	for _, dest := range candidates {
		p, err := h.assembleProposal(c.Request.Context(), req.Origin, dest, depDay, retDay, modes, req.Adults, req.Budget, req.MaxPerNight)
		if err != nil {
			log.Printf("Skipping candidate %s: %v", dest, err)
			skipped = append(skipped, dest)
			continue
		}
		p.TrendScore = h.Trends.Score(c.Request.Context(), dest)
		proposals = append(proposals, p)
	}

	if len(proposals) == 0 {
		c.JSON(http.StatusBadGateway, gin.H{"error": "All candidate destinations failed"})
		return
	}

	planner.RankProposals(proposals)

	searchID := uuid.New().String()
	if err := h.Store.SaveSearch(&database.Search{
		ID:            searchID,
		Origin:        req.Origin,
		Destination:   strings.Join(candidates, ","),
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Budget:        req.Budget,
		Adults:        req.Adults,
	}); err != nil {
		log.Printf("Failed to save search: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save search"})
		return
	}

	ranked := make([]RankedProposal, 0, len(proposals))
	for _, p := range proposals {
		events := services.TripEvents(req.Origin, p, depDay, retDay)
		ics := services.MakeICS(p.Destination+" — trip", events, 45)
		gcalLinks := make([]string, 0, len(events))
		for _, e := range events {
			gcalLinks = append(gcalLinks, services.GoogleCalendarLink(e))
		}

		proposalJSON, _ := json.Marshal(p)
		planID := uuid.New().String()
		if err := h.Store.SavePlan(&database.Plan{
			ID:           planID,
			SearchID:     searchID,
			ProposalJSON: string(proposalJSON),
			ICS:          ics,
		}); err != nil {
			log.Printf("Failed to save plan for %s: %v", p.Destination, err)
		}

		ranked = append(ranked, RankedProposal{
			ProposalView: proposalView(p),
			PlanID:       planID,
			ICS:          ics,
			GcalLinks:    gcalLinks,
			DownloadURL:  "/api/download/" + planID,
		})
	}

	c.JSON(http.StatusOK, ExploreResponse{
		SearchID:  searchID,
		Proposals: ranked,
		Skipped:   skipped,
	})
}

// resolveCandidates picks the candidate destination list: explicit
// destinations win, then AI suggestions, then flight inspiration.
func (h *Handler) resolveCandidates(ctx context.Context, req ExploreRequest, depDay time.Time) []string {
	candidates := make([]string, 0, len(req.Destinations))
	for _, d := range req.Destinations {
		if d = strings.TrimSpace(d); d != "" {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) > 0 {
		return candidates
	}

	if h.AI.Configured() {
		ideas, err := h.AI.SuggestDestinations(ctx, req.Origin, depDay.Month(), req.Interests, 3)
		if err != nil {
			log.Printf("AI destination suggestion failed: %v", err)
		} else {
			for _, idea := range ideas {
				if idea.IATA != "" {
					candidates = append(candidates, idea.IATA)
				} else {
					candidates = append(candidates, idea.City)
				}
			}
			return candidates
		}
	}

	if h.Amadeus != nil {
		ideas, err := h.Amadeus.InspireDestinations(ctx, req.Origin, int(req.Budget))
		if err != nil {
			log.Printf("Flight inspiration failed: %v", err)
		} else {
			for i, idea := range ideas {
				if i >= 3 {
					break
				}
				candidates = append(candidates, idea.Destination)
			}
		}
	}
	return candidates
}
