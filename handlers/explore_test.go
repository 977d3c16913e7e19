package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/planner"
	"tripplanner/services"
)

func TestExploreRanksCandidates(t *testing.T) {
	r := newTestRouter(newTestHandler(), "")

	w := postJSON(t, r, "/api/explore", ExploreRequest{
		Origin:        "BLQ",
		Destinations:  []string{"Lisbon", "Porto"},
		DepartureDate: "2025-10-18",
		ReturnDate:    "2025-10-21",
		Budget:        500,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ExploreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.SearchID)
	require.Len(t, resp.Proposals, 2)
	assert.Empty(t, resp.Skipped)

	// Identical heuristic pricing for both cities, so the stable ranking
	// keeps the request order.
	assert.Equal(t, "Lisbon", resp.Proposals[0].Destination)
	assert.Equal(t, "Porto", resp.Proposals[1].Destination)

	for _, p := range resp.Proposals {
		assert.NotEmpty(t, p.PlanID)
		assert.Contains(t, p.ICS, "BEGIN:VCALENDAR")
		assert.Equal(t, "/api/download/"+p.PlanID, p.DownloadURL)
		assert.True(t, p.UnderBudget)
	}
}

func TestExploreSkipsFailingCandidates(t *testing.T) {
	h := newTestHandler()
	// Only one city has any transport; the other candidate gets skipped.
	h.Transport = services.TransportProviders{
		Flight: services.TransportChain{{
			Name: "selective",
			Search: func(_ context.Context, origin, dest string, day time.Time, _ int) ([]planner.TransportOption, error) {
				if origin != "Lisbon" && dest != "Lisbon" {
					return nil, nil
				}
				dep := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC)
				return []planner.TransportOption{{
					Mode: planner.ModeFlight, Provider: "TAP",
					Departure: dep, Arrival: dep.Add(2 * time.Hour),
					Price: 80, DurationMin: 120,
				}}, nil
			},
		}},
	}
	r := newTestRouter(h, "")

	w := postJSON(t, r, "/api/explore", ExploreRequest{
		Origin:        "BLQ",
		Destinations:  []string{"Lisbon", "Atlantis"},
		DepartureDate: "2025-10-18",
		ReturnDate:    "2025-10-21",
		Modes:         []string{"flight"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ExploreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Proposals, 1)
	assert.Equal(t, "Lisbon", resp.Proposals[0].Destination)
	assert.Equal(t, []string{"Atlantis"}, resp.Skipped)
}

func TestExploreAllCandidatesFail(t *testing.T) {
	h := newTestHandler()
	h.Transport = services.TransportProviders{}
	r := newTestRouter(h, "")

	w := postJSON(t, r, "/api/explore", ExploreRequest{
		Origin:        "BLQ",
		Destinations:  []string{"Lisbon"},
		DepartureDate: "2025-10-18",
		ReturnDate:    "2025-10-21",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestExploreNoCandidates(t *testing.T) {
	r := newTestRouter(newTestHandler(), "")

	// No explicit destinations and neither suggestion source configured.
	w := postJSON(t, r, "/api/explore", ExploreRequest{
		Origin:        "BLQ",
		DepartureDate: "2025-10-18",
		ReturnDate:    "2025-10-21",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExploreBudgetOrdering(t *testing.T) {
	// Two proposals, only one of which fits the budget: the fitting one must
	// rank first regardless of request order.
	h := newTestHandler()
	h.Transport = services.TransportProviders{
		Flight: services.TransportChain{{
			Name: "priced-by-city",
			Search: func(_ context.Context, origin, dest string, day time.Time, _ int) ([]planner.TransportOption, error) {
				price := 300.0
				if origin == "Cheapville" || dest == "Cheapville" {
					price = 40
				}
				dep := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC)
				return []planner.TransportOption{{
					Mode: planner.ModeFlight, Provider: "Acme Air",
					Departure: dep, Arrival: dep.Add(2 * time.Hour),
					Price: price, DurationMin: 120,
				}}, nil
			},
		}},
	}
	r := newTestRouter(h, "")

	w := postJSON(t, r, "/api/explore", ExploreRequest{
		Origin:        "BLQ",
		Destinations:  []string{"Spendytown", "Cheapville"},
		DepartureDate: "2025-10-18",
		ReturnDate:    "2025-10-21",
		Modes:         []string{"flight"},
		Budget:        400,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ExploreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Proposals, 2)
	assert.Equal(t, "Cheapville", resp.Proposals[0].Destination)
	assert.True(t, resp.Proposals[0].UnderBudget)
	assert.False(t, resp.Proposals[1].UnderBudget)
}
