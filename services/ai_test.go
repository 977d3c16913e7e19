package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/planner"
)

func TestParseDestinationIdeas(t *testing.T) {
	text := `Sure! Here are some ideas:
[{"city": "Lisbon", "iata": "LIS", "reason": "mild weather"},
 {"city": "Porto", "iata": "OPO", "reason": "wine cellars"}]
Enjoy your trip!`

	ideas, err := parseDestinationIdeas(text)
	require.NoError(t, err)
	require.Len(t, ideas, 2)
	assert.Equal(t, "Lisbon", ideas[0].City)
	assert.Equal(t, "OPO", ideas[1].IATA)
}

func TestParseDestinationIdeasDropsBlankEntries(t *testing.T) {
	ideas, err := parseDestinationIdeas(`[{"city": "", "iata": ""}, {"city": "Seville", "iata": "SVQ"}]`)
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	assert.Equal(t, "Seville", ideas[0].City)
}

func TestParseDestinationIdeasNoArray(t *testing.T) {
	_, err := parseDestinationIdeas("I cannot help with that.")
	assert.Error(t, err)
}

func TestSuggestDestinations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"generated_text": "[{\"city\": \"Valencia\", \"iata\": \"VLC\", \"reason\": \"beaches\"}]"}]`))
	}))
	defer srv.Close()

	client := NewAIClient("test-key", "", srv.URL)
	ideas, err := client.SuggestDestinations(context.Background(), "BLQ", time.October, []string{"food"}, 3)
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	assert.Equal(t, "Valencia", ideas[0].City)
	assert.Equal(t, "VLC", ideas[0].IATA)
}

func TestSuggestDestinationsModelLoading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewAIClient("test-key", "", srv.URL)
	_, err := client.SuggestDestinations(context.Background(), "BLQ", time.October, nil, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading")
}

func TestAIClientUnconfigured(t *testing.T) {
	var nilClient *AIClient
	assert.False(t, nilClient.Configured())

	client := NewAIClient("", "", "")
	assert.False(t, client.Configured())

	_, err := client.Summarize(context.Background(), planner.Proposal{})
	assert.Error(t, err)
}

func TestFallbackSummary(t *testing.T) {
	p := planner.Proposal{
		Destination: "Lisbon",
		Outbound:    planner.TransportOption{Provider: "Ryanair"},
		Return:      planner.TransportOption{Provider: "Ryanair"},
		Lodging:     &planner.LodgingOption{Name: "B&B Panoramico", PricePerNight: 85, Rating: 4.7},
		Nights:      3,
		Total:       333,
		Budget:      300,
		UnderBudget: false,
	}

	text := FallbackSummary(p)
	assert.Contains(t, text, "Lisbon")
	assert.Contains(t, text, "B&B Panoramico")
	assert.Contains(t, text, "exceeds your €300 budget")
}

func TestFallbackSummaryEstimateOnly(t *testing.T) {
	p := planner.Proposal{
		Destination: "Lisbon",
		Outbound:    planner.TransportOption{Provider: "Ryanair"},
		Return:      planner.TransportOption{Provider: "Ryanair"},
		PerNight:    112,
		Nights:      2,
		Total:       302,
	}

	text := FallbackSummary(p)
	assert.Contains(t, text, "estimated €112/night")
	assert.NotContains(t, text, "budget")
}
