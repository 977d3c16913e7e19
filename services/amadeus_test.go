package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/planner"
)

const flightOffersFixture = `{
  "data": [
    {
      "price": {"grandTotal": "79.00"},
      "itineraries": [{
        "duration": "PT2H25M",
        "segments": [{
          "departure": {"iataCode": "BLQ", "at": "2025-10-18T08:00:00"},
          "arrival": {"iataCode": "LIS", "at": "2025-10-18T10:25:00"},
          "carrierCode": "TP"
        }]
      }]
    },
    {
      "price": {"grandTotal": "129.00"},
      "itineraries": [{
        "duration": "PT3H40M",
        "segments": [
          {
            "departure": {"iataCode": "BLQ", "at": "2025-10-18T09:00:00"},
            "arrival": {"iataCode": "FRA", "at": "2025-10-18T10:20:00"},
            "carrierCode": "LH"
          },
          {
            "departure": {"iataCode": "FRA", "at": "2025-10-18T11:10:00"},
            "arrival": {"iataCode": "LIS", "at": "2025-10-18T12:40:00"},
            "carrierCode": "LH"
          }
        ]
      }]
    },
    {
      "price": {"grandTotal": "0"},
      "itineraries": [{
        "duration": "PT2H",
        "segments": [{
          "departure": {"iataCode": "BLQ", "at": "2025-10-18T08:00:00"},
          "arrival": {"iataCode": "LIS", "at": "2025-10-18T10:00:00"},
          "carrierCode": "FR"
        }]
      }]
    }
  ]
}`

func TestSearchFlightsParsesOffers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.RawQuery, "originLocationCode=BLQ")
		fmt.Fprint(w, flightOffersFixture)
	}))
	defer srv.Close()

	c := NewAmadeusClient(srv.URL, StaticTokenSource{Value: "test-token"}, nil)
	options, err := c.SearchFlights(context.Background(), "BLQ", "LIS", "2025-10-18", 1)
	require.NoError(t, err)

	// Zero-priced offers are dropped.
	require.Len(t, options, 2)

	direct := options[0]
	assert.Equal(t, planner.ModeFlight, direct.Mode)
	assert.Equal(t, "TAP Air Portugal", direct.Provider)
	assert.Equal(t, 79.0, direct.Price)
	assert.Equal(t, 145, direct.DurationMin)
	assert.Equal(t, 0, direct.Transfers)
	assert.Equal(t, "Direct", direct.Notes)
	assert.Equal(t, time.Date(2025, 10, 18, 8, 0, 0, 0, time.UTC), direct.Departure)

	oneStop := options[1]
	assert.Equal(t, "Lufthansa", oneStop.Provider)
	assert.Equal(t, 1, oneStop.Transfers)
	assert.Equal(t, 220, oneStop.DurationMin)
	assert.Contains(t, oneStop.Notes, "via FRA")
}

func TestSearchFlightsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"detail":"quota exceeded"}]}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewAmadeusClient(srv.URL, StaticTokenSource{Value: "t"}, nil)
	_, err := c.SearchFlights(context.Background(), "BLQ", "LIS", "2025-10-18", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSearchHotelsTwoStepFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "by-city"):
			// Airport code LIS maps straight through to the city code.
			assert.Contains(t, r.URL.RawQuery, "cityCode=LIS")
			fmt.Fprint(w, `{"data":[{"hotelId":"HLLIS001","name":"Hotel A"},{"hotelId":"HLLIS002","name":"Hotel B"}]}`)
		case strings.Contains(r.URL.Path, "hotel-offers"):
			assert.Contains(t, r.URL.RawQuery, "HLLIS001")
			fmt.Fprint(w, `{"data":[
				{"hotel":{"name":"Hotel A","cityCode":"LIS","address":{"cityName":"Lisbon"},"rating":"4"},
				 "available":true,"offers":[{"price":{"total":"255.00"}}]},
				{"hotel":{"name":"Hotel B","cityCode":"LIS","address":{},"rating":""},
				 "available":false,"offers":[{"price":{"total":"100.00"}}]}
			]}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewAmadeusClient(srv.URL, StaticTokenSource{Value: "t"}, nil)
	options, err := c.SearchHotels(context.Background(), "LIS", "2025-10-18", "2025-10-21", 2, 3)
	require.NoError(t, err)

	// Unavailable hotels are dropped; prices are per-night.
	require.Len(t, options, 1)
	assert.Equal(t, "Hotel A", options[0].Name)
	assert.Equal(t, "Lisbon", options[0].Location)
	assert.Equal(t, 85.0, options[0].PricePerNight)
	assert.Equal(t, 4.0, options[0].Rating)
}

func TestInspireDestinations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "origin=BLQ")
		fmt.Fprint(w, `{"data":[
			{"destination":"LIS","price":{"total":"79.00"}},
			{"destination":"MAD","price":{"total":"65.00"}},
			{"destination":"","price":{"total":"10.00"}}
		]}`)
	}))
	defer srv.Close()

	c := NewAmadeusClient(srv.URL, StaticTokenSource{Value: "t"}, nil)
	ideas, err := c.InspireDestinations(context.Background(), "BLQ", 100)
	require.NoError(t, err)

	require.Len(t, ideas, 2)
	assert.Equal(t, "LIS", ideas[0].Destination)
	assert.Equal(t, 65.0, ideas[1].Price)
}

func TestClientCredentialsSourceCachesToken(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		fmt.Fprint(w, `{"access_token":"tok-1","expires_in":1800}`)
	}))
	defer srv.Close()

	src := NewClientCredentialsSource("id", "secret", srv.URL, nil)

	for i := 0; i < 5; i++ {
		token, err := src.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
	}

	assert.Equal(t, int32(1), calls.Load(), "token is cached until expiry")
}

func TestClientCredentialsSourceRefreshFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	src := NewClientCredentialsSource("id", "bad", srv.URL, nil)
	_, err := src.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_client")
}

func TestIsoDurationMinutes(t *testing.T) {
	assert.Equal(t, 145, isoDurationMinutes("PT2H25M"))
	assert.Equal(t, 120, isoDurationMinutes("PT2H"))
	assert.Equal(t, 50, isoDurationMinutes("PT50M"))
	assert.Equal(t, 0, isoDurationMinutes(""))
}

func TestAirportToCity(t *testing.T) {
	assert.Equal(t, "LON", airportToCity("LHR"))
	assert.Equal(t, "PAR", airportToCity("ORY"))
	assert.Equal(t, "XYZ", airportToCity("XYZ"))
}
