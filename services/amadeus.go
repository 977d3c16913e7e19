package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"tripplanner/planner"
)

// ─── Token source ─────────────────────────────────────────────────────────────

// TokenSource supplies a bearer token for provider calls. Injected into the
// client so tests can use a static token instead of process-wide state.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token. Test use only.
type StaticTokenSource struct {
	Value string
}

func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	return s.Value, nil
}

// ClientCredentialsSource caches an OAuth2 client-credentials token until
// shortly before expiry. Concurrent callers may race to refresh an expired
// token; the refresh is idempotent so the redundant request is harmless.
type ClientCredentialsSource struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewClientCredentialsSource(clientID, clientSecret, tokenURL string, httpClient *http.Client) *ClientCredentialsSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ClientCredentialsSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		httpClient:   httpClient,
	}
}

func (s *ClientCredentialsSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	token, expiry := s.token, s.expiry
	s.mu.Unlock()

	if token != "" && time.Now().Before(expiry) {
		return token, nil
	}
	return s.refresh(ctx)
}

func (s *ClientCredentialsSource) refresh(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	s.mu.Lock()
	s.token = result.AccessToken
	// Refresh 30s early so in-flight requests don't carry a stale token.
	s.expiry = time.Now().Add(time.Duration(result.ExpiresIn-30) * time.Second)
	s.mu.Unlock()

	return result.AccessToken, nil
}

// ─── Amadeus client ───────────────────────────────────────────────────────────

type AmadeusClient struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

func NewAmadeusClient(baseURL string, tokens TokenSource, httpClient *http.Client) *AmadeusClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &AmadeusClient{baseURL: baseURL, tokens: tokens, httpClient: httpClient}
}

// AmadeusFromEnv builds a client from AMADEUS_* env vars, or returns nil when
// credentials are absent so callers fall back to heuristic sources.
func AmadeusFromEnv() *AmadeusClient {
	clientID := os.Getenv("AMADEUS_CLIENT_ID")
	clientSecret := os.Getenv("AMADEUS_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Println("AMADEUS_CLIENT_ID or AMADEUS_CLIENT_SECRET not set — live search disabled")
		return nil
	}

	baseURL := "https://api.amadeus.com"
	if env := os.Getenv("AMADEUS_ENV"); env == "" || env == "test" {
		baseURL = "https://test.api.amadeus.com"
	}

	tokens := NewClientCredentialsSource(clientID, clientSecret, baseURL+"/v1/security/oauth2/token", nil)
	return NewAmadeusClient(baseURL, tokens, nil)
}

func (c *AmadeusClient) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("amadeus error (%d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// ─── Flight search ────────────────────────────────────────────────────────────

// SearchFlights queries one-way flight offers for a single leg. Outbound and
// return legs are independent searches.
func (c *AmadeusClient) SearchFlights(ctx context.Context, origin, destination, departureDate string, adults int) ([]planner.TransportOption, error) {
	path := fmt.Sprintf(
		"/v2/shopping/flight-offers?originLocationCode=%s&destinationLocationCode=%s"+
			"&departureDate=%s&adults=%d&max=6&currencyCode=EUR",
		url.QueryEscape(origin),
		url.QueryEscape(destination),
		url.QueryEscape(departureDate),
		adults,
	)

	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, fmt.Errorf("flight search failed: %w", err)
	}
	return parseFlightOffers(body)
}

type amadeusFlightOffersResponse struct {
	Data []struct {
		Price struct {
			GrandTotal string `json:"grandTotal"`
		} `json:"price"`
		Itineraries []struct {
			Duration string `json:"duration"`
			Segments []struct {
				Departure struct {
					IataCode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"departure"`
				Arrival struct {
					IataCode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"arrival"`
				CarrierCode string `json:"carrierCode"`
			} `json:"segments"`
		} `json:"itineraries"`
		ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
	} `json:"data"`
}

func parseFlightOffers(data []byte) ([]planner.TransportOption, error) {
	var resp amadeusFlightOffersResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse flight offers: %w", err)
	}

	options := make([]planner.TransportOption, 0, len(resp.Data))
	for _, offer := range resp.Data {
		if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
			continue
		}
		price := parsePrice(offer.Price.GrandTotal)
		if price <= 0 {
			continue
		}

		it := offer.Itineraries[0]
		first := it.Segments[0]
		last := it.Segments[len(it.Segments)-1]

		dep, errDep := time.Parse("2006-01-02T15:04:05", first.Departure.At)
		arr, errArr := time.Parse("2006-01-02T15:04:05", last.Arrival.At)
		if errDep != nil || errArr != nil {
			continue
		}

		airlineCode := first.CarrierCode
		if airlineCode == "" && len(offer.ValidatingAirlineCodes) > 0 {
			airlineCode = offer.ValidatingAirlineCodes[0]
		}

		transfers := len(it.Segments) - 1
		notes := "Direct"
		if transfers > 0 {
			notes = fmt.Sprintf("%d stop(s) via %s", transfers, first.Arrival.IataCode)
		}

		options = append(options, planner.TransportOption{
			Mode:        planner.ModeFlight,
			Provider:    airlineName(airlineCode),
			Departure:   dep,
			Arrival:     arr,
			Price:       price,
			DurationMin: isoDurationMinutes(it.Duration),
			Transfers:   transfers,
			Notes:       notes,
		})
	}
	return options, nil
}

// ─── Hotel search ─────────────────────────────────────────────────────────────

// SearchHotels queries hotel offers for a city: hotel list first, then offers
// for up to 20 hotel IDs.
func (c *AmadeusClient) SearchHotels(ctx context.Context, cityCode, checkIn, checkOut string, adults, nights int) ([]planner.LodgingOption, error) {
	hotelIDs, err := c.hotelIDsByCity(ctx, cityCode)
	if err != nil {
		return nil, fmt.Errorf("hotel list failed: %w", err)
	}
	if len(hotelIDs) == 0 {
		return nil, fmt.Errorf("no hotels found for city %s", cityCode)
	}
	if len(hotelIDs) > 20 {
		hotelIDs = hotelIDs[:20]
	}
	return c.hotelOffers(ctx, hotelIDs, checkIn, checkOut, adults, nights)
}

type amadeusHotelListResponse struct {
	Data []struct {
		HotelID string `json:"hotelId"`
		Name    string `json:"name"`
	} `json:"data"`
}

func (c *AmadeusClient) hotelIDsByCity(ctx context.Context, cityCode string) ([]string, error) {
	// Hotel search wants city codes, not airport codes.
	path := fmt.Sprintf("/v1/reference-data/locations/hotels/by-city?cityCode=%s&radius=5&radiusUnit=KM&hotelSource=ALL",
		url.QueryEscape(airportToCity(cityCode)))

	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var resp amadeusHotelListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse hotel list: %w", err)
	}

	ids := make([]string, 0, len(resp.Data))
	for _, h := range resp.Data {
		ids = append(ids, h.HotelID)
	}
	return ids, nil
}

type amadeusHotelOffersResponse struct {
	Data []struct {
		Hotel struct {
			Name     string `json:"name"`
			CityCode string `json:"cityCode"`
			Address  struct {
				CityName string `json:"cityName"`
			} `json:"address"`
			Rating string `json:"rating"`
		} `json:"hotel"`
		Available bool `json:"available"`
		Offers    []struct {
			Price struct {
				Total string `json:"total"`
			} `json:"price"`
		} `json:"offers"`
	} `json:"data"`
}

func (c *AmadeusClient) hotelOffers(ctx context.Context, hotelIDs []string, checkIn, checkOut string, adults, nights int) ([]planner.LodgingOption, error) {
	path := fmt.Sprintf("/v3/shopping/hotel-offers?hotelIds=%s&checkInDate=%s&checkOutDate=%s&adults=%d&roomQuantity=1&currency=EUR&bestRateOnly=true",
		url.QueryEscape(strings.Join(hotelIDs, ",")),
		url.QueryEscape(checkIn),
		url.QueryEscape(checkOut),
		adults,
	)

	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, fmt.Errorf("hotel offers failed: %w", err)
	}

	var resp amadeusHotelOffersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse hotel offers: %w", err)
	}

	if nights < 1 {
		nights = 1
	}

	options := make([]planner.LodgingOption, 0, len(resp.Data))
	for _, item := range resp.Data {
		if !item.Available || len(item.Offers) == 0 {
			continue
		}
		total := parsePrice(item.Offers[0].Price.Total)
		if total <= 0 {
			continue
		}
		location := item.Hotel.Address.CityName
		if location == "" {
			location = item.Hotel.CityCode
		}
		options = append(options, planner.LodgingOption{
			Name:          item.Hotel.Name,
			Location:      location,
			PricePerNight: total / float64(nights),
			Rating:        parseRating(item.Hotel.Rating),
		})
	}
	return options, nil
}

// ─── Destination inspiration ──────────────────────────────────────────────────

type Inspiration struct {
	Destination string  `json:"destination"`
	Price       float64 `json:"price"`
}

// InspireDestinations queries the flight-inspiration endpoint for cheap
// destinations out of an origin, used when an exploration request names no
// destinations and AI suggestions are unavailable.
func (c *AmadeusClient) InspireDestinations(ctx context.Context, origin string, maxPrice int) ([]Inspiration, error) {
	path := "/v1/shopping/flight-destinations?origin=" + url.QueryEscape(origin)
	if maxPrice > 0 {
		path += "&maxPrice=" + strconv.Itoa(maxPrice)
	}

	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, fmt.Errorf("inspiration search failed: %w", err)
	}

	var resp struct {
		Data []struct {
			Destination string `json:"destination"`
			Price       struct {
				Total string `json:"total"`
			} `json:"price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse inspiration response: %w", err)
	}

	ideas := make([]Inspiration, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.Destination == "" {
			continue
		}
		ideas = append(ideas, Inspiration{Destination: d.Destination, Price: parsePrice(d.Price.Total)})
	}
	return ideas, nil
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// isoDurationMinutes converts an ISO 8601 duration (PT5H30M) to minutes.
func isoDurationMinutes(iso string) int {
	iso = strings.TrimPrefix(iso, "PT")
	minutes := 0
	if hIdx := strings.Index(iso, "H"); hIdx >= 0 {
		if h, err := strconv.Atoi(iso[:hIdx]); err == nil {
			minutes += h * 60
		}
		iso = iso[hIdx+1:]
	}
	if mIdx := strings.Index(iso, "M"); mIdx >= 0 {
		if m, err := strconv.Atoi(iso[:mIdx]); err == nil {
			minutes += m
		}
	}
	return minutes
}

func parsePrice(s string) float64 {
	var price float64
	fmt.Sscanf(s, "%f", &price)
	return price
}

func parseRating(s string) float64 {
	if s == "" {
		return 4.0
	}
	var r float64
	fmt.Sscanf(s, "%f", &r)
	if r <= 0 {
		return 4.0
	}
	// Star ratings come back 1-5.
	if r > 5 {
		r = 5
	}
	return r
}

// airportToCity maps airport IATA codes to the city codes hotel search wants.
func airportToCity(airport string) string {
	mapping := map[string]string{
		"LHR": "LON", "LGW": "LON", "STN": "LON", "LTN": "LON",
		"CDG": "PAR", "ORY": "PAR",
		"JFK": "NYC", "LGA": "NYC", "EWR": "NYC",
		"FCO": "ROM", "CIA": "ROM",
		"NRT": "TYO", "HND": "TYO",
		"BER": "BER", "SXF": "BER",
		"LIS": "LIS",
		"BLQ": "BLQ",
		"MAD": "MAD",
		"BCN": "BCN",
		"AMS": "AMS",
		"FRA": "FRA",
	}
	if city, ok := mapping[airport]; ok {
		return city
	}
	return airport
}

// airlineName returns the full airline name for an IATA carrier code.
func airlineName(code string) string {
	names := map[string]string{
		"TK": "Turkish Airlines",
		"LH": "Lufthansa",
		"AF": "Air France",
		"BA": "British Airways",
		"EK": "Emirates",
		"QR": "Qatar Airways",
		"FR": "Ryanair",
		"U2": "EasyJet",
		"W6": "Wizz Air",
		"TP": "TAP Air Portugal",
		"VY": "Vueling",
		"KL": "KLM",
		"IB": "Iberia",
		"AZ": "ITA Airways",
		"OS": "Austrian Airlines",
		"LX": "Swiss International Air Lines",
		"SQ": "Singapore Airlines",
		"NH": "ANA",
		"JL": "Japan Airlines",
		"UA": "United Airlines",
		"AA": "American Airlines",
		"DL": "Delta Air Lines",
	}
	if name, ok := names[code]; ok {
		return name
	}
	if code != "" {
		return code + " Airlines"
	}
	return "Unknown Airline"
}
