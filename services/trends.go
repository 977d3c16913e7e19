package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"os"
	"time"
)

// TrendClient fetches a popularity signal for a destination from a
// news-search endpoint. The signal only nudges proposal ranking, so a
// missing key or a failed call degrades to zero instead of failing the
// request.
type TrendClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewTrendClient(endpoint, apiKey string) *TrendClient {
	if endpoint == "" {
		endpoint = "https://newsapi.org/v2/everything"
	}
	return &TrendClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func TrendsFromEnv() *TrendClient {
	return NewTrendClient(os.Getenv("NEWS_API_URL"), os.Getenv("NEWS_API_KEY"))
}

// Score returns a trend score in [0,1] for a city: article volume over the
// last month, saturating at 20 articles.
func (c *TrendClient) Score(ctx context.Context, city string) float64 {
	if c == nil || c.apiKey == "" {
		return 0
	}

	count, err := c.articleCount(ctx, city)
	if err != nil {
		log.Printf("trend lookup for %s failed: %v", city, err)
		return 0
	}
	return math.Min(1, float64(count)/20)
}

func (c *TrendClient) articleCount(ctx context.Context, city string) (int, error) {
	q := url.Values{}
	q.Set("q", city+" travel")
	q.Set("from", time.Now().AddDate(0, -1, 0).Format("2006-01-02"))
	q.Set("pageSize", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("news API error (%d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		TotalResults int `json:"totalResults"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse news response: %w", err)
	}
	return parsed.TotalResults, nil
}
