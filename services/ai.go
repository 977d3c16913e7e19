package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"tripplanner/planner"
)

// AIClient calls the HuggingFace inference API for destination suggestions
// and short trip summaries.
type AIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewAIClient(apiKey, model, baseURL string) *AIClient {
	if model == "" {
		model = "mistralai/Mistral-7B-Instruct-v0.3"
	}
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
	}
	return &AIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func AIFromEnv() *AIClient {
	return NewAIClient(os.Getenv("HUGGINGFACE_API_KEY"), os.Getenv("HF_MODEL"), "")
}

// Configured reports whether an API key is available.
func (c *AIClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfResponse []struct {
	GeneratedText string `json:"generated_text"`
}

func (c *AIClient) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("huggingface API key not configured")
	}

	body, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens:   maxTokens,
			Temperature:    0.6,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusServiceUnavailable {
		return "", fmt.Errorf("AI model is loading, please retry in a few seconds")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("huggingface API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var parsed hfResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse AI response: %w", err)
	}
	if len(parsed) == 0 || parsed[0].GeneratedText == "" {
		return "", fmt.Errorf("empty response from AI")
	}
	return parsed[0].GeneratedText, nil
}

// ─── Destination suggestion ───────────────────────────────────────────────────

type DestinationIdea struct {
	City   string `json:"city"`
	IATA   string `json:"iata"`
	Reason string `json:"reason"`
}

// SuggestDestinations asks the model for n candidate destinations and parses
// the JSON array it was instructed to produce.
func (c *AIClient) SuggestDestinations(ctx context.Context, origin string, month time.Month, interests []string, n int) ([]DestinationIdea, error) {
	if n <= 0 {
		n = 3
	}

	interestNote := ""
	if len(interests) > 0 {
		interestNote = " The travelers are interested in: " + strings.Join(interests, ", ") + "."
	}

	prompt := fmt.Sprintf(`[INST] You are a travel assistant. Suggest %d destinations reachable from %s for a trip in %s.%s
Answer with ONLY a JSON array, no prose, in this exact shape:
[{"city": "Lisbon", "iata": "LIS", "reason": "mild weather and food scene"}] [/INST]`,
		n, origin, month.String(), interestNote)

	text, err := c.generate(ctx, prompt, 300)
	if err != nil {
		return nil, err
	}

	ideas, err := parseDestinationIdeas(text)
	if err != nil {
		return nil, err
	}
	if len(ideas) > n {
		ideas = ideas[:n]
	}
	return ideas, nil
}

// parseDestinationIdeas extracts the first JSON array from model output,
// tolerating prose around it.
func parseDestinationIdeas(text string) ([]DestinationIdea, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in AI response")
	}

	var ideas []DestinationIdea
	if err := json.Unmarshal([]byte(text[start:end+1]), &ideas); err != nil {
		return nil, fmt.Errorf("failed to parse destination suggestions: %w", err)
	}

	kept := ideas[:0]
	for _, idea := range ideas {
		if idea.City == "" && idea.IATA == "" {
			continue
		}
		kept = append(kept, idea)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("AI returned no usable destinations")
	}
	return kept, nil
}

// ─── Trip summary ─────────────────────────────────────────────────────────────

// Summarize produces a short recommendation text for an assembled proposal.
func (c *AIClient) Summarize(ctx context.Context, p planner.Proposal) (string, error) {
	lodgingLine := fmt.Sprintf("estimated €%.0f/night", p.PerNight)
	if p.Lodging != nil {
		lodgingLine = fmt.Sprintf("%s — €%.0f/night, rated %.1f/5 (%d reviews)",
			p.Lodging.Name, p.Lodging.PricePerNight, p.Lodging.Rating, p.Lodging.Reviews)
	}

	budgetLine := "No budget was given."
	if p.Budget > 0 {
		state := "fits"
		if !p.UnderBudget {
			state = "exceeds"
		}
		budgetLine = fmt.Sprintf("The €%.0f total %s the €%.0f budget.", p.Total, state, p.Budget)
	}

	prompt := fmt.Sprintf(`[INST] You are a travel assistant. In 100 words or fewer, summarize this trip plan honestly.

Destination: %s
Outbound: %s %s, €%.0f, %d min, %d transfer(s)
Return: %s %s, €%.0f, %d min, %d transfer(s)
Stay: %s × %d nights
%s [/INST]`,
		p.Destination,
		p.Outbound.Mode, p.Outbound.Provider, p.Outbound.Price, p.Outbound.DurationMin, p.Outbound.Transfers,
		p.Return.Mode, p.Return.Provider, p.Return.Price, p.Return.DurationMin, p.Return.Transfers,
		lodgingLine, p.Nights, budgetLine)

	return c.generate(ctx, prompt, 200)
}

// FallbackSummary is the plain-text summary used when the AI call fails.
func FallbackSummary(p planner.Proposal) string {
	stay := fmt.Sprintf("estimated €%.0f/night", p.PerNight)
	if p.Lodging != nil {
		stay = fmt.Sprintf("%s at €%.0f/night (rated %.1f/5)", p.Lodging.Name, p.Lodging.PricePerNight, p.Lodging.Rating)
	}
	text := fmt.Sprintf("%s by %s, back by %s, staying %d nights: %s. Estimated total €%.0f.",
		p.Destination, p.Outbound.Provider, p.Return.Provider, p.Nights, stay, p.Total)
	if p.Budget > 0 && !p.UnderBudget {
		text += fmt.Sprintf(" Note: this exceeds your €%.0f budget.", p.Budget)
	}
	return text
}
