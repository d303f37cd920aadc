// Package suggest fetches ranked content suggestions from the external
// suggestion service and debounces content-change triggered prefetches.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/paperstudio/backend/internal/apperr"
)

// Suggestion is one ranked content suggestion.
type Suggestion struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Client calls the suggestion service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: &http.Client{}}
}

// Suggest calls POST /api/suggestions with the current section content.
func (c *Client) Suggest(ctx context.Context, content, sectionType string) ([]Suggestion, error) {
	body, _ := json.Marshal(map[string]string{
		"content": content, "section_type": sectionType,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/suggestions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Upstream(err, "suggestion service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, apperr.Upstream(
			fmt.Errorf("suggestion-service /api/suggestions returned %d: %s", resp.StatusCode, string(b)),
			"suggestion service error",
		)
	}

	var result struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperr.Upstream(err, "suggestion service returned invalid response")
	}
	return result.Suggestions, nil
}
