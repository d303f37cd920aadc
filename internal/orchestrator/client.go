// Package orchestrator holds the HTTP clients for the external AI
// workflow service and the LaTeX compilation service. The workflow
// itself is an opaque black box; this package only drives its steps
// and relays their outputs.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/paperstudio/backend/internal/models"
)

// checkResp reads the response body and returns an error if the status
// is not 2xx. On error it includes the upstream body for debugging.
func checkResp(resp *http.Response, service, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s %s returned %d: %s", service, path, resp.StatusCode, string(body))
}

// GeneratedSection is one section produced by the writing step.
type GeneratedSection struct {
	Type    models.SectionType `json:"type"`
	Content string             `json:"content"`
}

// ResearchResult is the output of the research step.
type ResearchResult struct {
	Sources []models.Source `json:"sources"`
	Memory  string          `json:"memory"`
}

// WriteResult is the output of the writing step.
type WriteResult struct {
	LatexBody string             `json:"latex_body"`
	Sections  []GeneratedSection `json:"sections"`
}

// Client calls the AI workflow service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: &http.Client{}}
}

// Research calls POST /api/research: web search and source gathering.
func (c *Client) Research(ctx context.Context, topic, preferences string) (*ResearchResult, error) {
	body, _ := json.Marshal(map[string]string{
		"topic": topic, "preferences": preferences,
	})
	resp, err := c.post(ctx, "/api/research", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "ai-service", "/api/research"); err != nil {
		return nil, err
	}

	var result ResearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ai-service /api/research: decode: %w", err)
	}
	return &result, nil
}

// Outline calls POST /api/outline.
func (c *Client) Outline(ctx context.Context, topic string, sources []models.Source) (string, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"topic": topic, "sources": sources,
	})
	resp, err := c.post(ctx, "/api/outline", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "ai-service", "/api/outline"); err != nil {
		return "", err
	}

	var result struct {
		Outline string `json:"outline"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ai-service /api/outline: decode: %w", err)
	}
	return result.Outline, nil
}

// Write calls POST /api/write: drafts the paper body and its sections.
func (c *Client) Write(ctx context.Context, topic, outline string, sources []models.Source) (*WriteResult, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"topic": topic, "outline": outline, "sources": sources,
	})
	resp, err := c.post(ctx, "/api/write", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "ai-service", "/api/write"); err != nil {
		return nil, err
	}

	var result WriteResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ai-service /api/write: decode: %w", err)
	}
	return &result, nil
}

// Format calls POST /api/format: final LaTeX cleanup pass.
func (c *Client) Format(ctx context.Context, latexBody string) (string, error) {
	body, _ := json.Marshal(map[string]string{"latex_body": latexBody})
	resp, err := c.post(ctx, "/api/format", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "ai-service", "/api/format"); err != nil {
		return "", err
	}

	var result struct {
		LatexBody string `json:"latex_body"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ai-service /api/format: decode: %w", err)
	}
	return result.LatexBody, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai-service %s: %w", path, err)
	}
	return resp, nil
}
