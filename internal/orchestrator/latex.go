package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// LaTeXClient calls the LaTeX compilation service over HTTP.
type LaTeXClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewLaTeXClient(baseURL string) *LaTeXClient {
	return &LaTeXClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: &http.Client{}}
}

// CompilePDF calls POST /api/compile-pdf and returns raw PDF bytes.
func (c *LaTeXClient) CompilePDF(ctx context.Context, latexBody, title string) ([]byte, error) {
	resp, err := c.post(ctx, "/api/compile-pdf", latexBody, title)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "latex-service", "/api/compile-pdf"); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// CompileTex calls POST /api/compile-tex and returns the .tex source.
func (c *LaTeXClient) CompileTex(ctx context.Context, latexBody, title string) (string, error) {
	resp, err := c.post(ctx, "/api/compile-tex", latexBody, title)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "latex-service", "/api/compile-tex"); err != nil {
		return "", err
	}

	var result struct {
		TexSource string `json:"tex_source"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("latex-service /api/compile-tex: decode: %w", err)
	}
	return result.TexSource, nil
}

func (c *LaTeXClient) post(ctx context.Context, path, latexBody, title string) (*http.Response, error) {
	body, _ := json.Marshal(map[string]string{
		"latex_body": latexBody, "title": title,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("latex-service %s: %w", path, err)
	}
	return resp, nil
}
