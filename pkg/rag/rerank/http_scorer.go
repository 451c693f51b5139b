package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CrossEncoderClient talks to the cross-encoder scoring service over HTTP.
// The service accepts a query plus a batch of passages and returns one
// relevance score per passage.
type CrossEncoderClient struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

var _ Scorer = &CrossEncoderClient{}

func NewCrossEncoderClient(baseURL, model string) *CrossEncoderClient {
	return &CrossEncoderClient{
		BaseURL: baseURL,
		Model:   model,
		Client: &http.Client{
			// The adapter enforces the per-call budget via context;
			// this is only a hard upper bound.
			Timeout: 30 * time.Second,
		},
	}
}

type rerankRequest struct {
	Model    string   `json:"model,omitempty"`
	Query    string   `json:"query"`
	Passages []string `json:"passages"`
}

type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

func (c *CrossEncoderClient) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	payload, err := json.Marshal(rerankRequest{
		Model:    c.Model,
		Query:    query,
		Passages: passages,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/rerank", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rerank response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed rerankResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal rerank response: %w", err)
	}
	if len(parsed.Scores) != len(passages) {
		return nil, fmt.Errorf("rerank returned %d scores for %d passages", len(parsed.Scores), len(passages))
	}

	return parsed.Scores, nil
}
