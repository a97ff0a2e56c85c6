package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/model"
)

// HTTPClient calls a sidecar embedding server (an ECAPA-TDNN model behind a
// small HTTP wrapper) that accepts the canonical sample buffer and returns a
// fixed-length vector.
type HTTPClient struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewHTTPClient constructs an extractor client for the given sidecar URL and
// expected embedding dimension.
func NewHTTPClient(baseURL string, dim int, client *http.Client) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClient{baseURL: baseURL, dim: dim, client: client}
}

var _ Extractor = (*HTTPClient)(nil)

type extractRequest struct {
	Samples    []float32 `json:"samples"`
	SampleRate int       `json:"sample_rate"`
}

type extractResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// Extract posts the audio to the sidecar and decodes the embedding.
func (c *HTTPClient) Extract(ctx context.Context, audio model.Audio) (model.Embedding, error) {
	if len(audio.Samples) == 0 {
		return nil, fmt.Errorf("%w: empty audio", errs.ErrExtractionFailed)
	}

	body, err := json.Marshal(extractRequest{Samples: audio.Samples, SampleRate: audio.SampleRate})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrExtractionFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errs.ErrExtractionFailed, resp.StatusCode)
	}

	var er extractResponse
	if err := json.Unmarshal(raw, &er); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrExtractionFailed, err)
	}
	if er.Error != "" {
		return nil, fmt.Errorf("%w: %s", errs.ErrExtractionFailed, er.Error)
	}
	if len(er.Embedding) != c.dim {
		return nil, fmt.Errorf("%w: got %d dims, want %d", errs.ErrExtractionFailed, len(er.Embedding), c.dim)
	}
	return model.Embedding(er.Embedding), nil
}

// Dimension returns the configured embedding dimensionality.
func (c *HTTPClient) Dimension() int { return c.dim }
