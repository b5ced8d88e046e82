package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 4 << 20

// HTTPSource queries a remote catalog API: GET {base}/search?q=<query>
// answering {"stores": [...], "products": [...]}.
type HTTPSource struct {
	base      string
	client    *http.Client
	userAgent string
	token     string
}

type HTTPOption func(*HTTPSource)

// WithBearerToken sends an Authorization header on every request.
func WithBearerToken(token string) HTTPOption {
	return func(h *HTTPSource) { h.token = token }
}

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPSource) { h.client = c }
}

func NewHTTPSource(base, userAgent string, timeout time.Duration, opts ...HTTPOption) *HTTPSource {
	h := &HTTPSource{
		base:      strings.TrimRight(base, "/"),
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTPSource) Candidates(ctx context.Context, query string) (Candidates, error) {
	u := h.base + "/search?q=" + url.QueryEscape(strings.TrimSpace(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Candidates{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Candidates{}, fmt.Errorf("fetching candidates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Candidates{}, fmt.Errorf("API request failed: %d", resp.StatusCode)
	}

	var body Candidates
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return Candidates{}, fmt.Errorf("decoding candidates: %w", err)
	}
	// the wire format does not carry the tag; position decides it
	for i := range body.Stores {
		body.Stores[i].Kind = KindStore
	}
	for i := range body.Products {
		body.Products[i].Kind = KindProduct
	}
	return body, nil
}
