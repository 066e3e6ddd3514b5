package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/gestalt/pkg/observability"
)

// HTTPAdvisor posts requests as JSON to an inference endpoint and expects a
// [Response] body.
type HTTPAdvisor struct {
	endpoint string
	http     *http.Client
	headers  map[string]string
}

// NewHTTPAdvisor creates an advisor for endpoint. Headers are sent with
// every request; pass nil if none are needed. The overlay's timeout bounds
// each call, so the client itself has only a generous fallback timeout.
func NewHTTPAdvisor(endpoint string, headers map[string]string) *HTTPAdvisor {
	return &HTTPAdvisor{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
		headers:  headers,
	}
}

// Advise sends req and decodes the suggestions.
func (a *HTTPAdvisor) Advise(ctx context.Context, req *Request) ([]Suggestion, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("X-Request-ID", req.RequestID)
	for k, v := range a.headers {
		hreq.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := hreq.URL.Host, hreq.URL.Path
	hooks.OnRequest(ctx, hreq.Method, host, path)
	start := time.Now()

	resp, err := a.http.Do(hreq)
	if err != nil {
		hooks.OnError(ctx, hreq.Method, host, path, err)
		return nil, fmt.Errorf("advisor request: %w", err)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, hreq.Method, host, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("advisor returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode advisor response: %w", err)
	}
	return out.Suggestions, nil
}

var _ Advisor = (*HTTPAdvisor)(nil)
