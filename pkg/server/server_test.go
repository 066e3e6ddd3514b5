package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/gestalt/pkg/buildinfo"
	"github.com/matzehuels/gestalt/pkg/config"
	"github.com/matzehuels/gestalt/pkg/errors"
	"github.com/matzehuels/gestalt/pkg/pipeline"
)

const scenarioA = `{
  "session_id": "s-1",
  "content_blocks": [
    {"block_id": "h1", "type": "heading", "level": 1, "sequence": 0, "text": "Introduction"},
    {"block_id": "p1", "type": "paragraph", "sequence": 1, "text": "A short opening paragraph."}
  ],
  "design_intent": {"purpose": "report"},
  "constraints": {"max_pages_or_slides": 5, "density": "balanced"}
}`

const scenarioAYAML = `
session_id: s-1
content_blocks:
  - block_id: h1
    type: heading
    level: 1
    sequence: 0
    text: Introduction
  - block_id: p1
    type: paragraph
    sequence: 1
    text: A short opening paragraph.
design_intent:
  purpose: report
constraints:
  max_pages_or_slides: 5
  density: balanced
`

func newTestServer(t *testing.T, cfg config.ServerConfig) *httptest.Server {
	t.Helper()
	r := pipeline.NewRunner(pipeline.Options{})
	t.Cleanup(func() { _ = r.Close() })
	ts := httptest.NewServer(New(r, cfg, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, contentType, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/layouts", contentType, strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestComposeLayout(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	resp := post(t, ts, "application/json", scenarioA)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Gestalt-Cache"); got != "miss" {
		t.Errorf("X-Gestalt-Cache = %q, want miss", got)
	}
	var body LayoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Layout == nil || len(body.Layout.Pages) != 1 {
		t.Fatalf("layout = %+v, want one page", body.Layout)
	}
	if body.Fingerprint == "" || body.Layout.SourceFingerprint != body.Fingerprint {
		t.Errorf("fingerprint %q, spec fingerprint %q", body.Fingerprint, body.Layout.SourceFingerprint)
	}
	if body.Advisory != nil {
		t.Errorf("advisory = %+v, want none without an advisor", body.Advisory)
	}

	again := post(t, ts, "application/json", scenarioA)
	if got := again.Header.Get("X-Gestalt-Cache"); got != "hit" {
		t.Errorf("second request X-Gestalt-Cache = %q, want hit", got)
	}
}

func TestComposeLayoutYAML(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	jsonResp := post(t, ts, "application/json", scenarioA)
	yamlResp := post(t, ts, "application/yaml", scenarioAYAML)
	if yamlResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", yamlResp.StatusCode)
	}
	if a, b := jsonResp.Header.Get("X-Gestalt-Fingerprint"), yamlResp.Header.Get("X-Gestalt-Fingerprint"); a != b {
		t.Errorf("JSON and YAML fingerprints differ: %s vs %s", a, b)
	}
}

func TestComposeLayoutErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		code     errors.Code
		kind     string
		maxBytes int64
	}{
		{
			name:   "malformed json",
			body:   `{"content_blocks": [`,
			status: http.StatusBadRequest,
			code:   errors.ErrCodeInvalidInput,
		},
		{
			name:   "empty document",
			body:   `{"content_blocks": [], "design_intent": {"purpose": "report"}}`,
			status: http.StatusUnprocessableEntity,
			code:   errors.ErrCodeValidation,
			kind:   "EmptyDocument",
		},
		{
			name:   "unknown kind",
			body:   `{"content_blocks": [{"block_id": "x", "type": "table", "sequence": 0, "text": "t"}], "design_intent": {"purpose": "report"}}`,
			status: http.StatusUnprocessableEntity,
			code:   errors.ErrCodeNormalization,
		},
		{
			name:     "body too large",
			body:     scenarioA,
			status:   http.StatusBadRequest,
			code:     errors.ErrCodeInvalidInput,
			maxBytes: 16,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, config.ServerConfig{MaxBodySize: tt.maxBytes})
			resp := post(t, ts, "application/json", tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body ErrorBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != string(tt.code) {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.code)
			}
			if tt.kind != "" && body.Error.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", body.Error.Kind, tt.kind)
			}
		})
	}
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/version")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var info buildinfo.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.SchemaVersion == "" {
		t.Error("version response has no schema version")
	}
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{CORSOrigins: []string{"https://studio.example.com"}})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/v1/layouts", nil)
	req.Header.Set("Origin", "https://studio.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://studio.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeNormalization, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeValidation, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeOverflowUnrepairable, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeInvalidInput, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInternal, "x"), http.StatusInternalServerError},
		{http.ErrBodyNotAllowed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
