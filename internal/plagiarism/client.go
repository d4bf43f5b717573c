package plagiarism

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds each remote check.
const DefaultTimeout = 15 * time.Second

// Client checks text against a remote plagiarism service and falls back
// to the local heuristic when the service cannot answer. Providers do not
// agree on a response schema, so the reply is normalized defensively; a
// 2xx reply that yields no recognizable percentage counts as 0% detected
// rather than a failure.
type Client struct {
	name     string
	url      string
	apiKey   string
	client   *http.Client
	fallback Checker
}

var _ Checker = (*Client)(nil)

// ClientConfig describes the remote plagiarism service.
type ClientConfig struct {
	Name    string
	URL     string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a Client. A missing URL or API key is not a
// construction error: every check falls through to the heuristic, which
// keeps the degraded-service behavior in one place.
func NewClient(cfg ClientConfig) *Client {
	name := cfg.Name
	if name == "" {
		name = "plagiarism-api"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		name:     name,
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		fallback: Heuristic{},
	}
}

type checkRequest struct {
	Text string `json:"text"`
}

// Check sends the text to the remote service. Any transport error,
// non-2xx status, or missing configuration routes to the heuristic.
func (c *Client) Check(ctx context.Context, text string) Report {
	report, err := c.checkRemote(ctx, text)
	if err != nil {
		slog.Warn("plagiarism service failed, using heuristic", "service", c.name, "error", err)
		return c.fallback.Check(ctx, text)
	}
	return report
}

func (c *Client) checkRemote(ctx context.Context, text string) (Report, error) {
	if c.url == "" || c.apiKey == "" {
		return Report{}, fmt.Errorf("service %s not configured", c.name)
	}

	body, err := json.Marshal(checkRequest{Text: text})
	if err != nil {
		return Report{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Report{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Report{}, fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Report{}, fmt.Errorf("read response: %w", err)
	}

	percent, sources := normalizeResponse(data)
	return Report{Percent: percent, Sources: sources, Origin: RemoteOrigin(c.name)}, nil
}

// normalizeResponse extracts a percentage and matched sources from
// whatever shape the service returned. Known percentage keys are tried in
// order; "similarity" values in [0, 1] are read as fractions. Junk bodies
// yield 0%.
func normalizeResponse(data []byte) (float64, []string) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, nil
	}

	// Some providers nest the payload under "result".
	if nested, ok := raw["result"].(map[string]any); ok {
		raw = nested
	}

	percent := 0.0
	for _, key := range []string{"plagiarism_percentage", "percentage", "percent", "score"} {
		if v, ok := numericField(raw, key); ok {
			percent = v
			break
		}
	}
	if percent == 0 {
		if v, ok := numericField(raw, "similarity"); ok {
			if v <= 1 {
				v *= 100
			}
			percent = v
		}
	}

	var sources []string
	for _, key := range []string{"sources", "matches"} {
		list, ok := raw[key].([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			switch s := item.(type) {
			case string:
				sources = append(sources, s)
			case map[string]any:
				for _, field := range []string{"url", "source", "title"} {
					if v, ok := s[field].(string); ok && v != "" {
						sources = append(sources, v)
						break
					}
				}
			}
		}
	}

	return clampPercent(percent), sources
}

func numericField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
