package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	ctxrun "ctxrun"
)

// DefaultBaseURL is the Gemini generative-language API root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client streams chat completions from the remote model endpoint. It holds
// no conversation state; callers build one ChatCompletionRequest per call.
type Client struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client

	// Metrics, when set, receives a SSEBytes call per data event decoded.
	Metrics ctxrun.Metrics
}

// NewClient constructs a Client with sensible defaults.
func NewClient(apiKey, model string) *Client {
	return &Client{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{},
	}
}

// Stream opens the streaming endpoint for req and returns a function that
// yields the JSON payload of each data event (one ChatCompletionResponse,
// still undecoded) in arrival order; other event kinds are skipped. The returned
// closer must be called once draining is complete (or abandoned).
func (c *Client) Stream(ctx context.Context, req any) (next func() (string, error), closer func(), err error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, nil, &TransportError{Reason: "marshal request: " + err.Error()}
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.BaseURL, c.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, &TransportError{Reason: "build request: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, nil, &TransportError{Reason: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, nil, &BadResponseError{Body: string(body)}
	}

	dec := NewDecoder(resp.Body)

	next = func() (string, error) {
		for {
			ev, err := dec.Next()
			if err != nil {
				return "", err
			}
			switch ev.Kind {
			case KindData:
				if c.Metrics != nil {
					c.Metrics.SSEBytes(ctx, int64(len(ev.Value)))
				}
				return ev.Value, nil
			default:
				continue
			}
		}
	}
	closer = func() { resp.Body.Close() }
	return next, closer, nil
}

// TransportError reports a TCP/TLS/HTTP-level failure reaching the remote endpoint.
type TransportError struct {
	Reason string
}

func (e *TransportError) Error() string {
	return "sse: transport error: " + e.Reason
}
