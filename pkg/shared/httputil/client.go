// Package httputil holds the small JSON-over-HTTP helpers shared by the search
// providers.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	UserAgent       = "research-bridge/1.0"
	maxErrorBodyLen = 512
	maxBodyBytes    = 8 << 20
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// PostJSON marshals payload as JSON and POSTs it. It returns the response body
// and status code.
func PostJSON(ctx context.Context, url string, headers map[string]string, payload any, timeoutSecs int) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}
	headers = MergeHeaders(headers, map[string]string{"Content-Type": "application/json"})
	return do(ctx, http.MethodPost, url, headers, bytes.NewReader(body), timeoutSecs)
}

// GetJSON sends a GET request and returns the response body and status code.
func GetJSON(ctx context.Context, url string, headers map[string]string, timeoutSecs int) ([]byte, int, error) {
	return do(ctx, http.MethodGet, url, headers, nil, timeoutSecs)
}

func do(ctx context.Context, method, url string, headers map[string]string, body io.Reader, timeoutSecs int) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: time.Duration(timeoutSecs) * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := string(data)
		if len(text) > maxErrorBodyLen {
			text = text[:maxErrorBodyLen] + "..."
		}
		return nil, resp.StatusCode, &StatusError{Status: resp.StatusCode, Body: text}
	}
	return data, resp.StatusCode, nil
}
