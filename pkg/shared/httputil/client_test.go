package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("X-Key") != "k" {
			t.Fatalf("unexpected headers %v", r.Header)
		}
		if r.Header.Get("User-Agent") != UserAgent {
			t.Fatalf("user agent = %q", r.Header.Get("User-Agent"))
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"echo":"` + body["q"] + `"}`))
	}))
	defer srv.Close()

	data, status, err := PostJSON(context.Background(), srv.URL, map[string]string{"X-Key": "k"}, map[string]string{"q": "solar"}, 5)
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if status != http.StatusOK || string(data) != `{"echo":"solar"}` {
		t.Fatalf("status=%d body=%s", status, data)
	}
}

func TestGetJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(strings.Repeat("x", 600)))
	}))
	defer srv.Close()

	_, status, err := GetJSON(context.Background(), srv.URL, nil, 5)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if status != http.StatusTooManyRequests || statusErr.Status != status {
		t.Fatalf("status=%d err=%v", status, statusErr.Status)
	}
	if !strings.HasSuffix(statusErr.Body, "...") || len(statusErr.Body) != maxErrorBodyLen+3 {
		t.Fatalf("body not truncated: %d", len(statusErr.Body))
	}
}

func TestMergeHeaders(t *testing.T) {
	if MergeHeaders(nil, nil) != nil {
		t.Fatal("expected nil")
	}
	base := map[string]string{"A": "1", "B": "2"}
	got := MergeHeaders(base, map[string]string{"B": "3"})
	if got["A"] != "1" || got["B"] != "3" || base["B"] != "2" {
		t.Fatalf("unexpected merge %v base %v", got, base)
	}
}
