package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Result is the raw payload of one successful download. HTML bodies are held
// in memory; PDF bodies are staged in Artifact. Callers must Close it.
type Result struct {
	URL         string
	FinalURL    string
	Kind        Kind
	Status      int
	ContentType string
	Charset     string // charset parameter of the Content-Type header
	Body        []byte
	Artifact    *Artifact
	TookMs      int64
}

// Close releases the staged artifact, if any.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	return r.Artifact.Remove()
}

// Fetcher downloads candidate URLs.
type Fetcher struct {
	cfg  *Config
	html *http.Client
	pdf  *http.Client
	log  zerolog.Logger
}

// New creates a fetcher. The HTML and PDF paths use separate clients so each
// gets its own timeout.
func New(cfg *Config, log zerolog.Logger) *Fetcher {
	cfg = cfg.WithDefaults()
	f := &Fetcher{
		cfg: cfg,
		log: log.With().Str("component", "fetch").Logger(),
	}
	f.html = f.newClient(cfg.HTMLTimeoutSecs)
	f.pdf = f.newClient(cfg.PDFTimeoutSecs)
	return f
}

func (f *Fetcher) newClient(timeoutSecs int) *http.Client {
	return &http.Client{
		Timeout: time.Duration(timeoutSecs) * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			if reason := checkURL(req.URL, f.cfg.AllowPrivateHosts); reason != "" {
				return errors.New(reason)
			}
			return nil
		},
	}
}

// Fetch downloads rawURL using the strategy picked by KindForURL. Every
// failure is returned as *Error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	kind := KindForURL(rawURL)
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, &Error{URL: rawURL, Kind: kind, Reason: "invalid url", Err: err}
	}
	if reason := checkURL(parsed, f.cfg.AllowPrivateHosts); reason != "" {
		return nil, &Error{URL: rawURL, Kind: kind, Reason: reason}
	}

	start := time.Now()
	var result *Result
	if kind == KindPDF {
		result, err = f.fetchPDF(ctx, parsed.String())
	} else {
		result, err = f.fetchHTML(ctx, parsed.String())
	}
	if err != nil {
		f.log.Debug().Err(err).Str("url", rawURL).Str("kind", string(kind)).Msg("Fetch failed")
		return nil, err
	}
	result.URL = rawURL
	result.TookMs = time.Since(start).Milliseconds()
	f.log.Debug().
		Str("url", rawURL).
		Str("kind", string(kind)).
		Int("status", result.Status).
		Int64("took_ms", result.TookMs).
		Msg("Fetched")
	return result, nil
}

func (f *Fetcher) do(ctx context.Context, client *http.Client, rawURL string, kind Kind, accept string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Kind: kind, Reason: "invalid request", Err: err}
	}
	request.Header.Set("User-Agent", f.cfg.UserAgent)
	request.Header.Set("Accept", accept)

	resp, err := client.Do(request)
	if err != nil {
		return nil, transportError(rawURL, kind, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, statusError(rawURL, kind, resp.StatusCode)
	}
	return resp, nil
}

func (f *Fetcher) fetchHTML(ctx context.Context, rawURL string) (*Result, error) {
	resp, err := f.do(ctx, f.html, rawURL, KindHTML, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxHTMLBytes))
	if err != nil {
		return nil, transportError(rawURL, KindHTML, err)
	}
	return &Result{
		FinalURL:    finalURL(resp, rawURL),
		Kind:        KindHTML,
		Status:      resp.StatusCode,
		ContentType: normalizeContentType(resp.Header.Get("Content-Type")),
		Charset:     contentCharset(resp.Header.Get("Content-Type")),
		Body:        body,
	}, nil
}

func (f *Fetcher) fetchPDF(ctx context.Context, rawURL string) (*Result, error) {
	resp, err := f.do(ctx, f.pdf, rawURL, KindPDF, "application/pdf,*/*;q=0.8")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	file, err := os.CreateTemp(f.cfg.TempDir, "research-*.pdf")
	if err != nil {
		return nil, &Error{URL: rawURL, Kind: KindPDF, Reason: "staging failed", Err: err}
	}
	artifact := &Artifact{Path: file.Name()}

	written, copyErr := io.Copy(file, io.LimitReader(resp.Body, f.cfg.MaxPDFBytes+1))
	closeErr := file.Close()
	switch {
	case copyErr != nil:
		_ = artifact.Remove()
		return nil, transportError(rawURL, KindPDF, copyErr)
	case closeErr != nil:
		_ = artifact.Remove()
		return nil, &Error{URL: rawURL, Kind: KindPDF, Reason: "staging failed", Err: closeErr}
	case written > f.cfg.MaxPDFBytes:
		_ = artifact.Remove()
		return nil, &Error{URL: rawURL, Kind: KindPDF, Status: resp.StatusCode, Reason: fmt.Sprintf("document exceeds %d bytes", f.cfg.MaxPDFBytes)}
	}
	artifact.Size = written

	return &Result{
		FinalURL:    finalURL(resp, rawURL),
		Kind:        KindPDF,
		Status:      resp.StatusCode,
		ContentType: normalizeContentType(resp.Header.Get("Content-Type")),
		Artifact:    artifact,
	}, nil
}

func finalURL(resp *http.Response, fallback string) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return fallback
}

func contentCharset(value string) string {
	if _, params, err := mime.ParseMediaType(value); err == nil {
		return strings.ToLower(params["charset"])
	}
	return ""
}

func normalizeContentType(value string) string {
	if value == "" {
		return "application/octet-stream"
	}
	parts := strings.Split(value, ";")
	return strings.TrimSpace(parts[0])
}
