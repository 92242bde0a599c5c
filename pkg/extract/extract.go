package extract

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/webresearch/research-bridge/pkg/fetch"
)

// Outcome tags an extraction attempt.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeEmpty  Outcome = "no-content"
	OutcomeFailed Outcome = "error"
)

const (
	ReasonNoHTMLText = "no meaningful text found"
	ReasonNoPDFText  = "no meaningful text found in PDF"
)

// Extraction is the text pulled out of one fetched document. Text is only
// set when Outcome is OutcomeOK; Reason explains the other outcomes.
type Extraction struct {
	Text    string  `json:"text,omitempty"`
	Title   string  `json:"title,omitempty"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// OK reports whether the extraction produced usable text.
func (e Extraction) OK() bool {
	return e.Outcome == OutcomeOK
}

func empty(reason string) Extraction {
	return Extraction{Outcome: OutcomeEmpty, Reason: reason}
}

func failed(format string, args ...any) Extraction {
	return Extraction{Outcome: OutcomeFailed, Reason: fmt.Sprintf(format, args...)}
}

// Extractor turns fetch results into plain text.
type Extractor struct {
	cfg *Config
	log zerolog.Logger
}

func New(cfg *Config, log zerolog.Logger) *Extractor {
	return &Extractor{
		cfg: cfg.WithDefaults(),
		log: log.With().Str("component", "extract").Logger(),
	}
}

// Extract never panics; parser failures are reported as OutcomeFailed.
func (e *Extractor) Extract(result *fetch.Result) (out Extraction) {
	if result == nil {
		return failed("nothing fetched")
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Str("url", result.URL).Interface("panic", r).Msg("Extractor panicked")
			out = failed("parser panic: %v", r)
		}
	}()
	switch result.Kind {
	case fetch.KindPDF:
		out = e.extractPDF(result)
	default:
		out = e.extractHTML(result)
	}
	if !out.OK() {
		e.log.Debug().Str("url", result.URL).Str("outcome", string(out.Outcome)).Str("reason", out.Reason).Msg("Dropping document")
	}
	return out
}
