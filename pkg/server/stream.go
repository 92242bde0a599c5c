package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/webresearch/research-bridge/pkg/runner"
)

// StreamMessage is one websocket frame of /run_research/stream. Progress
// frames carry Event; the last frame carries Outcome.
type StreamMessage struct {
	Type    string          `json:"type"`
	Event   *runner.Event   `json:"event,omitempty"`
	Outcome *runner.Outcome `json:"outcome,omitempty"`
}

const (
	streamTypeEvent   = "event"
	streamTypeOutcome = "outcome"
)

// streamPath is served outside gin: gin marks the response written before
// websocket.Accept can hijack the connection.
const streamPath = "/run_research/stream"

// handleRunResearchStream runs research for ?topic= and streams progress over
// a websocket. Closing the socket cancels the run.
func (s *Server) handleRunResearchStream(w http.ResponseWriter, r *http.Request) {
	requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)
	log := s.log.With().Str("request_id", requestID).Logger()
	start := time.Now()

	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errorBody(runner.ErrMissingTopic.Error()))
		log.Info().Str("path", r.URL.Path).Int("status", http.StatusBadRequest).Msg("HTTP request")
		return
	}
	conn, err := websocket.Accept(w, r, s.acceptOptions())
	if err != nil {
		// Accept already wrote the error response.
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to accept websocket")
		return
	}
	defer conn.CloseNow()

	// Nothing is read from the client; CloseRead cancels ctx when it goes away.
	ctx := conn.CloseRead(log.WithContext(r.Context()))

	outcome, err := s.runner.Run(ctx, runner.Request{
		Topic:   topic,
		Trigger: triggerAPI,
		Observer: func(evt runner.Event) {
			if err := wsjson.Write(ctx, conn, StreamMessage{Type: streamTypeEvent, Event: &evt}); err != nil {
				log.Debug().Err(err).Msg("Failed to write stream event")
			}
		},
	})
	if outcome == nil {
		outcome = &runner.Outcome{Status: runner.StatusError, Error: err.Error()}
	}
	log.Info().
		Str("path", r.URL.Path).
		Str("status", outcome.Status).
		Dur("duration", time.Since(start)).
		Msg("Research stream finished")
	if err := wsjson.Write(ctx, conn, StreamMessage{Type: streamTypeOutcome, Outcome: outcome}); err != nil {
		log.Debug().Err(err).Msg("Failed to write stream outcome")
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) acceptOptions() *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, origin := range s.cfg.CORSOrigins {
		if origin == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			opts.OriginPatterns = append(opts.OriginPatterns, parsed.Host)
		}
	}
	return opts
}
