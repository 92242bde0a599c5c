// Package runner drives one research run: a pre-flight search, the agent
// crew, and the markdown report written to disk.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/webresearch/research-bridge/pkg/aierrors"
	"github.com/webresearch/research-bridge/pkg/crew"
	"github.com/webresearch/research-bridge/pkg/research"
	"github.com/webresearch/research-bridge/pkg/store"
)

var (
	ErrMissingTopic    = errors.New("Missing topic")
	ErrNoSearchResults = errors.New("Search tool did not return any results")
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Searcher runs the pre-flight search.
type Searcher interface {
	SearchAndExtract(ctx context.Context, query string, numResults int) research.ResultSet
}

// Crew produces the report.
type Crew interface {
	Kickoff(ctx context.Context, inputs map[string]string, observer func(crew.Event)) (*crew.Output, error)
}

// RunStore records run history.
type RunStore interface {
	Create(ctx context.Context, topic, trigger string) (*store.Run, error)
	Finish(ctx context.Context, id string, result store.Result) error
}

// Request starts a run.
type Request struct {
	Topic string
	// Trigger records who started the run: api, cli, schedule.
	Trigger  string
	Observer func(Event)
}

// Outcome is the result handed back to API callers.
type Outcome struct {
	Status     string `json:"status"`
	RawOutput  string `json:"rawOutput,omitempty"`
	OutputFile string `json:"outputFile,omitempty"`
	Error      string `json:"error,omitempty"`
	RunID      string `json:"runId,omitempty"`
}

// Runner executes research runs. It is safe for concurrent use.
type Runner struct {
	searcher Searcher
	crew     Crew
	store    RunStore
	cfg      *Config
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a runner. runs may be nil to skip history.
func New(searcher Searcher, c Crew, runs RunStore, cfg *Config, log zerolog.Logger) *Runner {
	return &Runner{
		searcher: searcher,
		crew:     c,
		store:    runs,
		cfg:      cfg.WithDefaults(),
		log:      log.With().Str("component", "runner").Logger(),
		now:      time.Now,
	}
}

// Run validates the topic and executes the run. A blank topic returns
// ErrMissingTopic and no outcome. Every other failure returns an error
// outcome together with the cause.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, ErrMissingTopic
	}
	emit := req.Observer
	if emit == nil {
		emit = func(Event) {}
	}
	notify := func(stage Stage, format string, args ...any) {
		emit(Event{Stage: stage, Message: fmt.Sprintf(format, args...), Time: r.now()})
	}
	log := r.log.With().Str("topic", topic).Logger()

	var runID string
	if r.store != nil {
		run, err := r.store.Create(ctx, topic, req.Trigger)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to record run start")
		} else {
			runID = run.ID
			log = log.With().Str("run_id", runID).Logger()
		}
	}

	var sources []string
	fail := func(err error) (*Outcome, error) {
		message := aierrors.FormatUserFacingError(err)
		log.Error().Err(err).Str("error_code", string(aierrors.Classify(err))).Msg("Research run failed")
		notify(StageFailed, "%s", message)
		r.finish(ctx, runID, store.Result{
			Status:    store.StatusError,
			Error:     message,
			ErrorCode: string(aierrors.Classify(err)),
			Sources:   sources,
		})
		return &Outcome{Status: StatusError, Error: message, RunID: runID}, err
	}

	notify(StagePreflight, "Testing web search for %q", topic)
	log.Info().Int("num_results", r.cfg.PreflightResults).Msg("Running pre-flight search")
	preflight := r.searcher.SearchAndExtract(ctx, topic, r.cfg.PreflightResults)
	if len(preflight) == 0 {
		return fail(ErrNoSearchResults)
	}
	sources = preflight.URLs()
	log.Info().Strs("sources", sources).Msg("Pre-flight search succeeded")
	notify(StagePreflightDone, "Found %d usable sources", len(preflight))

	log.Info().Msg("Starting research crew")
	output, err := r.crew.Kickoff(ctx, map[string]string{"topic": topic}, func(e crew.Event) {
		emit(crewEvent(e, r.now()))
	})
	if err != nil {
		return fail(err)
	}

	notify(StageWriting, "Saving research summary")
	outputFile, err := r.writeSummary(output.Raw)
	if err != nil {
		return fail(err)
	}
	log.Info().Str("output_file", outputFile).Msg("Research summary saved")

	r.finish(ctx, runID, store.Result{Status: store.StatusSuccess, OutputFile: outputFile, Sources: sources})
	notify(StageDone, "Research summary saved: %s", outputFile)
	return &Outcome{
		Status:     StatusSuccess,
		RawOutput:  output.Raw,
		OutputFile: outputFile,
		RunID:      runID,
	}, nil
}

func (r *Runner) finish(ctx context.Context, runID string, result store.Result) {
	if r.store == nil || runID == "" {
		return
	}
	// Record the result even when the run was canceled.
	ctx = context.WithoutCancel(ctx)
	if err := r.store.Finish(ctx, runID, result); err != nil {
		r.log.Warn().Err(err).Str("run_id", runID).Msg("Failed to record run result")
	}
}

// writeSummary writes the report to research_summary_<timestamp>.md. A second
// run within the same second gets a numeric suffix instead of overwriting.
func (r *Runner) writeSummary(content string) (string, error) {
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	base := "research_summary_" + r.now().Format(summaryTimeLayout)
	for attempt := 0; attempt < 100; attempt++ {
		name := base + ".md"
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d.md", base, attempt)
		}
		path := filepath.Join(r.cfg.OutputDir, name)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		} else if err != nil {
			return "", fmt.Errorf("create summary file: %w", err)
		}
		_, writeErr := file.WriteString(content)
		closeErr := file.Close()
		if err := errors.Join(writeErr, closeErr); err != nil {
			return "", fmt.Errorf("write summary file: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free summary file name for %s", base)
}
