package generator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/linkedin-postgen/internal/ai"
	apperrors "github.com/linkedin-postgen/internal/errors"
	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/pkg/logger"
)

// Stage names reported through the progress callback
type Stage string

const (
	StageOutlining Stage = "outlining"
	StageExpanding Stage = "expanding"
	StageSplitting Stage = "splitting"
	StageDone      Stage = "done"
)

// ProgressFunc receives stage transitions. It runs on the caller's goroutine.
type ProgressFunc func(stage Stage)

// Agent runs the outline -> expand -> split pipeline
type Agent struct {
	writer *ai.Writer
	log    *logger.Logger
}

// NewAgent creates a new generator agent
func NewAgent(writer *ai.Writer, log *logger.Logger) *Agent {
	return &Agent{
		writer: writer,
		log:    log.WithComponent("generator"),
	}
}

// ProviderName returns the name of the completion provider in use
func (a *Agent) ProviderName() string {
	return a.writer.Provider().Name()
}

// Result contains the output of one generation run
type Result struct {
	RunID      string                   `json:"run_id"`
	Request    models.GenerationRequest `json:"request"`
	Outlines   string                   `json:"outlines"`
	Raw        string                   `json:"raw"`
	Collection models.PostCollection    `json:"collection"`
	Duration   time.Duration            `json:"duration"`
}

// Run executes both completion calls in order and splits the result.
// A failure in either call aborts the run and no partial result is returned.
func (a *Agent) Run(ctx context.Context, req models.GenerationRequest, progress ProgressFunc) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid generation request", err)
	}
	if progress == nil {
		progress = func(Stage) {}
	}

	startTime := time.Now()
	runID := uuid.NewString()
	log := a.log.WithRunID(runID)

	log.Info().
		Str("topic", req.Topic).
		Str("tone", string(req.Tone)).
		Str("audience", req.Audience).
		Int("post_count", req.PostCount).
		Msg("Starting generation run")

	progress(StageOutlining)
	outlines, err := a.writer.GenerateOutlines(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("Outline stage failed")
		return nil, apperrors.NewUpstreamError("outline generation failed", err)
	}

	progress(StageExpanding)
	raw, err := a.writer.ExpandOutlinesToPosts(ctx, outlines, req)
	if err != nil {
		log.Error().Err(err).Msg("Expansion stage failed")
		return nil, apperrors.NewUpstreamError("post expansion failed", err)
	}

	progress(StageSplitting)
	collection := models.NewPostCollection(ai.SplitPosts(raw), req.PostCount)
	if collection.Mismatch() {
		log.Warn().
			Int("requested", collection.Requested).
			Int("produced", collection.Count()).
			Msg("Model returned a different number of posts than requested")
	}

	result := &Result{
		RunID:      runID,
		Request:    req,
		Outlines:   outlines,
		Raw:        raw,
		Collection: collection,
		Duration:   time.Since(startTime),
	}
	progress(StageDone)

	log.Info().
		Int("posts", collection.Count()).
		Dur("duration", result.Duration).
		Msg("Generation run completed")

	return result, nil
}
