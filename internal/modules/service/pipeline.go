package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/repo"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/classify"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/detect"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/interpret"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/telemetry"
	"go.uber.org/zap"
)

// AnalysisErrorPrefix starts the summary_text of a failed analysis.
const AnalysisErrorPrefix = "분석 중 오류가 발생했습니다: "

type DetectStage interface {
	Run(ctx context.Context, uniqueID string) (*detect.Result, error)
}

type InterpretStage interface {
	Run(ctx context.Context, uniqueID string, labels []string) (*interpret.Result, error)
}

type ClassifyStage interface {
	Run(ctx context.Context, uniqueID, text string) (classify.Prediction, error)
}

// PipelineRunner executes detection, interpretation and classification for
// one job and writes the result row.
type PipelineRunner struct {
	// NewRepo opens a persistence handle that is not shared with any request.
	NewRepo   func() repo.DrawingRepo
	Detect    DetectStage
	Interpret InterpretStage
	Classify  ClassifyStage
	Log       *zap.Logger
	Now       func() time.Time
}

// errCancelled marks a job whose test was deleted mid-run.
var errCancelled = errors.New("analysis cancelled")

func (p *PipelineRunner) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Run never returns stage errors: they are recorded on the result row. Only
// a failure to write that row is returned.
func (p *PipelineRunner) Run(ctx context.Context, job AnalysisJob) (err error) {
	r := p.NewRepo()
	log := p.Log.With(zap.String("task_id", job.TaskID), zap.Uint("test_id", job.TestID))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("analysis panicked", zap.Any("panic", rec), zap.ByteString("stack", debug.Stack()))
			err = p.writeError(ctx, r, job, fmt.Errorf("%v", rec), log)
		}
	}()

	res, stageErr := p.runStages(ctx, r, job, log)
	switch {
	case errors.Is(stageErr, errCancelled):
		log.Info("analysis cancelled, test was deleted")
		telemetry.RecordAnalysisOutcome(ctx, "cancelled")
		return nil
	case stageErr != nil:
		log.Warn("analysis stage failed", zap.Error(stageErr))
		return p.writeError(ctx, r, job, stageErr, log)
	}

	if err := r.UpsertResult(ctx, res); err != nil {
		telemetry.RecordAnalysisOutcome(ctx, "failed")
		return fmt.Errorf("write result: %w", err)
	}
	telemetry.RecordAnalysisOutcome(ctx, "completed")
	log.Info("analysis completed", zap.Uintp("persona_type", res.PersonaType))
	return nil
}

func (p *PipelineRunner) ensureExists(ctx context.Context, r repo.DrawingRepo, testID uint) error {
	ok, err := r.Exists(ctx, testID)
	if err != nil {
		return fmt.Errorf("check test: %w", err)
	}
	if !ok {
		return errCancelled
	}
	return nil
}

func timed[T any](ctx context.Context, stage string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	telemetry.RecordStage(ctx, stage, float64(time.Since(start).Milliseconds()), err)
	return v, err
}

func (p *PipelineRunner) runStages(ctx context.Context, r repo.DrawingRepo, job AnalysisJob, log *zap.Logger) (*model.DrawingTestResult, error) {
	if err := p.ensureExists(ctx, r, job.TestID); err != nil {
		return nil, err
	}
	det, err := timed(ctx, "detection", func() (*detect.Result, error) { return p.Detect.Run(ctx, job.TaskID) })
	if err != nil {
		return nil, fmt.Errorf("detection: %w", err)
	}

	if err := p.ensureExists(ctx, r, job.TestID); err != nil {
		return nil, err
	}
	interp, err := timed(ctx, "analysis", func() (*interpret.Result, error) {
		return p.Interpret.Run(ctx, job.TaskID, det.Labels)
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}

	if err := p.ensureExists(ctx, r, job.TestID); err != nil {
		return nil, err
	}
	pred, err := timed(ctx, "classification", func() (classify.Prediction, error) {
		return p.Classify.Run(ctx, job.TaskID, interp.RawText)
	})
	if err != nil {
		return nil, fmt.Errorf("classification: %w", err)
	}

	if err := p.ensureExists(ctx, r, job.TestID); err != nil {
		return nil, err
	}

	res := &model.DrawingTestResult{TestID: job.TestID, SummaryText: interp.ResultText, CreatedAt: p.now()}
	if id, ok := pred.PersonaID(); ok {
		pt := uint(id)
		res.PersonaType = &pt
	}
	// A fallback prediction keeps zero scores so readers can tell it from a
	// real uniform distribution.
	if pred.Error == "" {
		res.SetScores(pred.Scores())
	}
	log.Debug("classification mapped",
		zap.String("personality_type", pred.PersonalityType),
		zap.Strings("keywords", pred.InputKeywords))
	return res, nil
}

// writeError records a failed analysis unless the test is gone.
func (p *PipelineRunner) writeError(ctx context.Context, r repo.DrawingRepo, job AnalysisJob, cause error, log *zap.Logger) error {
	if err := p.ensureExists(ctx, r, job.TestID); err != nil {
		if errors.Is(err, errCancelled) {
			telemetry.RecordAnalysisOutcome(ctx, "cancelled")
			return nil
		}
		return err
	}
	res := &model.DrawingTestResult{
		TestID:      job.TestID,
		SummaryText: AnalysisErrorPrefix + cause.Error(),
		CreatedAt:   p.now(),
	}
	if err := r.UpsertResult(ctx, res); err != nil {
		telemetry.RecordAnalysisOutcome(ctx, "failed")
		return fmt.Errorf("write error result: %w", err)
	}
	telemetry.RecordAnalysisOutcome(ctx, "failed")
	log.Info("analysis error recorded", zap.String("summary_text", res.SummaryText))
	return nil
}
