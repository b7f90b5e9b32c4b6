package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// Analysis pipeline metrics
	analysisStageDuration metric.Float64Histogram
	analysisOutcomeCount  metric.Int64Counter

	// Chat metrics
	chatTurnCount  metric.Int64Counter
	chatTokenCount metric.Int64Counter
)

// initPipelineMetrics creates the analysis and chat instruments on mp.
func initPipelineMetrics(mp metric.MeterProvider) error {
	meter := mp.Meter("htp.pipeline")

	var err error

	analysisStageDuration, err = meter.Float64Histogram(
		"analysis.stage.duration",
		metric.WithDescription("Duration of analysis pipeline stages"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	analysisOutcomeCount, err = meter.Int64Counter(
		"analysis.outcome.count",
		metric.WithDescription("Finished analysis jobs by outcome"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return err
	}

	chatTurnCount, err = meter.Int64Counter(
		"chat.turn.count",
		metric.WithDescription("Chat turns answered"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return err
	}

	chatTokenCount, err = meter.Int64Counter(
		"chat.tokens",
		metric.WithDescription("LLM tokens spent on chat turns"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordStage records one pipeline stage run
func RecordStage(ctx context.Context, stage string, durationMs float64, err error) {
	if analysisStageDuration == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	analysisStageDuration.Record(ctx, durationMs,
		metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("status", status),
		),
	)
}

// RecordAnalysisOutcome counts a finished job: completed, failed or cancelled
func RecordAnalysisOutcome(ctx context.Context, outcome string) {
	if analysisOutcomeCount != nil {
		analysisOutcomeCount.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// RecordChatTurn counts a chat turn and its token usage
func RecordChatTurn(ctx context.Context, personaID int, fallback bool, inputTokens, outputTokens int, estimated bool) {
	attrs := metric.WithAttributes(
		attribute.Int("persona_id", personaID),
		attribute.Bool("fallback", fallback),
	)
	if chatTurnCount != nil {
		chatTurnCount.Add(ctx, 1, attrs)
	}
	if chatTokenCount != nil {
		chatTokenCount.Add(ctx, int64(inputTokens),
			metric.WithAttributes(attribute.String("direction", "input"), attribute.Bool("estimated", estimated)))
		chatTokenCount.Add(ctx, int64(outputTokens),
			metric.WithAttributes(attribute.String("direction", "output"), attribute.Bool("estimated", estimated)))
	}
}
