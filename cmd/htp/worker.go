package main

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
	mq "github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/infra/queue"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume analysis jobs from RabbitMQ",
	Long: `worker runs the analysis pipeline for jobs published by an API started
with analysis.dispatch=rabbitmq. rabbitmq.consumer_size consumers share the
queue, each with rabbitmq.prefetch unacked deliveries.`,
	RunE: runWorker,
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	inj := newContainer()
	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	defer func() { _ = log.Sync() }()

	if cfg.RabbitMQ.URL == "" {
		return errors.New("rabbitmq.url is required to run a worker")
	}
	_, shutdown, err := setupTelemetry(inj)
	if err != nil {
		return err
	}
	defer shutdown()

	conn := do.MustInvoke[*amqp.Connection](inj)
	defer conn.Close()
	runner := do.MustInvoke[*service.PipelineRunner](inj)

	size := max(cfg.RabbitMQ.ConsumerSize, 1)
	g, gctx := errgroup.WithContext(ctx)
	for n := range size {
		consumer, err := mq.NewConsumer(conn, cfg.RabbitMQ.Queue, cfg.RabbitMQ.Prefetch, log, cfg)
		if err != nil {
			return fmt.Errorf("consumer %d: %w", n, err)
		}
		g.Go(func() error {
			defer consumer.Close()
			err := service.ConsumeJobs(gctx, consumer, runner.Run)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	log.Info("analysis workers started", zap.Int("consumers", size), zap.String("queue", cfg.RabbitMQ.Queue))
	return g.Wait()
}
