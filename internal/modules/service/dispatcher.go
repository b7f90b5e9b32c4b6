package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	mq "github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/infra/queue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AnalysisJob binds a background run to its upload.
type AnalysisJob struct {
	TaskID      string `json:"task_id"`
	TestID      uint   `json:"test_id"`
	UserID      uint   `json:"user_id"`
	Description string `json:"description,omitempty"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, job AnalysisJob) error
}

type JobHandler func(ctx context.Context, job AnalysisJob) error

// InlineDispatcher runs jobs on an in-process worker pool. Jobs run on the
// pool's own context, never on the request's.
type InlineDispatcher struct {
	jobs   chan AnalysisJob
	g      *errgroup.Group
	ctx    context.Context
	mu     sync.RWMutex
	closed bool
}

func NewInlineDispatcher(ctx context.Context, workers, queueSize int, handle JobHandler, log *zap.Logger) *InlineDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 16
	}
	g, gctx := errgroup.WithContext(ctx)
	d := &InlineDispatcher{jobs: make(chan AnalysisJob, queueSize), g: g, ctx: gctx}

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for job := range d.jobs {
				if err := handle(gctx, job); err != nil {
					log.Error("analysis job failed", zap.String("task_id", job.TaskID), zap.Uint("test_id", job.TestID), zap.Error(err))
				}
			}
			return nil
		})
	}
	return d
}

func (d *InlineDispatcher) Dispatch(_ context.Context, job AnalysisJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed || d.ctx.Err() != nil {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *InlineDispatcher) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()
	return d.g.Wait()
}

// MQDispatcher publishes jobs to RabbitMQ for the worker consumers.
type MQDispatcher struct {
	Publisher  *mq.Publisher
	Exchange   string
	RoutingKey string
}

func (d *MQDispatcher) Dispatch(ctx context.Context, job AnalysisJob) error {
	if err := d.Publisher.PublishJSON(ctx, d.Exchange, d.RoutingKey, job); err != nil {
		return fmt.Errorf("publish analysis job: %w", err)
	}
	return nil
}

var errBadPayload = errors.New("malformed analysis job")

// DecodeJob parses an MQ payload.
func DecodeJob(body []byte) (AnalysisJob, error) {
	var job AnalysisJob
	if err := sonic.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if job.TaskID == "" || job.TestID == 0 {
		return job, fmt.Errorf("%w: missing task_id or test_id", errBadPayload)
	}
	return job, nil
}

// ConsumeJobs feeds MQ deliveries to handle until ctx is done. Only jobs
// interrupted by shutdown are requeued; reruns are safe since results are
// upserted.
func ConsumeJobs(ctx context.Context, c *mq.Consumer, handle JobHandler) error {
	return c.Handle(ctx, func(ctx context.Context, body []byte) error {
		job, err := DecodeJob(body)
		if err != nil {
			return err
		}
		return handle(ctx, job)
	}, func(err error) bool {
		return errors.Is(err, context.Canceled)
	})
}
