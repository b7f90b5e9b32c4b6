// Package progress records which pipeline stages have finished for an
// analysis so the status endpoint can report a step ladder.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Stage string

const (
	StageDetection      Stage = "detection"
	StageAnalysis       Stage = "analysis"
	StageClassification Stage = "classification"
)

// Stages lists the ladder in execution order.
var Stages = []Stage{StageDetection, StageAnalysis, StageClassification}

type Markers struct {
	Detection      bool `json:"detection_completed"`
	Analysis       bool `json:"analysis_completed"`
	Classification bool `json:"classification_completed"`
}

func (m Markers) Done(s Stage) bool {
	switch s {
	case StageDetection:
		return m.Detection
	case StageAnalysis:
		return m.Analysis
	case StageClassification:
		return m.Classification
	}
	return false
}

func (m Markers) AllDone() bool { return m.Detection && m.Analysis && m.Classification }

type Tracker interface {
	Mark(ctx context.Context, uniqueID string, stage Stage) error
	Snapshot(ctx context.Context, uniqueID string) (Markers, error)
	Clear(ctx context.Context, uniqueID string) error
}

type redisTracker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisTracker(rdb *redis.Client, ttl time.Duration) Tracker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisTracker{rdb: rdb, ttl: ttl}
}

func key(uniqueID string) string { return "htp:progress:" + uniqueID }

func (t *redisTracker) Mark(ctx context.Context, uniqueID string, stage Stage) error {
	k := key(uniqueID)
	pipe := t.rdb.TxPipeline()
	pipe.HSet(ctx, k, string(stage), time.Now().UTC().Format(time.RFC3339Nano))
	pipe.Expire(ctx, k, t.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark %s for %s: %w", stage, uniqueID, err)
	}
	return nil
}

func (t *redisTracker) Snapshot(ctx context.Context, uniqueID string) (Markers, error) {
	vals, err := t.rdb.HGetAll(ctx, key(uniqueID)).Result()
	if err != nil {
		return Markers{}, fmt.Errorf("read progress for %s: %w", uniqueID, err)
	}
	_, det := vals[string(StageDetection)]
	_, ana := vals[string(StageAnalysis)]
	_, cls := vals[string(StageClassification)]
	return Markers{Detection: det, Analysis: ana, Classification: cls}, nil
}

func (t *redisTracker) Clear(ctx context.Context, uniqueID string) error {
	return t.rdb.Del(ctx, key(uniqueID)).Err()
}
