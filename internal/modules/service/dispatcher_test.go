package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInlineDispatcher_RunsJobs(t *testing.T) {
	var mu sync.Mutex
	var got []uint
	d := NewInlineDispatcher(context.Background(), 2, 8, func(ctx context.Context, job AnalysisJob) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, job.TestID)
		return nil
	}, zap.NewNop())

	for i := uint(1); i <= 5; i++ {
		require.NoError(t, d.Dispatch(context.Background(), AnalysisJob{TaskID: "t", TestID: i}))
	}
	require.NoError(t, d.Close())
	assert.ElementsMatch(t, []uint{1, 2, 3, 4, 5}, got)

	assert.ErrorIs(t, d.Dispatch(context.Background(), AnalysisJob{TaskID: "t", TestID: 6}), ErrQueueClosed)
}

func TestInlineDispatcher_QueueFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	d := NewInlineDispatcher(context.Background(), 1, 1, func(ctx context.Context, job AnalysisJob) error {
		started <- struct{}{}
		<-release
		return nil
	}, zap.NewNop())

	require.NoError(t, d.Dispatch(context.Background(), AnalysisJob{TaskID: "a", TestID: 1}))
	<-started
	require.NoError(t, d.Dispatch(context.Background(), AnalysisJob{TaskID: "b", TestID: 2}))
	assert.ErrorIs(t, d.Dispatch(context.Background(), AnalysisJob{TaskID: "c", TestID: 3}), ErrQueueFull)

	close(release)
	require.NoError(t, d.Close())
}

func TestInlineDispatcher_JobsOutliveRequestContext(t *testing.T) {
	done := make(chan error, 1)
	d := NewInlineDispatcher(context.Background(), 1, 1, func(ctx context.Context, job AnalysisJob) error {
		done <- ctx.Err()
		return nil
	}, zap.NewNop())

	reqCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Dispatch(reqCtx, AnalysisJob{TaskID: "a", TestID: 1}))
	cancel()
	assert.NoError(t, <-done)
	require.NoError(t, d.Close())
}

func TestDecodeJob(t *testing.T) {
	job, err := DecodeJob([]byte(`{"task_id":"abc","test_id":7,"user_id":2,"description":"d"}`))
	require.NoError(t, err)
	assert.Equal(t, AnalysisJob{TaskID: "abc", TestID: 7, UserID: 2, Description: "d"}, job)

	_, err = DecodeJob([]byte(`{"task_id":"abc"}`))
	assert.ErrorIs(t, err, errBadPayload)

	_, err = DecodeJob([]byte(`not json`))
	assert.ErrorIs(t, err, errBadPayload)
}
