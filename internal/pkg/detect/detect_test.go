package detect

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/artifact"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) Detect(ctx context.Context, jpeg []byte) ([]Box, error) {
	args := m.Called(ctx, jpeg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Box), args.Error(1)
}

func jpegBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 64)), nil))
	return buf.Bytes()
}

func newStage(t *testing.T, d Detector) (*Stage, artifact.Store, progress.Tracker) {
	store, err := artifact.NewFSStore(t.TempDir(), "/static")
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	tracker := progress.NewRedisTracker(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	return NewStage(d, store, tracker, nil, 0.25, zap.NewNop()), store, tracker
}

func TestStage_Run(t *testing.T) {
	ctx := context.Background()
	d := new(MockDetector)
	stage, store, tracker := newStage(t, d)

	input := jpegBytes(t)
	_, err := store.Put(ctx, "u1", artifact.StageDetectionInput, input)
	require.NoError(t, err)

	d.On("Detect", mock.Anything, input).Return([]Box{
		{ClassName: "나무", Confidence: 0.6, X1: 30, Y1: 5, X2: 60, Y2: 60},
		{ClassName: "집", Confidence: 0.9, X1: 1, Y1: 1, X2: 20, Y2: 20},
		{ClassName: "집", Confidence: 0.8, X1: 2, Y1: 2, X2: 10, Y2: 10},
		{ClassName: "사람", Confidence: 0.1, X1: 0, Y1: 0, X2: 5, Y2: 5},
	}, nil)

	res, err := stage.Run(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"집", "나무"}, res.Labels)
	assert.Len(t, res.Boxes, 3)
	assert.Equal(t, "detection_results/images/detection_result_u1.jpg", res.AnnotatedKey)

	ok, err := store.Exists(ctx, "u1", artifact.StageDetection)
	require.NoError(t, err)
	assert.True(t, ok)

	m, err := tracker.Snapshot(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, m.Detection)
	d.AssertExpectations(t)
}

func TestStage_Run_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing input", func(t *testing.T) {
		stage, _, _ := newStage(t, new(MockDetector))
		_, err := stage.Run(ctx, "nope")
		assert.ErrorIs(t, err, ErrNoInput)
	})

	t.Run("detector error leaves marker unset", func(t *testing.T) {
		d := new(MockDetector)
		stage, store, tracker := newStage(t, d)
		_, err := store.Put(ctx, "u2", artifact.StageDetectionInput, jpegBytes(t))
		require.NoError(t, err)
		d.On("Detect", mock.Anything, mock.Anything).Return(nil, errors.New("model not loaded"))

		_, err = stage.Run(ctx, "u2")
		assert.ErrorContains(t, err, "model not loaded")
		m, err := tracker.Snapshot(ctx, "u2")
		require.NoError(t, err)
		assert.False(t, m.Detection)
	})

	t.Run("undecodable input", func(t *testing.T) {
		d := new(MockDetector)
		stage, store, _ := newStage(t, d)
		_, err := store.Put(ctx, "u3", artifact.StageDetectionInput, []byte("junk"))
		require.NoError(t, err)
		d.On("Detect", mock.Anything, mock.Anything).Return([]Box{}, nil)

		_, err = stage.Run(ctx, "u3")
		assert.Error(t, err)
	})
}

func TestStage_Run_MarkerFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	store, err := artifact.NewFSStore(t.TempDir(), "/static")
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	tracker := progress.NewRedisTracker(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	mr.Close()

	d := new(MockDetector)
	d.On("Detect", mock.Anything, mock.Anything).Return([]Box{{ClassName: "집", Confidence: 0.9, X1: 1, Y1: 1, X2: 20, Y2: 20}}, nil)
	_, err = store.Put(ctx, "u4", artifact.StageDetectionInput, jpegBytes(t))
	require.NoError(t, err)

	res, err := NewStage(d, store, tracker, nil, 0.25, zap.NewNop()).Run(ctx, "u4")
	require.NoError(t, err)
	assert.Equal(t, []string{"집"}, res.Labels)
	ok, err := store.Exists(ctx, "u4", artifact.StageDetection)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "house", Category("창문"))
	assert.Equal(t, "tree", Category(" 뿌리 "))
	assert.Equal(t, "person", Category("Head"))
	assert.Equal(t, "", Category("자동차"))

	g := GroupLabels([]string{"집", "나무", "문", "자동차"})
	assert.Equal(t, []string{"집", "문"}, g["house"])
	assert.Equal(t, []string{"나무"}, g["tree"])
	assert.NotContains(t, g, "person")
}
