package service

import (
	"context"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/repo"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/artifact"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/progress"
	"go.uber.org/zap"
)

type DrawingService interface {
	List(ctx context.Context, userID uint, limit, offset int) ([]DrawingTestView, error)
	// Delete withdraws a test. A running analysis notices at its next
	// existence check and stops without writing a result.
	Delete(ctx context.Context, userID, testID uint) error
}

type DrawingTestView struct {
	model.DrawingTest
	Status string `json:"status"`
	// PersonaName is set once the test has a classified result.
	PersonaName string `json:"persona_name,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type drawingService struct {
	r       repo.DrawingRepo
	store   artifact.Store
	tracker progress.Tracker
	log     *zap.Logger
}

func NewDrawingService(r repo.DrawingRepo, store artifact.Store, tracker progress.Tracker, log *zap.Logger) DrawingService {
	return &drawingService{r: r, store: store, tracker: tracker, log: log}
}

func (s *drawingService) List(ctx context.Context, userID uint, limit, offset int) ([]DrawingTestView, error) {
	tests, err := s.r.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]DrawingTestView, 0, len(tests))
	for _, t := range tests {
		v := DrawingTestView{DrawingTest: t, Status: StatusProcessing}
		if t.Result != nil {
			v.Status = StatusCompleted
			v.PersonaName, _ = PredictedName(t.Result.Scores(), t.Result.PersonaType)
		}
		if id := artifact.UniqueIDFromRef(t.ImageRef); id != "" {
			url, err := s.store.URL(ctx, id, artifact.StageThumbnail)
			if err != nil {
				s.log.Debug("thumbnail url", zap.String("task_id", id), zap.Error(err))
			}
			v.ImageURL = url
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *drawingService) Delete(ctx context.Context, userID, testID uint) error {
	t, err := s.r.Get(ctx, testID)
	if repo.IsNotFound(err) {
		return ErrTestNotFound
	}
	if err != nil {
		return err
	}
	if t.UserID != userID {
		return ErrForbidden
	}
	n, err := s.r.Delete(ctx, userID, testID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTestNotFound
	}

	uniqueID := artifact.UniqueIDFromRef(t.ImageRef)
	if err := s.tracker.Clear(ctx, uniqueID); err != nil {
		s.log.Warn("clear progress markers", zap.String("task_id", uniqueID), zap.Error(err))
	}
	s.log.Info("drawing test deleted", zap.Uint("test_id", testID), zap.Uint("user_id", userID))
	return nil
}
