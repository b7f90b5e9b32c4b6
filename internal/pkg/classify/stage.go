package classify

import (
	"context"
	"strings"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/progress"
	"go.uber.org/zap"
)

type Stage struct {
	classifier   Classifier
	tracker      progress.Tracker
	ambient      []string
	ambientLimit int
	log          *zap.Logger
}

func NewStage(c Classifier, tracker progress.Tracker, ambient []string, ambientLimit int, log *zap.Logger) *Stage {
	if ambientLimit <= 0 {
		ambientLimit = DefaultAmbientLimit
	}
	return &Stage{classifier: c, tracker: tracker, ambient: ambient, ambientLimit: ambientLimit, log: log}
}

// Run classifies the analysis text of uniqueID and sets the classification
// marker. Inference failures produce the fallback prediction and a marker
// failure only costs progress reporting, so Run never fails.
func (s *Stage) Run(ctx context.Context, uniqueID, text string) (Prediction, error) {
	keywords := Assemble(text, s.ambient, s.ambientLimit)
	pred := s.predict(ctx, keywords)
	if pred.Error != "" {
		s.log.Warn("classifier unavailable, using fallback",
			zap.String("task_id", uniqueID), zap.String("error", pred.Error))
	}

	if err := s.tracker.Mark(ctx, uniqueID, progress.StageClassification); err != nil {
		s.log.Warn("set classification marker", zap.String("task_id", uniqueID), zap.Error(err))
	}
	s.log.Info("classification finished",
		zap.String("task_id", uniqueID),
		zap.String("personality_type", pred.PersonalityType),
		zap.Float64("confidence", pred.Confidence),
		zap.Int("keywords", len(keywords)))
	return pred, nil
}

func (s *Stage) predict(ctx context.Context, keywords []string) Prediction {
	if len(keywords) == 0 {
		return Fallback(keywords, ErrNoKeywords)
	}
	raw, err := s.classifier.Scores(ctx, strings.Join(keywords, " "))
	if err != nil {
		return Fallback(keywords, err)
	}
	return Predict(Normalize(raw), keywords)
}
