package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/repo"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/artifact"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/imageproc"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/progress"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/variant"
	"go.uber.org/zap"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"

	MethodModel    = "model"
	MethodFallback = "fallback"

	msgAccepted   = "이미지 업로드가 완료되었습니다. 분석을 시작합니다."
	msgFinalizing = "최종 결과 생성 중..."
	msgCancelled  = "분석이 중단되었습니다."
	msgCompleted  = "분석이 완료되었습니다."
)

var stepLabels = map[progress.Stage]string{
	progress.StageDetection:      "객체 탐지 중...",
	progress.StageAnalysis:       "심리 분석 중...",
	progress.StageClassification: "성격 유형 분류 중...",
}

type AnalysisService interface {
	Start(ctx context.Context, in StartAnalysisInput) (*StartAnalysisOutput, error)
	Status(ctx context.Context, userID, testID uint) (*AnalysisStatus, error)
}

type StartAnalysisInput struct {
	UserID      uint
	Upload      imageproc.Upload
	Description string
}

type StartAnalysisOutput struct {
	Message       string `json:"message"`
	TestID        uint   `json:"test_id"`
	TaskID        string `json:"task_id"`
	Status        string `json:"status"`
	EstimatedTime string `json:"estimated_time"`
}

type AnalysisStep struct {
	Step      int    `json:"step"`
	Name      string `json:"name"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
	Current   bool   `json:"current"`
}

type AnalysisResultView struct {
	PersonaType    *uint              `json:"persona_type"`
	PersonaName    string             `json:"persona_name"`
	SummaryText    string             `json:"summary_text"`
	Probabilities  map[string]float64 `json:"probabilities"`
	ImageURL       string             `json:"image_url"`
	AnalysisMethod string             `json:"analysis_method"`
	CreatedAt      time.Time          `json:"created_at"`
}

type AnalysisStatus struct {
	TestID      uint                `json:"test_id"`
	Status      string              `json:"status"`
	Message     string              `json:"message"`
	CurrentStep int                 `json:"current_step,omitempty"`
	Steps       []AnalysisStep      `json:"steps,omitempty"`
	Result      *AnalysisResultView `json:"result,omitempty"`
}

type AnalysisOptions struct {
	MaxUploadBytes int64
	EstimatedTime  string
	// Location stamps submitted_at; nil means UTC.
	Location *time.Location
}

type analysisService struct {
	r        repo.DrawingRepo
	store    artifact.Store
	tracker  progress.Tracker
	dispatch Dispatcher
	opts     AnalysisOptions
	log      *zap.Logger
	now      func() time.Time
	newID    func() uuid.UUID
}

func NewAnalysisService(r repo.DrawingRepo, store artifact.Store, tracker progress.Tracker, d Dispatcher, opts AnalysisOptions, log *zap.Logger) AnalysisService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &analysisService{
		r:        r,
		store:    store,
		tracker:  tracker,
		dispatch: d,
		opts:     opts,
		log:      log,
		now:      time.Now,
		newID:    uuid.New,
	}
}

func (s *analysisService) Start(ctx context.Context, in StartAnalysisInput) (*StartAnalysisOutput, error) {
	if err := imageproc.Validate(in.Upload, s.opts.MaxUploadBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}
	variants, err := imageproc.Prepare(in.Upload.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}

	taskID := s.newID().String()
	ref, err := s.store.Put(ctx, taskID, artifact.StageOriginal, variants.Original)
	if err != nil {
		return nil, fmt.Errorf("store original: %w", err)
	}
	if _, err := s.store.Put(ctx, taskID, artifact.StageDetectionInput, variants.Detection); err != nil {
		return nil, fmt.Errorf("store detection input: %w", err)
	}
	if _, err := s.store.Put(ctx, taskID, artifact.StageThumbnail, variants.Thumbnail); err != nil {
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}

	t := &model.DrawingTest{
		UserID:      in.UserID,
		ImageRef:    ref,
		Description: in.Description,
		SubmittedAt: s.now().In(s.opts.Location),
	}
	if err := s.r.Create(ctx, t); err != nil {
		return nil, err
	}

	job := AnalysisJob{TaskID: taskID, TestID: t.ID, UserID: in.UserID, Description: in.Description}
	if err := s.dispatch.Dispatch(ctx, job); err != nil {
		// Nothing will ever write a result for this test.
		if _, derr := s.r.Delete(ctx, in.UserID, t.ID); derr != nil {
			s.log.Error("drop undispatched test", zap.Uint("test_id", t.ID), zap.Error(derr))
		}
		return nil, fmt.Errorf("dispatch analysis: %w", err)
	}
	s.log.Info("analysis accepted",
		zap.String("task_id", taskID),
		zap.Uint("test_id", t.ID),
		zap.Uint("user_id", in.UserID))

	return &StartAnalysisOutput{
		Message:       msgAccepted,
		TestID:        t.ID,
		TaskID:        taskID,
		Status:        StatusProcessing,
		EstimatedTime: s.opts.EstimatedTime,
	}, nil
}

func (s *analysisService) Status(ctx context.Context, userID, testID uint) (*AnalysisStatus, error) {
	t, err := s.r.Get(ctx, testID)
	if repo.IsNotFound(err) {
		return &AnalysisStatus{TestID: testID, Status: StatusCancelled, Message: msgCancelled}, nil
	}
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, ErrForbidden
	}

	uniqueID := artifact.UniqueIDFromRef(t.ImageRef)
	res, err := s.r.GetResult(ctx, testID)
	if err != nil && !repo.IsNotFound(err) {
		return nil, err
	}
	if res != nil && err == nil {
		view, err := s.resultView(ctx, uniqueID, res)
		if err != nil {
			return nil, err
		}
		return &AnalysisStatus{
			TestID:      testID,
			Status:      StatusCompleted,
			Message:     msgCompleted,
			CurrentStep: len(progress.Stages),
			Steps:       Ladder(progress.Markers{Detection: true, Analysis: true, Classification: true}),
			Result:      view,
		}, nil
	}

	markers, err := s.tracker.Snapshot(ctx, uniqueID)
	if err != nil {
		// Markers are advisory; a cache outage reports the first step.
		s.log.Warn("read progress markers", zap.String("task_id", uniqueID), zap.Error(err))
		markers = progress.Markers{}
	}
	steps := Ladder(markers)
	st := &AnalysisStatus{TestID: testID, Status: StatusProcessing, Steps: steps, CurrentStep: len(steps)}
	if markers.AllDone() {
		st.Message = msgFinalizing
		return st, nil
	}
	for _, step := range steps {
		if step.Current {
			st.CurrentStep = step.Step
			st.Message = step.Label
			break
		}
	}
	return st, nil
}

// Ladder renders the markers as numbered steps. The first unfinished step is
// the current one.
func Ladder(m progress.Markers) []AnalysisStep {
	steps := make([]AnalysisStep, 0, len(progress.Stages))
	currentSet := false
	for i, stage := range progress.Stages {
		done := m.Done(stage)
		step := AnalysisStep{Step: i + 1, Name: string(stage), Label: stepLabels[stage], Completed: done}
		if !done && !currentSet {
			step.Current = true
			currentSet = true
		}
		steps = append(steps, step)
	}
	return steps
}

func (s *analysisService) resultView(ctx context.Context, uniqueID string, res *model.DrawingTestResult) (*AnalysisResultView, error) {
	scores := res.Scores()
	probs := make(map[string]float64, variant.Count)
	for i, v := range variant.All {
		probs[v.Name] = scores[i]
	}
	view := &AnalysisResultView{
		PersonaType:    res.PersonaType,
		SummaryText:    res.SummaryText,
		Probabilities:  probs,
		AnalysisMethod: MethodModel,
		CreatedAt:      res.CreatedAt,
	}
	view.PersonaName, view.AnalysisMethod = PredictedName(scores, res.PersonaType)

	if uniqueID != "" {
		url, err := s.store.URL(ctx, uniqueID, artifact.StageOriginal)
		if err != nil && !errors.Is(err, artifact.ErrNotFound) {
			return nil, fmt.Errorf("image url: %w", err)
		}
		view.ImageURL = url
	}
	return view, nil
}

// PredictedName is the argmax label of the stored scores. All-zero scores fall
// back to the persona_type name and report the fallback method.
func PredictedName(scores [variant.Count]float64, personaType *uint) (string, string) {
	if v, ok := variant.ArgMax(scores); ok {
		return v.Name, MethodModel
	}
	if personaType != nil {
		if v, ok := variant.ByID(int(*personaType)); ok {
			return v.Name, MethodFallback
		}
	}
	return "", MethodFallback
}
