// Package detect runs the object detector over a drawing, writes the
// annotated image and reports which HTP elements were found.
package detect

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/infra/httpclient"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/artifact"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/progress"
	"go.uber.org/zap"
	"golang.org/x/image/font"
)

var ErrNoInput = errors.New("detection input image not found")

type Box struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
}

type Detector interface {
	Detect(ctx context.Context, jpeg []byte) ([]Box, error)
}

// HTTPDetector adapts the inference server client to Detector.
type HTTPDetector struct {
	Client *httpclient.DetectorClient
}

func (d HTTPDetector) Detect(ctx context.Context, jpeg []byte) ([]Box, error) {
	dets, err := d.Client.Detect(ctx, jpeg)
	if err != nil {
		return nil, err
	}
	boxes := make([]Box, 0, len(dets))
	for _, det := range dets {
		boxes = append(boxes, Box(det))
	}
	return boxes, nil
}

type Result struct {
	Boxes        []Box    `json:"boxes"`
	Labels       []string `json:"labels"`
	AnnotatedKey string   `json:"annotated_key"`
}

type Stage struct {
	detector      Detector
	store         artifact.Store
	tracker       progress.Tracker
	face          font.Face
	minConfidence float64
	log           *zap.Logger
}

func NewStage(d Detector, store artifact.Store, tracker progress.Tracker, face font.Face, minConfidence float64, log *zap.Logger) *Stage {
	if face == nil {
		face = DefaultFace()
	}
	return &Stage{detector: d, store: store, tracker: tracker, face: face, minConfidence: minConfidence, log: log}
}

// Run detects on the downscaled copy of uniqueID, persists the annotated
// image and sets the detection marker.
func (s *Stage) Run(ctx context.Context, uniqueID string) (*Result, error) {
	input, err := s.store.Get(ctx, uniqueID, artifact.StageDetectionInput)
	if errors.Is(err, artifact.ErrNotFound) {
		return nil, ErrNoInput
	}
	if err != nil {
		return nil, fmt.Errorf("load detection input: %w", err)
	}

	boxes, err := s.detector.Detect(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	boxes = filterBoxes(boxes, s.minConfidence)

	annotated, err := Annotate(input, boxes, s.face)
	if err != nil {
		return nil, err
	}
	key, err := s.store.Put(ctx, uniqueID, artifact.StageDetection, annotated)
	if err != nil {
		return nil, fmt.Errorf("store annotated image: %w", err)
	}
	if err := s.tracker.Mark(ctx, uniqueID, progress.StageDetection); err != nil {
		s.log.Warn("set detection marker", zap.String("task_id", uniqueID), zap.Error(err))
	}

	labels := Labels(boxes)
	s.log.Info("detection finished",
		zap.String("task_id", uniqueID),
		zap.Int("boxes", len(boxes)),
		zap.Strings("labels", labels))
	return &Result{Boxes: boxes, Labels: labels, AnnotatedKey: key}, nil
}

func filterBoxes(boxes []Box, minConf float64) []Box {
	out := boxes[:0:0]
	for _, b := range boxes {
		if b.Confidence >= minConf {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// Labels returns the distinct class names in first-seen order.
func Labels(boxes []Box) []string {
	seen := make(map[string]struct{}, len(boxes))
	labels := make([]string, 0, len(boxes))
	for _, b := range boxes {
		if _, ok := seen[b.ClassName]; ok {
			continue
		}
		seen[b.ClassName] = struct{}{}
		labels = append(labels, b.ClassName)
	}
	return labels
}
