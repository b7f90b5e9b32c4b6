// Package artifact stores per-analysis files under deterministic keys derived
// from the analysis unique id.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrNotFound = errors.New("artifact not found")

type Stage string

const (
	StageOriginal       Stage = "original"
	StageDetectionInput Stage = "detection_input"
	StageThumbnail      Stage = "thumbnail"
	StageDetection      Stage = "detection"
	StageInterpretation Stage = "interpretation"
)

type Store interface {
	// Put writes payload and returns the storage-relative key.
	Put(ctx context.Context, uniqueID string, stage Stage, payload []byte) (string, error)
	Get(ctx context.Context, uniqueID string, stage Stage) ([]byte, error)
	Exists(ctx context.Context, uniqueID string, stage Stage) (bool, error)
	URL(ctx context.Context, uniqueID string, stage Stage) (string, error)
}

// Key returns the storage-relative path for a stage.
func Key(uniqueID string, stage Stage) (string, error) {
	if uniqueID == "" || strings.ContainsAny(uniqueID, "/\\") || strings.Contains(uniqueID, "..") {
		return "", fmt.Errorf("invalid unique id %q", uniqueID)
	}
	switch stage {
	case StageOriginal:
		return path.Join("result", "images", uniqueID+".jpg"), nil
	case StageDetectionInput:
		return path.Join("result", "detection", uniqueID+".jpg"), nil
	case StageThumbnail:
		return path.Join("result", "thumbnails", uniqueID+".jpg"), nil
	case StageDetection:
		return path.Join("detection_results", "images", "detection_result_"+uniqueID+".jpg"), nil
	case StageInterpretation:
		return path.Join("detection_results", "results", "result_"+uniqueID+".json"), nil
	default:
		return "", fmt.Errorf("unknown artifact stage %q", stage)
	}
}

// ContentType returns the MIME type stored for a stage.
func ContentType(stage Stage) string {
	if stage == StageInterpretation {
		return "application/json"
	}
	return "image/jpeg"
}

// UniqueIDFromRef recovers the unique id from an original image key such as
// "result/images/<id>.jpg".
func UniqueIDFromRef(ref string) string {
	base := path.Base(strings.ReplaceAll(ref, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
