package httpclient

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Detection is one bounding box returned by the YOLO inference server.
type Detection struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
}

type DetectResponse struct {
	Detections []Detection `json:"detections"`
}

// DetectorClient talks to the object-detection inference server.
type DetectorClient struct {
	baseClient
}

func NewDetectorClient(baseURL, token string, timeout time.Duration, log *zap.Logger) *DetectorClient {
	return &DetectorClient{baseClient: newBaseClient(baseURL, token, timeout, log)}
}

// Detect uploads a JPEG as multipart field "file" to /detect.
func (c *DetectorClient) Detect(ctx context.Context, jpeg []byte) ([]Detection, error) {
	var result DetectResponse
	if err := c.postMultipart(ctx, "detect", c.BaseURL+"/detect", "file", "drawing.jpg", jpeg, &result); err != nil {
		return nil, err
	}
	return result.Detections, nil
}
