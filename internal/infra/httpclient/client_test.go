package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectorClient_Detect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/detect", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, []byte{0xff, 0xd8}, b)
		assert.Equal(t, "drawing.jpg", hdr.Filename)
		_, _ = w.Write([]byte(`{"detections":[{"class_name":"집","confidence":0.91,"x1":1,"y1":2,"x2":30,"y2":40}]}`))
	}))
	defer srv.Close()

	c := NewDetectorClient(srv.URL+"/", "tok", time.Second, nil)
	got, err := c.Detect(context.Background(), []byte{0xff, 0xd8})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Detection{ClassName: "집", Confidence: 0.91, X1: 1, Y1: 2, X2: 30, Y2: 40}, got[0])
}

func TestDetectorClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "weights missing", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewDetectorClient(srv.URL, "", time.Second, nil).Detect(context.Background(), []byte{1})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestRerankerClient_Rerank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RerankRequest
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, sonic.Unmarshal(b, &req))
		assert.Equal(t, "집 창문", req.Query)
		assert.Len(t, req.Texts, 2)
		_, _ = w.Write([]byte(`[{"index":1,"score":0.8},{"index":0,"score":0.1}]`))
	}))
	defer srv.Close()

	c := NewRerankerClient(srv.URL, "", time.Second, nil)
	got, err := c.Rerank(context.Background(), "집 창문", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []RerankScore{{Index: 1, Score: 0.8}, {Index: 0, Score: 0.1}}, got)

	none, err := c.Rerank(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestParseLabelScores(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []LabelScore
		wantErr bool
	}{
		{"nested", `[[{"label":"LABEL_0","score":2.1},{"label":"LABEL_1","score":0.3}]]`, []LabelScore{{"LABEL_0", 2.1}, {"LABEL_1", 0.3}}, false},
		{"flat", `[{"label":"내면형","score":0.7}]`, []LabelScore{{"내면형", 0.7}}, false},
		{"api error", `{"error":"Model is loading"}`, nil, true},
		{"garbage", `{"foo":1}`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLabelScores([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifierClient_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/org/htp-bert", r.URL.Path)
		_, _ = w.Write([]byte(`[[{"label":"LABEL_1","score":0.9}]]`))
	}))
	defer srv.Close()

	c := NewClassifierClient(srv.URL, "hf", "org/htp-bert", time.Second, nil)
	got, err := c.Classify(context.Background(), "불안 외로움")
	require.NoError(t, err)
	assert.Equal(t, []LabelScore{{"LABEL_1", 0.9}}, got)
}
