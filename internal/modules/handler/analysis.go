package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/serializer"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/imageproc"
)

// uploadFields are the multipart field names accepted for the drawing.
var uploadFields = []string{"file", "image"}

type AnalysisHandler struct {
	svc      service.AnalysisService
	maxBytes int64
}

func NewAnalysisHandler(s service.AnalysisService, maxBytes int64) *AnalysisHandler {
	return &AnalysisHandler{svc: s, maxBytes: maxBytes}
}

type TestIDReq struct {
	TestID uint `uri:"test_id" binding:"required,min=1" example:"42"`
}

// AnalyzeImage godoc
//
//	@Summary		Analyze a drawing
//	@Description	Upload an HTP drawing and start the background analysis. Poll /analysis-status/{test_id} for progress.
//	@Tags			analysis
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	false	"Drawing image (jpg, jpeg, png, bmp, gif). The field may also be named image."
//	@Param			description	formData	string	false	"Optional note about the drawing"
//	@Security		BearerAuth
//	@Success		202	{object}	serializer.Response{data=service.StartAnalysisOutput}
//	@Failure		422	{object}	serializer.Response	"Missing or invalid image"
//	@Router			/analyze-image [post]
func (h *AnalysisHandler) AnalyzeImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	upload, err := h.readUpload(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, serializer.ValidationErr(err.Error(), err))
		return
	}

	out, err := h.svc.Start(c.Request.Context(), service.StartAnalysisInput{
		UserID:      user.ID,
		Upload:      upload,
		Description: c.PostForm("description"),
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, serializer.Response{Data: out})
}

func (h *AnalysisHandler) readUpload(c *gin.Context) (imageproc.Upload, error) {
	var fh *multipart.FileHeader
	for _, field := range uploadFields {
		if f, err := c.FormFile(field); err == nil {
			fh = f
			break
		}
	}
	if fh == nil {
		return imageproc.Upload{}, imageproc.ErrMissingFile
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return imageproc.Upload{}, fmt.Errorf("%w: %d bytes", imageproc.ErrTooLarge, fh.Size)
	}

	f, err := fh.Open()
	if err != nil {
		return imageproc.Upload{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if h.maxBytes > 0 {
		r = io.LimitReader(f, h.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return imageproc.Upload{}, fmt.Errorf("%w: %v", imageproc.ErrEmptyFile, err)
	}
	return imageproc.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// GetStatus godoc
//
//	@Summary		Get analysis status
//	@Description	Progress of a drawing analysis. A deleted test reports status cancelled.
//	@Tags			analysis
//	@Produce		json
//	@Param			test_id	path	int	true	"Drawing test ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.AnalysisStatus}
//	@Failure		403	{object}	serializer.Response	"Test belongs to another user"
//	@Router			/analysis-status/{test_id} [get]
func (h *AnalysisHandler) GetStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	req := TestIDReq{}
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	st, err := h.svc.Status(c.Request.Context(), user.ID, req.TestID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: st})
}
