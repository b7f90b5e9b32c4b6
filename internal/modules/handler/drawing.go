package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/serializer"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
)

type DrawingHandler struct {
	svc service.DrawingService
}

func NewDrawingHandler(s service.DrawingService) *DrawingHandler {
	return &DrawingHandler{svc: s}
}

type ListDrawingTestsReq struct {
	Limit  int `form:"limit,default=20" json:"limit" binding:"min=1,max=200" example:"20"`
	Offset int `form:"offset,default=0" json:"offset" binding:"min=0" example:"0"`
}

// ListDrawingTests godoc
//
//	@Summary		List drawing tests
//	@Description	The caller's drawing tests, newest first, with the result when analysis has finished
//	@Tags			drawing
//	@Produce		json
//	@Param			limit	query	integer	false	"Page size, default 20. Max 200."
//	@Param			offset	query	integer	false	"Rows to skip"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]service.DrawingTestView}
//	@Router			/drawing-tests [get]
func (h *DrawingHandler) ListDrawingTests(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	req := ListDrawingTestsReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.svc.List(c.Request.Context(), user.ID, req.Limit, req.Offset)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

// DeleteDrawingTest godoc
//
//	@Summary		Delete drawing test
//	@Description	Delete a drawing test and its result. A running analysis stops without writing a result.
//	@Tags			drawing
//	@Produce		json
//	@Param			test_id	path	int	true	"Drawing test ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response
//	@Failure		404	{object}	serializer.Response
//	@Router			/drawing-tests/{test_id} [delete]
func (h *DrawingHandler) DeleteDrawingTest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	req := TestIDReq{}
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), user.ID, req.TestID); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}
