package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/serializer"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/paging"
)

// currentUser returns the user set by middleware.UserAuth. It writes a 401
// and returns false when there is none.
func currentUser(c *gin.Context) (*model.User, bool) {
	u, ok := c.Get("user")
	if ok {
		if user, ok := u.(*model.User); ok && user != nil {
			return user, true
		}
	}
	c.JSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
	return nil, false
}

// writeErr maps service errors to status codes.
func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidUpload):
		c.JSON(http.StatusUnprocessableEntity, serializer.ValidationErr(err.Error(), err))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, serializer.ForbiddenErr(""))
	case errors.Is(err, service.ErrTestNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrPersonaNotFound):
		c.JSON(http.StatusNotFound, serializer.NotFoundErr(err.Error(), err))
	case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, paging.ErrInvalidCursor):
		c.JSON(http.StatusBadRequest, serializer.ParamErr(err.Error(), err))
	case errors.Is(err, service.ErrQueueFull), errors.Is(err, service.ErrQueueClosed):
		c.JSON(http.StatusServiceUnavailable, serializer.Err(http.StatusServiceUnavailable, "analysis queue unavailable", err))
	default:
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
	}
}
