package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/serializer"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
)

type PersonaHandler struct {
	svc service.PersonaService
}

func NewPersonaHandler(s service.PersonaService) *PersonaHandler {
	return &PersonaHandler{svc: s}
}

// ListPersonas godoc
//
//	@Summary		List personas
//	@Description	Active chat personas in persona_id order
//	@Tags			persona
//	@Produce		json
//	@Success		200	{object}	serializer.Response{data=[]model.Persona}
//	@Router			/personas [get]
func (h *PersonaHandler) ListPersonas(c *gin.Context) {
	ps, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: ps})
}
