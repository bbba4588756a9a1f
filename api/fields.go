package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/service/fields"
)

type FieldHandler struct {
	service fields.FieldUseCase
}

func NewFieldHandler(service fields.FieldUseCase) *FieldHandler {
	return &FieldHandler{service: service}
}

func (h *FieldHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
}

func (h *FieldHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *FieldHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	field, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, field)
}
