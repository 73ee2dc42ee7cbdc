package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oakyard/oakyard/internal/service/spaces"
)

type SpaceHandler struct {
	service spaces.SpaceUseCase
}

func NewSpaceHandler(service spaces.SpaceUseCase) *SpaceHandler {
	return &SpaceHandler{service: service}
}

func (h *SpaceHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.POST("/", h.create)
	router.GET("/:id/reviews", h.listReviews)
}

func (h *SpaceHandler) list(c *gin.Context) {
	result, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SpaceHandler) get(c *gin.Context) {
	space, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, space)
}

func (h *SpaceHandler) listReviews(c *gin.Context) {
	reviews, err := h.service.ListReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *SpaceHandler) create(c *gin.Context) {
	var req spaces.CreateSpaceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	space, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, space)
}
