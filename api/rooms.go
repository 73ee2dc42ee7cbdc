package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oakyard/oakyard/internal/domain"
	"github.com/oakyard/oakyard/internal/service/session"
)

type RoomHandler struct {
	service session.SessionUseCase
}

type createRoomRequest struct {
	HostID          string `json:"host_id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	MaxParticipants int    `json:"max_participants"`
	IsPrivate       bool   `json:"is_private"`
	Credential      string `json:"credential"`
	TTLMinutes      int    `json:"ttl_minutes"`
}

type joinRoomRequest struct {
	UserID     string `json:"user_id"`
	Credential string `json:"credential"`
}

type postMessageRequest struct {
	AuthorID string `json:"author_id"`
	Text     string `json:"text"`
}

type roomResponse struct {
	ID              string `json:"id"`
	HostID          string `json:"host_id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	MaxParticipants int    `json:"max_participants"`
	IsPrivate       bool   `json:"is_private"`
	ExpiresAt       string `json:"expires_at"`
}

func NewRoomHandler(service session.SessionUseCase) *RoomHandler {
	return &RoomHandler{service: service}
}

func (h *RoomHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.POST("/:id/join", h.join)
	router.POST("/:id/messages", h.postMessage)
	router.GET("/:id/messages", h.listMessages)
}

func (h *RoomHandler) create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.service.CreateRoom(c.Request.Context(), session.CreateRoomInput{
		HostID:          req.HostID,
		Name:            req.Name,
		Description:     req.Description,
		MaxParticipants: req.MaxParticipants,
		IsPrivate:       req.IsPrivate,
		Credential:      req.Credential,
		TTL:             time.Duration(req.TTLMinutes) * time.Minute,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRoomResponse(room))
}

func (h *RoomHandler) get(c *gin.Context) {
	room, err := h.service.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomResponse(room))
}

func (h *RoomHandler) join(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Join(c.Request.Context(), c.Param("id"), req.UserID, req.Credential); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "joined"})
}

func (h *RoomHandler) postMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.service.PostMessage(c.Request.Context(), c.Param("id"), req.AuthorID, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (h *RoomHandler) listMessages(c *gin.Context) {
	sinceSeq, _ := strconv.ParseInt(c.DefaultQuery("since_seq", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	messages, err := h.service.ListMessages(c.Request.Context(), c.Param("id"), sinceSeq, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func toRoomResponse(r *domain.Room) roomResponse {
	return roomResponse{
		ID:              r.ID,
		HostID:          r.HostID,
		Name:            r.Name,
		Description:     r.Description,
		MaxParticipants: r.MaxParticipants,
		IsPrivate:       r.IsPrivate,
		ExpiresAt:       r.ExpiresAt.Format(time.RFC3339),
	}
}
