package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oakyard/oakyard/internal/domain"
	"github.com/oakyard/oakyard/internal/service/reservation"
)

type BookingHandler struct {
	service reservation.ReservationUseCase
}

type createBookingRequest struct {
	SpaceID         string    `json:"space_id"`
	UserID          string    `json:"user_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	SpecialRequests string    `json:"special_requests"`
}

type submitReviewRequest struct {
	UserID  string `json:"user_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type bookingResponse struct {
	ID            string  `json:"id"`
	SpaceID       string  `json:"space_id"`
	UserID        string  `json:"user_id"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	TotalAmount   float64 `json:"total_amount"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
}

func NewBookingHandler(service reservation.ReservationUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.POST("/:id/payment", h.confirmPayment)
	router.POST("/:id/complete", h.complete)
	router.DELETE("/:id", h.cancel)
	router.POST("/:id/review", h.review)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), reservation.CreateBookingInput{
		SpaceID:         req.SpaceID,
		UserID:          req.UserID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) get(c *gin.Context) {
	booking, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) confirmPayment(c *gin.Context) {
	booking, err := h.service.ConfirmPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) complete(c *gin.Context) {
	booking, err := h.service.CompleteBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	booking, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) review(c *gin.Context) {
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.service.SubmitReview(c.Request.Context(), reservation.SubmitReviewInput{
		BookingID: c.Param("id"),
		UserID:    req.UserID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:            b.ID,
		SpaceID:       b.SpaceID,
		UserID:        b.UserID,
		StartTime:     b.StartTime.Format(time.RFC3339),
		EndTime:       b.EndTime.Format(time.RFC3339),
		TotalAmount:   b.TotalAmount,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
	}
}
