package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oakyard/oakyard/internal/domain"
	"github.com/oakyard/oakyard/internal/service/reservation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockReservationUseCase is a mock implementation of reservation.ReservationUseCase
type MockReservationUseCase struct {
	mock.Mock
}

func (m *MockReservationUseCase) CreateBooking(ctx context.Context, input reservation.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockReservationUseCase) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockReservationUseCase) ListUserBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockReservationUseCase) ConfirmPayment(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockReservationUseCase) CompleteBooking(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockReservationUseCase) CancelBooking(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockReservationUseCase) CompleteElapsed(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockReservationUseCase) SubmitReview(ctx context.Context, input reservation.SubmitReviewInput) (*domain.Review, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

var testStart = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := reservation.CreateBookingInput{
		SpaceID:   "space-1",
		UserID:    "user-1",
		StartTime: testStart,
		EndTime:   testStart.Add(3 * time.Hour),
	}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	booking := &domain.Booking{
		ID:            "b1",
		SpaceID:       "space-1",
		UserID:        "user-1",
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		TotalAmount:   150,
		Status:        domain.BookingStatusPending,
		PaymentStatus: domain.PaymentStatusUnpaid,
	}

	mockService.On("CreateBooking", c.Request.Context(), input).Return(booking, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "b1", response.ID)
	assert.Equal(t, 150.0, response.TotalAmount)
	assert.Equal(t, string(domain.BookingStatusPending), response.Status)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_slotUnavailable(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(createBookingRequest{
		SpaceID: "space-1", UserID: "user-1",
		StartTime: testStart.Add(2 * time.Hour), EndTime: testStart.Add(4 * time.Hour),
	})
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	slotErr := &domain.SlotUnavailableError{
		SpaceID:       "space-1",
		ConflictStart: testStart,
		ConflictEnd:   testStart.Add(3 * time.Hour),
	}
	mockService.On("CreateBooking", c.Request.Context(), mock.Anything).Return(nil, slotErr)

	handler.create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "conflict_start")

	mockService.AssertExpectations(t)
}

func TestBookingHandler_confirmPayment(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	c.Request = httptest.NewRequest("POST", "/bookings/b1/payment", nil)

	booking := &domain.Booking{
		ID: "b1", SpaceID: "space-1",
		Status:        domain.BookingStatusConfirmed,
		PaymentStatus: domain.PaymentStatusPaid,
	}
	mockService.On("ConfirmPayment", c.Request.Context(), "b1").Return(booking, nil)

	handler.confirmPayment(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.PaymentStatusPaid), response.PaymentStatus)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_cancel_invalidTransition(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	c.Request = httptest.NewRequest("DELETE", "/bookings/b1", nil)

	transitionErr := &domain.InvalidTransitionError{
		From: domain.BookingStatusCompleted,
		To:   domain.BookingStatusCancelled,
	}
	mockService.On("CancelBooking", c.Request.Context(), "b1").Return(nil, transitionErr)

	handler.cancel(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_review(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	body, _ := json.Marshal(submitReviewRequest{UserID: "user-1", Rating: 5, Comment: "Great space!"})
	c.Request = httptest.NewRequest("POST", "/bookings/b1/review", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	review := &domain.Review{ID: "r1", BookingID: "b1", Rating: 5}
	mockService.On("SubmitReview", c.Request.Context(), reservation.SubmitReviewInput{
		BookingID: "b1", UserID: "user-1", Rating: 5, Comment: "Great space!",
	}).Return(review, nil)

	handler.review(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_review_notCompleted(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	body, _ := json.Marshal(submitReviewRequest{UserID: "user-1", Rating: 4})
	c.Request = httptest.NewRequest("POST", "/bookings/b1/review", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("SubmitReview", c.Request.Context(), mock.Anything).Return(nil, domain.ErrBookingNotCompleted)

	handler.review(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertExpectations(t)
}
