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
	"github.com/oakyard/oakyard/internal/service/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockSessionUseCase is a mock implementation of session.SessionUseCase
type MockSessionUseCase struct {
	mock.Mock
}

func (m *MockSessionUseCase) CreateRoom(ctx context.Context, input session.CreateRoomInput) (*domain.Room, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockSessionUseCase) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockSessionUseCase) Join(ctx context.Context, roomID, userID, credential string) error {
	args := m.Called(ctx, roomID, userID, credential)
	return args.Error(0)
}

func (m *MockSessionUseCase) PostMessage(ctx context.Context, roomID, authorID, text string) (*domain.Message, error) {
	args := m.Called(ctx, roomID, authorID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockSessionUseCase) ListMessages(ctx context.Context, roomID string, sinceSeq int64, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, roomID, sinceSeq, limit)
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockSessionUseCase) ExpireRooms(ctx context.Context) ([]domain.Room, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Room), args.Error(1)
}

func TestRoomHandler_create(t *testing.T) {
	mockService := &MockSessionUseCase{}
	handler := NewRoomHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(createRoomRequest{
		HostID:          "host-1",
		Name:            "Project Planning",
		MaxParticipants: 8,
		IsPrivate:       true,
		Credential:      "plan123",
		TTLMinutes:      120,
	})
	c.Request = httptest.NewRequest("POST", "/rooms", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	room := &domain.Room{
		ID:              "room-1",
		HostID:          "host-1",
		Name:            "Project Planning",
		MaxParticipants: 8,
		IsPrivate:       true,
		ExpiresAt:       time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}
	mockService.On("CreateRoom", c.Request.Context(), session.CreateRoomInput{
		HostID:          "host-1",
		Name:            "Project Planning",
		MaxParticipants: 8,
		IsPrivate:       true,
		Credential:      "plan123",
		TTL:             2 * time.Hour,
	}).Return(room, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response roomResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "room-1", response.ID)
	assert.True(t, response.IsPrivate)
	// the credential hash never leaves the service layer
	assert.NotContains(t, w.Body.String(), "plan123")

	mockService.AssertExpectations(t)
}

func TestRoomHandler_join(t *testing.T) {
	mockService := &MockSessionUseCase{}
	handler := NewRoomHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "room-1"}}
	body, _ := json.Marshal(joinRoomRequest{UserID: "user-1", Credential: "x1"})
	c.Request = httptest.NewRequest("POST", "/rooms/room-1/join", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("Join", c.Request.Context(), "room-1", "user-1", "x1").Return(nil)

	handler.join(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestRoomHandler_join_errors(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"room full", domain.ErrRoomFull, http.StatusConflict},
		{"access denied", domain.ErrAccessDenied, http.StatusForbidden},
		{"room expired", domain.ErrRoomExpired, http.StatusGone},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockSessionUseCase{}
			handler := NewRoomHandler(mockService)

			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			c.Params = gin.Params{{Key: "id", Value: "room-1"}}
			body, _ := json.Marshal(joinRoomRequest{UserID: "user-1"})
			c.Request = httptest.NewRequest("POST", "/rooms/room-1/join", bytes.NewReader(body))
			c.Request.Header.Set("Content-Type", "application/json")

			mockService.On("Join", c.Request.Context(), "room-1", "user-1", "").Return(tc.err)

			handler.join(c)

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestRoomHandler_postMessage(t *testing.T) {
	mockService := &MockSessionUseCase{}
	handler := NewRoomHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "room-1"}}
	body, _ := json.Marshal(postMessageRequest{AuthorID: "user-1", Text: "Hello everyone!"})
	c.Request = httptest.NewRequest("POST", "/rooms/room-1/messages", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	message := &domain.Message{ID: "m1", RoomID: "room-1", AuthorID: "user-1", Seq: 1, Text: "Hello everyone!"}
	mockService.On("PostMessage", c.Request.Context(), "room-1", "user-1", "Hello everyone!").Return(message, nil)

	handler.postMessage(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestRoomHandler_listMessages(t *testing.T) {
	mockService := &MockSessionUseCase{}
	handler := NewRoomHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "room-1"}}
	c.Request = httptest.NewRequest("GET", "/rooms/room-1/messages?since_seq=5&limit=10", nil)

	messages := []domain.Message{
		{ID: "m6", RoomID: "room-1", Seq: 6},
		{ID: "m7", RoomID: "room-1", Seq: 7},
	}
	mockService.On("ListMessages", c.Request.Context(), "room-1", int64(5), 10).Return(messages, nil)

	handler.listMessages(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []domain.Message
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response, 2)
	assert.Equal(t, int64(6), response[0].Seq)

	mockService.AssertExpectations(t)
}
