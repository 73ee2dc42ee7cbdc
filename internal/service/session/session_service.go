package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oakyard/oakyard/internal/clock"
	"github.com/oakyard/oakyard/internal/domain"
	"github.com/oakyard/oakyard/internal/kafka"
	"github.com/oakyard/oakyard/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type SessionUseCase interface {
	CreateRoom(ctx context.Context, input CreateRoomInput) (*domain.Room, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	Join(ctx context.Context, roomID, userID, credential string) error
	PostMessage(ctx context.Context, roomID, authorID, text string) (*domain.Message, error)
	ListMessages(ctx context.Context, roomID string, sinceSeq int64, limit int) ([]domain.Message, error)
	ExpireRooms(ctx context.Context) ([]domain.Room, error)
}

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

const publishRetries = 3

type CreateRoomInput struct {
	HostID          string        `json:"host_id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	MaxParticipants int           `json:"max_participants"`
	IsPrivate       bool          `json:"is_private"`
	Credential      string        `json:"credential"`
	TTL             time.Duration `json:"-"`
}

// roomState is the live, per-room side of a room: the participant set and the
// message sequence counter, guarded by one mutex so capacity-check-then-join
// and sequence assignment are atomic.
type roomState struct {
	mu           sync.Mutex
	participants map[string]struct{}
	nextSeq      int64
	hydrated     bool
}

type Service struct {
	rooms      repository.RoomRepository
	messages   repository.MessageRepository
	producer   Producer
	clk        clock.Clock
	topic      string
	defaultTTL time.Duration
	maxTTL     time.Duration

	states sync.Map // roomID -> *roomState
}

type ServiceOption func(*Service)

func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) { s.clk = c }
}

func WithRoomEventsTopic(topic string) ServiceOption {
	return func(s *Service) { s.topic = topic }
}

func NewService(
	rooms repository.RoomRepository,
	messages repository.MessageRepository,
	producer Producer,
	defaultTTL, maxTTL time.Duration,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		rooms:      rooms,
		messages:   messages,
		producer:   producer,
		clk:        clock.System(),
		defaultTTL: defaultTTL,
		maxTTL:     maxTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateRoom(ctx context.Context, input CreateRoomInput) (*domain.Room, error) {
	if input.HostID == "" {
		return nil, errors.New("host id is required")
	}
	if input.Name == "" {
		return nil, errors.New("room name is required")
	}
	if input.MaxParticipants <= 0 {
		return nil, errors.New("max participants must be positive")
	}
	if input.IsPrivate && input.Credential == "" {
		return nil, errors.New("private room requires a credential")
	}
	if !input.IsPrivate && input.Credential != "" {
		return nil, errors.New("credential is only allowed on private rooms")
	}

	ttl := input.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if s.maxTTL > 0 && ttl > s.maxTTL {
		ttl = s.maxTTL
	}

	now := s.clk.Now()
	room := &domain.Room{
		ID:              uuid.NewString(),
		HostID:          input.HostID,
		Name:            input.Name,
		Description:     input.Description,
		MaxParticipants: input.MaxParticipants,
		IsPrivate:       input.IsPrivate,
		ExpiresAt:       now.Add(ttl),
	}
	if input.IsPrivate {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Credential), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		room.CredentialHash = string(hash)
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, domain.Unavailable(err)
	}
	if err := s.rooms.AddParticipant(ctx, room.ID, input.HostID, now); err != nil {
		return nil, domain.Unavailable(err)
	}

	state := &roomState{participants: map[string]struct{}{input.HostID: {}}, hydrated: true}
	s.states.Store(room.ID, state)

	s.publish(ctx, "room_created", room)
	return room, nil
}

func (s *Service) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

// Join admits a user to a live room. Re-joining an existing participant is a
// no-op even when the room is full.
func (s *Service) Join(ctx context.Context, roomID, userID, credential string) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.ExpiredAt(s.clk.Now()) {
		return domain.ErrRoomExpired
	}

	state, err := s.state(ctx, roomID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if _, ok := state.participants[userID]; ok {
		return nil
	}
	if len(state.participants) >= room.MaxParticipants {
		return domain.ErrRoomFull
	}
	if room.IsPrivate {
		if bcrypt.CompareHashAndPassword([]byte(room.CredentialHash), []byte(credential)) != nil {
			return domain.ErrAccessDenied
		}
	}

	if err := s.rooms.AddParticipant(ctx, roomID, userID, s.clk.Now()); err != nil {
		return domain.Unavailable(err)
	}
	state.participants[userID] = struct{}{}
	return nil
}

// PostMessage appends to the room's message log with the next sequence
// number. Messages are never reordered or deleted.
func (s *Service) PostMessage(ctx context.Context, roomID, authorID, text string) (*domain.Message, error) {
	if text == "" {
		return nil, errors.New("message text is required")
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.ExpiredAt(s.clk.Now()) {
		return nil, domain.ErrRoomExpired
	}

	state, err := s.state(ctx, roomID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if _, ok := state.participants[authorID]; !ok {
		return nil, domain.ErrNotAParticipant
	}

	message := &domain.Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		AuthorID:  authorID,
		Seq:       state.nextSeq + 1,
		Text:      text,
		CreatedAt: s.clk.Now(),
	}
	if err := s.messages.Append(ctx, message); err != nil {
		return nil, domain.Unavailable(err)
	}
	state.nextSeq = message.Seq
	return message, nil
}

// ListMessages returns the room's messages with Seq > sinceSeq in insertion
// order. Expired rooms remain readable.
func (s *Service) ListMessages(ctx context.Context, roomID string, sinceSeq int64, limit int) ([]domain.Message, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListSince(ctx, roomID, sinceSeq, limit)
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	return messages, nil
}

// ExpireRooms is the optional sweep: it marks overdue rooms in storage and
// evicts their live state. The lazy expiry check stays authoritative, so the
// sweep never changes observable behavior.
func (s *Service) ExpireRooms(ctx context.Context) ([]domain.Room, error) {
	expired, err := s.rooms.MarkExpiredBefore(ctx, s.clk.Now())
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	for i := range expired {
		s.states.Delete(expired[i].ID)
		s.publish(ctx, "room_expired", &expired[i])
	}
	return expired, nil
}

// state returns the live state for a room, hydrating the participant set and
// sequence counter from storage on first touch after a restart.
func (s *Service) state(ctx context.Context, roomID string) (*roomState, error) {
	v, _ := s.states.LoadOrStore(roomID, &roomState{participants: make(map[string]struct{})})
	state := v.(*roomState)

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.hydrated {
		return state, nil
	}

	participants, err := s.rooms.ListParticipants(ctx, roomID)
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	for _, p := range participants {
		state.participants[p.UserID] = struct{}{}
	}

	seq, err := s.messages.MaxSeq(ctx, roomID)
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	state.nextSeq = seq
	state.hydrated = true
	return state, nil
}

func (s *Service) publish(ctx context.Context, eventType string, room *domain.Room) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.RoomEvent{
		Type:      eventType,
		RoomID:    room.ID,
		HostID:    room.HostID,
		ExpiresAt: room.ExpiresAt,
	}
	if err := s.producer.PublishWithRetry(ctx, s.topic, room.ID, event, publishRetries); err != nil {
		log.Printf("WARNING: failed to publish %s event for room %s: %v", eventType, room.ID, err)
	}
}

var _ SessionUseCase = (*Service)(nil)
