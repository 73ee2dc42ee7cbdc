package reservation

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oakyard/oakyard/internal/clock"
	"github.com/oakyard/oakyard/internal/domain"
	"github.com/oakyard/oakyard/internal/interval"
	"github.com/oakyard/oakyard/internal/kafka"
	"github.com/oakyard/oakyard/internal/repository"
)

type ReservationUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]domain.Booking, error)
	ConfirmPayment(ctx context.Context, id string) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, id string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id string) (*domain.Booking, error)
	CompleteElapsed(ctx context.Context) ([]domain.Booking, error)
	SubmitReview(ctx context.Context, input SubmitReviewInput) (*domain.Review, error)
}

// Cache is the cross-instance hold on a space while its critical section runs.
type Cache interface {
	AcquireSpaceLock(ctx context.Context, spaceID string, ttl time.Duration) (bool, error)
	ReleaseSpaceLock(ctx context.Context, spaceID string) error
	InvalidateSpaces(ctx context.Context) error
}

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

const publishRetries = 3

type CreateBookingInput struct {
	SpaceID         string    `json:"space_id"`
	UserID          string    `json:"user_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	SpecialRequests string    `json:"special_requests"`
}

type SubmitReviewInput struct {
	BookingID string `json:"booking_id"`
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type Service struct {
	bookings repository.BookingRepository
	spaces   repository.SpaceRepository
	reviews  repository.ReviewRepository
	index    *interval.Index
	cache    Cache
	producer Producer
	clk      clock.Clock
	topic    string
	holdTTL  time.Duration

	// spaces whose interval index has been hydrated from storage
	hydrated sync.Map
}

type ServiceOption func(*Service)

func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) { s.clk = c }
}

func NewService(
	bookings repository.BookingRepository,
	spaces repository.SpaceRepository,
	reviews repository.ReviewRepository,
	index *interval.Index,
	cache Cache,
	producer Producer,
	topic string,
	holdTTL time.Duration,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		bookings: bookings,
		spaces:   spaces,
		reviews:  reviews,
		index:    index,
		cache:    cache,
		producer: producer,
		topic:    topic,
		holdTTL:  holdTTL,
		clk:      clock.System(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.SpaceID == "" {
		return nil, errors.New("space id is required")
	}
	if input.UserID == "" {
		return nil, errors.New("user id is required")
	}
	if !input.StartTime.Before(input.EndTime) {
		return nil, domain.ErrInvalidInterval
	}

	space, err := s.spaces.GetByID(ctx, input.SpaceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, domain.Unavailable(err)
	}

	release, err := s.lockSpace(ctx, input.SpaceID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.ensureIndexed(ctx, input.SpaceID); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:              uuid.NewString(),
		SpaceID:         input.SpaceID,
		UserID:          input.UserID,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		TotalAmount:     space.HourlyRate * input.EndTime.Sub(input.StartTime).Hours(),
		Status:          domain.BookingStatusPending,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		SpecialRequests: input.SpecialRequests,
	}

	// Check and claim the slot in one step; the booking only exists once the
	// insert below has been durably recorded.
	if err := s.index.InsertIfFree(input.SpaceID, booking.ID, input.StartTime, input.EndTime); err != nil {
		return nil, err
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		s.index.Remove(input.SpaceID, booking.ID)
		return nil, domain.Unavailable(err)
	}

	s.publish(ctx, "booking_created", booking)
	return booking, nil
}

func (s *Service) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *Service) ListUserBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	return s.bookings.ListForUser(ctx, userID)
}

// ConfirmPayment moves a pending booking to confirmed once its payment has
// been received.
func (s *Service) ConfirmPayment(ctx context.Context, id string) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.BookingStatusPending {
		return nil, &domain.InvalidTransitionError{From: current.Status, To: domain.BookingStatusConfirmed}
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusPending, domain.BookingStatusConfirmed, domain.PaymentStatusPaid)
	if errors.Is(err, domain.ErrNotFound) {
		// the status moved between the read and the conditional write
		if current, err = s.bookings.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, &domain.InvalidTransitionError{From: current.Status, To: domain.BookingStatusConfirmed}
	}
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	s.publish(ctx, "booking_confirmed", updated)
	return updated, nil
}

// CompleteBooking is the explicit completion trigger. The time-based trigger
// lives in CompleteElapsed; both take confirmed to completed.
func (s *Service) CompleteBooking(ctx context.Context, id string) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.BookingStatusConfirmed {
		return nil, &domain.InvalidTransitionError{From: current.Status, To: domain.BookingStatusCompleted}
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusConfirmed, domain.BookingStatusCompleted, current.PaymentStatus)
	if errors.Is(err, domain.ErrNotFound) {
		if current, err = s.bookings.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, &domain.InvalidTransitionError{From: current.Status, To: domain.BookingStatusCompleted}
	}
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	s.publish(ctx, "booking_completed", updated)
	return updated, nil
}

// CancelBooking is terminal and frees the slot: a new booking for the same
// interval succeeds immediately afterwards. Cancelling an already cancelled
// booking is a no-op.
func (s *Service) CancelBooking(ctx context.Context, id string) (*domain.Booking, error) {
	for {
		current, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		switch current.Status {
		case domain.BookingStatusCancelled:
			return current, nil
		case domain.BookingStatusCompleted:
			return nil, &domain.InvalidTransitionError{From: current.Status, To: domain.BookingStatusCancelled}
		}

		payment := current.PaymentStatus
		if payment == domain.PaymentStatusPaid {
			payment = domain.PaymentStatusRefunded
		}

		updated, err := s.bookings.UpdateStatus(ctx, id, current.Status, domain.BookingStatusCancelled, payment)
		if errors.Is(err, domain.ErrNotFound) {
			// lost a race with another transition; re-evaluate from storage
			continue
		}
		if err != nil {
			return nil, domain.Unavailable(err)
		}

		s.index.Remove(updated.SpaceID, updated.ID)
		s.publish(ctx, "booking_cancelled", updated)
		return updated, nil
	}
}

// CompleteElapsed completes every confirmed booking whose end time has
// passed. The worker runs it on a ticker.
func (s *Service) CompleteElapsed(ctx context.Context) ([]domain.Booking, error) {
	completed, err := s.bookings.CompleteConfirmedBefore(ctx, s.clk.Now())
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	for i := range completed {
		s.publish(ctx, "booking_completed", &completed[i])
	}
	return completed, nil
}

func (s *Service) SubmitReview(ctx context.Context, input SubmitReviewInput) (*domain.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, domain.ErrInvalidRating
	}

	booking, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusCompleted {
		return nil, domain.ErrBookingNotCompleted
	}

	// Rating writes share the space lock domain with booking mutation, so
	// concurrent submissions cannot lose updates.
	release, err := s.lockSpace(ctx, booking.SpaceID)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.reviews.GetByBooking(ctx, input.BookingID); err == nil {
		return nil, domain.ErrDuplicateReview
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unavailable(err)
	}

	space, err := s.spaces.GetByID(ctx, booking.SpaceID)
	if err != nil {
		return nil, domain.Unavailable(err)
	}

	review := &domain.Review{
		ID:        uuid.NewString(),
		BookingID: booking.ID,
		SpaceID:   booking.SpaceID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, domain.Unavailable(err)
	}

	avg, count := ApplyRating(space.RatingAvg, space.RatingCount, input.Rating)
	if err := s.spaces.UpdateRating(ctx, space.ID, avg, count); err != nil {
		return nil, domain.Unavailable(err)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateSpaces(ctx)
	}

	s.publish(ctx, "review_submitted", booking)
	return review, nil
}

// lockSpace takes the cross-instance hold on a space. A lock that cannot be
// acquired is reported as a collaborator failure, never treated as the slot
// being available.
func (s *Service) lockSpace(ctx context.Context, spaceID string) (func(), error) {
	if s.cache == nil {
		return func() {}, nil
	}
	ok, err := s.cache.AcquireSpaceLock(ctx, spaceID, s.holdTTL)
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	if !ok {
		return nil, domain.Unavailable(errors.New("space is locked by another request"))
	}
	return func() { _ = s.cache.ReleaseSpaceLock(ctx, spaceID) }, nil
}

// ensureIndexed hydrates the interval index of a space from its stored
// active bookings the first time the space is touched after startup.
func (s *Service) ensureIndexed(ctx context.Context, spaceID string) error {
	if _, ok := s.hydrated.Load(spaceID); ok {
		return nil
	}

	active, err := s.bookings.ListActiveBySpace(ctx, spaceID)
	if err != nil {
		return domain.Unavailable(err)
	}

	intervals := make([]interval.Interval, 0, len(active))
	for _, b := range active {
		intervals = append(intervals, interval.Interval{BookingID: b.ID, Start: b.StartTime, End: b.EndTime})
	}
	s.index.Rebuild(spaceID, intervals)
	s.hydrated.Store(spaceID, struct{}{})
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:          eventType,
		BookingID:     booking.ID,
		SpaceID:       booking.SpaceID,
		UserID:        booking.UserID,
		Status:        string(booking.Status),
		PaymentStatus: string(booking.PaymentStatus),
		StartTime:     booking.StartTime,
		EndTime:       booking.EndTime,
		TotalAmount:   booking.TotalAmount,
	}
	if err := s.producer.PublishWithRetry(ctx, s.topic, booking.ID, event, publishRetries); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %s: %v", eventType, booking.ID, err)
	}
}

var _ ReservationUseCase = (*Service)(nil)
