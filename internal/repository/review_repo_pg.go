package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oakyard/oakyard/internal/domain"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByBooking(ctx context.Context, bookingID string) (*domain.Review, error)
	ListBySpace(ctx context.Context, spaceID string) ([]domain.Review, error)
}

type PGReviewRepository struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) ReviewRepository {
	return &PGReviewRepository{db: db}
}

const reviewColumns = `id, booking_id, space_id, user_id, rating, comment, created_at`

func (r *PGReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	// booking_id carries a unique constraint: one review per booking, enforced
	// by storage as well as by the engine.
	return r.db.QueryRow(ctx, `INSERT INTO reviews (id, booking_id, space_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		review.ID, review.BookingID, review.SpaceID, review.UserID, review.Rating, review.Comment).
		Scan(&review.CreatedAt)
}

func (r *PGReviewRepository) GetByBooking(ctx context.Context, bookingID string) (*domain.Review, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE booking_id=$1`, bookingID)
	var rv domain.Review
	err := row.Scan(&rv.ID, &rv.BookingID, &rv.SpaceID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *PGReviewRepository) ListBySpace(ctx context.Context, spaceID string) ([]domain.Review, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE space_id=$1 ORDER BY created_at DESC`, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.BookingID, &rv.SpaceID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

var _ ReviewRepository = (*PGReviewRepository)(nil)
