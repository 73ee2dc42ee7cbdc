package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oakyard/oakyard/internal/domain"
)

type SpaceRepository interface {
	Create(ctx context.Context, space *domain.Space) error
	GetByID(ctx context.Context, id string) (*domain.Space, error)
	List(ctx context.Context) ([]domain.Space, error)
	UpdateRating(ctx context.Context, id string, avg float64, count int) error
}

type PGSpaceRepository struct {
	db *pgxpool.Pool
}

func NewSpaceRepository(db *pgxpool.Pool) SpaceRepository {
	return &PGSpaceRepository{db: db}
}

const spaceColumns = `id, owner_id, title, description, category, hourly_rate, capacity, amenities, rating_avg, rating_count, created_at, updated_at`

func scanSpace(row pgx.Row) (*domain.Space, error) {
	var s domain.Space
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Title, &s.Description, &s.Category, &s.HourlyRate,
		&s.Capacity, &s.Amenities, &s.RatingAvg, &s.RatingCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGSpaceRepository) Create(ctx context.Context, space *domain.Space) error {
	return r.db.QueryRow(ctx, `INSERT INTO spaces (id, owner_id, title, description, category, hourly_rate, capacity, amenities)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING rating_avg, rating_count, created_at, updated_at`,
		space.ID, space.OwnerID, space.Title, space.Description, space.Category, space.HourlyRate, space.Capacity, space.Amenities).
		Scan(&space.RatingAvg, &space.RatingCount, &space.CreatedAt, &space.UpdatedAt)
}

func (r *PGSpaceRepository) GetByID(ctx context.Context, id string) (*domain.Space, error) {
	row := r.db.QueryRow(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE id=$1`, id)
	s, err := scanSpace(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

func (r *PGSpaceRepository) List(ctx context.Context) ([]domain.Space, error) {
	rows, err := r.db.Query(ctx, `SELECT `+spaceColumns+` FROM spaces ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spaces := make([]domain.Space, 0)
	for rows.Next() {
		s, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, *s)
	}
	return spaces, rows.Err()
}

func (r *PGSpaceRepository) UpdateRating(ctx context.Context, id string, avg float64, count int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE spaces SET rating_avg=$1, rating_count=$2, updated_at=now() WHERE id=$3`, avg, count, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ SpaceRepository = (*PGSpaceRepository)(nil)
