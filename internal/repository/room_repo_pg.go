package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oakyard/oakyard/internal/domain"
)

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id string) (*domain.Room, error)
	AddParticipant(ctx context.Context, roomID, userID string, joinedAt time.Time) error
	ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error)
	// MarkExpiredBefore flags rooms whose expiry has passed and returns them
	// so in-memory state can be evicted. Rooms are never deleted.
	MarkExpiredBefore(ctx context.Context, deadline time.Time) ([]domain.Room, error)
}

type PGRoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) RoomRepository {
	return &PGRoomRepository{db: db}
}

const roomColumns = `id, host_id, name, description, max_participants, is_private, credential_hash, expires_at, is_expired, created_at, updated_at`

func (r *PGRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	return r.db.QueryRow(ctx, `INSERT INTO rooms (id, host_id, name, description, max_participants, is_private, credential_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		room.ID, room.HostID, room.Name, room.Description, room.MaxParticipants,
		room.IsPrivate, room.CredentialHash, room.ExpiresAt).
		Scan(&room.CreatedAt, &room.UpdatedAt)
}

func (r *PGRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	row := r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id=$1`, id)
	var rm domain.Room
	err := row.Scan(&rm.ID, &rm.HostID, &rm.Name, &rm.Description, &rm.MaxParticipants,
		&rm.IsPrivate, &rm.CredentialHash, &rm.ExpiresAt, &rm.IsExpired, &rm.CreatedAt, &rm.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

func (r *PGRoomRepository) AddParticipant(ctx context.Context, roomID, userID string, joinedAt time.Time) error {
	// idempotent: rejoining an existing participant is a no-op
	_, err := r.db.Exec(ctx, `INSERT INTO room_participants (room_id, user_id, joined_at)
		VALUES ($1, $2, $3) ON CONFLICT (room_id, user_id) DO NOTHING`, roomID, userID, joinedAt)
	return err
}

func (r *PGRoomRepository) ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error) {
	rows, err := r.db.Query(ctx, `SELECT room_id, user_id, joined_at FROM room_participants WHERE room_id=$1 ORDER BY joined_at`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.RoomID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *PGRoomRepository) MarkExpiredBefore(ctx context.Context, deadline time.Time) ([]domain.Room, error) {
	rows, err := r.db.Query(ctx, `UPDATE rooms SET is_expired=true, updated_at=now()
		WHERE is_expired=false AND expires_at <= $1 RETURNING `+roomColumns, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var rm domain.Room
		if err := rows.Scan(&rm.ID, &rm.HostID, &rm.Name, &rm.Description, &rm.MaxParticipants,
			&rm.IsPrivate, &rm.CredentialHash, &rm.ExpiresAt, &rm.IsExpired, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, rm)
	}
	return rooms, rows.Err()
}

var _ RoomRepository = (*PGRoomRepository)(nil)
