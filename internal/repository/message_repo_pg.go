package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oakyard/oakyard/internal/domain"
)

type MessageRepository interface {
	Append(ctx context.Context, message *domain.Message) error
	// ListSince returns messages of a room with Seq > sinceSeq in ascending
	// sequence order, up to limit (0 means no limit).
	ListSince(ctx context.Context, roomID string, sinceSeq int64, limit int) ([]domain.Message, error)
	MaxSeq(ctx context.Context, roomID string) (int64, error)
}

type PGMessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) MessageRepository {
	return &PGMessageRepository{db: db}
}

func (r *PGMessageRepository) Append(ctx context.Context, message *domain.Message) error {
	// (room_id, seq) is unique; the coordinator assigns seq under the room lock
	return r.db.QueryRow(ctx, `INSERT INTO messages (id, room_id, author_id, seq, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		message.ID, message.RoomID, message.AuthorID, message.Seq, message.Text, message.CreatedAt).
		Scan(&message.CreatedAt)
}

func (r *PGMessageRepository) ListSince(ctx context.Context, roomID string, sinceSeq int64, limit int) ([]domain.Message, error) {
	query := `SELECT id, room_id, author_id, seq, text, created_at FROM messages WHERE room_id=$1 AND seq > $2 ORDER BY seq`
	args := []any{roomID, sinceSeq}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.AuthorID, &m.Seq, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *PGMessageRepository) MaxSeq(ctx context.Context, roomID string) (int64, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM messages WHERE room_id=$1`, roomID).Scan(&seq)
	return seq, err
}

var _ MessageRepository = (*PGMessageRepository)(nil)
