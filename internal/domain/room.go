package domain

import "time"

// Room is an ephemeral live session. Expiry is a logical state derived from
// ExpiresAt, never a deletion: an expired room rejects joins and new messages
// but stays readable.
type Room struct {
	ID              string
	HostID          string
	Name            string
	Description     string
	MaxParticipants int
	IsPrivate       bool
	CredentialHash  string
	ExpiresAt       time.Time
	IsExpired       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r *Room) ExpiredAt(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

type Participant struct {
	RoomID   string
	UserID   string
	JoinedAt time.Time
}

type Message struct {
	ID        string
	RoomID    string
	AuthorID  string
	Seq       int64
	Text      string
	CreatedAt time.Time
}
