package domain

import "time"

type Space struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Category    string
	HourlyRate  float64
	Capacity    int
	Amenities   []string
	RatingAvg   float64
	RatingCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
