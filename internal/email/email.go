package email

import (
	"context"
	"fmt"

	"github.com/oakyard/oakyard/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	fmt.Printf("notify user %s: booking %s is %s (space %s, %s - %s)\n",
		event.UserID, event.BookingID, event.Type, event.SpaceID,
		event.StartTime.Format("15:04"), event.EndTime.Format("15:04"))
	return nil
}
