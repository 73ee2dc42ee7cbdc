package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oakyard/oakyard/api"
	"github.com/oakyard/oakyard/config"
	"github.com/oakyard/oakyard/internal/service/reservation"
	"github.com/oakyard/oakyard/internal/service/session"
	"github.com/oakyard/oakyard/internal/service/spaces"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, spaceSvc spaces.SpaceUseCase, reservationSvc reservation.ReservationUseCase, sessionSvc session.SessionUseCase) error {
	router := NewRouter(spaceSvc, reservationSvc, sessionSvc)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(spaceSvc spaces.SpaceUseCase, reservationSvc reservation.ReservationUseCase, sessionSvc session.SessionUseCase) *gin.Engine {
	router := gin.Default()

	api.NewSpaceHandler(spaceSvc).Register(router.Group("/spaces"))
	api.NewBookingHandler(reservationSvc).Register(router.Group("/bookings"))
	api.NewRoomHandler(sessionSvc).Register(router.Group("/rooms"))

	return router
}
