package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"glowbook/backend/internal/domain"
	"glowbook/backend/internal/schedule"
)

type scheduleService interface {
	GenerateSlots(ctx context.Context, stylistID string, date time.Time, serviceDurationMinutes, granularityMinutes int) ([]domain.Slot, error)
	DaySchedule(ctx context.Context, stylistID string, date time.Time) (schedule.DaySchedule, error)

	GetWorkingHours(ctx context.Context, stylistID string) ([]domain.WorkingHoursRule, error)
	ReplaceWorkingHours(ctx context.Context, stylistID string, rules []schedule.WorkingHoursInput) ([]domain.WorkingHoursRule, error)

	CreateOneOffUnavailability(ctx context.Context, in schedule.CreateOneOffInput) (domain.OneOffUnavailability, error)
	ListOneOffUnavailability(ctx context.Context, stylistID string, windowStart, windowEnd time.Time) ([]domain.OneOffUnavailability, error)
	DeleteOneOffUnavailability(ctx context.Context, stylistID string, id uuid.UUID) error

	CreateSeries(ctx context.Context, in schedule.CreateSeriesInput) (domain.RecurringSeries, error)
	ListSeries(ctx context.Context, stylistID string) ([]domain.RecurringSeries, error)
	UpdateSeries(ctx context.Context, in schedule.UpdateSeriesInput) (domain.RecurringSeries, error)
	DeleteSeries(ctx context.Context, stylistID string, seriesID uuid.UUID) error
	CancelOccurrence(ctx context.Context, stylistID string, seriesID uuid.UUID, originalOccurrenceStart time.Time) (domain.SeriesException, error)
	MoveOccurrence(ctx context.Context, stylistID string, seriesID uuid.UUID, originalOccurrenceStart, newStart, newEnd time.Time) (domain.SeriesException, error)
	ClearOccurrenceException(ctx context.Context, stylistID string, seriesID uuid.UUID, originalOccurrenceStart time.Time) error

	CreateBooking(ctx context.Context, in schedule.CreateBookingInput) (domain.Booking, error)
	CancelBooking(ctx context.Context, stylistID string, bookingID uuid.UUID) error
}

type Server struct {
	svc scheduleService
	log *slog.Logger
}

func NewServer(svc scheduleService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		svc: svc,
		log: log.With(slog.String("component", "httpapi")),
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1/stylists/{stylistID}", func(r chi.Router) {
		r.Get("/slots", s.handleGetSlots)
		r.Get("/day", s.handleGetDaySchedule)

		r.Get("/working-hours", s.handleGetWorkingHours)
		r.Put("/working-hours", s.handleReplaceWorkingHours)

		r.Post("/unavailability", s.handleCreateOneOff)
		r.Get("/unavailability", s.handleListOneOff)
		r.Delete("/unavailability/{unavailabilityID}", s.handleDeleteOneOff)

		r.Post("/series", s.handleCreateSeries)
		r.Get("/series", s.handleListSeries)
		r.Put("/series/{seriesID}", s.handleUpdateSeries)
		r.Delete("/series/{seriesID}", s.handleDeleteSeries)
		r.Put("/series/{seriesID}/occurrences/{occurrenceStart}", s.handleOverrideOccurrence)
		r.Delete("/series/{seriesID}/occurrences/{occurrenceStart}", s.handleClearOccurrence)

		r.Post("/bookings", s.handleCreateBooking)
		r.Delete("/bookings/{bookingID}", s.handleCancelBooking)
	})

	return r
}
