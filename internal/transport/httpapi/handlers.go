package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"glowbook/backend/internal/domain"
	"glowbook/backend/internal/schedule"
)

const dateLayout = "2006-01-02"

// GET /v1/stylists/{stylistID}/slots?date=YYYY-MM-DD&duration=60[&granularity=30]
func (s *Server) handleGetSlots(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "GetSlots"))
	stylistID := chi.URLParam(r, "stylistID")

	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "duration is required (minutes)")
		return
	}
	granularity := 0
	if raw := r.URL.Query().Get("granularity"); raw != "" {
		granularity, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "granularity must be an integer (minutes)")
			return
		}
	}

	slots, err := s.svc.GenerateSlots(r.Context(), stylistID, date, duration, granularity)
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

// GET /v1/stylists/{stylistID}/day?date=YYYY-MM-DD
func (s *Server) handleGetDaySchedule(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "GetDaySchedule"))
	stylistID := chi.URLParam(r, "stylistID")

	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	day, err := s.svc.DaySchedule(r.Context(), stylistID, date)
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

type workingHoursRuleJSON struct {
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func toWorkingHoursJSON(rules []domain.WorkingHoursRule) []workingHoursRuleJSON {
	out := make([]workingHoursRuleJSON, 0, len(rules))
	for _, r := range rules {
		out = append(out, workingHoursRuleJSON{
			Weekday:   int(r.Weekday),
			StartTime: r.StartMinute.String(),
			EndTime:   r.EndMinute.String(),
		})
	}
	return out
}

func (s *Server) handleGetWorkingHours(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "GetWorkingHours"))
	rules, err := s.svc.GetWorkingHours(r.Context(), chi.URLParam(r, "stylistID"))
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": toWorkingHoursJSON(rules)})
}

// PUT /v1/stylists/{stylistID}/working-hours replaces the whole weekly set.
func (s *Server) handleReplaceWorkingHours(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "ReplaceWorkingHours"))
	stylistID := chi.URLParam(r, "stylistID")

	var body struct {
		Rules []workingHoursRuleJSON `json:"rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	in := make([]schedule.WorkingHoursInput, 0, len(body.Rules))
	for _, rule := range body.Rules {
		start, err := domain.ParseMinuteOfDay(rule.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_time must be HH:MM")
			return
		}
		end, err := domain.ParseMinuteOfDay(rule.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_time must be HH:MM")
			return
		}
		in = append(in, schedule.WorkingHoursInput{
			Weekday:     domain.Weekday(rule.Weekday),
			StartMinute: start,
			EndMinute:   end,
		})
	}

	rules, err := s.svc.ReplaceWorkingHours(r.Context(), stylistID, in)
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": toWorkingHoursJSON(rules)})
}

type oneOffJSON struct {
	ID        uuid.UUID `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Reason    string    `json:"reason,omitempty"`
}

func toOneOffJSON(u domain.OneOffUnavailability) oneOffJSON {
	return oneOffJSON{ID: u.ID, StartTime: u.StartTime, EndTime: u.EndTime, Reason: u.Reason}
}

func (s *Server) handleCreateOneOff(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "CreateOneOff"))
	stylistID := chi.URLParam(r, "stylistID")

	var body struct {
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
		Reason    string    `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	u, err := s.svc.CreateOneOffUnavailability(r.Context(), schedule.CreateOneOffInput{
		StylistID: stylistID,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Reason:    body.Reason,
	})
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOneOffJSON(u))
}

func (s *Server) handleListOneOff(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "ListOneOff"))
	stylistID := chi.URLParam(r, "stylistID")

	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be RFC3339")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be RFC3339")
		return
	}

	rows, err := s.svc.ListOneOffUnavailability(r.Context(), stylistID, from, to)
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	out := make([]oneOffJSON, 0, len(rows))
	for _, u := range rows {
		out = append(out, toOneOffJSON(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"unavailability": out})
}

func (s *Server) handleDeleteOneOff(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "DeleteOneOff"))
	id, err := uuid.Parse(chi.URLParam(r, "unavailabilityID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid unavailability id")
		return
	}
	if err := s.svc.DeleteOneOffUnavailability(r.Context(), chi.URLParam(r, "stylistID"), id); err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type seriesJSON struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Rule      string    `json:"rule"`
	StartDate string    `json:"start_date"`
	EndDate   *string   `json:"end_date,omitempty"`
}

func toSeriesJSON(series domain.RecurringSeries) seriesJSON {
	out := seriesJSON{
		ID:        series.ID,
		Title:     series.Title,
		StartTime: series.StartMinute.String(),
		EndTime:   series.EndMinute.String(),
		Rule:      series.Rule,
		StartDate: series.StartDate.Format(dateLayout),
	}
	if series.EndDate != nil {
		e := series.EndDate.Format(dateLayout)
		out.EndDate = &e
	}
	return out
}

type seriesBody struct {
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Rule      string `json:"rule"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (b seriesBody) toInput(stylistID string) (schedule.CreateSeriesInput, string) {
	start, err := domain.ParseMinuteOfDay(b.StartTime)
	if err != nil {
		return schedule.CreateSeriesInput{}, "start_time must be HH:MM"
	}
	end, err := domain.ParseMinuteOfDay(b.EndTime)
	if err != nil {
		return schedule.CreateSeriesInput{}, "end_time must be HH:MM"
	}
	rule, err := domain.ParseRecurrenceRule(b.Rule)
	if err != nil {
		return schedule.CreateSeriesInput{}, err.Error()
	}
	startDate, err := time.Parse(dateLayout, b.StartDate)
	if err != nil {
		return schedule.CreateSeriesInput{}, "start_date must be YYYY-MM-DD"
	}
	in := schedule.CreateSeriesInput{
		StylistID:   stylistID,
		Title:       b.Title,
		StartMinute: start,
		EndMinute:   end,
		Rule:        rule,
		StartDate:   startDate,
	}
	if strings.TrimSpace(b.EndDate) != "" {
		endDate, err := time.Parse(dateLayout, b.EndDate)
		if err != nil {
			return schedule.CreateSeriesInput{}, "end_date must be YYYY-MM-DD"
		}
		in.EndDate = &endDate
	}
	return in, ""
}

func (s *Server) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "CreateSeries"))
	stylistID := chi.URLParam(r, "stylistID")

	var body seriesBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in, msg := body.toInput(stylistID)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	series, err := s.svc.CreateSeries(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSeriesJSON(series))
}

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "ListSeries"))
	rows, err := s.svc.ListSeries(r.Context(), chi.URLParam(r, "stylistID"))
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	out := make([]seriesJSON, 0, len(rows))
	for _, series := range rows {
		out = append(out, toSeriesJSON(series))
	}
	writeJSON(w, http.StatusOK, map[string]any{"series": out})
}

// PUT /v1/stylists/{stylistID}/series/{seriesID} replaces the whole series
// definition, mirroring the working-hours endpoint; there is no partial
// update.
func (s *Server) handleUpdateSeries(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "UpdateSeries"))
	stylistID := chi.URLParam(r, "stylistID")
	seriesID, err := uuid.Parse(chi.URLParam(r, "seriesID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid series id")
		return
	}

	var body seriesBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in, msg := body.toInput(stylistID)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	series, err := s.svc.UpdateSeries(r.Context(), schedule.UpdateSeriesInput{
		SeriesID:          seriesID,
		CreateSeriesInput: in,
	})
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSeriesJSON(series))
}

func (s *Server) handleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "DeleteSeries"))
	seriesID, err := uuid.Parse(chi.URLParam(r, "seriesID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid series id")
		return
	}
	if err := s.svc.DeleteSeries(r.Context(), chi.URLParam(r, "stylistID"), seriesID); err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type exceptionJSON struct {
	SeriesID                uuid.UUID  `json:"series_id"`
	OriginalOccurrenceStart time.Time  `json:"original_occurrence_start"`
	NewStart                *time.Time `json:"new_start,omitempty"`
	NewEnd                  *time.Time `json:"new_end,omitempty"`
	Cancelled               bool       `json:"cancelled"`
}

func toExceptionJSON(ex domain.SeriesException) exceptionJSON {
	return exceptionJSON{
		SeriesID:                ex.SeriesID,
		OriginalOccurrenceStart: ex.OriginalOccurrenceStart,
		NewStart:                ex.NewStart,
		NewEnd:                  ex.NewEnd,
		Cancelled:               ex.IsCancellation(),
	}
}

// The occurrence path segment is the nominal start instant in unix
// nanoseconds, the same identity the slot and day views hand out.
func parseOccurrenceStart(r *http.Request) (time.Time, bool) {
	n, err := strconv.ParseInt(chi.URLParam(r, "occurrenceStart"), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, n).UTC(), true
}

// PUT /v1/stylists/{stylistID}/series/{seriesID}/occurrences/{occurrenceStart}
// Body: {"action":"cancel"} or {"action":"move","new_start":...,"new_end":...}
func (s *Server) handleOverrideOccurrence(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "OverrideOccurrence"))
	stylistID := chi.URLParam(r, "stylistID")
	seriesID, err := uuid.Parse(chi.URLParam(r, "seriesID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid series id")
		return
	}
	originalStart, ok := parseOccurrenceStart(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid occurrence start")
		return
	}

	var body struct {
		Action   string    `json:"action"`
		NewStart time.Time `json:"new_start"`
		NewEnd   time.Time `json:"new_end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var ex domain.SeriesException
	switch body.Action {
	case "cancel":
		ex, err = s.svc.CancelOccurrence(r.Context(), stylistID, seriesID, originalStart)
	case "move":
		ex, err = s.svc.MoveOccurrence(r.Context(), stylistID, seriesID, originalStart, body.NewStart, body.NewEnd)
	default:
		writeError(w, http.StatusBadRequest, "action must be cancel or move")
		return
	}
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toExceptionJSON(ex))
}

func (s *Server) handleClearOccurrence(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "ClearOccurrence"))
	seriesID, err := uuid.Parse(chi.URLParam(r, "seriesID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid series id")
		return
	}
	originalStart, ok := parseOccurrenceStart(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid occurrence start")
		return
	}
	if err := s.svc.ClearOccurrenceException(r.Context(), chi.URLParam(r, "stylistID"), seriesID, originalStart); err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bookingJSON struct {
	ID        uuid.UUID            `json:"id"`
	StartTime time.Time            `json:"start_time"`
	EndTime   time.Time            `json:"end_time"`
	Status    domain.BookingStatus `json:"status"`
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "CreateBooking"))
	stylistID := chi.URLParam(r, "stylistID")

	var body struct {
		StartTime      time.Time            `json:"start_time"`
		EndTime        time.Time            `json:"end_time"`
		Status         domain.BookingStatus `json:"status"`
		IdempotencyKey string               `json:"idempotency_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	b, err := s.svc.CreateBooking(r.Context(), schedule.CreateBookingInput{
		StylistID:      stylistID,
		StartTime:      body.StartTime,
		EndTime:        body.EndTime,
		Status:         body.Status,
		IdempotencyKey: body.IdempotencyKey,
	})
	if err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	log.Info("booking created",
		slog.String("booking_id", b.ID.String()),
		slog.String("stylist_id", b.StylistID),
		slog.Time("start_time", b.StartTime),
		slog.Time("end_time", b.EndTime),
	)
	writeJSON(w, http.StatusCreated, bookingJSON{ID: b.ID, StartTime: b.StartTime, EndTime: b.EndTime, Status: b.Status})
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "CancelBooking"))
	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	if err := s.svc.CancelBooking(r.Context(), chi.URLParam(r, "stylistID"), bookingID); err != nil {
		s.writeServiceError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
