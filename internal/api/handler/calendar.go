package handler

import (
	"net/http"
	"time"

	"github.com/learnadoodle/planner/internal/api/middleware"
	"github.com/learnadoodle/planner/internal/api/response"
	"github.com/learnadoodle/planner/internal/api/validation"
	"github.com/learnadoodle/planner/internal/calendar"
)

type weekData struct {
	Date      string   `json:"date"`
	WeekStart string   `json:"weekStart"`
	WeekEnd   string   `json:"weekEnd"`
	Days      []string `json:"days"`
}

// CalendarHandler handles GET /api/calendar/week.
type CalendarHandler struct {
	now func() time.Time
}

// NewCalendarHandler creates a CalendarHandler; now defaults to time.Now.
func NewCalendarHandler(now func() time.Time) *CalendarHandler {
	if now == nil {
		now = time.Now
	}
	return &CalendarHandler{now: now}
}

// Week returns the Monday-based week containing ?date= (today when absent).
// weekEnd is exclusive.
func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	day := calendar.Midnight(h.now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := calendar.ParseDate(raw)
		if err != nil {
			response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed",
				[]validation.FieldError{{Field: "date", Message: "date must be a date in YYYY-MM-DD form"}}, requestID)
			return
		}
		day = parsed
	}

	data := weekData{
		Date:      calendar.Format(day),
		WeekStart: calendar.Format(calendar.WeekStart(day)),
		WeekEnd:   calendar.Format(calendar.WeekEnd(day)),
	}
	for _, d := range calendar.WeekDays(day) {
		data.Days = append(data.Days, calendar.Format(d))
	}

	response.Success(w, http.StatusOK, data, requestID)
}
