package http

import (
	"log/slog"
	"net/http"
	"strings"

	"habits/internal/core"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.habits.ListTemplates(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List templates error", "error", err)
		writeErr(w, statusFor(err), "failed to load action templates")
		return
	}
	if templates == nil {
		templates = []core.ActionTemplate{}
	}
	writeOK(w, templates)
}

func (s *Server) handleUpsertTemplate(w http.ResponseWriter, r *http.Request) {
	var req core.ActionTemplate
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.habits.UpsertTemplate(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Upsert template error", "error", err, "name", req.Name)
			writeErr(w, status, "failed to save action template")
			return
		}
		writeErr(w, status, err.Error())
		return
	}
	writeOK(w, saved)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := req.ID
	if err := s.habits.DeleteTemplate(r.Context(), id); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Delete template error", "error", err, "id", id)
			writeErr(w, status, "failed to delete action template")
			return
		}
		writeErr(w, status, err.Error())
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleListCompletions(w http.ResponseWriter, r *http.Request) {
	dateKey, ok := requireDateParam(w, r)
	if !ok {
		return
	}

	records, err := s.habits.ListCompletions(r.Context(), dateKey)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "List completions error", "error", err, "date_key", dateKey)
			writeErr(w, status, "failed to load action logs")
			return
		}
		writeErr(w, status, err.Error())
		return
	}
	if records == nil {
		records = []core.CompletionRecord{}
	}
	writeOK(w, records)
}

func (s *Server) handleRecordCompletion(w http.ResponseWriter, r *http.Request) {
	s.handleCompletionChange(w, r, false)
}

func (s *Server) handleRemoveCompletion(w http.ResponseWriter, r *http.Request) {
	s.handleCompletionChange(w, r, true)
}

func (s *Server) handleCompletionChange(w http.ResponseWriter, r *http.Request, remove bool) {
	var rec core.CompletionRecord
	if err := decodeJSON(r, &rec); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	if remove {
		err = s.habits.RemoveCompletion(r.Context(), rec)
	} else {
		err = s.habits.RecordCompletion(r.Context(), rec)
	}
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Completion change error",
				"error", err,
				"action_id", rec.ActionID,
				"date_key", rec.DateKey,
				"remove", remove)
			writeErr(w, status, "failed to update action log")
			return
		}
		writeErr(w, status, err.Error())
		return
	}
	writeOK(w, rec)
}

func (s *Server) handleWeekStats(w http.ResponseWriter, r *http.Request) {
	dateKey, ok := requireDateParam(w, r)
	if !ok {
		return
	}

	week, tallies, err := s.habits.WeekStats(r.Context(), dateKey)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Week stats error", "error", err, "date_key", dateKey)
			writeErr(w, status, "failed to compute week stats")
			return
		}
		writeErr(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, weekStatsResponse{
		OK:        true,
		WeekStart: week.Start,
		WeekEnd:   week.End,
		Data:      tallies,
	})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	dateKey, ok := s.optionalDateParam(w, r)
	if !ok {
		return
	}

	plan, err := s.plans.GetPlan(r.Context(), dateKey)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Get plan error", "error", err, "date_key", dateKey)
			writeErr(w, status, "failed to load plan")
			return
		}
		writeErr(w, status, err.Error())
		return
	}
	// A day without a plan is data: null, not an error.
	writeOK(w, plan)
}

func (s *Server) handlePutPlan(w http.ResponseWriter, r *http.Request) {
	var plan core.DailyPlan
	if err := decodeJSON(r, &plan); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.plans.PutPlan(r.Context(), plan)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Put plan error", "error", err, "date_key", plan.DateKey)
			writeErr(w, status, "failed to save plan")
			return
		}
		writeErr(w, status, err.Error())
		return
	}
	writeOK(w, saved)
}

func (s *Server) handleGenerateDraft(w http.ResponseWriter, r *http.Request) {
	dateKey, ok := s.optionalDateParam(w, r)
	if !ok {
		return
	}

	draft, err := s.plans.GenerateDraft(r.Context(), dateKey)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Generate draft error", "error", err, "date_key", dateKey)
			writeErr(w, status, "failed to generate draft plan")
			return
		}
		writeErr(w, status, err.Error())
		return
	}
	writeOK(w, draft)
}

// dateParam reads the dateKey query parameter, accepting the shorter
// "date" spelling the plan routes historically used.
func dateParam(r *http.Request) string {
	if v := strings.TrimSpace(r.URL.Query().Get("dateKey")); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get("date"))
}

// requireDateParam extracts the dateKey query parameter, writing a 400
// when it is absent or not shaped like a date key.
func requireDateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	dateKey := dateParam(r)
	if dateKey == "" {
		writeErr(w, http.StatusBadRequest, "missing dateKey parameter")
		return "", false
	}
	if _, err := core.ParseDateKey(dateKey); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid dateKey parameter")
		return "", false
	}
	return dateKey, true
}

// optionalDateParam is requireDateParam with today (in the configured
// anchor timezone) as the fallback for an absent parameter.
func (s *Server) optionalDateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	dateKey := dateParam(r)
	if dateKey == "" {
		return core.CurrentDateKey(s.location), true
	}
	if !core.IsDateKey(dateKey) {
		writeErr(w, http.StatusBadRequest, "invalid dateKey parameter")
		return "", false
	}
	return dateKey, true
}
