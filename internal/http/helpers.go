package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"habits/internal/core"
)

// envelope is the shape of every API response body.
type envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// weekStatsResponse lifts the week bounds next to the envelope fields so
// clients can label the scoreboard without digging into data.
type weekStatsResponse struct {
	OK        bool                                 `json:"ok"`
	WeekStart string                               `json:"weekStart"`
	WeekEnd   string                               `json:"weekEnd"`
	Data      map[core.Category]core.CategoryTally `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{OK: true, Data: data})
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{OK: false, Error: msg})
}

// decodeJSON reads a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

// statusFor maps domain validation failures to 400 and everything else,
// store or queue trouble, to 500.
func statusFor(err error) int {
	for _, sentinel := range []error{
		core.ErrInvalidDateKey,
		core.ErrEmptyTemplateID,
		core.ErrEmptyName,
		core.ErrNameTooLong,
		core.ErrEmptyActionID,
		core.ErrInvalidPlanStatus,
		core.ErrEmptyPlanItemName,
	} {
		if errors.Is(err, sentinel) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
