package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Envelope is the response body of every API endpoint
type Envelope struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// writeJSON marshals v before writing the status; an encode failure is
// answered with 500
func writeJSON(w http.ResponseWriter, r *http.Request, logger *zap.Logger, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to encode response",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(Envelope{
			StatusCode: status,
			Status:     http.StatusText(status),
			Error:      "internal error",
			RequestID:  middleware.GetReqID(r.Context()),
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func respondOK(w http.ResponseWriter, r *http.Request, logger *zap.Logger, data any) {
	writeJSON(w, r, logger, http.StatusOK, Envelope{
		StatusCode: http.StatusOK,
		Status:     http.StatusText(http.StatusOK),
		RequestID:  middleware.GetReqID(r.Context()),
		Data:       data,
	})
}

func respondError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, status int, err error) {
	writeJSON(w, r, logger, status, Envelope{
		StatusCode: status,
		Status:     http.StatusText(status),
		Error:      err.Error(),
		RequestID:  middleware.GetReqID(r.Context()),
	})
}
