package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/wp-inspector/internal/inspector"
)

const (
	inspectUsage = `GET /api/inspect?url=https://example.com or POST with { "url": "https://example.com" }`
	debugUsage   = `GET /api/debug?url=https://example.com`

	maxRequestBody = 1 << 20
)

type usageError struct {
	Error string `json:"error"`
	Usage string `json:"usage"`
}

type messageError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) inspect(w http.ResponseWriter, r *http.Request) {
	target, ok := s.readTarget(w, r, inspectUsage)
	if !ok {
		return
	}
	report, err := s.inspector.Inspect(r.Context(), target)
	if err != nil {
		s.writeFailure(w, r, err, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) debug(w http.ResponseWriter, r *http.Request) {
	target, ok := s.readTarget(w, r, debugUsage)
	if !ok {
		return
	}
	report, err := s.inspector.Debug(r.Context(), target)
	if err != nil {
		s.writeFailure(w, r, err, "Debug error")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// readTarget extracts the url from the query string, or for methods that
// carry a body from the JSON body (falling back to the query string), and
// validates it. Any method without a url gets the usage error.
func (s *Server) readTarget(w http.ResponseWriter, r *http.Request, usage string) (string, bool) {
	raw := r.URL.Query().Get("url")
	if r.Method != http.MethodGet && r.Method != http.MethodHead && r.Body != nil {
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&body); err == nil && body.URL != "" {
			raw = body.URL
		}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, usageError{Error: "URL parameter is required", Usage: usage})
		return "", false
	}
	if _, err := inspector.ParseTarget(raw); err != nil {
		writeInvalidURL(w)
		return "", false
	}
	return raw, true
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error, internalLabel string) {
	switch {
	case errors.Is(err, inspector.ErrInvalidURL):
		writeInvalidURL(w)
	case errors.Is(err, inspector.ErrBlockedTarget):
		writeJSON(w, http.StatusForbidden, messageError{
			Error:   "Target not allowed",
			Message: "This host cannot be inspected.",
		})
	case errors.Is(err, inspector.ErrUnreachable):
		writeJSON(w, http.StatusBadRequest, messageError{
			Error:   "Unable to reach the website",
			Message: "The URL could not be accessed. Please verify it is correct and publicly accessible.",
		})
	default:
		s.logger.Error("inspection failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, messageError{
			Error:   internalLabel,
			Message: err.Error(),
		})
	}
}

func writeInvalidURL(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, messageError{
		Error:   "Invalid URL format",
		Message: "Please provide a valid HTTP/HTTPS URL",
	})
}
