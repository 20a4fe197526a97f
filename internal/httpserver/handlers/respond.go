package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/logger"
)

// errorBody is the shape of every failed API response.
type errorBody struct {
	Success   bool     `json:"success"`
	Error     string   `json:"error"`
	Message   string   `json:"message"`
	Code      string   `json:"code"`
	Timestamp string   `json:"timestamp"`
	Details   []string `json:"details,omitempty"`
	Debug     []string `json:"debug,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError renders err through the error taxonomy. Unclassified errors
// become a 500 with a generic message; their cause chain is only exposed
// outside production.
func WriteError(d deps.Deps, w http.ResponseWriter, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Wrap(apperr.KindInternal, err, "Internal server error")
	}

	status := apperr.Status(ae)
	if status >= http.StatusInternalServerError {
		d.Logger.Error("request failed", logger.String("code", string(ae.Kind)), logger.Error(err))
	}

	body := errorBody{
		Error:     ae.Message,
		Message:   ae.Message,
		Code:      string(ae.Kind),
		Timestamp: timestamp(d),
		Details:   ae.Details,
	}
	if !d.Production {
		body.Debug = causeChain(err)
	}
	writeJSON(w, status, body)
}

// writeFailure renders a response whose error label differs from its
// message, e.g. "Authentication failed" / "Invalid credentials".
func writeFailure(d deps.Deps, w http.ResponseWriter, label string, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		WriteError(d, w, err)
		return
	}
	body := errorBody{
		Error:     label,
		Message:   ae.Message,
		Code:      string(ae.Kind),
		Timestamp: timestamp(d),
		Details:   ae.Details,
	}
	if !d.Production {
		body.Debug = causeChain(err)
	}
	writeJSON(w, apperr.Status(ae), body)
}

func causeChain(err error) []string {
	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, e.Error())
	}
	return chain
}

func timestamp(d deps.Deps) string {
	return d.Now().UTC().Format(time.RFC3339Nano)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Validation("Request body too large")
	}
	return apperr.Validation("Invalid JSON body")
}

// errorMessage prefers the user-facing message of classified errors.
func errorMessage(err error) string {
	if ae, ok := apperr.As(err); ok {
		return ae.Message
	}
	return err.Error()
}
