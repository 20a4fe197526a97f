package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/logs"
	"github.com/MrSnakeDoc/bigbrother/internal/validation"
)

type logsResponse struct {
	Success bool `json:"success"`
	*logs.Result
	Timestamp string `json:"timestamp"`
}

// appParam returns the application name from the route. It ends up in a
// file path, so it must be a safe path component.
func appParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "appName")
	if !validation.AppName(name) {
		return "", apperr.Validation("Invalid application name").WithDetails(name)
	}
	return name, nil
}

// windowParams reads ?lines= and ?offset=. Missing or unparsable values fall
// back to the reader defaults.
func windowParams(r *http.Request) logs.Window {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("lines"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return logs.Window{Limit: limit, Offset: offset}
}

// StreamLogs serves the live output of an application as server-sent events.
func StreamLogs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := processName(r, "appName")
		if err != nil {
			WriteError(d, w, err)
			return
		}
		d.Streams.Serve(r.Context(), w, app)
	}
}

// HistoricalLogs returns a page of an application's PM2 log file.
func HistoricalLogs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := appParam(r)
		if err != nil {
			WriteError(d, w, err)
			return
		}

		res, err := d.Logs.Historical(r.Context(), app, windowParams(r))
		if err != nil {
			if apperr.Is(err, apperr.KindLogFile) {
				writeFailure(d, w, "Failed to read PM2 log file", err)
				return
			}
			WriteError(d, w, err)
			return
		}
		writeJSON(w, http.StatusOK, logsResponse{Success: true, Result: res, Timestamp: timestamp(d)})
	}
}

// FrontendLogs returns a page of an application's frontend log file, or
// guidance lines when there is none.
func FrontendLogs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := appParam(r)
		if err != nil {
			WriteError(d, w, err)
			return
		}

		res, err := d.Logs.Frontend(r.Context(), app, windowParams(r))
		if err != nil {
			if apperr.Is(err, apperr.KindLogFile) {
				writeFailure(d, w, "Failed to read log file", err)
				return
			}
			WriteError(d, w, err)
			return
		}
		writeJSON(w, http.StatusOK, logsResponse{Success: true, Result: res, Timestamp: timestamp(d)})
	}
}
