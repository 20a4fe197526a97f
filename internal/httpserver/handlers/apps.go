package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/auth"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/logger"
	"github.com/MrSnakeDoc/bigbrother/internal/registry"
)

type appsResponse struct {
	Success   bool                   `json:"success"`
	Apps      []registry.ProcessInfo `json:"apps"`
	Count     int                    `json:"count"`
	Timestamp string                 `json:"timestamp"`
}

type appResponse struct {
	Success   bool                  `json:"success"`
	App       *registry.ProcessInfo `json:"app"`
	Timestamp string                `json:"timestamp"`
}

// processName returns the process name under key. The registry accepts any
// name PM2 does, so only an empty one is rejected here.
func processName(r *http.Request, key string) (string, error) {
	name := chi.URLParam(r, key)
	if name == "" {
		return "", apperr.Validation("Application name is required")
	}
	return name, nil
}

// ListApps returns every process the registry manages.
func ListApps(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		procs, err := d.Registry.ListProcesses(r.Context())
		if err != nil {
			WriteError(d, w, err)
			return
		}
		if procs == nil {
			procs = []registry.ProcessInfo{}
		}
		writeJSON(w, http.StatusOK, appsResponse{
			Success:   true,
			Apps:      procs,
			Count:     len(procs),
			Timestamp: timestamp(d),
		})
	}
}

// GetApp returns a single process by name.
func GetApp(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := processName(r, "name")
		if err != nil {
			WriteError(d, w, err)
			return
		}
		proc, err := d.Registry.FindProcess(r.Context(), name)
		if err != nil {
			WriteError(d, w, err)
			return
		}
		writeJSON(w, http.StatusOK, appResponse{Success: true, App: proc, Timestamp: timestamp(d)})
	}
}

// RestartApp restarts a process.
func RestartApp(d deps.Deps) http.HandlerFunc {
	return control(d, "restart", d.Registry.Restart)
}

// StopApp stops a process.
func StopApp(d deps.Deps) http.HandlerFunc {
	return control(d, "stop", d.Registry.Stop)
}

type command func(ctx context.Context, name string) (registry.Result, error)

func control(d deps.Deps, op string, run command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := processName(r, "name")
		if err != nil {
			WriteError(d, w, err)
			return
		}

		caller, _ := auth.IdentityFrom(r.Context())
		res, err := run(r.Context(), name)
		if err != nil {
			d.Logger.Warn("app command failed",
				logger.String("op", op),
				logger.String("app", name),
				logger.String("by", caller.Username),
				logger.Error(err))
			WriteError(d, w, err)
			return
		}

		d.Logger.Info("app command succeeded",
			logger.String("op", op),
			logger.String("app", name),
			logger.String("by", caller.Username))
		writeJSON(w, http.StatusOK, messageResponse{
			Success:   true,
			Message:   res.Message,
			Timestamp: timestamp(d),
		})
	}
}
