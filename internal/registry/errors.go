package registry

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/metrics"
)

const (
	MsgDaemonNotRunning = "PM2 daemon is not running. Please start PM2 first."
	MsgPermissionDenied = "Permission denied accessing PM2. Check PM2_HOME permissions."
	MsgTimeout          = "PM2 did not respond in time"
)

// MapError classifies a failure talking to the process manager. Errors that
// already carry a kind pass through unchanged.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	metrics.RegistryError(op)

	switch {
	case errors.Is(err, syscall.ENOENT), errors.Is(err, syscall.ECONNREFUSED),
		strings.Contains(err.Error(), "connect ENOENT"):
		return apperr.Registry(err, MsgDaemonNotRunning)
	case errors.Is(err, syscall.EACCES), errors.Is(err, os.ErrPermission):
		return apperr.Registry(err, MsgPermissionDenied)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return apperr.Registry(err, MsgTimeout)
	default:
		return apperr.Registry(err, "Failed to reach PM2")
	}
}

// CommandFailed classifies an error returned by a reachable process manager
// in response to op. "process not found" replies become not-found errors;
// anything else stays a registry error with a 500 status.
func CommandFailed(op, name string, err error) error {
	metrics.RegistryError(op)
	msg := err.Error()
	if strings.Contains(strings.ToLower(msg), "not found") || strings.Contains(msg, "No process found") {
		return &apperr.Error{Kind: apperr.KindNotFound, Message: "Application " + name + " not found", Err: err}
	}
	return apperr.RegistryCommand(err, "Failed to "+op+" application")
}
