package utils

import (
	"io"

	"github.com/MrSnakeDoc/bigbrother/internal/logger"
)

// CloseLogged closes c and logs a failure under what. Nil closers are
// skipped so optional backends can be passed unconditionally.
func CloseLogged(c io.Closer, log logger.Logger, what string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("resource", what), logger.Error(err))
		return
	}
	log.Debug("closed", logger.String("resource", what))
}
