// Package slog adapts a log/slog handler to logger.Logger, for callers that
// already route their logs through the standard structured logger.
package slog

import (
	"context"
	"log/slog"

	"github.com/neo4jrest/neo4j.go/pkg/logger"
)

var _ logger.Logger = (*SlogHandler)(nil)

type SlogHandler struct {
	logger *slog.Logger
}

func New(h slog.Handler) *SlogHandler {
	return &SlogHandler{logger: slog.New(h)}
}

// With returns a handler that adds args to every record.
func (handler *SlogHandler) With(args ...any) *SlogHandler {
	return &SlogHandler{logger: handler.logger.With(args...)}
}

func (handler *SlogHandler) Error(msg string, args ...any) {
	handler.log(slog.LevelError, msg, args)
}

func (handler *SlogHandler) Warn(msg string, args ...any) {
	handler.log(slog.LevelWarn, msg, args)
}

func (handler *SlogHandler) Info(msg string, args ...any) {
	handler.log(slog.LevelInfo, msg, args)
}

func (handler *SlogHandler) Debug(msg string, args ...any) {
	handler.log(slog.LevelDebug, msg, args)
}

func (handler *SlogHandler) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !handler.logger.Enabled(ctx, level) {
		return
	}
	handler.logger.Log(ctx, level, msg, args...)
}
