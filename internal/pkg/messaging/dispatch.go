package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/shandysiswandi/sportsclub/internal/pkg/stacktrace"
)

// settle makes Ack and Nack idempotent for every driver.
type settle struct {
	done atomic.Bool
}

func (s *settle) first() bool {
	return !s.done.Swap(true)
}

func (s *settle) settled() bool {
	return s.done.Load()
}

type settleable interface {
	Message
	settled() bool
}

// dispatch runs handler with panic recovery and applies auto ack.
func dispatch(ctx context.Context, driver string, handler Handler, msg settleable, autoAck bool) error {
	herr := safeHandle(ctx, driver, handler, msg)
	if !autoAck || msg.settled() {
		return herr
	}

	if herr != nil {
		slog.WarnContext(ctx, "message handler failed, requeueing", "driver", driver, "topic", msg.Topic(), "error", herr)
		return msg.Nack(ctx)
	}
	return msg.Ack(ctx)
}

func safeHandle(ctx context.Context, driver string, handler Handler, msg Message) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in message handler", "driver", driver, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in message handler", "driver", driver, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
		}
	}()

	return handler(ctx, msg)
}
