// Package goroutine supervises the long running background work of the
// process, such as message consumers.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/sportsclub/internal/pkg/stacktrace"
)

const DefaultLimit = 64

// Manager runs named tasks, recovers their panics and collects errors.
// Once Wait is called no new task is accepted.
type Manager struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu     sync.Mutex
	errs   []error
	closed bool
}

func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Manager{sema: make(chan struct{}, limit)}
}

// Go starts fn unless the manager is closed or at its limit. It reports
// whether the task was started.
func (m *Manager) Go(ctx context.Context, name string, fn func(ctx context.Context) error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		slog.WarnContext(ctx, "goroutine manager closed, task not started", "task", name)
		return false
	}

	select {
	case m.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached, task not started", "task", name, "limit", cap(m.sema))
		return false
	}

	m.wg.Go(func() {
		defer func() { <-m.sema }()

		if err := m.run(ctx, name, fn); err != nil && !errors.Is(err, context.Canceled) {
			slog.ErrorContext(ctx, "background task stopped", "task", name, "error", err)
			m.mu.Lock()
			m.errs = append(m.errs, fmt.Errorf("%s: %w", name, err))
			m.mu.Unlock()
		}
	})
	return true
}

func (m *Manager) run(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in background task", "task", name, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in background task", "task", name, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("panic: %v", rvr)
		}
	}()

	return fn(ctx)
}

// Wait closes the manager, blocks until every task returns and joins
// their errors. Context cancellation is not reported as an error.
func (m *Manager) Wait() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Join(m.errs...)
}
