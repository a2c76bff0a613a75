package tui

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// ShutdownManager releases the viewer's resources once, whether the user
// quits or the program exits another way.
type ShutdownManager struct {
	// Timeout bounds the Prune step.
	Timeout time.Duration

	// Prune applies archive retention before the database is closed.
	Prune func(ctx context.Context) error

	// Closers are closed in order after Prune.
	Closers []io.Closer

	once sync.Once
	err  error
}

// NewShutdownManager creates a ShutdownManager with a 5-second timeout.
func NewShutdownManager() *ShutdownManager {
	return &ShutdownManager{
		Timeout: 5 * time.Second,
	}
}

// Shutdown prunes the archive then closes every closer. Later calls return
// the first call's result.
func (sm *ShutdownManager) Shutdown() error {
	sm.once.Do(func() {
		var errs []error

		if sm.Prune != nil {
			ctx, cancel := context.WithTimeout(context.Background(), sm.Timeout)
			if err := sm.Prune(ctx); err != nil {
				errs = append(errs, err)
			}
			cancel()
		}

		for _, c := range sm.Closers {
			if c == nil {
				continue
			}
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		sm.err = errors.Join(errs...)
	})
	return sm.err
}
