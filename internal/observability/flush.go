package observability

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"
)

// FlushTelemetry flushes telemetry buffers before process exit.
// Metrics are pull-based, so this flushes logs and then runs each closer in order.
// Call during graceful shutdown after coordinators have stopped.
func FlushTelemetry(ctx context.Context, logger *zap.Logger, closers ...func(context.Context) error) error {
	var errs []error
	for _, c := range closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if logger != nil {
		// Sync on a terminal or pipe stderr reports EINVAL/ENOTTY; nothing was lost.
		if err := logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
			errs = append(errs, fmt.Errorf("flush logs: %w", err))
		}
	}
	return errors.Join(errs...)
}
