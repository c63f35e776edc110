package inventory

import (
	"context"
	"errors"
	"time"
)

// read runs fn with bounded retry. Only reads go through here; mutations are
// never retried.
func (s *service) read(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := s.retryBackoff
	var err error
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if errors.Is(err, ErrStockRowMissing) || ctx.Err() != nil || attempt == s.retryAttempts {
			break
		}

		s.metrics.IncReadRetry(op)
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"operation": op,
			"attempt":   attempt,
			"error":     err.Error(),
		})
		s.logg.Warn(logCtx, "stock read failed, retrying")

		if backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return persistence(op, ctx.Err())
			case <-timer.C:
			}
			backoff *= 2
		}
	}
	return persistence(op, err)
}
