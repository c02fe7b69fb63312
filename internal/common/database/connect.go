package database

import (
	"context"
	"fmt"
	"time"

	"crew-portal/internal/common/logger"
)

// Pinger is anything /ready can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RetryWithBackoff calls fn up to maxRetries times, doubling the delay
// between attempts.
func RetryWithBackoff(ctx context.Context, log logger.Logger, name string, maxRetries int, initialDelay time.Duration, fn func() error) error {
	delay := initialDelay
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		log.Warn("connection attempt failed, retrying", map[string]interface{}{
			"target":  name,
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   err,
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s unavailable after %d attempts: %w", name, maxRetries, err)
}

// CheckAll pings every named dependency and returns the failures by name.
func CheckAll(ctx context.Context, deps map[string]Pinger) map[string]string {
	failures := map[string]string{}
	for name, p := range deps {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	return failures
}
