package utils

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/vrpose/vrpose/logging"
)

// RunAtRate calls fn hz times per second on clk until ctx is done or fn returns an error. A call
// that takes longer than one period is logged as an overrun and the next call starts on the
// following tick; missed ticks are not replayed.
func RunAtRate(ctx context.Context, clk clock.Clock, hz float64, logger logging.Logger, fn func(context.Context) error) error {
	if hz <= 0 {
		return errors.Errorf("rate must be positive, got %v", hz)
	}
	period := time.Duration(float64(time.Second) / hz)
	ticker := clk.Ticker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		start := clk.Now()
		if err := fn(ctx); err != nil {
			return err
		}
		if took := clk.Since(start); took > period {
			logger.Warnw("loop overran its period", "period", period, "took", took)
		}
	}
}
