package utils

import (
	"context"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestStoppableWorkers(t *testing.T) {
	var stopped atomic.Int32
	wait := func(ctx context.Context) {
		<-ctx.Done()
		stopped.Inc()
	}

	sw := NewStoppableWorkers(wait, wait)
	sw.AddWorkers(wait)
	test.That(t, sw.Context().Err(), test.ShouldBeNil)

	sw.Stop()
	test.That(t, int(stopped.Load()), test.ShouldEqual, 3)
	test.That(t, sw.Context().Err(), test.ShouldNotBeNil)

	// no new workers once stopped
	sw.AddWorkers(wait)
	sw.Stop()
	test.That(t, int(stopped.Load()), test.ShouldEqual, 3)
}
