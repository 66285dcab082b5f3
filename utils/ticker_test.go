package utils

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.viam.com/test"

	"github.com/vrpose/vrpose/logging"
)

func TestRunAtRate(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	mock := clock.NewMock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int64
	done := make(chan error, 1)
	go func() {
		done <- RunAtRate(ctx, mock, 60, logger, func(context.Context) error {
			calls.Inc()
			return nil
		})
	}()

	for calls.Load() < 3 {
		mock.Add(time.Second / 60)
	}
	cancel()
	test.That(t, <-done, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("loop overran its period").Len(), test.ShouldEqual, 0)
}

func TestRunAtRateOverrun(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	mock := clock.NewMock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- RunAtRate(ctx, mock, 100, logger, func(context.Context) error {
			mock.Add(50 * time.Millisecond)
			cancel()
			return nil
		})
	}()

	for ctx.Err() == nil {
		mock.Add(10 * time.Millisecond)
	}
	test.That(t, <-done, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("loop overran its period").Len(), test.ShouldBeGreaterThanOrEqualTo, 1)
}

func TestRunAtRateStopsOnError(t *testing.T) {
	mock := clock.NewMock()
	boom := errors.New("pose query failed")

	done := make(chan error, 1)
	go func() {
		done <- RunAtRate(context.Background(), mock, 90, logging.NewTestLogger(t), func(context.Context) error {
			return boom
		})
	}()

	var err error
	for err == nil {
		mock.Add(time.Second / 90)
		select {
		case err = <-done:
		default:
		}
	}
	test.That(t, err, test.ShouldEqual, boom)

	err = RunAtRate(context.Background(), mock, 0, logging.NewTestLogger(t), nil)
	test.That(t, err, test.ShouldNotBeNil)
}
