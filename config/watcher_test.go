package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/atomic"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/vrpose/vrpose/logging"
	"github.com/vrpose/vrpose/utils"
)

func TestWatchReloadsExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	logger := logging.NewTestLogger(t)
	s, err := Read(path, logger)
	test.That(t, err, test.ShouldBeNil)

	heights := atomic.NewInt64(0)
	s.PlayerHeight.OnChanged(func(float64) { heights.Inc() })

	watchErr := make(chan error, 1)
	workers := utils.NewStoppableWorkers(func(ctx context.Context) {
		watchErr <- Watch(ctx, s, logger)
	})

	// the watch may not be registered yet, so keep rewriting until it is noticed
	testutils.WaitForAssertionWithSleep(t, 50*time.Millisecond, 100, func(tb testing.TB) {
		tb.Helper()
		writeFile(t, path, `{"player_height": 1.8, "handedness": "left"}`)
		test.That(tb, s.PlayerHeight.Get(), test.ShouldEqual, 1.8)
	})
	test.That(t, heights.Load(), test.ShouldEqual, int64(1))

	// a broken edit changes nothing
	writeFile(t, path, `{"player_height": `)
	time.Sleep(100 * time.Millisecond)
	test.That(t, s.PlayerHeight.Get(), test.ShouldEqual, 1.8)

	// keys left out go back to their defaults
	testutils.WaitForAssertionWithSleep(t, 50*time.Millisecond, 100, func(tb testing.TB) {
		tb.Helper()
		writeFile(t, path, `{"handedness": "left"}`)
		test.That(tb, s.PlayerHeight.Get(), test.ShouldEqual, 1.69)
	})

	workers.Stop()
	test.That(t, <-watchErr, test.ShouldBeNil)
}
