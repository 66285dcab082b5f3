package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"
)

type trackerState struct {
	Serial  string
	Tracked bool
	battery int
}

// assertLogMatches fuzzy matches a log line: it checks the shape of the time, the level, the
// file name (not the line number), the message and any structured fields.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualParts := strings.Split(strings.TrimSuffix(output, "\n"), "\t")
	expectedParts := strings.Split(expected, "\t")
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])

	actualFilename, actualLineNumber, found := strings.Cut(actualParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, _ := strings.Cut(expectedParts[2], ":")
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualParts[3], test.ShouldEqual, expectedParts[3])
	if len(actualParts) == 4 {
		return
	}

	expectedMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(expectedParts[4]), &expectedMap), test.ShouldBeNil)
	actualMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(actualParts[4]), &actualMap), test.ShouldBeNil)
	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func newBufferLogger(level Level) (*impl, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return newImpl("", level, true, NewWriterAppender(buf)), buf
}

func TestConsoleOutputFormat(t *testing.T) {
	logger, buf := newBufferLogger(DEBUG)

	logger.Info("headset found")
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	INFO	logging/impl_test.go:60	headset found`)

	logger.Warnf("missed %d frames", 3)
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	WARN	logging/impl_test.go:64	missed 3 frames`)

	logger.Debugw("device", "id", 2, "class", "controller")
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	DEBUG	logging/impl_test.go:68	device	{"class":"controller","id":2}`)

	// private fields are not serialized
	logger.Infow("tracker", "state", trackerState{"LHR-1", true, 80})
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	INFO	logging/impl_test.go:73	tracker	{"state":{"Serial":"LHR-1","Tracked":true}}`)

	logger.Errorw("unpaired", "lonely")
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	ERROR	logging/impl_test.go:77	unpaired	{"lonely":"unpaired log key"}`)
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(WARN)

	logger.Debug("hidden")
	logger.Info("hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	logger.Warn("shown")
	assertLogMatches(t, buf, `2023-10-30T09:12:09.459Z	WARN	logging/impl_test.go:89	shown`)

	logger.CDebug(context.Background(), "hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	ctx := EnableDebugMode(context.Background(), "")
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	test.That(t, len(DebugKey(ctx)), test.ShouldEqual, 6)
	logger.CDebugf(ctx, "shown %s", "anyway")
	assertLogMatches(t, buf, `2023-10-30T09:12:09.459Z	DEBUG	logging/impl_test.go:98	shown anyway`)

	logger.SetLevel(ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, ERROR)
	logger.Warn("hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("calibration")
	sub.Infow("committed", "height", 1.6)

	entries := observed.FilterMessage("committed").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "calibration")
	test.That(t, entries[0].ContextMap()["height"], test.ShouldEqual, 1.6)

	nested := sub.Sublogger("floor")
	nested.Info("reset")
	test.That(t, observed.FilterMessage("reset").All()[0].LoggerName, test.ShouldEqual, "calibration.floor")

	_, ok := globalRegistry.loggerNamed("calibration")
	test.That(t, ok, test.ShouldBeFalse)
}

func TestSubloggersOfSeparateParents(t *testing.T) {
	first, firstObserved := NewObservedTestLogger(t)
	second, secondObserved := NewObservedTestLogger(t)

	first.Sublogger("calibration").Info("first session")
	second.Sublogger("calibration").Info("second session")

	test.That(t, firstObserved.Len(), test.ShouldEqual, 1)
	test.That(t, firstObserved.All()[0].Message, test.ShouldEqual, "first session")
	test.That(t, secondObserved.Len(), test.ShouldEqual, 1)
	test.That(t, secondObserved.All()[0].Message, test.ShouldEqual, "second session")
}

func TestSubloggerOfRegisteredLogger(t *testing.T) {
	parent := NewLogger("vrtest")
	defer globalRegistry.deregisterLogger("vrtest")
	defer globalRegistry.deregisterLogger("vrtest.devices")

	sub := parent.Sublogger("devices")
	registered, ok := globalRegistry.loggerNamed("vrtest.devices")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, registered, test.ShouldEqual, sub)
	test.That(t, parent.Sublogger("devices"), test.ShouldEqual, sub)
}

func TestLevelJSON(t *testing.T) {
	for _, level := range []Level{DEBUG, INFO, WARN, ERROR} {
		data, err := json.Marshal(level)
		test.That(t, err, test.ShouldBeNil)
		var back Level
		test.That(t, json.Unmarshal(data, &back), test.ShouldBeNil)
		test.That(t, back, test.ShouldEqual, level)
	}

	level, err := LevelFromString("Warning")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)

	_, err = LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "loud")
}
