package device_test

import (
	"testing"

	"go.viam.com/test"

	"github.com/vrpose/vrpose/device"
	"github.com/vrpose/vrpose/spatialmath"
)

func TestID(t *testing.T) {
	test.That(t, device.HeadsetID.Valid(), test.ShouldBeTrue)
	test.That(t, device.ID(device.MaxDeviceCount-1).Valid(), test.ShouldBeTrue)
	test.That(t, device.ID(device.MaxDeviceCount).Valid(), test.ShouldBeFalse)
	test.That(t, device.InvalidID.Valid(), test.ShouldBeFalse)
	test.That(t, device.InvalidID.String(), test.ShouldEqual, "invalid")
	test.That(t, device.ID(7).String(), test.ShouldEqual, "7")
}

func TestClassString(t *testing.T) {
	test.That(t, device.ClassGenericTracker.String(), test.ShouldEqual, "generic tracker")
	test.That(t, device.Class(42).String(), test.ShouldEqual, "unknown")
}

func TestUntrackedPose(t *testing.T) {
	p := device.UntrackedPose()
	test.That(t, p.IsTracked, test.ShouldBeFalse)
	test.That(t, spatialmath.AlmostEqual(p.DeviceToAbsolute, spatialmath.Identity(), 0), test.ShouldBeTrue)
}

func TestButtons(t *testing.T) {
	test.That(t, device.ButtonB, test.ShouldEqual, device.ButtonApplicationMenu)
	test.That(t, uint64(device.ButtonTouchpad), test.ShouldEqual, uint64(1)<<32)
	test.That(t, uint64(device.ButtonTrigger), test.ShouldEqual, uint64(1)<<33)
}
