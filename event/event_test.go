package event

import (
	"testing"

	"go.viam.com/test"
)

func TestEvent(t *testing.T) {
	var e Event[int]
	var got []int
	unsubA := e.Subscribe(func(v int) { got = append(got, v) })
	e.Subscribe(func(v int) { got = append(got, v*10) })
	test.That(t, e.Len(), test.ShouldEqual, 2)

	e.Fire(1)
	test.That(t, got, test.ShouldResemble, []int{1, 10})

	unsubA()
	unsubA()
	test.That(t, e.Len(), test.ShouldEqual, 1)
	e.Fire(2)
	test.That(t, got, test.ShouldResemble, []int{1, 10, 20})
}

func TestEventUnsubscribeDuringFire(t *testing.T) {
	var e Event[string]
	calls := 0
	var unsub func()
	unsub = e.Subscribe(func(string) {
		calls++
		unsub()
	})
	e.Subscribe(func(string) { calls++ })

	e.Fire("a")
	test.That(t, calls, test.ShouldEqual, 2)
	e.Fire("b")
	test.That(t, calls, test.ShouldEqual, 3)
}
