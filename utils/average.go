package utils

// Summable is a value that can be summed and scaled, such as an r3.Vector.
type Summable[T any] interface {
	Add(T) T
	Mul(float64) T
}

// RollingAverage keeps the last N samples in a circular buffer. The buffer starts zeroed, so the
// average is defined from the first sample and is biased toward zero until N samples arrive.
type RollingAverage[T Summable[T]] struct {
	data []T
	pos  int
}

// NewRollingAverage returns a rolling average over numSamples samples.
func NewRollingAverage[T Summable[T]](numSamples int) *RollingAverage[T] {
	if numSamples < 1 {
		numSamples = 1
	}
	return &RollingAverage[T]{data: make([]T, numSamples)}
}

// NumSamples returns the window size.
func (ra *RollingAverage[T]) NumSamples() int {
	return len(ra.data)
}

// Add overwrites the oldest sample.
func (ra *RollingAverage[T]) Add(x T) {
	ra.data[ra.pos] = x
	ra.pos++
	if ra.pos >= len(ra.data) {
		ra.pos = 0
	}
}

// Average returns the mean of the whole buffer.
func (ra *RollingAverage[T]) Average() T {
	var sum T
	for _, d := range ra.data {
		sum = sum.Add(d)
	}
	return sum.Mul(1 / float64(len(ra.data)))
}
