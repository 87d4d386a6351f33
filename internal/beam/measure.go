package beam

// Measurer supplies a received signal strength sample for a probe direction.
// Strength is a non-negative normalized scalar (typically 0..1). A negative
// return value is the cancellation sentinel: it aborts an in-progress scan.
type Measurer interface {
	Measure(azimuth, elevation float64) float64
}

// MeasureFunc adapts a plain function to the Measurer interface.
type MeasureFunc func(azimuth, elevation float64) float64

func (f MeasureFunc) Measure(azimuth, elevation float64) float64 {
	return f(azimuth, elevation)
}
