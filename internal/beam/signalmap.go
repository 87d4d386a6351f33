package beam

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SignalMap is a fixed-resolution scalar field over (azimuth, elevation).
// Cells hold non-negative signal strengths in a dense row-major buffer
// indexed el*azSamples + az. Lookups snap to the nearest grid cell rather
// than interpolating so that gradient estimation and peak search stay
// consistent with the scan grid.
//
// A SignalMap is exclusively owned by its tracker and never resized.
type SignalMap struct {
	azMin, elMin float64
	azRes, elRes float64
	azSamples    int
	elSamples    int
	cells        []float64
}

// NewSignalMap builds a map covering [azMin, azMax] x [elMin, elMax] at the
// given per-axis resolutions. Sample count per axis is floor(range/res)+1.
func NewSignalMap(azMin, azMax, elMin, elMax, azRes, elRes float64) (*SignalMap, error) {
	if azMax-azMin <= 0 || elMax-elMin <= 0 {
		return nil, errorf(CodeInvalidParam, "signal map range must be positive")
	}
	if azRes <= 0 || elRes <= 0 {
		return nil, errorf(CodeInvalidParam, "signal map resolution must be positive")
	}
	m := &SignalMap{
		azMin:     azMin,
		elMin:     elMin,
		azRes:     azRes,
		elRes:     elRes,
		azSamples: int((azMax-azMin)/azRes) + 1,
		elSamples: int((elMax-elMin)/elRes) + 1,
	}
	m.cells = make([]float64, m.azSamples*m.elSamples)
	return m, nil
}

// index maps a coordinate onto its nearest cell index along one axis.
// Coordinates more than half a cell outside the grid are rejected.
func index(coord, min, res float64, samples int) (int, bool) {
	max := min + float64(samples-1)*res
	if coord < min-res/2 || coord > max+res/2 {
		return 0, false
	}
	i := int(math.Round((coord - min) / res))
	if i < 0 {
		i = 0
	}
	if i > samples-1 {
		i = samples - 1
	}
	return i, true
}

// Set stores a strength at the cell nearest (az, el).
func (m *SignalMap) Set(az, el, strength float64) error {
	if strength < 0 || math.IsNaN(strength) {
		return errorf(CodeInvalidParam, "strength %v must be non-negative", strength)
	}
	ia, ok := index(az, m.azMin, m.azRes, m.azSamples)
	if !ok {
		return errorf(CodeInvalidParam, "azimuth %.4f outside map", az)
	}
	ie, ok := index(el, m.elMin, m.elRes, m.elSamples)
	if !ok {
		return errorf(CodeInvalidParam, "elevation %.4f outside map", el)
	}
	m.cells[ie*m.azSamples+ia] = strength
	return nil
}

// Get returns the strength stored at the cell nearest (az, el).
func (m *SignalMap) Get(az, el float64) (float64, error) {
	ia, ok := index(az, m.azMin, m.azRes, m.azSamples)
	if !ok {
		return 0, errorf(CodeOutOfRange, "azimuth %.4f outside map", az)
	}
	ie, ok := index(el, m.elMin, m.elRes, m.elSamples)
	if !ok {
		return 0, errorf(CodeOutOfRange, "elevation %.4f outside map", el)
	}
	return m.cells[ie*m.azSamples+ia], nil
}

// Clear zeroes every cell.
func (m *SignalMap) Clear() {
	for i := range m.cells {
		m.cells[i] = 0
	}
}

// Peak returns the argmax cell. Ties break on the lowest index, which is the
// smallest elevation and then the smallest azimuth; floats.MaxIdx reports the
// first maximum, so the tie-break falls out of the row-major layout.
func (m *SignalMap) Peak() (az, el, strength float64) {
	i := floats.MaxIdx(m.cells)
	az = m.azMin + float64(i%m.azSamples)*m.azRes
	el = m.elMin + float64(i/m.azSamples)*m.elRes
	return az, el, m.cells[i]
}

// AzSamples reports the azimuth axis sample count.
func (m *SignalMap) AzSamples() int { return m.azSamples }

// ElSamples reports the elevation axis sample count.
func (m *SignalMap) ElSamples() int { return m.elSamples }

// Cell returns the grid coordinates of cell (ia, ie).
func (m *SignalMap) Cell(ia, ie int) (az, el float64) {
	return m.azMin + float64(ia)*m.azRes, m.elMin + float64(ie)*m.elRes
}
