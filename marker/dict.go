package marker

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/trickeydan/zoloto/calibration"
)

// Dict is the wire form of a Marker. It serializes losslessly through
// standard JSON; rvec and tvec are present only when the marker's pose is
// known.
type Dict struct {
	ID           int         `json:"id"`
	Size         float64     `json:"size"`
	PixelCorners [][]float64 `json:"pixel_corners"`
	RVec         []float64   `json:"rvec,omitempty"`
	TVec         []float64   `json:"tvec,omitempty"`
}

// AsDict serializes the marker. A marker that cannot compute its pose for
// lack of calibration parameters serializes without rvec/tvec rather than
// failing; any other pose estimation failure is returned.
func (m *Marker) AsDict() (Dict, error) {
	corners := make([][]float64, 0, len(m.pixelCorners))
	for _, c := range m.pixelCorners {
		corners = append(corners, []float64{c.X, c.Y})
	}
	d := Dict{ID: m.id, Size: m.size, PixelCorners: corners}
	vecs, err := m.poseVectors()
	if err != nil {
		if errors.Is(err, calibration.ErrMissingCalibrations) {
			return d, nil
		}
		return Dict{}, err
	}
	d.RVec = []float64{vecs.rvec.X, vecs.rvec.Y, vecs.rvec.Z}
	d.TVec = []float64{vecs.tvec.X, vecs.tvec.Y, vecs.tvec.Z}
	return d, nil
}

// FromDict reconstructs a Marker from its wire form. When both rvec and tvec
// are present the marker is eager; otherwise it is lazy with no calibration
// parameters, and any pose access on it fails. Calibration parameters are
// never restored from a dict; serialized markers carry pose results, not
// camera intrinsics.
func FromDict(d Dict) (*Marker, error) {
	if len(d.PixelCorners) != 4 {
		return nil, errors.Errorf("expected 4 pixel corners, got %d", len(d.PixelCorners))
	}
	var corners [4]r2.Point
	for i, c := range d.PixelCorners {
		if len(c) != 2 {
			return nil, errors.Errorf("pixel corner %d must have 2 coordinates, got %d", i, len(c))
		}
		corners[i] = r2.Point{X: c[0], Y: c[1]}
	}
	if len(d.RVec) == 3 && len(d.TVec) == 3 {
		rvec := r3.Vector{X: d.RVec[0], Y: d.RVec[1], Z: d.RVec[2]}
		tvec := r3.Vector{X: d.TVec[0], Y: d.TVec[1], Z: d.TVec[2]}
		return NewEager(d.ID, corners, d.Size, rvec, tvec), nil
	}
	return New(d.ID, corners, d.Size, nil), nil
}
