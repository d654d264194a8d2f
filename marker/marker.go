// Package marker implements the Marker type, the result of detecting a single
// fiducial tag in a camera frame.
//
// A Marker owns its pixel geometry outright; everything derived from the pose
// vectors (distance, orientation, cartesian and spherical coordinates) is
// computed on first use and cached. A marker constructed with its vectors
// already known is "eager" and never runs pose estimation; a "lazy" marker
// resolves its pose once, or fails every time with
// calibration.ErrMissingCalibrations if it was built without calibration
// parameters.
package marker

import (
	"math"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/trickeydan/zoloto/calibration"
	"github.com/trickeydan/zoloto/coords"
	"github.com/trickeydan/zoloto/pose"
)

// Estimator recovers pose vectors for a marker's corner polygon. It exists so
// callers can substitute their own estimation backend; New uses the built-in
// planar estimator.
type Estimator func(corners [4]r2.Point, size float64, params *calibration.Parameters) (r3.Vector, r3.Vector, error)

type poseVectors struct {
	rvec r3.Vector
	tvec r3.Vector
}

// poseState is the eager/lazy tagged union. Modelling the two cases as
// separate implementations keeps the impossible "precalculated but also
// missing" state unrepresentable.
type poseState interface {
	resolve(corners [4]r2.Point, size float64) (poseVectors, error)
}

type eagerPose struct {
	vectors poseVectors
}

func (p *eagerPose) resolve([4]r2.Point, float64) (poseVectors, error) {
	return p.vectors, nil
}

type lazyPose struct {
	params   *calibration.Parameters
	estimate Estimator
}

func (p *lazyPose) resolve(corners [4]r2.Point, size float64) (poseVectors, error) {
	if p.params == nil {
		return poseVectors{}, calibration.ErrMissingCalibrations
	}
	rvec, tvec, err := p.estimate(corners, size, p.params)
	if err != nil {
		return poseVectors{}, err
	}
	return poseVectors{rvec: rvec, tvec: tvec}, nil
}

// Marker is a single detected fiducial tag. Markers are immutable once
// constructed; the cached fields below are pure functions of that immutable
// state, so concurrent readers are safe.
type Marker struct {
	id           int
	size         float64
	pixelCorners [4]r2.Point
	state        poseState

	poseOnce sync.Once
	vectors  poseVectors
	poseErr  error

	centreOnce sync.Once
	centre     coords.Coordinates

	distOnce sync.Once
	dist     int

	sphereOnce sync.Once
	sphere     coords.Spherical
}

// New returns a lazy Marker for a detection with the given decoded id, corner
// polygon in detector order (top-left, top-right, bottom-right, bottom-left)
// and physical side length. params may be nil when no calibration is
// available; pose-dependent accessors then return
// calibration.ErrMissingCalibrations.
func New(id int, pixelCorners [4]r2.Point, size float64, params *calibration.Parameters) *Marker {
	return NewWithEstimator(id, pixelCorners, size, params, pose.EstimateSingleMarker)
}

// NewWithEstimator is New with a custom pose estimation backend.
func NewWithEstimator(
	id int,
	pixelCorners [4]r2.Point,
	size float64,
	params *calibration.Parameters,
	estimate Estimator,
) *Marker {
	return &Marker{
		id:           id,
		size:         size,
		pixelCorners: pixelCorners,
		state:        &lazyPose{params: params, estimate: estimate},
	}
}

// NewEager returns a Marker whose pose vectors are already known, e.g. one
// reconstructed from serialized data. No pose estimation is ever run for it.
func NewEager(id int, pixelCorners [4]r2.Point, size float64, rvec, tvec r3.Vector) *Marker {
	return &Marker{
		id:           id,
		size:         size,
		pixelCorners: pixelCorners,
		state:        &eagerPose{vectors: poseVectors{rvec: rvec, tvec: tvec}},
	}
}

// ID returns the decoded marker identity.
func (m *Marker) ID() int { return m.id }

// Size returns the marker's physical side length, in caller units.
func (m *Marker) Size() float64 { return m.size }

// IsEager reports whether the pose vectors were supplied at construction.
func (m *Marker) IsEager() bool {
	_, eager := m.state.(*eagerPose)
	return eager
}

// PixelCorners returns the detected corner polygon in detector order.
func (m *Marker) PixelCorners() []coords.Coordinates {
	corners := make([]coords.Coordinates, 0, len(m.pixelCorners))
	for _, c := range m.pixelCorners {
		corners = append(corners, coords.Coordinates{X: c.X, Y: c.Y})
	}
	return corners
}

// PixelCentre returns the centre of the marker in the image. The x term
// carries a -1 bias from the inclusive pixel bounds of the detected polygon;
// downstream consumers depend on the exact value.
func (m *Marker) PixelCentre() coords.Coordinates {
	m.centreOnce.Do(func() {
		tl, br := m.pixelCorners[0], m.pixelCorners[2]
		m.centre = coords.Coordinates{
			X: tl.X + m.size/2 - 1,
			Y: br.Y - m.size/2,
		}
	})
	return m.centre
}

// poseVectors resolves the pose at most once per Marker.
func (m *Marker) poseVectors() (poseVectors, error) {
	m.poseOnce.Do(func() {
		m.vectors, m.poseErr = m.state.resolve(m.pixelCorners, m.size)
	})
	return m.vectors, m.poseErr
}

// Distance returns the Euclidean distance from the camera to the marker,
// truncated toward zero.
func (m *Marker) Distance() (int, error) {
	vecs, err := m.poseVectors()
	if err != nil {
		return 0, err
	}
	m.distOnce.Do(func() {
		m.dist = int(vecs.tvec.Norm())
	})
	return m.dist, nil
}

// Orientation returns the raw rotation-vector components, in radians.
func (m *Marker) Orientation() (coords.Orientation, error) {
	vecs, err := m.poseVectors()
	if err != nil {
		return coords.Orientation{}, err
	}
	return coords.Orientation{RotX: vecs.rvec.X, RotY: vecs.rvec.Y, RotZ: vecs.rvec.Z}, nil
}

// Cartesian returns the translation from the camera to the marker.
func (m *Marker) Cartesian() (coords.ThreeDCoordinates, error) {
	vecs, err := m.poseVectors()
	if err != nil {
		return coords.ThreeDCoordinates{}, err
	}
	return coords.ThreeDCoordinates{X: vecs.tvec.X, Y: vecs.tvec.Y, Z: vecs.tvec.Z}, nil
}

// Spherical returns the marker's position as pan/tilt angles plus distance.
// Dist is always the same value Distance returns.
func (m *Marker) Spherical() (coords.Spherical, error) {
	dist, err := m.Distance()
	if err != nil {
		return coords.Spherical{}, err
	}
	m.sphereOnce.Do(func() {
		t := m.vectors.tvec
		m.sphere = coords.Spherical{
			RotX: math.Atan2(t.Y, t.Z),
			RotY: math.Atan2(t.X, t.Z),
			Dist: dist,
		}
	})
	return m.sphere, nil
}
