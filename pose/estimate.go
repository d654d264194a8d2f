// Package pose recovers a marker's pose relative to the camera from its four
// detected pixel corners.
//
// The estimator uses the usual planar decomposition: the corner pixels are
// undistorted into normalized image coordinates, a homography from the marker
// plane is fit with a DLT, and the homography columns are scaled and
// orthonormalized into a rotation and a translation. Conventions match
// OpenCV's estimatePoseSingleMarkers: the object corners are
// (-s/2, s/2), (s/2, s/2), (s/2, -s/2), (-s/2, -s/2) on the z=0 plane and the
// rotation is returned as a Rodrigues rotation vector.
package pose

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/trickeydan/zoloto/calibration"
)

// object corners in marker units, scaled so the square spans ±1. The
// half-size is folded back in when the homography is decomposed.
var objectCorners = [4]r2.Point{{X: -1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: -1}}

// EstimateSingleMarker returns the rotation and translation vectors of a
// marker given its detected pixel corners in detector order, its physical
// side length, and the camera's calibration parameters.
func EstimateSingleMarker(
	corners [4]r2.Point,
	size float64,
	params *calibration.Parameters,
) (r3.Vector, r3.Vector, error) {
	if params == nil {
		return r3.Vector{}, r3.Vector{}, calibration.ErrMissingCalibrations
	}
	if err := params.CheckValid(); err != nil {
		return r3.Vector{}, r3.Vector{}, err
	}
	var normalized [4]r2.Point
	for i, c := range corners {
		normalized[i] = undistortNormalized(params, c)
	}
	h, err := markerHomography(normalized)
	if err != nil {
		return r3.Vector{}, r3.Vector{}, err
	}
	return decomposeHomography(h, size/2)
}

// EstimateMarkerPoses estimates poses for a batch of corner polygons of the
// same physical size, returning one (rvec, tvec) pair per polygon.
func EstimateMarkerPoses(
	polygons [][4]r2.Point,
	size float64,
	params *calibration.Parameters,
) ([]r3.Vector, []r3.Vector, error) {
	rvecs := make([]r3.Vector, 0, len(polygons))
	tvecs := make([]r3.Vector, 0, len(polygons))
	for i, poly := range polygons {
		rvec, tvec, err := EstimateSingleMarker(poly, size, params)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "estimating pose of polygon %d", i)
		}
		rvecs = append(rvecs, rvec)
		tvecs = append(tvecs, tvec)
	}
	return rvecs, tvecs, nil
}

// undistortNormalized converts a pixel to normalized image coordinates,
// removing lens distortion by fixed-point inversion of the Brown-Conrady
// model (coefficient order k1, k2, p1, p2, k3).
func undistortNormalized(params *calibration.Parameters, pt r2.Point) r2.Point {
	xd := (pt.X - params.Ppx()) / params.Fx()
	yd := (pt.Y - params.Ppy()) / params.Fy()
	var k1, k2, p1, p2, k3 float64
	d := params.DistCoeffs
	if len(d) > 0 {
		k1 = d[0]
	}
	if len(d) > 1 {
		k2 = d[1]
	}
	if len(d) > 2 {
		p1 = d[2]
	}
	if len(d) > 3 {
		p2 = d[3]
	}
	if len(d) > 4 {
		k3 = d[4]
	}
	if k1 == 0 && k2 == 0 && p1 == 0 && p2 == 0 && k3 == 0 {
		return r2.Point{X: xd, Y: yd}
	}
	const maxIterations = 20
	xu, yu := xd, yd
	for i := 0; i < maxIterations; i++ {
		rsq := xu*xu + yu*yu
		radial := 1 + rsq*(k1+rsq*(k2+rsq*k3))
		deltaX := 2*p1*xu*yu + p2*(rsq+2*xu*xu)
		deltaY := p1*(rsq+2*yu*yu) + 2*p2*xu*yu
		xu = (xd - deltaX) / radial
		yu = (yd - deltaY) / radial
	}
	return r2.Point{X: xu, Y: yu}
}

// markerHomography fits the homography mapping the unit marker square onto
// the normalized image corners, as the null vector of the stacked DLT system.
func markerHomography(img [4]r2.Point) (*mat.Dense, error) {
	a := mat.NewDense(8, 9, nil)
	for i, o := range objectCorners {
		x, y := img[i].X, img[i].Y
		a.SetRow(2*i, []float64{o.X, o.Y, 1, 0, 0, 0, -x * o.X, -x * o.Y, -x})
		a.SetRow(2*i+1, []float64{0, 0, 0, o.X, o.Y, 1, -y * o.X, -y * o.Y, -y})
	}
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFullV) {
		return nil, errors.New("could not factorize the homography system")
	}
	var v mat.Dense
	svd.VTo(&v)
	h := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			h.Set(i, j, v.At(3*i+j, 8))
		}
	}
	return h, nil
}

// decomposeHomography splits a marker-plane homography into a rotation
// vector and a translation vector. halfSize is half the marker side length,
// matching the ±1 span of the object corners.
func decomposeHomography(h *mat.Dense, halfSize float64) (r3.Vector, r3.Vector, error) {
	h1 := r3.Vector{X: h.At(0, 0), Y: h.At(1, 0), Z: h.At(2, 0)}
	h2 := r3.Vector{X: h.At(0, 1), Y: h.At(1, 1), Z: h.At(2, 1)}
	h3 := r3.Vector{X: h.At(0, 2), Y: h.At(1, 2), Z: h.At(2, 2)}
	n1, n2 := h1.Norm(), h2.Norm()
	if n1 == 0 || n2 == 0 {
		return r3.Vector{}, r3.Vector{}, errors.New("degenerate corner polygon")
	}
	scale := 2 / (n1 + n2)
	// the DLT null vector's sign is arbitrary; the marker must sit in front
	// of the camera
	if h3.Z*scale < 0 {
		scale = -scale
	}
	tvec := h3.Mul(scale * halfSize)
	col1 := h1.Mul(scale)
	col2 := h2.Mul(scale)
	rot, err := orthonormalize(col1, col2, col1.Cross(col2))
	if err != nil {
		return r3.Vector{}, r3.Vector{}, err
	}
	return rotationVector(rot), tvec, nil
}

// orthonormalize projects the matrix with the given columns onto the nearest
// rotation matrix via SVD.
func orthonormalize(c1, c2, c3 r3.Vector) (*mat.Dense, error) {
	m := mat.NewDense(3, 3, []float64{
		c1.X, c2.X, c3.X,
		c1.Y, c2.Y, c3.Y,
		c1.Z, c2.Z, c3.Z,
	})
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDFull) {
		return nil, errors.New("could not factorize the rotation estimate")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	var rot mat.Dense
	rot.Mul(&u, v.T())
	if mat.Det(&rot) < 0 {
		flip := mat.NewDiagDense(3, []float64{1, 1, -1})
		var uf mat.Dense
		uf.Mul(&u, flip)
		rot.Mul(&uf, v.T())
	}
	return &rot, nil
}

// rotationVector converts a rotation matrix to its Rodrigues vector, whose
// direction is the rotation axis and whose norm is the rotation angle.
func rotationVector(rot *mat.Dense) r3.Vector {
	trace := rot.At(0, 0) + rot.At(1, 1) + rot.At(2, 2)
	cosTheta := (trace - 1) / 2
	if cosTheta > 1 {
		cosTheta = 1
	} else if cosTheta < -1 {
		cosTheta = -1
	}
	theta := math.Acos(cosTheta)
	if theta < 1e-10 {
		return r3.Vector{}
	}
	if math.Pi-theta < 1e-6 {
		// near a half turn the off-diagonal difference terms vanish; take
		// the axis from the diagonal instead
		axis := r3.Vector{
			X: math.Sqrt(math.Max(0, (rot.At(0, 0)+1)/2)),
			Y: math.Sqrt(math.Max(0, (rot.At(1, 1)+1)/2)),
			Z: math.Sqrt(math.Max(0, (rot.At(2, 2)+1)/2)),
		}
		if rot.At(0, 1)+rot.At(1, 0) < 0 {
			axis.Y = -axis.Y
		}
		if rot.At(0, 2)+rot.At(2, 0) < 0 {
			axis.Z = -axis.Z
		}
		return axis.Normalize().Mul(theta)
	}
	s := 2 * math.Sin(theta)
	return r3.Vector{
		X: (rot.At(2, 1) - rot.At(1, 2)) / s,
		Y: (rot.At(0, 2) - rot.At(2, 0)) / s,
		Z: (rot.At(1, 0) - rot.At(0, 1)) / s,
	}.Mul(theta)
}
