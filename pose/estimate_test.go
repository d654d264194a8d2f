package pose_test

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/trickeydan/zoloto/calibration"
	"github.com/trickeydan/zoloto/pose"
)

// rodrigues builds the rotation matrix for a rotation vector.
func rodrigues(rvec r3.Vector) *mat.Dense {
	rot := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	theta := rvec.Norm()
	if theta == 0 {
		return rot
	}
	k := rvec.Mul(1 / theta)
	skew := mat.NewDense(3, 3, []float64{
		0, -k.Z, k.Y,
		k.Z, 0, -k.X,
		-k.Y, k.X, 0,
	})
	var skewSq mat.Dense
	skewSq.Mul(skew, skew)
	var term1, term2 mat.Dense
	term1.Scale(math.Sin(theta), skew)
	term2.Scale(1-math.Cos(theta), &skewSq)
	rot.Add(rot, &term1)
	rot.Add(rot, &term2)
	return rot
}

// project renders the pixel corners a camera at the given pose would see.
func project(rvec, tvec r3.Vector, size float64, params *calibration.Parameters) [4]r2.Point {
	half := size / 2
	object := [4]r3.Vector{
		{X: -half, Y: half}, {X: half, Y: half}, {X: half, Y: -half}, {X: -half, Y: -half},
	}
	rot := rodrigues(rvec)
	var k1, k2, p1, p2, k3 float64
	d := params.DistCoeffs
	if len(d) == 5 {
		k1, k2, p1, p2, k3 = d[0], d[1], d[2], d[3], d[4]
	}
	var pixels [4]r2.Point
	for i, o := range object {
		cam := r3.Vector{
			X: rot.At(0, 0)*o.X + rot.At(0, 1)*o.Y + rot.At(0, 2)*o.Z + tvec.X,
			Y: rot.At(1, 0)*o.X + rot.At(1, 1)*o.Y + rot.At(1, 2)*o.Z + tvec.Y,
			Z: rot.At(2, 0)*o.X + rot.At(2, 1)*o.Y + rot.At(2, 2)*o.Z + tvec.Z,
		}
		x, y := cam.X/cam.Z, cam.Y/cam.Z
		rsq := x*x + y*y
		radial := 1 + k1*rsq + k2*rsq*rsq + k3*rsq*rsq*rsq
		xd := x*radial + 2*p1*x*y + p2*(rsq+2*x*x)
		yd := y*radial + p1*(rsq+2*y*y) + 2*p2*x*y
		pixels[i] = r2.Point{
			X: xd*params.Fx() + params.Ppx(),
			Y: yd*params.Fy() + params.Ppy(),
		}
	}
	return pixels
}

func testParams(distCoeffs []float64) *calibration.Parameters {
	return calibration.NewParameters(1000, 1000, 640, 360, distCoeffs)
}

func assertPoseRecovered(t *testing.T, rvec, tvec r3.Vector, size float64, params *calibration.Parameters, tol float64) {
	t.Helper()
	corners := project(rvec, tvec, size, params)
	gotR, gotT, err := pose.EstimateSingleMarker(corners, size, params)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gotR.X, test.ShouldAlmostEqual, rvec.X, tol)
	test.That(t, gotR.Y, test.ShouldAlmostEqual, rvec.Y, tol)
	test.That(t, gotR.Z, test.ShouldAlmostEqual, rvec.Z, tol)
	test.That(t, gotT.X, test.ShouldAlmostEqual, tvec.X, tol)
	test.That(t, gotT.Y, test.ShouldAlmostEqual, tvec.Y, tol)
	test.That(t, gotT.Z, test.ShouldAlmostEqual, tvec.Z, tol)
}

func TestEstimateFrontoParallel(t *testing.T) {
	assertPoseRecovered(t, r3.Vector{}, r3.Vector{X: 0.5, Y: 0.3, Z: 5}, 1, testParams(nil), 1e-8)
}

func TestEstimateRotated(t *testing.T) {
	assertPoseRecovered(t, r3.Vector{X: 0.4}, r3.Vector{Z: 5}, 1, testParams(nil), 1e-8)
	assertPoseRecovered(t, r3.Vector{X: 0.1, Y: -0.2, Z: 0.3}, r3.Vector{X: -0.4, Y: 0.2, Z: 3}, 0.25, testParams(nil), 1e-8)
}

func TestEstimateWithDistortion(t *testing.T) {
	coeffs := []float64{0.1, -0.05, 0.001, 0.002, 0.01}
	assertPoseRecovered(t, r3.Vector{X: 0.2, Y: 0.1}, r3.Vector{X: 0.3, Y: -0.1, Z: 4}, 0.5, testParams(coeffs), 1e-5)
}

func TestEstimateNoCalibration(t *testing.T) {
	corners := [4]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	_, _, err := pose.EstimateSingleMarker(corners, 1, nil)
	test.That(t, err, test.ShouldBeError, calibration.ErrMissingCalibrations)
}

func TestEstimateInvalidCalibration(t *testing.T) {
	corners := [4]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	_, _, err := pose.EstimateSingleMarker(corners, 1, calibration.NewParameters(-1, 1000, 640, 360, nil))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEstimateBatch(t *testing.T) {
	params := testParams(nil)
	poses := []struct {
		rvec r3.Vector
		tvec r3.Vector
	}{
		{r3.Vector{}, r3.Vector{Z: 2}},
		{r3.Vector{Y: 0.3}, r3.Vector{X: 0.5, Z: 4}},
	}
	polygons := make([][4]r2.Point, 0, len(poses))
	for _, p := range poses {
		polygons = append(polygons, project(p.rvec, p.tvec, 1, params))
	}
	rvecs, tvecs, err := pose.EstimateMarkerPoses(polygons, 1, params)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rvecs, test.ShouldHaveLength, 2)
	test.That(t, tvecs, test.ShouldHaveLength, 2)
	for i, p := range poses {
		test.That(t, rvecs[i].X, test.ShouldAlmostEqual, p.rvec.X, 1e-8)
		test.That(t, rvecs[i].Y, test.ShouldAlmostEqual, p.rvec.Y, 1e-8)
		test.That(t, rvecs[i].Z, test.ShouldAlmostEqual, p.rvec.Z, 1e-8)
		test.That(t, tvecs[i].X, test.ShouldAlmostEqual, p.tvec.X, 1e-8)
		test.That(t, tvecs[i].Y, test.ShouldAlmostEqual, p.tvec.Y, 1e-8)
		test.That(t, tvecs[i].Z, test.ShouldAlmostEqual, p.tvec.Z, 1e-8)
	}
}
