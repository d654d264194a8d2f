package detection_test

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/trickeydan/zoloto/calibration"
	"github.com/trickeydan/zoloto/detection"
	"github.com/trickeydan/zoloto/detection/fake"
)

func TestFakeDetector(t *testing.T) {
	det := fake.NewDetector(25, 200)
	dets, err := det.Inference(image.NewGray(image.Rect(0, 0, 280, 280)))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dets, test.ShouldHaveLength, 1)
	test.That(t, dets[0].ID, test.ShouldEqual, 25)
	test.That(t, dets[0].Corners[0].X, test.ShouldEqual, 40)
	test.That(t, dets[0].Corners[0].Y, test.ShouldEqual, 40)
	test.That(t, dets[0].Corners[2].X, test.ShouldEqual, 239)
	test.That(t, dets[0].Corners[2].Y, test.ShouldEqual, 239)
}

func TestToMarkers(t *testing.T) {
	det := fake.NewDetector(25, 200)
	dets, err := det.Inference(image.NewGray(image.Rect(0, 0, 280, 280)))
	test.That(t, err, test.ShouldBeNil)

	markers := detection.ToMarkers(dets, 200, nil)
	test.That(t, markers, test.ShouldHaveLength, 1)
	m := markers[0]
	test.That(t, m.ID(), test.ShouldEqual, 25)
	test.That(t, m.Size(), test.ShouldEqual, 200)
	test.That(t, m.IsEager(), test.ShouldBeFalse)
	centre := m.PixelCentre()
	test.That(t, centre.X, test.ShouldEqual, 139)
	test.That(t, centre.Y, test.ShouldEqual, 139)
	// no calibration was supplied
	_, err = m.Distance()
	test.That(t, err, test.ShouldBeError, calibration.ErrMissingCalibrations)
}

func TestToMarkersEager(t *testing.T) {
	det := fake.NewDetector(25, 200)
	dets, err := det.Inference(image.NewGray(image.Rect(0, 0, 280, 280)))
	test.That(t, err, test.ShouldBeNil)
	params := calibration.NewParameters(500, 500, 139.5, 139.5, nil)

	markers, err := detection.ToMarkersEager(dets, 200, params)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, markers, test.ShouldHaveLength, 1)
	m := markers[0]
	test.That(t, m.ID(), test.ShouldEqual, 25)
	test.That(t, m.IsEager(), test.ShouldBeTrue)

	// an eager marker carries the same pose a lazy one would estimate
	lazy := detection.ToMarkers(dets, 200, params)[0]
	eagerDist, err := m.Distance()
	test.That(t, err, test.ShouldBeNil)
	lazyDist, err := lazy.Distance()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, eagerDist, test.ShouldEqual, lazyDist)
	eagerCart, err := m.Cartesian()
	test.That(t, err, test.ShouldBeNil)
	lazyCart, err := lazy.Cartesian()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, eagerCart, test.ShouldResemble, lazyCart)
}

func TestToMarkersEagerRequiresCalibration(t *testing.T) {
	det := fake.NewDetector(25, 200)
	dets, err := det.Inference(image.NewGray(image.Rect(0, 0, 280, 280)))
	test.That(t, err, test.ShouldBeNil)

	_, err = detection.ToMarkersEager(dets, 200, nil)
	test.That(t, errors.Is(err, calibration.ErrMissingCalibrations), test.ShouldBeTrue)
}
