// Package aruco detects ArUco and AprilTag markers with OpenCV's ArUco
// module via gocv. It needs OpenCV installed and cgo enabled.
package aruco

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gocv.io/x/gocv"

	"github.com/trickeydan/zoloto/detection"
	"github.com/trickeydan/zoloto/markertype"
)

// dictionaries maps marker families to gocv's predefined dictionary codes.
// This is the only place the registry's tokens meet the detector library.
var dictionaries = map[markertype.MarkerType]gocv.ArucoDictionaryCode{
	markertype.Dict4x4_50:    gocv.ArucoDictionaryCode4x4_50,
	markertype.Dict4x4_100:   gocv.ArucoDictionaryCode4x4_100,
	markertype.Dict4x4_250:   gocv.ArucoDictionaryCode4x4_250,
	markertype.Dict4x4_1000:  gocv.ArucoDictionaryCode4x4_1000,
	markertype.Dict5x5_50:    gocv.ArucoDictionaryCode5x5_50,
	markertype.Dict5x5_100:   gocv.ArucoDictionaryCode5x5_100,
	markertype.Dict5x5_250:   gocv.ArucoDictionaryCode5x5_250,
	markertype.Dict5x5_1000:  gocv.ArucoDictionaryCode5x5_1000,
	markertype.Dict6x6_50:    gocv.ArucoDictionaryCode6x6_50,
	markertype.Dict6x6_100:   gocv.ArucoDictionaryCode6x6_100,
	markertype.Dict6x6_250:   gocv.ArucoDictionaryCode6x6_250,
	markertype.Dict6x6_1000:  gocv.ArucoDictionaryCode6x6_1000,
	markertype.Dict7x7_50:    gocv.ArucoDictionaryCode7x7_50,
	markertype.Dict7x7_100:   gocv.ArucoDictionaryCode7x7_100,
	markertype.Dict7x7_250:   gocv.ArucoDictionaryCode7x7_250,
	markertype.Dict7x7_1000:  gocv.ArucoDictionaryCode7x7_1000,
	markertype.ArucoOriginal: gocv.ArucoDictionaryCodeArucoOriginal,
	markertype.AprilTag16h5:  gocv.ArucoDictionaryCodeAprilTag_16h5,
	markertype.AprilTag25h9:  gocv.ArucoDictionaryCodeAprilTag_25h9,
	markertype.AprilTag36h10: gocv.ArucoDictionaryCodeAprilTag_36h10,
	markertype.AprilTag36h11: gocv.ArucoDictionaryCodeAprilTag_36h11,
}

// Detector locates markers of a single family in a frame.
type Detector struct {
	detector gocv.ArucoDetector
}

// NewDetector returns a Detector for the given marker family.
func NewDetector(markerType markertype.MarkerType) (*Detector, error) {
	code, ok := dictionaries[markerType]
	if !ok {
		return nil, errors.Errorf("unsupported marker type %s", markerType)
	}
	dict := gocv.GetPredefinedDictionary(code)
	params := gocv.NewArucoDetectorParameters()
	return &Detector{detector: gocv.NewArucoDetectorWithParams(dict, params)}, nil
}

// Inference implements detection.Detector.
func (d *Detector) Inference(img image.Image) ([]detection.Detection, error) {
	frame, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "could not convert frame for detection")
	}
	defer utils.UncheckedErrorFunc(frame.Close)
	corners, ids, _ := d.detector.DetectMarkers(frame)
	detections := make([]detection.Detection, 0, len(ids))
	for i, id := range ids {
		if len(corners[i]) != 4 {
			continue
		}
		var poly [4]r2.Point
		for j, pt := range corners[i] {
			poly[j] = r2.Point{X: float64(pt.X), Y: float64(pt.Y)}
		}
		detections = append(detections, detection.Detection{ID: id, Corners: poly})
	}
	return detections, nil
}

// Close releases the underlying OpenCV detector.
func (d *Detector) Close() error {
	return d.detector.Close()
}
