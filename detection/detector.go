// Package detection glues a marker detector to a frame source and turns raw
// detections into Markers.
package detection

import (
	"image"

	"github.com/golang/geo/r2"

	"github.com/trickeydan/zoloto/calibration"
	"github.com/trickeydan/zoloto/marker"
	"github.com/trickeydan/zoloto/pose"
)

// Detection is a single marker candidate located in a frame: the decoded
// marker id and the four corner pixels in detector order.
type Detection struct {
	ID      int
	Corners [4]r2.Point
}

// Detector locates markers in an image frame.
type Detector interface {
	Inference(img image.Image) ([]Detection, error)
}

// ToMarkers converts raw detections into Markers of the given physical size.
// params may be nil when no calibration is available; the resulting markers
// then only expose pixel geometry.
func ToMarkers(detections []Detection, size float64, params *calibration.Parameters) []*marker.Marker {
	markers := make([]*marker.Marker, 0, len(detections))
	for _, d := range detections {
		markers = append(markers, marker.New(d.ID, d.Corners, size, params))
	}
	return markers
}

// ToMarkersEager converts raw detections into eager Markers, estimating every
// pose up front in one batch. The returned markers never run pose estimation
// again, so pose-dependent accessors cannot fail later. Unlike ToMarkers,
// calibration parameters are required here.
func ToMarkersEager(detections []Detection, size float64, params *calibration.Parameters) ([]*marker.Marker, error) {
	polygons := make([][4]r2.Point, 0, len(detections))
	for _, d := range detections {
		polygons = append(polygons, d.Corners)
	}
	rvecs, tvecs, err := pose.EstimateMarkerPoses(polygons, size, params)
	if err != nil {
		return nil, err
	}
	markers := make([]*marker.Marker, 0, len(detections))
	for i, d := range detections {
		markers = append(markers, marker.NewEager(d.ID, d.Corners, size, rvecs[i], tvecs[i]))
	}
	return markers, nil
}
