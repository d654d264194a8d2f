// Package fake provides deterministic detection doubles for tests and demos.
package fake

import (
	"context"
	"image"

	"github.com/golang/geo/r2"

	"github.com/trickeydan/zoloto/detection"
)

// BorderSize is the default width in pixels of the quiet zone around a
// rendered marker.
const BorderSize = 40

// Detector always reports a single marker of a fixed id and pixel size,
// placed Border pixels from the top-left corner of the frame. The polygon
// matches what a real detector produces for a freshly rendered tag: the far
// corners sit on inclusive pixel bounds, hence the -1.
type Detector struct {
	MarkerID   int
	MarkerSize float64
	Border     float64
}

// NewDetector returns a Detector reporting the given marker with the default
// border.
func NewDetector(markerID int, markerSize float64) *Detector {
	return &Detector{MarkerID: markerID, MarkerSize: markerSize, Border: BorderSize}
}

// Inference implements detection.Detector. The frame contents are ignored.
func (d *Detector) Inference(image.Image) ([]detection.Detection, error) {
	b, s := d.Border, d.MarkerSize
	return []detection.Detection{{
		ID: d.MarkerID,
		Corners: [4]r2.Point{
			{X: b, Y: b},
			{X: b + s - 1, Y: b},
			{X: b + s - 1, Y: b + s - 1},
			{X: b, Y: b + s - 1},
		},
	}}, nil
}

// StaticSource is a FrameSource that returns the same frame forever.
type StaticSource struct {
	Frame image.Image
}

// Next implements detection.FrameSource.
func (s *StaticSource) Next(context.Context) (image.Image, func(), error) {
	if s.Frame == nil {
		return image.NewGray(image.Rect(0, 0, 280, 280)), func() {}, nil
	}
	return s.Frame, func() {}, nil
}

// Close implements detection.FrameSource.
func (s *StaticSource) Close() error { return nil }
