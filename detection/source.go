package detection

import (
	"context"
	"image"
	"io"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/trickeydan/zoloto/calibration"
	"github.com/trickeydan/zoloto/marker"
)

// FrameSource supplies raw camera frames to a detection pipeline. The release
// function returned by Next must be called once the frame is no longer used.
type FrameSource interface {
	Next(ctx context.Context) (image.Image, func(), error)
	Close() error
}

// Result is everything a single pipeline pass produced.
type Result struct {
	Frame   image.Image
	Markers []*marker.Marker
	Err     error
}

// Source "pulls" frames from a FrameSource in the background, applies the
// detector to them, and keeps the most recent result available through
// NextResult.
type Source struct {
	src         FrameSource
	det         Detector
	frameInput  chan *Result
	frameOutput chan *Result
	updater     chan struct{}
	cache       *Result
	ticker      *time.Ticker
	mutex       sync.RWMutex
	logger      golog.Logger
}

func buildAndStartPipeline(det Detector, size float64, params *calibration.Parameters) (chan *Result, chan *Result) {
	detect := func(in <-chan *Result, out chan<- *Result) {
		for r := range in {
			if r.Err == nil {
				var dets []Detection
				dets, r.Err = det.Inference(r.Frame)
				if r.Err == nil {
					r.Markers = ToMarkers(dets, size, params)
				}
			}
			out <- r
		}
		close(out)
	}
	frames := make(chan *Result)
	detected := make(chan *Result)
	go detect(frames, detected)
	return frames, detected
}

// NewSource builds the pipeline from a FrameSource, a Detector, the physical
// marker size, optional calibration parameters, and the rate at which the
// cached result is refreshed.
func NewSource(
	src FrameSource,
	det Detector,
	size float64,
	params *calibration.Parameters,
	fps float64,
	logger golog.Logger,
) (*Source, error) {
	if src == nil {
		return nil, errors.New("marker detection source must include a frame source to pull from")
	}
	if det == nil {
		return nil, errors.New("marker detector cannot be nil")
	}
	if fps <= 0 {
		return nil, errors.Errorf("fps must be positive, got %v", fps)
	}
	frameInput, frameOutput := buildAndStartPipeline(det, size, params)
	// run the pipeline once so the cache starts filled
	r := &Result{}
	var release func()
	r.Frame, release, r.Err = src.Next(context.Background())
	if r.Err != nil {
		return nil, r.Err
	}
	frameInput <- r
	r = <-frameOutput
	if release != nil {
		release()
	}
	if r.Err != nil {
		return nil, r.Err
	}
	tickTime := int((1. / fps) * 1000.)
	ticker := time.NewTicker(time.Duration(tickTime) * time.Millisecond)
	s := &Source{
		src:         src,
		det:         det,
		frameInput:  frameInput,
		frameOutput: frameOutput,
		updater:     make(chan struct{}),
		cache:       r,
		ticker:      ticker,
		mutex:       sync.RWMutex{},
		logger:      logger,
	}
	go s.startUpdater()
	return s, nil
}

// Close stops the updater and releases the underlying frame source, along
// with the detector when it holds resources of its own.
func (s *Source) Close() error {
	s.ticker.Stop()
	s.updater <- struct{}{}
	close(s.updater)
	close(s.frameInput)
	var detErr error
	if closer, ok := s.det.(io.Closer); ok {
		detErr = closer.Close()
	}
	return multierr.Combine(s.src.Close(), detErr)
}

// startUpdater runs in the background and refreshes the cache on the ticker.
func (s *Source) startUpdater() {
	for {
		select {
		case <-s.ticker.C:
			r := s.runPipeline()
			if r.Err != nil && s.logger != nil {
				s.logger.Debugw("marker detection pass failed", "error", r.Err)
			}
			s.mutex.Lock()
			s.cache = r
			s.mutex.Unlock()
		case <-s.updater:
			return
		}
	}
}

func (s *Source) runPipeline() *Result {
	r := &Result{}
	var release func()
	r.Frame, release, r.Err = s.src.Next(context.Background())
	s.frameInput <- r
	r = <-s.frameOutput
	if release != nil {
		release()
	}
	return r
}

// NextResult returns the most recent detection result.
func (s *Source) NextResult(ctx context.Context) (*Result, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	r := s.cache
	return r, r.Err
}
