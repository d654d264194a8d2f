// Command markerdetect finds fiducial markers in an image file and prints
// one marker dict per line as JSON.
package main

import (
	"encoding/json"
	"flag"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"github.com/trickeydan/zoloto/calibration"
	"github.com/trickeydan/zoloto/detection"
	"github.com/trickeydan/zoloto/detection/aruco"
	"github.com/trickeydan/zoloto/detection/fake"
	"github.com/trickeydan/zoloto/markertype"
)

type arguments struct {
	imgPath   string
	typeName  string
	size      float64
	calibPath string
	fake      bool
}

func main() {
	var args arguments
	flag.StringVar(&args.imgPath, "img", "", "path to image to detect markers in")
	flag.StringVar(&args.typeName, "type", "6x6_50", "marker dictionary to detect, e.g. 6x6_50 or apriltag_36h11")
	flag.Float64Var(&args.size, "size", 100, "physical marker side length, in caller units")
	flag.StringVar(&args.calibPath, "calib", "", "path to calibration parameters JSON; omit to skip pose")
	flag.BoolVar(&args.fake, "fake", false, "use the built-in fake detector instead of OpenCV")
	flag.Parse()
	logger := golog.NewLogger("markerdetect")
	if err := detect(os.Stdout, args, logger); err != nil {
		logger.Fatal(err)
	}
}

func detect(out io.Writer, args arguments, logger golog.Logger) error {
	markerType, err := markertype.ParseMarkerType(args.typeName)
	if err != nil {
		return err
	}
	var img image.Image
	if args.imgPath == "" && args.fake {
		img = image.NewGray(image.Rect(0, 0, 280, 280))
	} else if img, err = readImage(args.imgPath); err != nil {
		return err
	}
	var params *calibration.Parameters
	if args.calibPath != "" {
		if params, err = calibration.NewParametersFromJSONFile(args.calibPath); err != nil {
			return err
		}
	}

	var det detection.Detector
	if args.fake {
		det = fake.NewDetector(25, args.size)
	} else {
		arucoDet, err := aruco.NewDetector(markerType)
		if err != nil {
			return err
		}
		defer utils.UncheckedErrorFunc(arucoDet.Close)
		det = arucoDet
	}
	dets, err := det.Inference(img)
	if err != nil {
		return err
	}

	markers := detection.ToMarkers(dets, args.size, params)
	logger.Infof("found %d markers", len(markers))
	enc := json.NewEncoder(out)
	for _, m := range markers {
		d, err := m.AsDict()
		if err != nil {
			return err
		}
		if err := enc.Encode(d); err != nil {
			return err
		}
	}
	return nil
}

func readImage(path string) (image.Image, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	img, _, err := image.Decode(f)
	return img, err
}
