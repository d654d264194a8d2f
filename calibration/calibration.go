// Package calibration holds the camera parameters needed to turn the pixel
// geometry of a detected marker into a camera-relative pose.
package calibration

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// ErrMissingCalibrations is returned when pose-dependent information is
// requested but no calibration parameters are available. Retrying without
// supplying calibration cannot succeed.
var ErrMissingCalibrations = errors.New("camera calibration parameters are not available")

// Parameters are the intrinsic matrix and distortion coefficients of a
// calibrated camera. The marker core does not interpret them beyond handing
// them to pose estimation.
type Parameters struct {
	CameraMatrix *mat.Dense // 3x3 intrinsic matrix
	DistCoeffs   []float64  // distortion coefficients in OpenCV order (k1, k2, p1, p2, k3)
}

// NewParameters builds Parameters from pinhole intrinsics and distortion
// coefficients. distCoeffs may be nil for a distortion-free camera.
func NewParameters(fx, fy, ppx, ppy float64, distCoeffs []float64) *Parameters {
	m := mat.NewDense(3, 3, []float64{
		fx, 0, ppx,
		0, fy, ppy,
		0, 0, 1,
	})
	return &Parameters{CameraMatrix: m, DistCoeffs: distCoeffs}
}

// Fx returns the focal length along x, in pixels.
func (p *Parameters) Fx() float64 { return p.CameraMatrix.At(0, 0) }

// Fy returns the focal length along y, in pixels.
func (p *Parameters) Fy() float64 { return p.CameraMatrix.At(1, 1) }

// Ppx returns the x coordinate of the principal point.
func (p *Parameters) Ppx() float64 { return p.CameraMatrix.At(0, 2) }

// Ppy returns the y coordinate of the principal point.
func (p *Parameters) Ppy() float64 { return p.CameraMatrix.At(1, 2) }

// CheckValid checks if the fields for Parameters have valid inputs.
func (p *Parameters) CheckValid() error {
	if p == nil || p.CameraMatrix == nil {
		return ErrMissingCalibrations
	}
	if r, c := p.CameraMatrix.Dims(); r != 3 || c != 3 {
		return errors.Errorf("camera matrix must be 3x3, got %dx%d", r, c)
	}
	if p.Fx() <= 0 {
		return errors.Errorf("invalid focal length fx = %#v", p.Fx())
	}
	if p.Fy() <= 0 {
		return errors.Errorf("invalid focal length fy = %#v", p.Fy())
	}
	if p.Ppx() < 0 {
		return errors.Errorf("invalid principal x point ppx = %#v", p.Ppx())
	}
	if p.Ppy() < 0 {
		return errors.Errorf("invalid principal y point ppy = %#v", p.Ppy())
	}
	return nil
}

type parametersJSON struct {
	CameraMatrix [][]float64 `json:"camera_matrix"`
	DistCoeffs   []float64   `json:"distance_coefficients"`
}

// MarshalJSON writes the camera matrix as a 3x3 nested array.
func (p *Parameters) MarshalJSON() ([]byte, error) {
	rows := make([][]float64, 0, 3)
	for i := 0; i < 3; i++ {
		rows = append(rows, []float64{p.CameraMatrix.At(i, 0), p.CameraMatrix.At(i, 1), p.CameraMatrix.At(i, 2)})
	}
	return json.Marshal(parametersJSON{CameraMatrix: rows, DistCoeffs: p.DistCoeffs})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	var pj parametersJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	if len(pj.CameraMatrix) != 3 {
		return errors.Errorf("camera matrix must have 3 rows, got %d", len(pj.CameraMatrix))
	}
	m := mat.NewDense(3, 3, nil)
	for i, row := range pj.CameraMatrix {
		if len(row) != 3 {
			return errors.Errorf("camera matrix row %d must have 3 columns, got %d", i, len(row))
		}
		for j, v := range row {
			m.Set(i, j, v)
		}
	}
	p.CameraMatrix = m
	p.DistCoeffs = pj.DistCoeffs
	return nil
}

// NewParametersFromJSONFile takes in a file path to a JSON and turns it into Parameters.
func NewParametersFromJSONFile(jsonPath string) (*Parameters, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	params := &Parameters{}
	if err := json.Unmarshal(byteValue, params); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return params, nil
}

// WriteToJSONFile saves the calibration parameters so they can be loaded
// again with NewParametersFromJSONFile.
func (p *Parameters) WriteToJSONFile(jsonPath string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(jsonPath, data, 0o640)
}
