// Package markertype enumerates the marker encoding families this library
// can work with: ArUco grids at four sizes and four codebook capacities, the
// legacy original ArUco set, and four AprilTag variants.
package markertype

import "github.com/pkg/errors"

// MarkerType identifies a supported fiducial marker encoding family.
type MarkerType int

// The supported marker families.
const (
	Dict4x4_50 MarkerType = iota
	Dict4x4_100
	Dict4x4_250
	Dict4x4_1000
	Dict5x5_50
	Dict5x5_100
	Dict5x5_250
	Dict5x5_1000
	Dict6x6_50
	Dict6x6_100
	Dict6x6_250
	Dict6x6_1000
	Dict7x7_50
	Dict7x7_100
	Dict7x7_250
	Dict7x7_1000
	ArucoOriginal
	AprilTag16h5
	AprilTag25h9
	AprilTag36h10
	AprilTag36h11
)

// dictionaryCodes maps each family to the predefined-dictionary identifier of
// the underlying detector library (OpenCV's ArUco module). The integers are
// opaque tokens; nothing in this library interprets their bits.
var dictionaryCodes = map[MarkerType]int{
	Dict4x4_50:    0,
	Dict4x4_100:   1,
	Dict4x4_250:   2,
	Dict4x4_1000:  3,
	Dict5x5_50:    4,
	Dict5x5_100:   5,
	Dict5x5_250:   6,
	Dict5x5_1000:  7,
	Dict6x6_50:    8,
	Dict6x6_100:   9,
	Dict6x6_250:   10,
	Dict6x6_1000:  11,
	Dict7x7_50:    12,
	Dict7x7_100:   13,
	Dict7x7_250:   14,
	Dict7x7_1000:  15,
	ArucoOriginal: 16,
	AprilTag16h5:  17,
	AprilTag25h9:  18,
	AprilTag36h10: 19,
	AprilTag36h11: 20,
}

var markerTypeNames = map[MarkerType]string{
	Dict4x4_50:    "4x4_50",
	Dict4x4_100:   "4x4_100",
	Dict4x4_250:   "4x4_250",
	Dict4x4_1000:  "4x4_1000",
	Dict5x5_50:    "5x5_50",
	Dict5x5_100:   "5x5_100",
	Dict5x5_250:   "5x5_250",
	Dict5x5_1000:  "5x5_1000",
	Dict6x6_50:    "6x6_50",
	Dict6x6_100:   "6x6_100",
	Dict6x6_250:   "6x6_250",
	Dict6x6_1000:  "6x6_1000",
	Dict7x7_50:    "7x7_50",
	Dict7x7_100:   "7x7_100",
	Dict7x7_250:   "7x7_250",
	Dict7x7_1000:  "7x7_1000",
	ArucoOriginal: "aruco_original",
	AprilTag16h5:  "apriltag_16h5",
	AprilTag25h9:  "apriltag_25h9",
	AprilTag36h10: "apriltag_36h10",
	AprilTag36h11: "apriltag_36h11",
}

var (
	typesByCode = make(map[int]MarkerType, len(dictionaryCodes))
	typesByName = make(map[string]MarkerType, len(markerTypeNames))
)

func init() {
	for t, c := range dictionaryCodes {
		typesByCode[c] = t
	}
	for t, n := range markerTypeNames {
		typesByName[n] = t
	}
}

// DictionaryCode returns the detector library's identifier for the family,
// or -1 if the MarkerType is not one of the defined constants.
func (t MarkerType) DictionaryCode() int {
	code, ok := dictionaryCodes[t]
	if !ok {
		return -1
	}
	return code
}

// String returns the family's name, e.g. "6x6_50" or "apriltag_36h11".
func (t MarkerType) String() string {
	name, ok := markerTypeNames[t]
	if !ok {
		return "unknown"
	}
	return name
}

// MarkerTypeFromDictionaryCode is the inverse of DictionaryCode.
func MarkerTypeFromDictionaryCode(code int) (MarkerType, error) {
	t, ok := typesByCode[code]
	if !ok {
		return 0, errors.Errorf("no marker type with dictionary code %d", code)
	}
	return t, nil
}

// ParseMarkerType looks up a family by the name String returns.
func ParseMarkerType(name string) (MarkerType, error) {
	t, ok := typesByName[name]
	if !ok {
		return 0, errors.Errorf("unsupported marker type %q", name)
	}
	return t, nil
}

// AllMarkerTypes returns every defined marker family, in declaration order.
func AllMarkerTypes() []MarkerType {
	all := make([]MarkerType, 0, len(dictionaryCodes))
	for t := Dict4x4_50; t <= AprilTag36h11; t++ {
		all = append(all, t)
	}
	return all
}
