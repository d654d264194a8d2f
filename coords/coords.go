// Package coords contains the coordinate value types used to describe where a
// detected marker sits in pixel space and where it sits relative to the camera.
package coords

// Coordinates is a 2D position in pixel space.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ThreeDCoordinates is a cartesian position relative to the camera, in the
// units the marker size was given in.
type ThreeDCoordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Orientation holds the components of a Rodrigues rotation vector, in radians.
type Orientation struct {
	RotX float64 `json:"rot_x"`
	RotY float64 `json:"rot_y"`
	RotZ float64 `json:"rot_z"`
}

// Spherical is a camera-relative (tilt, pan, distance) triple derived from a
// translation vector: RotX = atan2(t.y, t.z), RotY = atan2(t.x, t.z), and
// Dist the truncated Euclidean norm of the translation.
type Spherical struct {
	RotX float64 `json:"rot_x"`
	RotY float64 `json:"rot_y"`
	Dist int     `json:"dist"`
}
