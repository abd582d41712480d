package layout

import "fmt"

// AspectRatio is the target canvas aspect of a compilation.
type AspectRatio string

const (
	AspectVertical AspectRatio = "9:16"
	AspectWide     AspectRatio = "16:9"
	AspectSquare   AspectRatio = "1:1"
)

// Canvas returns the fixed output resolution for the aspect ratio.
func (a AspectRatio) Canvas() (int, int) {
	switch a {
	case AspectWide:
		return 1920, 1080
	case AspectSquare:
		return 1080, 1080
	default:
		return 1080, 1920
	}
}

// Valid reports whether a is one of the supported ratios.
func (a AspectRatio) Valid() bool {
	switch a {
	case AspectVertical, AspectWide, AspectSquare:
		return true
	}
	return false
}

// CameraPosition names where the camera feed is placed on the canvas.
type CameraPosition string

const (
	CameraTopLeft     CameraPosition = "top-left"
	CameraTopRight    CameraPosition = "top-right"
	CameraBottomLeft  CameraPosition = "bottom-left"
	CameraBottomRight CameraPosition = "bottom-right"
	CameraTop         CameraPosition = "top"
	CameraBottom      CameraPosition = "bottom"
	CameraLeft        CameraPosition = "left"
	CameraRight       CameraPosition = "right"
	CameraCenter      CameraPosition = "center"
	CameraTopFull     CameraPosition = "top-full"
	CameraBottomFull  CameraPosition = "bottom-full"
)

// Valid reports whether p is one of the eleven supported positions.
func (p CameraPosition) Valid() bool {
	switch p {
	case CameraTopLeft, CameraTopRight, CameraBottomLeft, CameraBottomRight,
		CameraTop, CameraBottom, CameraLeft, CameraRight, CameraCenter,
		CameraTopFull, CameraBottomFull:
		return true
	}
	return false
}

// stacked reports whether the position uses the full-width band layout.
func (p CameraPosition) stacked() bool {
	return p == CameraTopFull || p == CameraBottomFull
}

// Template is the immutable layout configuration of a compilation.
type Template struct {
	Aspect      AspectRatio    `json:"aspect"`
	Camera      CameraPosition `json:"camera"`
	EnableIntro bool           `json:"enable_intro"`
	EnableOutro bool           `json:"enable_outro"`
}

// Validate checks the template's enum fields.
func (t Template) Validate() error {
	if !t.Aspect.Valid() {
		return fmt.Errorf("unsupported aspect ratio %q", t.Aspect)
	}
	if !t.Camera.Valid() {
		return fmt.Errorf("unsupported camera position %q", t.Camera)
	}
	return nil
}

// Region is an integer pixel rectangle in source-frame coordinates marking
// the camera feed.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate checks the region against the source dimensions.
func (r Region) Validate(srcW, srcH int) error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("camera region %dx%d has non-positive size", r.Width, r.Height)
	}
	if r.X < 0 || r.Y < 0 {
		return fmt.Errorf("camera region origin (%d,%d) is negative", r.X, r.Y)
	}
	if r.X+r.Width > srcW || r.Y+r.Height > srcH {
		return fmt.Errorf("camera region %dx%d+%d+%d exceeds source %dx%d",
			r.Width, r.Height, r.X, r.Y, srcW, srcH)
	}
	return nil
}
