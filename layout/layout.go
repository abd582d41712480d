// Package layout maps a template, an optional camera region and the source
// dimensions to a reframe plan: the crop/scale/overlay/stack geometry the
// composition pipeline executes. Everything here is pure integer math so the
// geometry is unit-testable without a transcoding engine.
package layout

import "fmt"

const (
	// cameraFraction sizes the overlaid camera box relative to the canvas.
	cameraFraction = 0.30
	// stackCameraFraction is the camera band's share of the canvas height.
	stackCameraFraction = 0.30
	// edgePadding keeps the overlaid camera box off the canvas edges.
	edgePadding = 40
	// borderWidth is the visible border around the overlaid camera box.
	borderWidth = 4
	// borderColor is the camera box border color.
	borderColor = "white"
	// fallbackBackground fills the canvas when no camera region is supplied.
	fallbackBackground = "0x1f1f23"
)

// Plan computes the reframe plan for the given template, camera region and
// source dimensions. A nil region selects the single-layer fallback layout.
func Plan(tmpl Template, region *Region, srcW, srcH int) (*ReframePlan, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	if srcW <= 0 || srcH <= 0 {
		return nil, fmt.Errorf("invalid source dimensions %dx%d", srcW, srcH)
	}
	if region == nil {
		return fallbackPlan(tmpl, srcW, srcH), nil
	}
	if err := region.Validate(srcW, srcH); err != nil {
		return nil, err
	}
	if tmpl.Camera.stacked() {
		return stackPlan(tmpl, *region, srcW, srcH), nil
	}
	return overlayPlan(tmpl, *region, srcW, srcH), nil
}

// overlayPlan crops the source to the canvas aspect (cover, never padded)
// and composites the camera region over it as a bordered box.
func overlayPlan(tmpl Template, region Region, srcW, srcH int) *ReframePlan {
	canvasW, canvasH := tmpl.Aspect.Canvas()

	main := coverFit(srcW, srcH, canvasW, canvasH)

	camW := even(int(float64(canvasW) * cameraFraction))
	camH := even(int(float64(canvasH) * cameraFraction))

	camera := []Op{{Kind: OpCrop, W: region.Width, H: region.Height, X: region.X, Y: region.Y}}
	camera = append(camera, coverFit(region.Width, region.Height, camW, camH)...)
	// The border is drawn by padding the scaled box on all sides.
	boxW := camW + 2*borderWidth
	boxH := camH + 2*borderWidth
	camera = append(camera, Op{
		Kind: OpPad, W: boxW, H: boxH, X: borderWidth, Y: borderWidth, Color: borderColor,
	})

	x, y := anchorOffsets(tmpl.Camera, canvasW, canvasH, boxW, boxH)

	return &ReframePlan{
		CanvasWidth:  canvasW,
		CanvasHeight: canvasH,
		Composite:    CompositeOverlay,
		Main:         main,
		Camera:       camera,
		OverlayX:     x,
		OverlayY:     y,
	}
}

// anchorOffsets places a boxW x boxH overlay for the named position, padded
// off the nearest edges.
func anchorOffsets(pos CameraPosition, canvasW, canvasH, boxW, boxH int) (int, int) {
	left := edgePadding
	right := canvasW - boxW - edgePadding
	top := edgePadding
	bottom := canvasH - boxH - edgePadding
	centerX := (canvasW - boxW) / 2
	centerY := (canvasH - boxH) / 2

	switch pos {
	case CameraTopLeft:
		return left, top
	case CameraTop:
		return centerX, top
	case CameraTopRight:
		return right, top
	case CameraLeft:
		return left, centerY
	case CameraCenter:
		return centerX, centerY
	case CameraRight:
		return right, centerY
	case CameraBottomLeft:
		return left, bottom
	case CameraBottom:
		return centerX, bottom
	default: // CameraBottomRight
		return right, bottom
	}
}

// stackPlan splits the canvas into a full-width gameplay band and a
// full-width camera band. The camera band is cover-filled, never letterboxed.
func stackPlan(tmpl Template, region Region, srcW, srcH int) *ReframePlan {
	canvasW, canvasH := tmpl.Aspect.Canvas()

	camBandH := even(int(float64(canvasH) * stackCameraFraction))
	gameBandH := canvasH - camBandH

	main := coverFit(srcW, srcH, canvasW, gameBandH)

	camera := []Op{{Kind: OpCrop, W: region.Width, H: region.Height, X: region.X, Y: region.Y}}
	camera = append(camera, coverFit(region.Width, region.Height, canvasW, camBandH)...)

	return &ReframePlan{
		CanvasWidth:  canvasW,
		CanvasHeight: canvasH,
		Composite:    CompositeStack,
		Main:         main,
		Camera:       camera,
		CameraFirst:  tmpl.Camera == CameraTopFull,
	}
}

// fallbackPlan converts without a camera region: the source is contained
// into half the canvas height on a solid background, placed top or bottom.
// The only layout where padding is acceptable.
func fallbackPlan(tmpl Template, srcW, srcH int) *ReframePlan {
	canvasW, canvasH := tmpl.Aspect.Canvas()

	boxH := canvasH / 2
	w, h := containScale(srcW, srcH, canvasW, boxH)

	x := (canvasW - w) / 2
	y := canvasH - h // bottom placement
	if topAligned(tmpl.Camera) {
		y = 0
	}

	return &ReframePlan{
		CanvasWidth:     canvasW,
		CanvasHeight:    canvasH,
		Composite:       CompositeBackground,
		Main:            []Op{{Kind: OpScale, W: w, H: h}},
		OverlayX:        x,
		OverlayY:        y,
		BackgroundColor: fallbackBackground,
	}
}

func topAligned(pos CameraPosition) bool {
	switch pos {
	case CameraTopLeft, CameraTop, CameraTopRight, CameraTopFull:
		return true
	}
	return false
}
