package layout

import (
	"fmt"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// OpKind identifies one geometry operation inside a layer chain.
type OpKind string

const (
	OpCrop  OpKind = "crop"
	OpScale OpKind = "scale"
	OpPad   OpKind = "pad"
)

// Op is one typed node of the reframe filter graph. All dimensions are
// explicit pixel values; no expression strings leak out of this package.
type Op struct {
	Kind  OpKind
	W, H  int
	X, Y  int    // crop window origin / pad placement
	Color string // pad fill, empty for default black
}

// CompositeKind selects how the layers are combined on the canvas.
type CompositeKind string

const (
	// CompositeOverlay places the camera layer over the main layer.
	CompositeOverlay CompositeKind = "overlay"
	// CompositeStack stacks camera and gameplay bands vertically.
	CompositeStack CompositeKind = "vstack"
	// CompositeBackground places the main layer on a solid-color canvas.
	// This is the only layout that letterboxes.
	CompositeBackground CompositeKind = "background"
)

// ReframePlan is the declarative output of the layout engine: the exact
// geometry of the reframe stage, independent of any transcoding engine.
// Produced once per job and never mutated.
type ReframePlan struct {
	CanvasWidth  int
	CanvasHeight int

	Composite CompositeKind

	// Main is the op chain for the gameplay layer.
	Main []Op
	// Camera is the op chain for the camera layer, nil when the plan has a
	// single layer.
	Camera []Op

	// OverlayX/OverlayY position the camera box (CompositeOverlay) or the
	// main layer (CompositeBackground) on the canvas.
	OverlayX int
	OverlayY int

	// CameraFirst orders the stacked bands: true puts the camera band on top.
	CameraFirst bool

	// BackgroundColor fills the canvas for CompositeBackground.
	BackgroundColor string
}

// apply runs an op chain against a stream.
func apply(s *ffmpeg.Stream, ops []Op) *ffmpeg.Stream {
	for _, op := range ops {
		switch op.Kind {
		case OpCrop:
			s = s.Filter("crop", ffmpeg.Args{
				fmt.Sprintf("%d:%d:%d:%d", op.W, op.H, op.X, op.Y),
			})
		case OpScale:
			s = s.Filter("scale", ffmpeg.Args{
				fmt.Sprintf("%d:%d", op.W, op.H),
			})
		case OpPad:
			color := op.Color
			if color == "" {
				color = "black"
			}
			s = s.Filter("pad", ffmpeg.Args{
				fmt.Sprintf("%d:%d:%d:%d:color=%s", op.W, op.H, op.X, op.Y, color),
			})
		}
	}
	return s
}

// Apply serializes the plan into the transcoding engine's filter graph,
// returning the composed video stream for the given source video stream.
func (p *ReframePlan) Apply(source *ffmpeg.Stream) *ffmpeg.Stream {
	switch p.Composite {
	case CompositeStack:
		split := source.Split()
		gameplay := apply(split.Get("0"), p.Main)
		camera := apply(split.Get("1"), p.Camera)
		bands := []*ffmpeg.Stream{gameplay, camera}
		if p.CameraFirst {
			bands = []*ffmpeg.Stream{camera, gameplay}
		}
		return ffmpeg.Filter(bands, "vstack", ffmpeg.Args{}, ffmpeg.KwArgs{"inputs": 2})

	case CompositeBackground:
		canvas := ffmpeg.Input(
			fmt.Sprintf("color=c=%s:s=%dx%d", p.BackgroundColor, p.CanvasWidth, p.CanvasHeight),
			ffmpeg.KwArgs{"f": "lavfi"},
		)
		main := apply(source, p.Main)
		return ffmpeg.Filter([]*ffmpeg.Stream{canvas, main}, "overlay",
			ffmpeg.Args{fmt.Sprintf("%d:%d", p.OverlayX, p.OverlayY)},
			ffmpeg.KwArgs{"shortest": 1})

	default: // CompositeOverlay
		split := source.Split()
		main := apply(split.Get("0"), p.Main)
		camera := apply(split.Get("1"), p.Camera)
		return ffmpeg.Filter([]*ffmpeg.Stream{main, camera}, "overlay",
			ffmpeg.Args{fmt.Sprintf("%d:%d", p.OverlayX, p.OverlayY)})
	}
}
