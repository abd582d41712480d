package layout

// even rounds n down to the nearest even value, with a floor of 2. Codec
// requirement: libx264 rejects odd dimensions with yuv420p.
func even(n int) int {
	if n < 2 {
		return 2
	}
	return n &^ 1
}

// coverScale returns the scaled dimensions for cover semantics: the source
// is scaled up until it fully covers dstW x dstH, preserving aspect ratio.
// The result is always >= the destination on both axes.
func coverScale(srcW, srcH, dstW, dstH int) (int, int) {
	// Compare srcW/srcH against dstW/dstH without floats.
	if srcW*dstH >= dstW*srcH {
		// Source is wider: match height, width spills over.
		w := even((srcW*dstH + srcH - 1) / srcH)
		if w < dstW {
			w = dstW
		}
		return w, dstH
	}
	h := even((srcH*dstW + srcW - 1) / srcW)
	if h < dstH {
		h = dstH
	}
	return dstW, h
}

// containScale returns the scaled dimensions for contain semantics: the
// source is scaled down until it fully fits within dstW x dstH, preserving
// aspect ratio. The result is always <= the destination on both axes.
func containScale(srcW, srcH, dstW, dstH int) (int, int) {
	if srcW*dstH >= dstW*srcH {
		// Source is wider: match width, height shrinks.
		return dstW, even(srcH * dstW / srcW)
	}
	return even(srcW * dstH / srcH), dstH
}

// centerOffsets returns the crop origin that centers a dstW x dstH window
// inside a scaled outerW x outerH frame.
func centerOffsets(outerW, outerH, dstW, dstH int) (int, int) {
	return (outerW - dstW) / 2, (outerH - dstH) / 2
}

// coverFit builds the scale-then-center-crop op pair that fills dstW x dstH
// from a srcW x srcH frame.
func coverFit(srcW, srcH, dstW, dstH int) []Op {
	sw, sh := coverScale(srcW, srcH, dstW, dstH)
	ops := []Op{{Kind: OpScale, W: sw, H: sh}}
	if sw != dstW || sh != dstH {
		cx, cy := centerOffsets(sw, sh, dstW, dstH)
		ops = append(ops, Op{Kind: OpCrop, W: dstW, H: dstH, X: cx, Y: cy})
	}
	return ops
}
