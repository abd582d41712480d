package compose

import (
	"bytes"
	"context"
	"fmt"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"clipforge/config"
)

// thumbnail samples one frame at the fixed default offset from the final
// video, fitted into the preview resolution.
func (c *Composer) thumbnail(ctx context.Context, videoPath, thumbPath string) error {
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		config.ThumbnailWidth, config.ThumbnailHeight,
		config.ThumbnailWidth, config.ThumbnailHeight,
	)

	var stderr bytes.Buffer
	err := ffmpeg.Input(videoPath, ffmpeg.KwArgs{"ss": config.ThumbnailOffsetSeconds}).
		Output(thumbPath, ffmpeg.KwArgs{
			"vframes": 1,
			"vf":      vf,
		}).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("%w: %s", err, stderrTail(&stderr))
	}
	return nil
}
