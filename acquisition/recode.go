package acquisition

import (
	"bytes"
	"fmt"
	"os"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"clipforge/config"
)

// RecodeForWeb re-encodes an acquired clip in place for web playback:
// baseline-profile H.264, 4:2:0 chroma, AAC audio, fast-start flag. Vendor
// CDNs occasionally serve files with high profiles or odd pixel formats that
// browsers refuse to play.
func RecodeForWeb(path string) error {
	tmpPath := path + ".web.mp4"

	var stderr bytes.Buffer
	err := ffmpeg.Input(path).
		Output(tmpPath, ffmpeg.KwArgs{
			"c:v":       config.VideoCodec,
			"profile:v": "baseline",
			"level":     "3.0",
			"pix_fmt":   "yuv420p",
			"c:a":       config.AudioCodec,
			"b:a":       config.AudioBitrate,
			"movflags":  "+faststart",
			"preset":    config.RecodePreset,
		}).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Silent(true).
		Run()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("recode: %w: %s", err, stderrTail(&stderr))
	}

	return os.Rename(tmpPath, path)
}

// stderrTail keeps error messages readable: ffmpeg prints its full banner
// before the diagnostic, only the end matters.
func stderrTail(buf *bytes.Buffer) string {
	const max = 400
	s := buf.String()
	if len(s) > max {
		s = "..." + s[len(s)-max:]
	}
	return s
}
