package compose

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// MediaInfo is the subset of probe output the pipeline needs.
type MediaInfo struct {
	Width    int
	Height   int
	HasAudio bool
	Duration float64
}

// Probe inspects a media file with the transcoding engine's prober.
func Probe(path string) (*MediaInfo, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	return parseProbe(raw)
}

func parseProbe(raw string) (*MediaInfo, error) {
	var payload struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("probe decode: %w", err)
	}

	info := &MediaInfo{}
	for _, s := range payload.Streams {
		switch s.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width = s.Width
				info.Height = s.Height
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if info.Width == 0 || info.Height == 0 {
		return nil, fmt.Errorf("probe found no video stream")
	}

	if d := strings.TrimSpace(payload.Format.Duration); d != "" {
		if v, err := strconv.ParseFloat(d, 64); err == nil {
			info.Duration = v
		}
	}
	return info, nil
}
