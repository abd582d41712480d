package compose

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"clipforge/config"
	"clipforge/layout"
)

const (
	audioSampleRate    = 44100
	audioChannelLayout = "stereo"
)

// appendOutro joins the reframed video and the configured outro. Both sides
// are first normalized to the same resolution, sample aspect ratio and frame
// rate; outro content is fitted with padding, never cropped. Audio is
// reconciled so the joined stream never has a track-count mismatch.
func (c *Composer) appendOutro(ctx context.Context, plan *layout.ReframePlan, mainPath, outPath string) error {
	if c.OutroPath == "" {
		return fmt.Errorf("no outro configured")
	}
	if _, err := os.Stat(c.OutroPath); err != nil {
		return fmt.Errorf("outro file: %w", err)
	}

	mainInfo, err := c.probe(mainPath)
	if err != nil {
		return err
	}
	outroInfo, err := c.probe(c.OutroPath)
	if err != nil {
		return err
	}

	w, h := plan.CanvasWidth, plan.CanvasHeight
	main := ffmpeg.Input(mainPath)
	outro := ffmpeg.Input(c.OutroPath)
	mainV := normalizeVideo(main.Video(), w, h)
	outroV := normalizeVideo(outro.Video(), w, h)

	join := planAudioJoin(mainInfo.HasAudio, outroInfo.HasAudio)

	var joined *ffmpeg.Stream
	if join.AudioTracks == 0 {
		joined = ffmpeg.Concat([]*ffmpeg.Stream{mainV, outroV}, ffmpeg.KwArgs{"v": 1, "a": 0})
	} else {
		joined = ffmpeg.Concat([]*ffmpeg.Stream{
			mainV, audioOrSilence(main, mainInfo),
			outroV, audioOrSilence(outro, outroInfo),
		}, ffmpeg.KwArgs{"v": 1, "a": 1})
	}

	kwargs := ffmpeg.KwArgs{
		"c:v":    config.VideoCodec,
		"crf":    config.VideoCRF,
		"preset": config.VideoPreset,
	}
	if join.AudioTracks == 1 {
		kwargs["c:a"] = config.AudioCodec
		kwargs["b:a"] = config.AudioBitrate
	}

	var stderr bytes.Buffer
	err = joined.Output(outPath, kwargs).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("outro join: %w: %s", err, stderrTail(&stderr))
	}
	return nil
}

// audioJoin describes how the outro concat reconciles the two sides' audio:
// the joined output always carries exactly one video stream and either one or
// zero audio streams, never a mismatched count.
type audioJoin struct {
	// AudioTracks is the audio stream count of the joined output: 0 or 1.
	AudioTracks int
	// SilenceMain / SilenceOutro mark the side that needs a synthesized
	// silent track to match the other.
	SilenceMain  bool
	SilenceOutro bool
}

// planAudioJoin decides the audio reconciliation for one main/outro pairing.
func planAudioJoin(mainHasAudio, outroHasAudio bool) audioJoin {
	switch {
	case mainHasAudio && outroHasAudio:
		return audioJoin{AudioTracks: 1}
	case mainHasAudio:
		return audioJoin{AudioTracks: 1, SilenceOutro: true}
	case outroHasAudio:
		return audioJoin{AudioTracks: 1, SilenceMain: true}
	default:
		return audioJoin{}
	}
}

// normalizeVideo fits a stream into w x h with padding (contain, not cover)
// and pins SAR and frame rate so concat sees identical stream parameters.
func normalizeVideo(v *ffmpeg.Stream, w, h int) *ffmpeg.Stream {
	return v.
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d:force_original_aspect_ratio=decrease", w, h)}).
		Filter("pad", ffmpeg.Args{fmt.Sprintf("%d:%d:(ow-iw)/2:(oh-ih)/2", w, h)}).
		Filter("setsar", ffmpeg.Args{"1"}).
		Filter("fps", ffmpeg.Args{strconv.Itoa(config.OutputFrameRate)})
}

// normalizeAudio pins sample rate and channel layout for the concat filter.
func normalizeAudio(a *ffmpeg.Stream) *ffmpeg.Stream {
	return a.Filter("aformat", ffmpeg.Args{}, ffmpeg.KwArgs{
		"sample_rates":    strconv.Itoa(audioSampleRate),
		"channel_layouts": audioChannelLayout,
	})
}

// audioOrSilence returns the input's normalized audio, or a silent track
// matching its duration when it has none.
func audioOrSilence(in *ffmpeg.Stream, info *MediaInfo) *ffmpeg.Stream {
	if info.HasAudio {
		return normalizeAudio(in.Audio())
	}
	silence := ffmpeg.Input(
		fmt.Sprintf("anullsrc=channel_layout=%s:sample_rate=%d", audioChannelLayout, audioSampleRate),
		ffmpeg.KwArgs{"f": "lavfi", "t": fmt.Sprintf("%.3f", info.Duration)},
	)
	return normalizeAudio(silence)
}
