package config

import "time"

// Acquisition Constants
const (
	// MaxConcurrentDownloads bounds parallel clip downloads within one job
	MaxConcurrentDownloads = 3

	// DownloadTimeout is the per-clip timeout covering every strategy attempt
	DownloadTimeout = 4 * time.Minute

	// RecodePreset is the ffmpeg preset for the post-download web recode
	RecodePreset = "veryfast"
)

// Video Output Constants
const (
	// VideoCodec is the video encoding codec
	VideoCodec = "libx264"

	// AudioCodec is the audio encoding codec
	AudioCodec = "aac"

	// AudioBitrate is the audio quality bitrate
	AudioBitrate = "192k"

	// VideoPreset is the ffmpeg encoding speed preset for composition stages
	VideoPreset = "fast"

	// VideoCRF is the constant rate factor for composition stages
	VideoCRF = "23"

	// OutputFrameRate is the frame rate both sides are normalized to before
	// the outro join
	OutputFrameRate = 30
)

// Thumbnail Constants
const (
	// ThumbnailOffsetSeconds is where the preview frame is sampled
	ThumbnailOffsetSeconds = 1

	// ThumbnailWidth and ThumbnailHeight define the preview resolution
	ThumbnailWidth  = 480
	ThumbnailHeight = 854
)

// Directory Constants
const (
	// TempDirName is the subdirectory for per-job acquired clips
	TempDirName = "tmp"

	// OutputDirName is the subdirectory for finished compilations
	OutputDirName = "output"
)

// Progress checkpoints, aligned to pipeline stage boundaries.
const (
	ProgressAccepted    = 5
	ProgressAcquired    = 25
	ProgressConcatenate = 45
	ProgressReframe     = 70
	ProgressOutro       = 85
	ProgressThumbnail   = 95
	ProgressDone        = 100
)
