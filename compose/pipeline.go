// Package compose executes the render pipeline: concatenate the acquired
// clips, reframe the result with a layout plan, append the optional outro,
// and extract a thumbnail. Each stage drives the external transcoding engine
// with job-scoped input and output paths.
package compose

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"clipforge/config"
	"clipforge/layout"
)

// Stage names, in execution order.
const (
	StageConcatenate = "concatenate"
	StageReframe     = "reframe"
	StageOutro       = "outro"
	StageThumbnail   = "thumbnail"
)

// Request describes one composition run.
type Request struct {
	JobID     string
	ClipPaths []string
	Template  layout.Template
	Camera    *layout.Region
	Title     string
}

// Result is the compilation output, owned by the caller once returned.
type Result struct {
	VideoPath     string
	ThumbnailPath string
	FileName      string
	Title         string
	Duration      float64
}

// Composer runs the pipeline. One Composer may serve many jobs; every
// generated filename carries the job id so concurrent jobs never collide.
type Composer struct {
	OutputDir string
	OutroPath string

	// probe is swappable in tests.
	probe func(path string) (*MediaInfo, error)
}

// NewComposer builds a Composer writing into outputDir.
func NewComposer(outputDir, outroPath string) *Composer {
	return &Composer{OutputDir: outputDir, OutroPath: outroPath, probe: Probe}
}

// Compose runs all stages in order. onStage is called after each completed
// stage (including the non-fatal ones when they are skipped or fail).
func (c *Composer) Compose(ctx context.Context, req Request, onStage func(stage string)) (*Result, error) {
	if len(req.ClipPaths) == 0 {
		return nil, &CompositionError{Stage: StageConcatenate, Err: fmt.Errorf("no input clips")}
	}
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if onStage == nil {
		onStage = func(string) {}
	}

	stagePath := func(stage string) string {
		return filepath.Join(c.OutputDir, fmt.Sprintf("%s_%s.mp4", req.JobID, stage))
	}
	var intermediates []string
	defer func() {
		for _, p := range intermediates {
			os.Remove(p)
		}
	}()

	// Concatenate. Mandatory: no partial-compilation result exists.
	concatPath := stagePath(StageConcatenate)
	if err := c.concatenate(ctx, req.JobID, req.ClipPaths, concatPath); err != nil {
		return nil, err
	}
	intermediates = append(intermediates, concatPath)
	onStage(StageConcatenate)

	info, err := c.probe(concatPath)
	if err != nil {
		return nil, &CompositionError{Stage: StageReframe, Err: err}
	}

	// Reframe. The layout engine is consulted exactly once per job.
	plan, err := layout.Plan(req.Template, req.Camera, info.Width, info.Height)
	if err != nil {
		return nil, &CompositionError{Stage: StageReframe, Err: err}
	}
	reframePath := stagePath(StageReframe)
	if err := c.reframe(ctx, concatPath, reframePath, plan, info.HasAudio); err != nil {
		return nil, err
	}
	intermediates = append(intermediates, reframePath)
	onStage(StageReframe)

	// Append outro. Non-fatal: the pre-outro output survives a failure.
	finalSource := reframePath
	if req.Template.EnableOutro {
		outroPath := stagePath(StageOutro)
		if err := c.appendOutro(ctx, plan, reframePath, outroPath); err != nil {
			log.Printf("[job %s] %v, continuing without outro", req.JobID, &OutroUnavailableError{Err: err})
		} else {
			intermediates = append(intermediates, outroPath)
			finalSource = outroPath
		}
	}
	onStage(StageOutro)

	// Promote the last successful stage output to the final name.
	finalPath := filepath.Join(c.OutputDir, fmt.Sprintf("%s.mp4", req.JobID))
	if err := os.Rename(finalSource, finalPath); err != nil {
		return nil, fmt.Errorf("finalize output: %w", err)
	}
	intermediates = removePath(intermediates, finalSource)

	result := &Result{
		VideoPath: finalPath,
		FileName:  filepath.Base(finalPath),
		Title:     req.Title,
	}
	if finalInfo, err := c.probe(finalPath); err == nil {
		result.Duration = finalInfo.Duration
	}

	// Thumbnail. Non-fatal: the job completes without one.
	thumbPath := filepath.Join(c.OutputDir, fmt.Sprintf("%s_thumb.jpg", req.JobID))
	if err := c.thumbnail(ctx, finalPath, thumbPath); err != nil {
		log.Printf("[job %s] %v", req.JobID, &ThumbnailError{Err: err})
	} else {
		result.ThumbnailPath = thumbPath
	}
	onStage(StageThumbnail)

	return result, nil
}

// concatenate joins the clip files with the engine's concat demuxer,
// assuming compatible stream layout across clips.
func (c *Composer) concatenate(ctx context.Context, jobID string, clipPaths []string, outPath string) error {
	listPath := filepath.Join(c.OutputDir, fmt.Sprintf("%s_concat.txt", jobID))
	var list strings.Builder
	for _, p := range clipPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return &CompositionError{Stage: StageConcatenate, Err: fmt.Errorf("write concat list: %w", err)}
	}
	defer os.Remove(listPath)

	var stderr bytes.Buffer
	err := ffmpeg.Input(listPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(outPath, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Silent(true).
		Run()
	if err != nil {
		return &CompositionError{Stage: StageConcatenate, Err: err, Stderr: stderrTail(&stderr)}
	}
	return nil
}

// reframe applies the layout plan to the concatenated video.
func (c *Composer) reframe(ctx context.Context, inPath, outPath string, plan *layout.ReframePlan, hasAudio bool) error {
	in := ffmpeg.Input(inPath)
	video := plan.Apply(in)

	outputs := []*ffmpeg.Stream{video}
	kwargs := ffmpeg.KwArgs{
		"c:v":    config.VideoCodec,
		"crf":    config.VideoCRF,
		"preset": config.VideoPreset,
	}
	if hasAudio {
		outputs = append(outputs, in.Audio())
		kwargs["c:a"] = config.AudioCodec
		kwargs["b:a"] = config.AudioBitrate
	}

	var stderr bytes.Buffer
	err := ffmpeg.Output(outputs, outPath, kwargs).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Silent(true).
		Run()
	if err != nil {
		return &CompositionError{Stage: StageReframe, Err: err, Stderr: stderrTail(&stderr)}
	}
	return nil
}

func removePath(paths []string, drop string) []string {
	out := paths[:0]
	for _, p := range paths {
		if p != drop {
			out = append(out, p)
		}
	}
	return out
}

// stderrTail keeps error messages readable: the engine prints its full
// banner before the diagnostic, only the end matters.
func stderrTail(buf *bytes.Buffer) string {
	const max = 400
	s := strings.TrimSpace(buf.String())
	if len(s) > max {
		s = "..." + s[len(s)-max:]
	}
	return s
}
