// Package worker orchestrates compilation jobs: it consumes the queue,
// drives acquisition and composition, reports stage-boundary progress, and
// records the terminal result.
package worker

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"clipforge/acquisition"
	"clipforge/compose"
	"clipforge/config"
	"clipforge/publish"
	"clipforge/queue"
	"clipforge/storage"
	"clipforge/twitch"
)

// Acquirer downloads a batch of clips into destDir.
type Acquirer interface {
	AcquireBatch(ctx context.Context, clips []*acquisition.Clip, destDir string) ([]*acquisition.Clip, error)
}

// Composer runs the render pipeline for one job.
type Composer interface {
	Compose(ctx context.Context, req compose.Request, onStage func(stage string)) (*compose.Result, error)
}

// JobStore is the queue's status-store contract consumed by the worker.
type JobStore interface {
	Consume(ctx context.Context, handle queue.Handler) error
	SetActive(ctx context.Context, jobID string) error
	SetProgress(ctx context.Context, jobID string, percent int) error
	Complete(ctx context.Context, jobID string, result *queue.Result) error
	Fail(ctx context.Context, jobID string, reason string) error
}

// Worker processes jobs one at a time per Run loop; run several workers for
// parallel jobs. Jobs share nothing but the filesystem, which is namespaced
// by job id.
type Worker struct {
	Store    JobStore
	Acquirer Acquirer
	Composer Composer

	// Helix enriches clips with vendor metadata when configured.
	Helix *twitch.Client

	// TempDir receives per-job acquisition directories.
	TempDir string

	// Artifacts uploads finished outputs when configured. Best-effort.
	Artifacts *storage.ArtifactStore
	// Publisher uploads finished compilations when configured. Best-effort.
	Publisher *publish.Publisher
}

// Run consumes jobs until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	err := w.Store.Consume(ctx, w.process)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// process runs one job end to end. Redelivered jobs re-run from scratch
// under fresh job-scoped filenames; there is no stage resume.
func (w *Worker) process(ctx context.Context, jobID string, payload *queue.Payload) {
	start := time.Now()
	log.Printf("[job %s] started: %d clip(s), template %s/%s",
		jobID, len(payload.Clips), payload.Template.Aspect, payload.Template.Camera)

	if err := w.Store.SetActive(ctx, jobID); err != nil {
		log.Printf("[job %s] state update failed: %v", jobID, err)
	}
	w.progress(ctx, jobID, config.ProgressAccepted)

	clips, title := w.resolveClips(ctx, payload)

	// Acquired clips live under a job-scoped directory, removed on every
	// exit path.
	tempDir := filepath.Join(w.TempDir, jobID)
	defer os.RemoveAll(tempDir)

	acquired, err := w.Acquirer.AcquireBatch(ctx, clips, tempDir)
	if err != nil {
		log.Printf("[job %s] acquisition failed: %v", jobID, err)
		w.fail(ctx, jobID, err)
		return
	}
	log.Printf("[job %s] acquired %d/%d clips", jobID, len(acquired), len(clips))
	w.progress(ctx, jobID, config.ProgressAcquired)

	paths := make([]string, len(acquired))
	for i, c := range acquired {
		paths[i] = c.LocalPath
	}
	if title == "" {
		title = payload.Title
	}

	result, err := w.Composer.Compose(ctx, compose.Request{
		JobID:     jobID,
		ClipPaths: paths,
		Template:  payload.Template,
		Camera:    payload.Camera,
		Title:     title,
	}, func(stage string) {
		w.progress(ctx, jobID, stageProgress(stage))
	})
	if err != nil {
		log.Printf("[job %s] composition failed: %v", jobID, err)
		w.fail(ctx, jobID, err)
		return
	}

	w.export(ctx, jobID, result)

	if err := w.Store.Complete(ctx, jobID, &queue.Result{
		VideoPath:     result.VideoPath,
		ThumbnailPath: result.ThumbnailPath,
		FileName:      result.FileName,
		Title:         result.Title,
		Duration:      result.Duration,
	}); err != nil {
		log.Printf("[job %s] completion update failed: %v", jobID, err)
		return
	}
	log.Printf("[job %s] completed in %s: %s", jobID, time.Since(start).Round(time.Second), result.FileName)
}

// resolveClips builds acquisition clips from the payload, enriching them
// with vendor metadata (title, thumbnail, thumbnail-derived source URL)
// when the Helix client is configured. Metadata failures are non-fatal; the
// strategy chain still has its own resolvers.
func (w *Worker) resolveClips(ctx context.Context, payload *queue.Payload) ([]*acquisition.Clip, string) {
	var title string
	clips := make([]*acquisition.Clip, 0, len(payload.Clips))
	for _, req := range payload.Clips {
		clip := &acquisition.Clip{ID: req.ID}
		if req.URL != "" {
			clip.CandidateURLs = append(clip.CandidateURLs, req.URL)
		}

		if w.Helix.Configured() && req.ID != "" {
			meta, err := w.Helix.GetClip(ctx, req.ID)
			if err != nil {
				log.Printf("[clip %s] metadata lookup failed: %v", req.ID, err)
			} else {
				clip.Title = meta.Title
				clip.ThumbnailURL = meta.ThumbnailURL
				if title == "" {
					title = meta.Title
				}
				if src := twitch.SourceURLFromThumbnail(meta.ThumbnailURL); src != "" {
					clip.CandidateURLs = append(clip.CandidateURLs, src)
				}
			}
		}
		clips = append(clips, clip)
	}
	return clips, title
}

// export pushes finished artifacts to the configured destinations. Failures
// are logged and never affect the job's terminal state.
func (w *Worker) export(ctx context.Context, jobID string, result *compose.Result) {
	if w.Artifacts != nil {
		if err := w.Artifacts.UploadCompilation(ctx, result.VideoPath, result.ThumbnailPath); err != nil {
			log.Printf("[job %s] artifact upload failed: %v", jobID, err)
		}
	}
	if w.Publisher != nil {
		videoID, err := w.Publisher.Publish(result.VideoPath, result.Title)
		if err != nil {
			log.Printf("[job %s] publish failed: %v", jobID, err)
		} else {
			log.Printf("[job %s] published as %s", jobID, videoID)
		}
	}
}

func (w *Worker) progress(ctx context.Context, jobID string, percent int) {
	if err := w.Store.SetProgress(ctx, jobID, percent); err != nil {
		log.Printf("[job %s] progress update failed: %v", jobID, err)
	}
}

func (w *Worker) fail(ctx context.Context, jobID string, reason error) {
	if err := w.Store.Fail(ctx, jobID, reason.Error()); err != nil {
		log.Printf("[job %s] failure update failed: %v", jobID, err)
	}
}

// stageProgress maps completed pipeline stages onto progress checkpoints.
func stageProgress(stage string) int {
	switch stage {
	case compose.StageConcatenate:
		return config.ProgressConcatenate
	case compose.StageReframe:
		return config.ProgressReframe
	case compose.StageOutro:
		return config.ProgressOutro
	case compose.StageThumbnail:
		return config.ProgressThumbnail
	default:
		return 0
	}
}
