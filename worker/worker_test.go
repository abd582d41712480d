package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/acquisition"
	"clipforge/compose"
	"clipforge/config"
	"clipforge/layout"
	"clipforge/queue"
)

type fakeStore struct {
	active    bool
	progress  []int
	completed *queue.Result
	failedMsg string
}

func (s *fakeStore) Consume(ctx context.Context, handle queue.Handler) error { return nil }

func (s *fakeStore) SetActive(ctx context.Context, jobID string) error {
	s.active = true
	return nil
}

func (s *fakeStore) SetProgress(ctx context.Context, jobID string, percent int) error {
	s.progress = append(s.progress, percent)
	return nil
}

func (s *fakeStore) Complete(ctx context.Context, jobID string, result *queue.Result) error {
	s.completed = result
	return nil
}

func (s *fakeStore) Fail(ctx context.Context, jobID string, reason string) error {
	s.failedMsg = reason
	return nil
}

type fakeAcquirer struct {
	destDir string
	err     error
}

func (a *fakeAcquirer) AcquireBatch(ctx context.Context, clips []*acquisition.Clip, destDir string) ([]*acquisition.Clip, error) {
	a.destDir = destDir
	if a.err != nil {
		return nil, a.err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}
	out := make([]*acquisition.Clip, len(clips))
	for i, c := range clips {
		c.LocalPath = filepath.Join(destDir, c.ID+".mp4")
		out[i] = c
	}
	return out, nil
}

type fakeComposer struct {
	req compose.Request
	err error
}

func (c *fakeComposer) Compose(ctx context.Context, req compose.Request, onStage func(stage string)) (*compose.Result, error) {
	c.req = req
	if c.err != nil {
		return nil, c.err
	}
	for _, stage := range []string{
		compose.StageConcatenate, compose.StageReframe, compose.StageOutro, compose.StageThumbnail,
	} {
		onStage(stage)
	}
	return &compose.Result{
		VideoPath: filepath.Join("out", req.JobID+".mp4"),
		FileName:  req.JobID + ".mp4",
		Title:     req.Title,
		Duration:  33.5,
	}, nil
}

func testPayload() *queue.Payload {
	return &queue.Payload{
		Clips:    []queue.ClipRequest{{ID: "c1"}, {ID: "c2", URL: "https://cdn.example.com/c2.mp4"}},
		Template: layout.Template{Aspect: layout.AspectVertical, Camera: layout.CameraTopRight},
		Title:    "Best Moments",
	}
}

func newTestWorker(t *testing.T, store *fakeStore, acq *fakeAcquirer, comp *fakeComposer) *Worker {
	t.Helper()
	return &Worker{
		Store:    store,
		Acquirer: acq,
		Composer: comp,
		TempDir:  t.TempDir(),
	}
}

func TestProcessSuccess(t *testing.T) {
	store := &fakeStore{}
	acq := &fakeAcquirer{}
	comp := &fakeComposer{}
	w := newTestWorker(t, store, acq, comp)

	w.process(context.Background(), "job-1", testPayload())

	if !store.active {
		t.Fatal("job never marked active")
	}
	if store.failedMsg != "" {
		t.Fatalf("unexpected failure: %s", store.failedMsg)
	}
	if store.completed == nil {
		t.Fatal("job not completed")
	}
	if store.completed.FileName != "job-1.mp4" || store.completed.Duration != 33.5 {
		t.Fatalf("completed result = %+v", store.completed)
	}

	want := []int{
		config.ProgressAccepted,
		config.ProgressAcquired,
		config.ProgressConcatenate,
		config.ProgressReframe,
		config.ProgressOutro,
		config.ProgressThumbnail,
	}
	if len(store.progress) != len(want) {
		t.Fatalf("progress updates = %v, want %v", store.progress, want)
	}
	for i, p := range store.progress {
		if p != want[i] {
			t.Fatalf("progress updates = %v, want %v", store.progress, want)
		}
	}
	for i := 1; i < len(store.progress); i++ {
		if store.progress[i] <= store.progress[i-1] {
			t.Fatalf("progress not increasing: %v", store.progress)
		}
	}
}

func TestProcessUsesJobScopedTempDir(t *testing.T) {
	store := &fakeStore{}
	acq := &fakeAcquirer{}
	w := newTestWorker(t, store, acq, &fakeComposer{})

	w.process(context.Background(), "job-2", testPayload())

	if acq.destDir != filepath.Join(w.TempDir, "job-2") {
		t.Fatalf("destDir = %s", acq.destDir)
	}
	if _, err := os.Stat(acq.destDir); !os.IsNotExist(err) {
		t.Fatalf("temp dir not cleaned up: %v", err)
	}
}

func TestProcessAcquisitionFailure(t *testing.T) {
	store := &fakeStore{}
	acq := &fakeAcquirer{err: errors.New("all strategies exhausted")}
	w := newTestWorker(t, store, acq, &fakeComposer{})

	w.process(context.Background(), "job-3", testPayload())

	if store.completed != nil {
		t.Fatal("failed job was completed")
	}
	if !strings.Contains(store.failedMsg, "all strategies exhausted") {
		t.Fatalf("failure reason = %q", store.failedMsg)
	}
}

func TestProcessCompositionFailure(t *testing.T) {
	store := &fakeStore{}
	comp := &fakeComposer{err: &compose.CompositionError{
		Stage: compose.StageReframe, Err: errors.New("exit status 1"),
	}}
	w := newTestWorker(t, store, &fakeAcquirer{}, comp)

	w.process(context.Background(), "job-4", testPayload())

	if store.completed != nil {
		t.Fatal("failed job was completed")
	}
	if !strings.Contains(store.failedMsg, compose.StageReframe) {
		t.Fatalf("failure reason = %q", store.failedMsg)
	}
	// Temp dir cleanup runs on the failure path too.
	if _, err := os.Stat(filepath.Join(w.TempDir, "job-4")); !os.IsNotExist(err) {
		t.Fatalf("temp dir not cleaned up: %v", err)
	}
}

func TestProcessForwardsPayloadToComposer(t *testing.T) {
	store := &fakeStore{}
	comp := &fakeComposer{}
	w := newTestWorker(t, store, &fakeAcquirer{}, comp)

	payload := testPayload()
	payload.Camera = &layout.Region{X: 10, Y: 20, Width: 320, Height: 180}
	w.process(context.Background(), "job-5", payload)

	if comp.req.JobID != "job-5" {
		t.Fatalf("JobID = %s", comp.req.JobID)
	}
	if comp.req.Template != payload.Template {
		t.Fatalf("Template = %+v", comp.req.Template)
	}
	if comp.req.Camera != payload.Camera {
		t.Fatal("camera region not forwarded")
	}
	if comp.req.Title != "Best Moments" {
		t.Fatalf("Title = %q, want payload fallback", comp.req.Title)
	}
	if len(comp.req.ClipPaths) != 2 {
		t.Fatalf("ClipPaths = %v", comp.req.ClipPaths)
	}
}

func TestStageProgress(t *testing.T) {
	cases := []struct {
		stage string
		want  int
	}{
		{compose.StageConcatenate, config.ProgressConcatenate},
		{compose.StageReframe, config.ProgressReframe},
		{compose.StageOutro, config.ProgressOutro},
		{compose.StageThumbnail, config.ProgressThumbnail},
		{"unknown", 0},
	}
	for _, c := range cases {
		if got := stageProgress(c.stage); got != c.want {
			t.Fatalf("stageProgress(%s) = %d, want %d", c.stage, got, c.want)
		}
	}
}
