package acquisition

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

type fakeStrategy struct {
	name    string
	url     string
	err     error
	calls   atomic.Int32
	perClip func(clip *Clip) (string, error)
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Attempt(ctx context.Context, clip *Clip) (string, error) {
	f.calls.Add(1)
	if f.perClip != nil {
		return f.perClip(clip)
	}
	return f.url, f.err
}

// newTestEngine serves fixed bytes for every download and skips the recode.
func newTestEngine(t *testing.T, strategies ...Strategy) (*Engine, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp4" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("fake-mp4-bytes"))
	}))
	t.Cleanup(server.Close)

	e := NewEngine(strategies...)
	e.recode = func(string) error { return nil }
	return e, server
}

func TestAcquireFirstSuccessShortCircuits(t *testing.T) {
	failing := &fakeStrategy{name: "first", err: errors.New("boom")}
	var winner, skipped *fakeStrategy

	e, server := newTestEngine(t)
	winner = &fakeStrategy{name: "second", url: server.URL + "/clip.mp4"}
	skipped = &fakeStrategy{name: "third", url: server.URL + "/other.mp4"}
	e.strategies = []Strategy{failing, winner, skipped}

	dir := t.TempDir()
	clip := &Clip{ID: "abc"}
	path, err := e.Acquire(context.Background(), clip, dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if path != filepath.Join(dir, "abc.mp4") {
		t.Fatalf("path = %s", path)
	}
	if clip.LocalPath != path {
		t.Fatalf("LocalPath = %s, want %s", clip.LocalPath, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if skipped.calls.Load() != 0 {
		t.Fatal("chain did not short-circuit on first success")
	}
}

func TestAcquireTriesCandidateURLsInOrder(t *testing.T) {
	e, server := newTestEngine(t, DirectURLStrategy{})

	clip := &Clip{ID: "abc", CandidateURLs: []string{
		server.URL + "/missing.mp4",
		server.URL + "/thumb-derived.mp4",
	}}
	path, err := e.Acquire(context.Background(), clip, t.TempDir())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
}

func TestAcquireAggregatesStrategyFailures(t *testing.T) {
	e, server := newTestEngine(t)
	e.strategies = []Strategy{
		&fakeStrategy{name: "resolver", err: errors.New("no url")},
		&fakeStrategy{name: "dead-link", url: server.URL + "/missing.mp4"},
	}

	_, err := e.Acquire(context.Background(), &Clip{ID: "abc"}, t.TempDir())
	var acqErr *AcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatalf("err = %T, want *AcquisitionError", err)
	}
	if acqErr.ClipID != "abc" {
		t.Fatalf("ClipID = %s", acqErr.ClipID)
	}
	if len(acqErr.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(acqErr.Attempts))
	}
	if acqErr.Attempts[0].Strategy != "resolver" || acqErr.Attempts[1].Strategy != "dead-link" {
		t.Fatalf("attempt trace = %+v", acqErr.Attempts)
	}
}

func TestAcquireBatchPreservesOrderAndToleratesFailures(t *testing.T) {
	e, server := newTestEngine(t)
	e.strategies = []Strategy{&fakeStrategy{perClip: func(clip *Clip) (string, error) {
		if clip.ID == "bad" {
			return "", errors.New("unresolvable")
		}
		return server.URL + "/" + clip.ID + ".mp4", nil
	}}}

	clips := []*Clip{{ID: "c1"}, {ID: "bad"}, {ID: "c2"}, {ID: "c3"}}
	acquired, err := e.AcquireBatch(context.Background(), clips, t.TempDir())
	if err != nil {
		t.Fatalf("AcquireBatch: %v", err)
	}

	got := make([]string, len(acquired))
	for i, c := range acquired {
		got[i] = c.ID
	}
	want := []string{"c1", "c2", "c3"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("acquired order = %v, want %v", got, want)
	}
}

func TestAcquireBatchAllFailuresIsFatal(t *testing.T) {
	e, _ := newTestEngine(t)
	e.strategies = []Strategy{&fakeStrategy{name: "only", err: errors.New("down")}}

	clips := []*Clip{{ID: "c1"}, {ID: "c2"}}
	_, err := e.AcquireBatch(context.Background(), clips, t.TempDir())

	var fatal *NoClipsAcquiredError
	if !errors.As(err, &fatal) {
		t.Fatalf("err = %T, want *NoClipsAcquiredError", err)
	}
	if fatal.Requested != 2 || len(fatal.Failures) != 2 {
		t.Fatalf("fatal = %+v", fatal)
	}
}

func TestAcquireRecodeFailureIsNonFatal(t *testing.T) {
	e, server := newTestEngine(t)
	e.strategies = []Strategy{&fakeStrategy{name: "direct", url: server.URL + "/clip.mp4"}}
	e.recode = func(string) error { return errors.New("encoder exploded") }

	path, err := e.Acquire(context.Background(), &Clip{ID: "abc"}, t.TempDir())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("original file not kept: %v", statErr)
	}
}
