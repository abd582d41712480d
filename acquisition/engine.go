// Package acquisition resolves clip identifiers into downloaded, web-playable
// media files using an ordered fallback chain of strategies.
package acquisition

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipforge/config"
)

// Clip is one requested source clip and, once acquired, its local file.
type Clip struct {
	// ID is the vendor clip identifier (slug).
	ID string
	// CandidateURLs are caller-supplied or metadata-derived source URLs, in
	// preference order. Consumed by the direct strategy.
	CandidateURLs []string
	// ThumbnailURL is kept for result metadata.
	ThumbnailURL string
	// Title is the vendor title, used for compilation metadata.
	Title string
	// LocalPath is set after a successful acquisition.
	LocalPath string
}

// Strategy resolves a clip to a downloadable URL. Strategies are tried in
// fixed order; the first success short-circuits the chain.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, clip *Clip) (string, error)
}

// multiSource is implemented by strategies that can offer several candidate
// URLs in preference order.
type multiSource interface {
	AttemptAll(ctx context.Context, clip *Clip) ([]string, error)
}

// strategyURLs resolves the candidate URL list for one strategy attempt.
func strategyURLs(ctx context.Context, s Strategy, clip *Clip) ([]string, error) {
	if ms, ok := s.(multiSource); ok {
		return ms.AttemptAll(ctx, clip)
	}
	url, err := s.Attempt(ctx, clip)
	if err != nil {
		return nil, err
	}
	return []string{url}, nil
}

// Engine runs the strategy chain and materializes clips on disk.
type Engine struct {
	strategies []Strategy
	httpClient *http.Client
	// recode converts a downloaded file for web playback; failures are
	// logged and ignored. Swappable in tests.
	recode func(path string) error
	// maxConcurrent bounds parallel downloads within one batch.
	maxConcurrent int
}

// NewEngine builds an engine with the given strategy chain.
func NewEngine(strategies ...Strategy) *Engine {
	return &Engine{
		strategies:    strategies,
		httpClient:    &http.Client{Timeout: config.DownloadTimeout},
		recode:        RecodeForWeb,
		maxConcurrent: config.MaxConcurrentDownloads,
	}
}

// Acquire resolves and downloads a single clip into destDir, returning the
// local file path. All strategy failures aggregate into an AcquisitionError.
func (e *Engine) Acquire(ctx context.Context, clip *Clip, destDir string) (string, error) {
	name := clip.ID
	if name == "" {
		// URL-only requests carry no vendor id.
		name = uuid.NewString()
	}
	destPath := filepath.Join(destDir, fmt.Sprintf("%s.mp4", name))

	var attempts []AttemptFailure
	for _, s := range e.strategies {
		urls, err := strategyURLs(ctx, s, clip)
		if err != nil {
			attempts = append(attempts, AttemptFailure{Strategy: s.Name(), Err: err})
			continue
		}
		if len(urls) == 0 {
			attempts = append(attempts, AttemptFailure{
				Strategy: s.Name(),
				Err:      fmt.Errorf("resolved no URLs"),
			})
			continue
		}

		// A strategy may resolve several candidate URLs; try them in
		// preference order before falling through to the next strategy.
		var dlErr error
		for _, url := range urls {
			if dlErr = e.download(ctx, url, destPath); dlErr == nil {
				break
			}
		}
		if dlErr != nil {
			attempts = append(attempts, AttemptFailure{
				Strategy: s.Name(),
				Err:      fmt.Errorf("download: %w", dlErr),
			})
			continue
		}

		// Best-effort recode for web playback; the original file is kept
		// when it fails.
		if err := e.recode(destPath); err != nil {
			log.Printf("[clip %s] web recode failed, keeping original: %v", clip.ID, err)
		}

		clip.LocalPath = destPath
		return destPath, nil
	}

	return "", &AcquisitionError{ClipID: clip.ID, Attempts: attempts}
}

// AcquireBatch downloads all clips concurrently up to the engine's bound.
// Individual failures are tolerated; the surviving clips are returned in
// their original relative order. Zero acquisitions is fatal.
func (e *Engine) AcquireBatch(ctx context.Context, clips []*Clip, destDir string) ([]*Clip, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.maxConcurrent)
	failures := make([]*AcquisitionError, len(clips))

	for i, clip := range clips {
		wg.Add(1)
		go func(idx int, c *Clip) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			start := time.Now()
			if _, err := e.Acquire(ctx, c, destDir); err != nil {
				log.Printf("[clip %s] acquisition failed: %v", c.ID, err)
				if acqErr, ok := err.(*AcquisitionError); ok {
					failures[idx] = acqErr
				} else {
					failures[idx] = &AcquisitionError{
						ClipID:   c.ID,
						Attempts: []AttemptFailure{{Strategy: "engine", Err: err}},
					}
				}
				return
			}
			log.Printf("[clip %s] acquired in %s", c.ID, time.Since(start).Round(time.Millisecond))
		}(i, clip)
	}
	wg.Wait()

	acquired := make([]*Clip, 0, len(clips))
	var failed []*AcquisitionError
	for i, c := range clips {
		if failures[i] != nil {
			failed = append(failed, failures[i])
			continue
		}
		acquired = append(acquired, c)
	}

	if len(acquired) == 0 {
		return nil, &NoClipsAcquiredError{Requested: len(clips), Failures: failed}
	}
	return acquired, nil
}

// download fetches url into destPath, replacing any partial file on error.
func (e *Engine) download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(destPath)
		return err
	}
	return out.Close()
}
