package acquisition

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Downloader error categories derived from the CLI tool's stderr.
var (
	ErrClipNotFound    = fmt.Errorf("clip not found")
	ErrClipForbidden   = fmt.Errorf("clip access forbidden")
	ErrClipUnavailable = fmt.Errorf("clip unavailable")
)

// YtDlpStrategy shells out to yt-dlp as the last-resort resolver. It asks the
// tool for the direct media URL; the engine performs the actual download.
type YtDlpStrategy struct {
	BinaryPath string
	// PageURL builds the clip page URL handed to the tool.
	PageURL func(clipID string) string
	Timeout time.Duration
}

// NewYtDlpStrategy builds the CLI fallback with the given binary path.
func NewYtDlpStrategy(binaryPath string) *YtDlpStrategy {
	return &YtDlpStrategy{
		BinaryPath: binaryPath,
		PageURL: func(clipID string) string {
			return "https://clips.twitch.tv/" + clipID
		},
		Timeout: 2 * time.Minute,
	}
}

func (*YtDlpStrategy) Name() string { return "yt-dlp" }

func (s *YtDlpStrategy) Attempt(ctx context.Context, clip *Clip) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.BinaryPath,
		"-f", "b", "--get-url", "--no-warnings", s.PageURL(clip.ID))

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp: %w", CategorizeStderr(stderr.String()))
	}

	url := strings.TrimSpace(out.String())
	if url == "" {
		return "", fmt.Errorf("yt-dlp returned no URL")
	}
	// The tool may print separate video and audio URLs; take the first.
	if i := strings.IndexByte(url, '\n'); i >= 0 {
		url = url[:i]
	}
	return url, nil
}

// CategorizeStderr maps the tool's diagnostic text onto user-facing error
// categories, keeping the raw text for anything unrecognized.
func CategorizeStderr(stderr string) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "404") || strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist"):
		return ErrClipNotFound
	case strings.Contains(lower, "403") || strings.Contains(lower, "forbidden") ||
		strings.Contains(lower, "access denied"):
		return ErrClipForbidden
	case strings.Contains(lower, "unavailable") || strings.Contains(lower, "removed"):
		return ErrClipUnavailable
	case strings.TrimSpace(stderr) == "":
		return fmt.Errorf("tool exited non-zero with no diagnostics")
	default:
		return fmt.Errorf("tool failed: %s", firstLine(stderr))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
