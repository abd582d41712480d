package acquisition

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"clipforge/twitch"
)

var mp4Pattern = regexp.MustCompile(`https://[^"'\s\\]+\.mp4[^"'\s\\]*`)

// PageScrapeStrategy fetches the clip's public page and extracts an embedded
// MP4 URL, either from video/meta tags, a raw URL match, or the embedded
// quality-options JSON blob.
type PageScrapeStrategy struct {
	// BaseURL is the clip page prefix; the clip id is appended.
	BaseURL    string
	HTTPClient *http.Client
}

// NewPageScrapeStrategy builds the scraper against the vendor's clip pages.
func NewPageScrapeStrategy() *PageScrapeStrategy {
	return &PageScrapeStrategy{
		BaseURL:    "https://clips.twitch.tv/",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (*PageScrapeStrategy) Name() string { return "page-scrape" }

func (s *PageScrapeStrategy) Attempt(ctx context.Context, clip *Clip) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+clip.ID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; clipforge)")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("page fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page fetch: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("page parse: %w", err)
	}

	if url := extractFromTags(doc); url != "" {
		return url, nil
	}
	if url := extractFromScripts(doc); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("no embedded mp4 url on clip page")
}

// extractFromTags checks video sources and social-preview meta tags.
func extractFromTags(doc *goquery.Document) string {
	var found string
	doc.Find("video source, video").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if src, ok := sel.Attr("src"); ok && strings.Contains(src, ".mp4") {
			found = src
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	for _, prop := range []string{"og:video", "og:video:secure_url", "twitter:player:stream"} {
		doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, prop, prop)).
			EachWithBreak(func(_ int, sel *goquery.Selection) bool {
				if content, ok := sel.Attr("content"); ok && strings.Contains(content, ".mp4") {
					found = content
					return false
				}
				return true
			})
		if found != "" {
			return found
		}
	}
	return ""
}

// extractFromScripts scans inline scripts for a quality-options JSON blob,
// falling back to the first raw mp4 URL match.
func extractFromScripts(doc *goquery.Document) string {
	var raw string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if url := extractQualityOptions(text); url != "" {
			raw = url
			return false
		}
		if m := mp4Pattern.FindString(text); m != "" && raw == "" {
			raw = m
		}
		return true
	})
	return raw
}

var qualityOptionsPattern = regexp.MustCompile(`"quality_options"\s*:\s*(\[[^\]]*\])`)

// extractQualityOptions parses an embedded quality-options list and applies
// the standard ranking.
func extractQualityOptions(script string) string {
	m := qualityOptionsPattern.FindStringSubmatch(script)
	if m == nil {
		return ""
	}

	var options []struct {
		Quality string `json:"quality"`
		Source  string `json:"source"`
	}
	if err := json.Unmarshal([]byte(m[1]), &options); err != nil {
		return ""
	}

	qualities := make([]twitch.VideoQuality, 0, len(options))
	for _, o := range options {
		if o.Source == "" {
			continue
		}
		qualities = append(qualities, twitch.VideoQuality{Quality: o.Quality, SourceURL: o.Source})
	}
	selected, err := twitch.SelectSource(qualities)
	if err != nil {
		return ""
	}
	return selected.SourceURL
}
