package acquisition

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func servePage(t *testing.T, html string) *PageScrapeStrategy {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, html)
	}))
	t.Cleanup(server.Close)

	s := NewPageScrapeStrategy()
	s.BaseURL = server.URL + "/"
	return s
}

func TestScrapeExtractsVideoTag(t *testing.T) {
	s := servePage(t, `<html><body>
		<video><source src="https://cdn.example.com/clip-720.mp4" type="video/mp4"></video>
	</body></html>`)

	url, err := s.Attempt(context.Background(), &Clip{ID: "abc"})
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if url != "https://cdn.example.com/clip-720.mp4" {
		t.Fatalf("url = %s", url)
	}
}

func TestScrapeExtractsMetaTag(t *testing.T) {
	s := servePage(t, `<html><head>
		<meta property="og:video" content="https://cdn.example.com/social.mp4">
	</head><body></body></html>`)

	url, err := s.Attempt(context.Background(), &Clip{ID: "abc"})
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if url != "https://cdn.example.com/social.mp4" {
		t.Fatalf("url = %s", url)
	}
}

func TestScrapeExtractsQualityOptionsBlob(t *testing.T) {
	s := servePage(t, `<html><body><script>
		window.__state = {"clip":{"quality_options":[
			{"quality":"480","source":"https://cdn.example.com/480.mp4"},
			{"quality":"1080","source":"https://cdn.example.com/1080.mp4"},
			{"quality":"720","source":"https://cdn.example.com/720.mp4"}
		]}};
	</script></body></html>`)

	url, err := s.Attempt(context.Background(), &Clip{ID: "abc"})
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if url != "https://cdn.example.com/1080.mp4" {
		t.Fatalf("url = %s, want the 1080 source", url)
	}
}

func TestScrapeFallsBackToRawMatch(t *testing.T) {
	s := servePage(t, `<html><body><script>
		var src = "https://cdn.example.com/embedded%20clip.mp4?sig=xyz";
	</script></body></html>`)

	url, err := s.Attempt(context.Background(), &Clip{ID: "abc"})
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if url != "https://cdn.example.com/embedded%20clip.mp4?sig=xyz" {
		t.Fatalf("url = %s", url)
	}
}

func TestScrapeNoSourceFound(t *testing.T) {
	s := servePage(t, `<html><body><p>nothing to see</p></body></html>`)
	if _, err := s.Attempt(context.Background(), &Clip{ID: "abc"}); err == nil {
		t.Fatal("expected error for page without media")
	}
}
