// Package twitch talks to the clip vendor: the authenticated Helix metadata
// API and the unauthenticated GraphQL endpoint used as a source-URL fallback.
package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const (
	helixBaseURL = "https://api.twitch.tv/helix"
	tokenURL     = "https://id.twitch.tv/oauth2/token"
)

// Clip is the vendor's metadata for a single clip.
type Clip struct {
	ID              string  `json:"id"`
	URL             string  `json:"url"`
	BroadcasterName string  `json:"broadcaster_name"`
	Title           string  `json:"title"`
	ThumbnailURL    string  `json:"thumbnail_url"`
	Duration        float64 `json:"duration"`
}

// Client wraps the Helix API with app-token auth. The underlying oauth2
// client-credentials TokenSource caches the bearer token and refreshes it
// near expiry.
type Client struct {
	httpClient *http.Client
	clientID   string
}

// NewClient builds a Helix client from app credentials.
func NewClient(ctx context.Context, clientID, clientSecret string) *Client {
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	httpClient := cc.Client(ctx)
	httpClient.Timeout = 30 * time.Second
	return &Client{httpClient: httpClient, clientID: clientID}
}

// Configured reports whether credentials were supplied.
func (c *Client) Configured() bool {
	return c != nil && c.clientID != ""
}

// GetClip resolves a clip identifier to its vendor metadata.
func (c *Client) GetClip(ctx context.Context, clipID string) (*Clip, error) {
	endpoint := fmt.Sprintf("%s/clips?id=%s", helixBaseURL, url.QueryEscape(clipID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-Id", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("helix request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("helix returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Data []Clip `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("helix response decode: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("clip %q not found", clipID)
	}
	return &payload.Data[0], nil
}

// SourceURLFromThumbnail derives the MP4 source URL from a clip thumbnail
// URL (the vendor serves both from the same asset path). Returns empty when
// the thumbnail does not follow the known pattern.
func SourceURLFromThumbnail(thumbnailURL string) string {
	idx := strings.Index(thumbnailURL, "-preview-")
	if idx < 0 {
		return ""
	}
	return thumbnailURL[:idx] + ".mp4"
}
