package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	gqlEndpoint = "https://gql.twitch.tv/gql"
	// gqlClientID is the vendor's public web client id; the GraphQL endpoint
	// does not require a bearer token.
	gqlClientID = "kimne78kx3ncx6brgo4mv6wki5h1ko"
)

const clipSourcesQuery = `query($slug: ID!) {
  clip(slug: $slug) {
    videoQualities { quality sourceURL }
    playbackAccessToken(params: {platform: "web", playerType: "embed"}) {
      signature
      value
    }
  }
}`

// VideoQuality is one ranked source entry from the GraphQL clip query.
type VideoQuality struct {
	Quality   string `json:"quality"`
	SourceURL string `json:"sourceURL"`
}

// GQLClient queries the vendor's internal GraphQL endpoint.
type GQLClient struct {
	httpClient *http.Client
	endpoint   string
	clientID   string
}

// NewGQLClient builds an unauthenticated GraphQL client.
func NewGQLClient() *GQLClient {
	return &GQLClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   gqlEndpoint,
		clientID:   gqlClientID,
	}
}

// NewGQLClientWithEndpoint is used by tests to point at a stub server.
func NewGQLClientWithEndpoint(endpoint string) *GQLClient {
	c := NewGQLClient()
	c.endpoint = endpoint
	return c
}

// ClipSources returns the clip's ranked source qualities with playback
// tokens already applied to each URL.
func (c *GQLClient) ClipSources(ctx context.Context, slug string) ([]VideoQuality, error) {
	reqBody, err := json.Marshal(map[string]any{
		"query":     clipSourcesQuery,
		"variables": map[string]string{"slug": slug},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-Id", c.clientID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gql request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gql returned %d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Clip *struct {
				VideoQualities      []VideoQuality `json:"videoQualities"`
				PlaybackAccessToken *struct {
					Signature string `json:"signature"`
					Value     string `json:"value"`
				} `json:"playbackAccessToken"`
			} `json:"clip"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("gql response decode: %w", err)
	}
	clip := payload.Data.Clip
	if clip == nil || len(clip.VideoQualities) == 0 {
		return nil, fmt.Errorf("clip %q has no sources", slug)
	}

	qualities := clip.VideoQualities
	if tok := clip.PlaybackAccessToken; tok != nil {
		for i := range qualities {
			qualities[i].SourceURL = signSourceURL(qualities[i].SourceURL, tok.Signature, tok.Value)
		}
	}
	return qualities, nil
}

func signSourceURL(sourceURL, sig, token string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return sourceURL
	}
	q := u.Query()
	q.Set("sig", sig)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// SelectSource picks the preferred entry: "1080", else "720", else the first
// returned entry. Ties within a label keep vendor order.
func SelectSource(qualities []VideoQuality) (VideoQuality, error) {
	if len(qualities) == 0 {
		return VideoQuality{}, fmt.Errorf("no source qualities")
	}
	for _, want := range []string{"1080", "720"} {
		for _, q := range qualities {
			if q.Quality == want {
				return q, nil
			}
		}
	}
	return qualities[0], nil
}
