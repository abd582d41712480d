package acquisition

import (
	"context"
	"fmt"

	"clipforge/twitch"
)

// DirectURLStrategy uses candidate URLs already attached to the clip, in
// preference order. First in the chain: no network round-trip needed.
type DirectURLStrategy struct{}

func (DirectURLStrategy) Name() string { return "direct-url" }

func (DirectURLStrategy) Attempt(ctx context.Context, clip *Clip) (string, error) {
	if len(clip.CandidateURLs) == 0 {
		return "", fmt.Errorf("no candidate URLs supplied")
	}
	return clip.CandidateURLs[0], nil
}

// AttemptAll exposes every candidate URL in preference order, so a dead first
// candidate falls through to the next one instead of the next strategy.
func (DirectURLStrategy) AttemptAll(ctx context.Context, clip *Clip) ([]string, error) {
	if len(clip.CandidateURLs) == 0 {
		return nil, fmt.Errorf("no candidate URLs supplied")
	}
	return clip.CandidateURLs, nil
}

// GQLStrategy queries the vendor's internal GraphQL endpoint for ranked
// source qualities and picks 1080, else 720, else the first entry.
type GQLStrategy struct {
	Client *twitch.GQLClient
}

func (GQLStrategy) Name() string { return "gql-metadata" }

func (s GQLStrategy) Attempt(ctx context.Context, clip *Clip) (string, error) {
	qualities, err := s.Client.ClipSources(ctx, clip.ID)
	if err != nil {
		return "", err
	}
	source, err := twitch.SelectSource(qualities)
	if err != nil {
		return "", err
	}
	return source.SourceURL, nil
}
