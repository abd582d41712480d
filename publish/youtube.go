// Package publish uploads finished compilations to YouTube when a service
// account is configured.
package publish

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	// categoryGaming is YouTube's category id for gaming content.
	categoryGaming = "20"

	maxTitleLength = 100
)

// Publisher uploads compilations through the YouTube Data API.
type Publisher struct {
	service *youtube.Service
}

// New builds a Publisher from a service account file, or returns nil when
// none is configured (publishing disabled).
func New(ctx context.Context, serviceAccountFile string) (*Publisher, error) {
	if serviceAccountFile == "" {
		return nil, nil
	}

	data, err := os.ReadFile(serviceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	jwtConfig, err := google.JWTConfigFromJSON(data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}

	service, err := youtube.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &Publisher{service: service}, nil
}

// Publish uploads the video and returns its YouTube id.
func (p *Publisher) Publish(videoPath, title string) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer file.Close()

	if title == "" {
		title = "Clip Compilation"
	}
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength-3] + "..."
	}

	upload := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: "Compiled with clipforge",
			Tags:        []string{"clips", "compilation", "gaming"},
			CategoryId:  categoryGaming,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           "public",
			SelfDeclaredMadeForKids: false,
		},
	}

	call := p.service.Videos.Insert([]string{"snippet", "status"}, upload).Media(file)
	response, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("upload video: %w", err)
	}

	log.Printf("published https://youtube.com/shorts/%s", response.Id)
	return response.Id, nil
}
