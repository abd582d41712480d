// Package storage uploads finished compilation artifacts to S3 when a
// bucket is configured.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Config selects the target bucket. Credentials come from the standard AWS
// config/credential chain.
type Config struct {
	Bucket string
	Region string
	Prefix string
	// UsePathStyle forces path-style addressing for S3-compatible providers.
	UsePathStyle bool
}

// ArtifactStore wraps the S3 client with compilation-shaped helpers.
type ArtifactStore struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds an ArtifactStore, or returns nil when no bucket is configured
// (uploads disabled).
func New(ctx context.Context, cfg Config) (*ArtifactStore, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &ArtifactStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// UploadCompilation uploads the final video and, when present, its
// thumbnail. Keys are derived from the local file names.
func (s *ArtifactStore) UploadCompilation(ctx context.Context, videoPath, thumbnailPath string) error {
	if err := s.putFile(ctx, videoPath, "video/mp4"); err != nil {
		return fmt.Errorf("upload video: %w", err)
	}
	if thumbnailPath != "" {
		if err := s.putFile(ctx, thumbnailPath, "image/jpeg"); err != nil {
			return fmt.Errorf("upload thumbnail: %w", err)
		}
	}
	return nil
}

func (s *ArtifactStore) putFile(ctx context.Context, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(filepath.Base(path))),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	return err
}

// Exists reports whether an artifact with the given file name was uploaded.
func (s *ArtifactStore) Exists(ctx context.Context, fileName string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(fileName)),
	})
	if err == nil {
		return true, nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}
	return false, err
}

func (s *ArtifactStore) key(fileName string) string {
	if s.prefix == "" {
		return fileName
	}
	return s.prefix + "/" + fileName
}
