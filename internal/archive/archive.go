// Package archive uploads trading session histories to S3-compatible storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const defaultRegion = "auto"

// Uploader is the subset of the S3 upload manager the archive needs
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Options configures the bucket connection
type Options struct {
	Bucket    string
	Endpoint  string // Empty uses AWS; otherwise path-style requests against this URL
	Region    string
	AccessKey string
	SecretKey string
}

// document is the stored JSON layout
type document struct {
	UserID     string                `json:"user_id"`
	ExecutedAt time.Time             `json:"executed_at"`
	History    []domain.HistoryEntry `json:"history"`
}

// S3Archive stores histories as JSON objects
type S3Archive struct {
	bucket   string
	uploader Uploader
	log      zerolog.Logger
}

// NewS3Archive builds an archive backed by a static-credential S3 client
func NewS3Archive(ctx context.Context, opts Options, log zerolog.Logger) (*S3Archive, error) {
	region := opts.Region
	if region == "" {
		region = defaultRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load archive config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithUploader(opts.Bucket, manager.NewUploader(client), log), nil
}

// NewWithUploader builds an archive on an existing uploader
func NewWithUploader(bucket string, uploader Uploader, log zerolog.Logger) *S3Archive {
	return &S3Archive{
		bucket:   bucket,
		uploader: uploader,
		log:      log.With().Str("component", "history_archive").Str("bucket", bucket).Logger(),
	}
}

// Key returns the object key for a session
func Key(userID string, at time.Time) string {
	return fmt.Sprintf("history/%s/%d.json", userID, at.Unix())
}

// Store uploads one session history
func (a *S3Archive) Store(ctx context.Context, userID string, at time.Time, history []domain.HistoryEntry) error {
	body, err := json.Marshal(document{UserID: userID, ExecutedAt: at.UTC(), History: history})
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	key := Key(userID, at)
	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	a.log.Debug().Str("key", key).Int("bytes", len(body)).Msg("Archived trading history")
	return nil
}
