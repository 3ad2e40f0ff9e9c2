package imagestore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// putObjectAPI is the subset of *s3.Client the store uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Store implements Store by uploading to an S3 bucket.
type s3Store struct {
	client        putObjectAPI
	bucket        string
	region        string
	prefix        string
	publicBaseURL string
	logger        zerolog.Logger
}

// NewS3Store creates a new S3-backed image store using the default AWS
// credential chain. Without publicBaseURL, URLs are virtual-hosted S3 URLs.
func NewS3Store(ctx context.Context, bucket, region, prefix, publicBaseURL string, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "s3-image-store").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 image store initialised")

	return newS3Store(s3.NewFromConfig(cfg), bucket, region, prefix, publicBaseURL, logger), nil
}

func newS3Store(client putObjectAPI, bucket, region, prefix, publicBaseURL string, logger zerolog.Logger) *s3Store {
	return &s3Store{
		client:        client,
		bucket:        bucket,
		region:        region,
		prefix:        prefix,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

// Put uploads data under the configured prefix.
func (s *s3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	objectKey := s.prefix + key

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("public, max-age=86400"),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", objectKey).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, objectKey, err)
	}

	s.logger.Info().
		Str("bucket", s.bucket).
		Str("key", objectKey).
		Int("bytes", len(data)).
		Msg("image uploaded to S3")

	return s.url(objectKey), nil
}

func (s *s3Store) url(objectKey string) string {
	if s.publicBaseURL != "" {
		return joinURL(s.publicBaseURL, objectKey)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, objectKey)
}

// fallbackStore tries S3 first, then falls back to the local file system.
type fallbackStore struct {
	s3Store   Store
	fileStore Store
	s3Enabled bool
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that tries S3 first, then falls back to
// the local file system. If s3Store is nil, only the file store is used.
func NewFallbackStore(s3Store, fileStore Store, s3Enabled bool, logger zerolog.Logger) Store {
	return &fallbackStore{
		s3Store:   s3Store,
		fileStore: fileStore,
		s3Enabled: s3Enabled,
		logger:    logger.With().Str("component", "fallback-image-store").Logger(),
	}
}

func (s *fallbackStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if s.s3Enabled && s.s3Store != nil {
		url, err := s.s3Store.Put(ctx, key, contentType, data)
		if err == nil {
			return url, nil
		}

		s.logger.Warn().
			Err(err).
			Str("key", key).
			Msg("failed to store image in S3, falling back to local file system")
	} else {
		s.logger.Debug().
			Bool("s3_enabled", s.s3Enabled).
			Bool("has_s3_store", s.s3Store != nil).
			Msg("S3 disabled or not configured, using local file system")
	}

	return s.fileStore.Put(ctx, key, contentType, data)
}
