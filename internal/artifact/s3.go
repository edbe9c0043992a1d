package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
)

// putMaxElapsed bounds how long Put keeps retrying a failed upload.
const putMaxElapsed = 10 * time.Second

// ErrObjectNotFound is returned when a mirrored screenshot does not exist.
var ErrObjectNotFound = errors.New("artifact: object not found")

// S3Config holds the configuration for the screenshot mirror.
type S3Config struct {
	// Endpoint is the S3 endpoint URL. Leave empty for AWS S3.
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// Prefix is prepended to every object key, without slashes at either end.
	Prefix string
	// PublicURL is the base URL objects are reachable at, if any.
	PublicURL string
	// UsePathStyle is required by MinIO and gofakes3.
	UsePathStyle bool
}

// S3Sink mirrors screenshots into a bucket.
type S3Sink struct {
	client    *s3.Client
	bucket    string
	prefix    string
	publicURL string
}

// NewS3Sink creates a sink from configuration.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	var opts []func(*config.LoadOptions) error

	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3SinkFromClient(client, cfg.Bucket, cfg.Prefix, cfg.PublicURL), nil
}

// NewS3SinkFromClient wraps an existing S3 client.
func NewS3SinkFromClient(client *s3.Client, bucket, prefix, publicURL string) *S3Sink {
	return &S3Sink{
		client:    client,
		bucket:    bucket,
		prefix:    strings.Trim(prefix, "/"),
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// Key returns the object key for a screenshot name.
func (s *S3Sink) Key(name string) string {
	name = strings.TrimPrefix(name, "/")
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// Put uploads a screenshot, replacing any object with the same name.
func (s *S3Sink) Put(ctx context.Context, name string, content []byte, contentType string) (string, error) {
	key := s.Key(name)
	operation := func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(content),
			ContentType: aws.String(contentType),
		})
		if err == nil {
			return nil
		}
		// A missing bucket will not appear by retrying.
		var apiErr smithy.APIError
		if (errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket") || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = putMaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return "", fmt.Errorf("artifact: failed to put object %q: %w", key, err)
	}
	return key, nil
}

// Get downloads a mirrored screenshot.
// Returns ErrObjectNotFound if the key does not exist.
func (s *S3Sink) Get(ctx context.Context, name string) ([]byte, error) {
	key := s.Key(name)
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrObjectNotFound
		}
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("artifact: failed to get object %q: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("artifact: failed to read object body %q: %w", key, err)
	}
	return data, nil
}

// PublicURL returns where a mirrored screenshot can be viewed, or "" when
// no public base URL is configured.
func (s *S3Sink) PublicURL(key string) string {
	if s.publicURL == "" {
		return ""
	}
	return s.publicURL + "/" + strings.TrimPrefix(key, "/")
}

// Bucket returns the configured bucket name.
func (s *S3Sink) Bucket() string {
	return s.bucket
}
