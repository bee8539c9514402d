// Package storage persists rendered artifacts and issues their public URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/nicnocquee/spanduck/internal/domain"
	"github.com/nicnocquee/spanduck/internal/metrics"
	"github.com/nicnocquee/spanduck/pkg/log"
)

const pngContentType = "image/png"

// S3Config configures S3Storage.
type S3Config struct {
	Endpoint        string // empty uses AWS
	PublicEndpoint  string // base of public URLs; defaults to Endpoint
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
	PublicRead      bool // attach an anonymous read policy when creating the bucket
}

// S3Storage stores artifacts in an S3-compatible bucket.
type S3Storage struct {
	client     *s3.Client
	bucket     string
	region     string
	publicURL  string
	publicRead bool

	mu          sync.Mutex
	bucketReady bool
}

// NewS3Storage creates a client for cfg. The bucket is created on first write.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	public := strings.TrimSuffix(cfg.PublicEndpoint, "/")
	if public == "" {
		public = strings.TrimSuffix(cfg.Endpoint, "/")
	}
	if public == "" {
		public = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
	}

	return &S3Storage{
		client:     client,
		bucket:     bucket,
		region:     cfg.Region,
		publicURL:  public,
		publicRead: cfg.PublicRead,
	}, nil
}

// Exists checks key with HeadObject.
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		metrics.RecordStoreOperation("exists", nil)
		return true, nil
	}
	if isNotFound(err) {
		metrics.RecordStoreOperation("exists", nil)
		return false, nil
	}
	metrics.RecordStoreOperation("exists", err)
	return false, fmt.Errorf("head object %s: %w", key, err)
}

// Put uploads data under key and returns its public URL.
// Without opts.Overwrite an existing key fails with domain.ErrConflict.
func (s *S3Storage) Put(ctx context.Context, key string, data []byte, opts domain.PutOptions) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		metrics.RecordStoreOperation("put", err)
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(pngContentType),
	}
	if !opts.Overwrite {
		input.IfNoneMatch = aws.String("*")
	}

	_, err := s.client.PutObject(ctx, input)
	metrics.RecordStoreOperation("put", err)
	if err != nil {
		if isPreconditionFailed(err) {
			return "", fmt.Errorf("put %s: %w", key, domain.ErrConflict)
		}
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	log.GlobalDebugCtx(ctx, "artifact uploaded", "bucket", s.bucket, "key", key, "bytes", len(data))
	return s.PublicURL(key), nil
}

// Read downloads the object stored under key.
func (s *S3Storage) Read(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			metrics.RecordStoreOperation("read", nil)
			return nil, fmt.Errorf("read %s: %w", key, domain.ErrNotFound)
		}
		metrics.RecordStoreOperation("read", err)
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	metrics.RecordStoreOperation("read", err)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// PublicURL returns {public endpoint}/{bucket}/{key}.
func (s *S3Storage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key)
}

// Health checks the bucket is reachable.
func (s *S3Storage) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil && isNotFound(err) {
		// not created yet; the first write provisions it
		return nil
	}
	return err
}

// ensureBucket creates the bucket once per process if it is missing.
// Another writer creating it first is not an error.
func (s *S3Storage) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		s.bucketReady = true
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}
	_, err = s.client.CreateBucket(ctx, input)
	var owned *types.BucketAlreadyOwnedByYou
	var exists *types.BucketAlreadyExists
	switch {
	case err == nil:
		log.GlobalInfoCtx(ctx, "storage bucket created", "bucket", s.bucket)
		if s.publicRead {
			if err := s.allowPublicRead(ctx); err != nil {
				return err
			}
		}
	case errors.As(err, &owned), errors.As(err, &exists):
		log.GlobalDebugCtx(ctx, "storage bucket already exists", "bucket", s.bucket)
	default:
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}

	s.bucketReady = true
	return nil
}

func (s *S3Storage) allowPublicRead(ctx context.Context) error {
	policy := fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/*"]
  }]
}`, s.bucket)

	_, err := s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(s.bucket),
		Policy: aws.String(policy),
	})
	if err != nil {
		return fmt.Errorf("set public policy on %s: %w", s.bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	var nsb *types.NoSuchBucket
	if errors.As(err, &nf) || errors.As(err, &nsk) || errors.As(err, &nsb) {
		return true
	}
	return httpStatus(err) == http.StatusNotFound
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
		return true
	}
	return httpStatus(err) == http.StatusPreconditionFailed
}

func httpStatus(err error) int {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}
