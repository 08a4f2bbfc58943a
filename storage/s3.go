package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/ruteri/jit-activation-gateway/interfaces"
)

type S3Options struct {
	Bucket string
	Key    string
	Region string
	// Endpoint selects an S3 compatible store (e.g. MinIO). Path-style
	// addressing is used whenever it is set.
	Endpoint string
	// AccessKey and SecretKey are optional. Without them requests are unsigned.
	AccessKey string
	SecretKey string
}

// S3Source reads a single object from Amazon S3 or a compatible service.
type S3Source struct {
	client      *s3.S3
	bucket      string
	key         string
	log         *slog.Logger
	locationURI string
}

func NewS3Source(opts S3Options, log *slog.Logger) (*S3Source, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", opts.Bucket, opts.Key, opts.Region)
	if opts.AccessKey != "" {
		uri = fmt.Sprintf("s3://%s:***@%s/%s?region=%s", opts.AccessKey, opts.Bucket, opts.Key, opts.Region)
	}
	if opts.Endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", opts.Endpoint)
	}

	cfg := aws.Config{
		Region: aws.String(opts.Region),
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, "")
	} else {
		cfg.Credentials = credentials.AnonymousCredentials
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Source{
		client:      s3.New(sess),
		bucket:      opts.Bucket,
		key:         opts.Key,
		log:         log,
		locationURI: uri,
	}, nil
}

func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()

	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("%w: s3://%s/%s", interfaces.ErrContentNotFound, s.bucket, s.key)
		}
		s.log.Error("Failed to get object from S3",
			slog.String("bucket", s.bucket),
			slog.String("key", s.key),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	s.log.Debug("Fetched content from S3",
		slog.String("bucket", s.bucket),
		slog.String("key", s.key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

func (s *S3Source) LocationURI() string {
	return s.locationURI
}
