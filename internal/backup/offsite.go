package backup

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// OffsiteConfig holds S3-compatible storage configuration for dump
// replication. Replication is enabled only when bucket and credentials are
// all present.
type OffsiteConfig struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c OffsiteConfig) enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Replicator uploads database dumps to S3-compatible offsite storage.
type Replicator struct {
	client s3Client
	bucket string
	logger *slog.Logger
}

// NewReplicator returns nil when the config is incomplete, which disables
// replication entirely.
func NewReplicator(cfg OffsiteConfig, logger *slog.Logger) *Replicator {
	if !cfg.enabled() {
		return nil
	}
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &Replicator{client: s3.New(opts), bucket: cfg.Bucket, logger: logger}
}

// Upload stores the dump under its backup-relative path as the object key.
func (r *Replicator) Upload(ctx context.Context, key string, data []byte) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	r.logger.Info("dump replicated offsite", "key", key, "bytes", len(data))
	return nil
}
