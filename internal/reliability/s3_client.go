// Package reliability provides database snapshots and off-site backups.
package reliability

import (
	"context"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/config"
)

// S3Client wraps access to an S3-compatible object store
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewS3Client creates a client for the configured bucket. A custom endpoint
// switches the client to S3-compatible stores (R2, MinIO).
func NewS3Client(cfg *config.BackupConfig, log zerolog.Logger) (*S3Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		log:      log.With().Str("component", "s3_client").Logger(),
	}, nil
}

// Upload streams an object to the bucket
func (c *S3Client) Upload(ctx context.Context, key string, body io.Reader) error {
	fullKey := c.objectKey(key)

	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &c.bucket,
		Key:    &fullKey,
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", fullKey, err)
	}

	c.log.Debug().Str("key", fullKey).Msg("Object uploaded")
	return nil
}

// List returns objects whose key starts with the given prefix
func (c *S3Client) List(ctx context.Context, prefix string) ([]types.Object, error) {
	fullPrefix := c.objectKey(prefix)

	objects := []types.Object{}
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: &c.bucket,
		Prefix: &fullPrefix,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		objects = append(objects, page.Contents...)
	}

	return objects, nil
}

// Delete removes an object from the bucket
func (c *S3Client) Delete(ctx context.Context, key string) error {
	fullKey := c.objectKey(key)

	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &c.bucket,
		Key:    &fullKey,
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", fullKey, err)
	}
	return nil
}

func (c *S3Client) objectKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + "/" + key
}
