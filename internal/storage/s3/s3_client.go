package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"seikin/internal/config"
	"seikin/internal/domain"
	"seikin/internal/port"
)

type s3Source struct {
	client   *s3.Client
	bucket   string
	maxBytes int64
}

// NewDocumentSource creates an S3-backed DocumentSource. The fileId carried
// by API requests is the S3 object key within the configured bucket.
func NewDocumentSource(cfg *config.S3Config) (port.DocumentSource, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &s3Source{
		client:   s3.NewFromConfig(awsCfg, s3Opts...),
		bucket:   cfg.Bucket,
		maxBytes: cfg.MaxFileSizeMB * 1024 * 1024,
	}, nil
}

func (c *s3Source) Fetch(ctx context.Context, fileID string) (*domain.Document, error) {
	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("s3 fetch %s: %w", fileID, err)
	}
	defer func() { _ = result.Body.Close() }()

	if c.maxBytes > 0 && result.ContentLength != nil && *result.ContentLength > c.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, *result.ContentLength)
	}

	reader := io.Reader(result.Body)
	if c.maxBytes > 0 {
		// ContentLength can be absent; cap the read either way.
		reader = io.LimitReader(result.Body, c.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("s3 fetch read %s: %w", fileID, err)
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: over %d bytes", domain.ErrFileTooLarge, c.maxBytes)
	}

	name := path.Base(strings.TrimSuffix(fileID, "/"))

	return &domain.Document{
		FileID: fileID,
		Name:   name,
		Data:   data,
	}, nil
}
