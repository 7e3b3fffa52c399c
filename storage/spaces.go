package storage

import (
	"context"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	apperrors "github.com/shivendrra/synapse/errors"
)

type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string
	Bucket    string
	Prefix    string
}

// SpacesClient publishes run outputs to an S3-compatible bucket.
type SpacesClient struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewSpacesClient builds an S3 client with static credentials. optFns are
// appended to the SDK load options.
func NewSpacesClient(ctx context.Context, cfg SpacesConfig, optFns ...func(*config.LoadOptions) error) (*SpacesClient, error) {
	const op = "storage.NewSpacesClient"

	loadOpts := append([]func(*config.LoadOptions) error{
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		config.WithRegion(cfg.Region),
	}, optFns...)

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, apperrors.Config(op, err, "unable to load SDK config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &SpacesClient{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Key joins key under the configured prefix.
func (s *SpacesClient) Key(key string) string {
	return path.Join(s.prefix, key)
}

func (s *SpacesClient) PublishFile(ctx context.Context, key, filePath string) error {
	const op = "SpacesClient.PublishFile"

	f, err := os.Open(filePath)
	if err != nil {
		return apperrors.IO(op, err, "failed to open file for upload")
	}
	defer f.Close()

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(key)),
		Body:   f,
	}
	if ct := mime.TypeByExtension(filepath.Ext(filePath)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return apperrors.IO(op, err, "failed to save to Spaces")
	}
	return nil
}
