package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client is the subset of the S3 API the backend uses. *s3.Client
// satisfies it; tests substitute a fake.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3aws.GetObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3aws.DeleteObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3aws.ListObjectsV2Input, optFns ...func(*s3aws.Options)) (*s3aws.ListObjectsV2Output, error)
}

// S3Config configures the S3 asset backend. Endpoint and ForcePathStyle
// support S3-compatible services like MinIO.
type S3Config struct {
	Bucket         string
	Region         string
	AccessKeyID    string
	SecretKey      string
	Endpoint       string
	KeyPrefix      string
	ForcePathStyle bool
}

// S3Backend stores assets in an S3 bucket.
type S3Backend struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3Backend builds the AWS client from the config. Static credentials
// are optional; the SDK falls back to the environment and IAM roles.
func NewS3Backend(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("assets: s3 bucket and region are required")
	}

	awsOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		awsOptions = append(awsOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, fmt.Errorf("assets: load aws config: %w", err)
	}

	client := s3aws.NewFromConfig(awsCfg, func(o *s3aws.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return NewS3BackendWithClient(client, cfg.Bucket, cfg.KeyPrefix), nil
}

// NewS3BackendWithClient wraps a pre-built client; used by tests.
func NewS3BackendWithClient(client S3Client, bucket, prefix string) *S3Backend {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Backend{client: client, bucket: bucket, prefix: prefix}
}

func (b *S3Backend) key(p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" || strings.Contains(p, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	return b.prefix + p, nil
}

func (b *S3Backend) Put(ctx context.Context, path, contentType string, r io.Reader) error {
	key, err := b.key(path)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = contentTypeFor(path)
	}

	_, err = b.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return classifyError(err, "upload")
	}
	return nil
}

func (b *S3Backend) Get(ctx context.Context, path string) (io.ReadCloser, string, error) {
	key, err := b.key(path)
	if err != nil {
		return nil, "", err
	}

	out, err := b.client.GetObject(ctx, &s3aws.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", classifyError(err, "fetch")
	}

	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = contentTypeFor(path)
	}
	return out.Body, contentType, nil
}

func (b *S3Backend) Delete(ctx context.Context, path string) error {
	key, err := b.key(path)
	if err != nil {
		return err
	}
	if _, err := b.client.DeleteObject(ctx, &s3aws.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return classifyError(err, "delete")
	}
	return nil
}

func (b *S3Backend) List(ctx context.Context, prefix string) ([]Entry, error) {
	full := b.prefix + strings.TrimPrefix(prefix, "/")

	var entries []Entry
	var token *string
	for {
		out, err := b.client.ListObjectsV2(ctx, &s3aws.ListObjectsV2Input{
			Bucket:            aws.String(b.bucket),
			Prefix:            aws.String(full),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, classifyError(err, "list")
		}
		for _, obj := range out.Contents {
			entries = append(entries, Entry{
				Path:    strings.TrimPrefix(aws.ToString(obj.Key), b.prefix),
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	return entries, nil
}

// classifyError converts S3 errors to the backend's domain errors.
func classifyError(err error, operation string) error {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return fmt.Errorf("assets: %s failed (code %s): %w", operation, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("assets: %s failed: %w", operation, err)
}
