package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"agritech/internal/config"
	"agritech/internal/usecase"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUploadDisabled is returned when no bucket is configured.
var ErrUploadDisabled = errors.New("image upload is not configured")

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Uploader struct {
	api     objectAPI
	bucket  string
	folder  string
	baseURL string
	logger  *zap.Logger
}

func NewS3Uploader(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, ErrUploadDisabled
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
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
			// minio and other s3-compatible stores
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL(cfg)
	}
	return newS3Uploader(client, cfg.Bucket, cfg.Folder, baseURL, logger), nil
}

func newS3Uploader(api objectAPI, bucket, folder, baseURL string, logger *zap.Logger) *S3Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Uploader{
		api:     api,
		bucket:  bucket,
		folder:  strings.Trim(folder, "/"),
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func defaultBaseURL(cfg config.StorageConfig) string {
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

func (u *S3Uploader) Upload(ctx context.Context, img usecase.ImageFile) (usecase.UploadedImage, error) {
	key := u.objectKey(img)
	_, err := u.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.Data),
		ContentType:   aws.String(img.ContentType),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		u.logger.Error("s3 put failed", zap.String("key", key), zap.Error(err))
		return usecase.UploadedImage{}, fmt.Errorf("upload %s: %w", key, err)
	}
	u.logger.Debug("image uploaded", zap.String("key", key), zap.Int("bytes", len(img.Data)))
	return usecase.UploadedImage{URL: u.baseURL + "/" + key, PublicID: key}, nil
}

func (u *S3Uploader) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := u.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", publicID, err)
	}
	return nil
}

func (u *S3Uploader) objectKey(img usecase.ImageFile) string {
	name := uuid.NewString() + extension(img)
	if u.folder == "" {
		return name
	}
	return u.folder + "/" + name
}

func extension(img usecase.ImageFile) string {
	if ext := strings.ToLower(path.Ext(img.Filename)); ext != "" {
		return ext
	}
	switch img.ContentType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	}
	return ""
}

// DisabledUploader rejects uploads; products can still be created without images.
type DisabledUploader struct{}

func (DisabledUploader) Upload(context.Context, usecase.ImageFile) (usecase.UploadedImage, error) {
	return usecase.UploadedImage{}, ErrUploadDisabled
}

func (DisabledUploader) Delete(context.Context, string) error { return nil }
