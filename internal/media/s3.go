// Package media issues presigned S3 URLs for journal image layers.
package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"journal-backend/internal/config"
	"journal-backend/internal/datekey"
)

var (
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrForeignKey      = errors.New("object key belongs to another user")
)

const keyPrefix = "journal"

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// PresignedURL 업로드용 URL
type PresignedURL struct {
	URL       string    `json:"upload_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// S3Service S3 presign 클라이언트
type S3Service struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

// NewS3Service loads AWS config for cfg. Static keys are used when both are
// set, otherwise the default credential chain.
func NewS3Service(ctx context.Context, cfg config.S3Config) (*S3Service, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("AWS_S3_BUCKET is not set")
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
	return newS3Service(awsCfg, cfg.BucketName, cfg.PresignExpiry), nil
}

func newS3Service(awsCfg aws.Config, bucket string, expiry time.Duration) *S3Service {
	client := s3.NewFromConfig(awsCfg)
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3Service{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		expiry:  expiry,
	}
}

// ObjectKey builds journal/{user}/{date}/{uuid}{ext}.
func ObjectKey(userID string, date datekey.Key, contentType string) (string, error) {
	ext, ok := allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return path.Join(keyPrefix, userID, date.String(), uuid.NewString()+ext), nil
}

// OwnsKey reports whether key sits under the user's prefix.
func OwnsKey(userID, key string) bool {
	clean := path.Clean(key)
	return clean == key && strings.HasPrefix(key, path.Join(keyPrefix, userID)+"/")
}

// GenerateUploadURL 이미지 업로드용 Presigned PUT URL 생성
func (s *S3Service) GenerateUploadURL(ctx context.Context, userID string, date datekey.Key, contentType string) (*PresignedURL, error) {
	key, err := ObjectKey(userID, date, contentType)
	if err != nil {
		return nil, err
	}

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	return &PresignedURL{
		URL:       req.URL,
		Key:       key,
		ExpiresAt: time.Now().Add(s.expiry),
	}, nil
}

// GetFileURL 다운로드용 Presigned GET URL 생성
func (s *S3Service) GetFileURL(ctx context.Context, userID, key string) (string, error) {
	if !OwnsKey(userID, key) {
		return "", ErrForeignKey
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// DeleteFile S3 객체 삭제
func (s *S3Service) DeleteFile(ctx context.Context, userID, key string) error {
	if !OwnsKey(userID, key) {
		return ErrForeignKey
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}
