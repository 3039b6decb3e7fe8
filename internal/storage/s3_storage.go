package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appconfig "github.com/spsports/sps-backend/config"
	"github.com/spsports/sps-backend/pkg/logger"
)

const (
	FolderProducts        = "products"
	FolderPaymentProofs   = "payment-proofs"
	presignExpiry         = 15 * time.Minute
	defaultMaxUploadBytes = 5 << 20
)

var (
	ErrFileTooLarge       = errors.New("file exceeds maximum upload size")
	ErrContentTypeBlocked = errors.New("content type not allowed")

	// AllowedContentTypes covers product photos and payment screenshots.
	AllowedContentTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
)

// Uploader stores an uploaded file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, folder string, file *multipart.FileHeader) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Storage struct {
	client   *s3.Client
	putter   objectPutter
	bucket   string
	region   string
	baseURL  string
	maxBytes int64
}

type PresignedURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
}

func NewS3Storage(cfg *appconfig.S3Config) *S3Storage {
	var awsCfg aws.Config
	var err error

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		}
	} else {
		// default chain: environment, shared config, instance role
		awsCfg, err = config.LoadDefaultConfig(context.Background(), config.WithRegion(cfg.Region))
		if err != nil {
			logger.Warn("Failed to load default AWS config, using region only", map[string]interface{}{
				"error": err.Error(),
			})
			awsCfg = aws.Config{Region: cfg.Region}
		}
	}

	client := s3.NewFromConfig(awsCfg)
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}

	return &S3Storage{
		client:   client,
		putter:   client,
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		maxBytes: maxBytes,
	}
}

func newObjectKey(folder, filename string) string {
	return fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), strings.ToLower(filepath.Ext(filename)))
}

// FileURL is the public URL of an object key.
func (s *S3Storage) FileURL(key string) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// Upload streams a multipart file to the bucket under folder.
func (s *S3Storage) Upload(ctx context.Context, folder string, file *multipart.FileHeader) (string, error) {
	if err := s.ValidateFileSize(file.Size); err != nil {
		return "", err
	}
	contentType := file.Header.Get("Content-Type")
	if err := ValidateContentType(contentType); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	key := newObjectKey(folder, file.Filename)
	_, err = s.putter.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          src,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(file.Size),
	})
	if err != nil {
		logger.Error("Failed to upload object", err, map[string]interface{}{
			"bucket": s.bucket,
			"key":    key,
		})
		return "", fmt.Errorf("failed to upload %s: %w", file.Filename, err)
	}

	url := s.FileURL(key)
	logger.Info("Object uploaded", map[string]interface{}{
		"key":  key,
		"size": file.Size,
	})
	return url, nil
}

// GeneratePresignedURL returns a PUT URL valid for 15 minutes for a direct
// browser upload into folder.
func (s *S3Storage) GeneratePresignedURL(ctx context.Context, filename, contentType, folder string) (*PresignedURLResponse, error) {
	if err := ValidateContentType(contentType); err != nil {
		return nil, err
	}

	key := newObjectKey(folder, filename)
	presigned, err := s3.NewPresignClient(s.client).PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedURLResponse{
		UploadURL: presigned.URL,
		FileURL:   s.FileURL(key),
		Key:       key,
	}, nil
}

func (s *S3Storage) ValidateFileSize(size int64) error {
	if size > s.maxBytes {
		return fmt.Errorf("%w: %d bytes allowed", ErrFileTooLarge, s.maxBytes)
	}
	return nil
}

func ValidateContentType(contentType string) error {
	for _, allowed := range AllowedContentTypes {
		if strings.EqualFold(contentType, allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrContentTypeBlocked, contentType)
}
