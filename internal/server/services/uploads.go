package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/labcms/internal/common"
	sc "github.com/dmitrijs2005/labcms/internal/server/config"
	"github.com/dmitrijs2005/labcms/internal/server/models"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	MaxUploadSize    = 10 << 20
	PresignedURLLife = 15 * time.Minute
	sniffLen         = 512
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// UploadService stores admin-uploaded images in the media bucket.
type UploadService struct {
	config *sc.Config
	now    func() time.Time
}

func NewUploadService(config *sc.Config) *UploadService {
	return &UploadService{config: config, now: time.Now}
}

// StorageKey builds uploads/YYYY/M/D/<uuid><ext>.
func StorageKey(t time.Time, ext string) string {
	return fmt.Sprintf("uploads/%d/%d/%d/%v%s", t.Year(), t.Month(), t.Day(), uuid.New(), ext)
}

func (s *UploadService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Upload sniffs the content type, rejects anything that is not an image and
// writes the object. size is the declared length of r.
func (s *UploadService) Upload(ctx context.Context, r io.Reader, size int64, filename string) (*models.Upload, error) {
	if size <= 0 {
		return nil, common.WithDetail(common.ErrValidation, "file is empty")
	}
	if size > MaxUploadSize {
		return nil, common.WithDetail(common.ErrValidation, "file exceeds 10 MiB")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, common.WithDetail(common.ErrUnsupportedMedia, "only images can be uploaded, got "+contentType)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := StorageKey(s.now(), extensionFor(filename, contentType))

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          io.MultiReader(bytes.NewReader(head), r),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	url, err := s.urlFor(ctx, client, key)
	if err != nil {
		return nil, err
	}

	return &models.Upload{Key: key, URL: url, ContentType: contentType, Size: size}, nil
}

func (s *UploadService) urlFor(ctx context.Context, client *s3.Client, key string) (string, error) {
	if base := strings.TrimSpace(s.config.S3PublicBaseURL); base != "" {
		return strings.TrimRight(base, "/") + "/" + key, nil
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignedURLLife))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// extensionFor keeps the client's extension when it agrees with the sniffed
// type and otherwise picks a canonical one.
func extensionFor(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext != "" && mime.TypeByExtension(ext) == contentType {
		return ext
	}
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
