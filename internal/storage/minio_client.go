package storage

import (
	"bytes"
	"context"
	"damoyeo/internal/config"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	PrefixPosts    = "posts"
	PrefixProfiles = "profiles"
)

type Storage interface {
	UploadImage(ctx context.Context, prefix, ownerID string, img *ProcessedImage) (string, string, error)
	DeleteImage(ctx context.Context, objectName string) error
	ObjectNameFromURL(imageURL string) (string, bool)
}

type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

const publicReadPolicy = `{
	"Version": "2012-10-17",
	"Statement": [{
		"Effect": "Allow",
		"Principal": {"AWS": ["*"]},
		"Action": ["s3:GetObject"],
		"Resource": ["arn:aws:s3:::%s/*"]
	}]
}`

// NewMinIOClient connects to MinIO and makes sure the bucket exists and is
// publicly readable, so stored urls can be rendered by clients directly.
func NewMinIOClient(ctx context.Context, cfg config.MinIO) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки бакета %s: %w", cfg.BucketName, err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания бакета %s: %w", cfg.BucketName, err)
		}

		if err := client.SetBucketPolicy(ctx, cfg.BucketName, fmt.Sprintf(publicReadPolicy, cfg.BucketName)); err != nil {
			return nil, fmt.Errorf("ошибка настройки доступа к бакету %s: %w", cfg.BucketName, err)
		}
		log.Printf("Создан бакет %s", cfg.BucketName)
	}

	return &MinIOClient{
		client:    client,
		bucket:    cfg.BucketName,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

func objectName(prefix, ownerID string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%d/%02d/%s.jpg",
		prefix,
		ownerID,
		now.Year(),
		now.Month(),
		uuid.New().String())
}

func (m *MinIOClient) objectURL(name string) string {
	return fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, name)
}

// UploadImage stores a processed image and returns its object name and
// public url.
func (m *MinIOClient) UploadImage(ctx context.Context, prefix, ownerID string, img *ProcessedImage) (string, string, error) {
	now := time.Now()
	name := objectName(prefix, ownerID, now)

	_, err := m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(img.Data), int64(len(img.Data)),
		minio.PutObjectOptions{
			ContentType: img.ContentType,
			UserMetadata: map[string]string{
				"owner-id":    ownerID,
				"uploaded-at": now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", "", fmt.Errorf("ошибка загрузки в MinIO: %w", err)
	}

	return name, m.objectURL(name), nil
}

func (m *MinIOClient) DeleteImage(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectName,
		minio.RemoveObjectOptions{
			GovernanceBypass: true,
		})
	if err != nil {
		return fmt.Errorf("ошибка удаления из MinIO: %w", err)
	}
	return nil
}

// ObjectNameFromURL reverses objectURL. Urls that do not point into this
// bucket are rejected.
func (m *MinIOClient) ObjectNameFromURL(imageURL string) (string, bool) {
	return objectNameFromURL(m.publicURL, m.bucket, imageURL)
}

func objectNameFromURL(publicURL, bucket, imageURL string) (string, bool) {
	prefix := publicURL + "/" + bucket + "/"
	if !strings.HasPrefix(imageURL, prefix) {
		return "", false
	}

	name := strings.TrimPrefix(imageURL, prefix)
	if name == "" {
		return "", false
	}

	return name, true
}
