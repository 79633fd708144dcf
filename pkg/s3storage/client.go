// Package s3storage — тонкий клиент S3-совместимого хранилища (minio-go).
//
// Используется источником определений ролей "s3".
package s3storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ilkoid/poncho-travel/pkg/config"
)

// ErrNotFound — объекта нет в бакете.
var ErrNotFound = errors.New("object not found")

// ClientInterface определяет интерфейс для S3 клиента.
// Используется для мокания в тестах и внедрения зависимостей.
type ClientInterface interface {
	DownloadFile(ctx context.Context, key string) ([]byte, error)
}

type Client struct {
	api    *minio.Client
	bucket string
}

var _ ClientInterface = (*Client)(nil)

// New создает клиент по секции s3 конфигурации.
func New(cfg config.S3Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: endpoint and bucket are required")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		api:    minioClient,
		bucket: cfg.Bucket,
	}, nil
}

// Bucket возвращает имя бакета.
func (c *Client) Bucket() string {
	return c.bucket
}

// CheckBucket проверяет, что бакет существует и доступен.
func (c *Client) CheckBucket(ctx context.Context) error {
	ok, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("s3: bucket check failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("s3: bucket '%s' does not exist", c.bucket)
	}
	return nil
}

// DownloadFile скачивает объект целиком в память.
//
// Отсутствующий ключ возвращает ошибку, для которой errors.Is(err, ErrNotFound).
func (c *Client) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.api.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrapNotFound(key, err)
	}
	defer obj.Close()

	buf := new(bytes.Buffer)
	// GetObject ленивый: ошибка NoSuchKey приходит только при чтении
	if _, err := io.Copy(buf, obj); err != nil {
		return nil, wrapNotFound(key, err)
	}

	return buf.Bytes(), nil
}

func wrapNotFound(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("s3 key '%s': %w", key, ErrNotFound)
	}
	return fmt.Errorf("s3 key '%s': %w", key, err)
}
