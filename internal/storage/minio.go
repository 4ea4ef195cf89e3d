package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig addresses the bucket holding pictures.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Minio stores pictures as objects under the area prefixes of one bucket.
type Minio struct {
	client *minio.Client
	bucket string
}

// NewMinio connects to the endpoint. Call EnsureBucket before first use.
func NewMinio(cfg MinioConfig) (*Minio, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Minio{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *Minio) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Put uploads data under the area prefix.
func (m *Minio) Put(ctx context.Context, area Area, name string, data []byte, contentType string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %s/%s", errInvalidKey, area, name)
	}
	key := Key(area, name)
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return key, nil
}

// Archive copies the object into the archive prefix and removes the original.
func (m *Minio) Archive(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	area, name, err := ParseKey(key)
	if err != nil {
		return err
	}
	if area == AreaArchive {
		return nil
	}

	src := minio.CopySrcOptions{Bucket: m.bucket, Object: key}
	dst := minio.CopyDestOptions{Bucket: m.bucket, Object: Key(AreaArchive, archiveName(area, name))}
	if _, err := m.client.CopyObject(ctx, dst, src); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("archive image: %w", err)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove archived image: %w", err)
	}
	return nil
}
