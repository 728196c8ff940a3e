package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ImageStore persists uploaded document images and returns a stable path
// recorded alongside the OCR result.
type ImageStore interface {
	Save(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
	Load(ctx context.Context, path string) ([]byte, error)
}

type minioImageStore struct {
	client *minio.Client
	bucket string
}

// NewMinioImageStore connects to MinIO and ensures the bucket exists.
func NewMinioImageStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (ImageStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("Created bucket %s", bucket)
	}

	return &minioImageStore{client: client, bucket: bucket}, nil
}

func (s *minioImageStore) Save(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to store object %s: %w", objectName, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, objectName), nil
}

func (s *minioImageStore) Load(ctx context.Context, path string) ([]byte, error) {
	objectName := path
	if prefix := fmt.Sprintf("s3://%s/", s.bucket); len(path) > len(prefix) && path[:len(prefix)] == prefix {
		objectName = path[len(prefix):]
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to load object %s: %w", objectName, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", objectName, err)
	}
	return buf.Bytes(), nil
}

type localImageStore struct {
	dir string
}

// NewLocalImageStore stores images on the local filesystem, for development
// and single-node deployments.
func NewLocalImageStore(dir string) (ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &localImageStore{dir: dir}, nil
}

func (s *localImageStore) Save(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	path := filepath.Join(s.dir, objectName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (s *localImageStore) Load(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}
