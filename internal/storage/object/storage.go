package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aliskhannn/image-uploader/internal/config"
)

// ErrObjectNotFound is returned when the requested key is absent from the bucket.
var ErrObjectNotFound = errors.New("object not found")

// Storage provides an S3-compatible object store backed by MinIO.
// Every operation is keyed by a flat object key inside a single bucket.
type Storage struct {
	client     *minio.Client
	signer     *minio.Client // client bound to the public endpoint, used only for presigning
	bucketName string
}

func newClient(endpoint string, cfg config.Storage) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
}

// NewStorage creates a new Storage connected to the configured MinIO server.
// If the bucket does not exist, it will be created automatically.
func NewStorage(ctx context.Context, cfg config.Storage) (*Storage, error) {
	client, err := newClient(cfg.Endpoint, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	signer := client
	if cfg.PublicEndpoint != "" && cfg.PublicEndpoint != cfg.Endpoint {
		signer, err = newClient(cfg.PublicEndpoint, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize minio signer: %w", err)
		}
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Storage{
		client:     client,
		signer:     signer,
		bucketName: cfg.BucketName,
	}, nil
}

// Bucket returns the name of the bucket all keys live in.
func (s *Storage) Bucket() string {
	return s.bucketName
}

// Put uploads data under key with the given content type.
func (s *Storage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return nil
}

// Get downloads the object stored under key.
// It returns ErrObjectNotFound if the key is absent.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(key, err)
	}

	return data, nil
}

// Exists reports whether an object is stored under key.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	if err = mapError(key, err); errors.Is(err, ErrObjectNotFound) {
		return false, nil
	}

	return false, err
}

// Delete removes the object stored under key. Deleting an absent key is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return nil
}

// PresignPut returns a URL that allows a single unauthenticated PUT of key for ttl.
func (s *Storage) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.signer.PresignedPutObject(ctx, s.bucketName, key, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign put for %s: %w", key, err)
	}

	return u.String(), nil
}

// mapError converts MinIO "no such key" responses into ErrObjectNotFound.
func mapError(key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	return fmt.Errorf("failed to access object %s: %w", key, err)
}
