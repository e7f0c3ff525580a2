package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	maxAvatarSize    = 5 * 1024 * 1024
	presignedURLTTL  = 15 * time.Minute
	avatarPathPrefix = "avatars"
)

var (
	ErrFileTooBig         = errors.New("file size exceeds 5MB limit")
	ErrInvalidFileType    = errors.New("only JPEG and PNG images are allowed")
	ErrBucketUnavailable  = errors.New("storage bucket unavailable")
	ErrUploadFailed       = errors.New("failed to upload file")
	ErrDeleteFailed       = errors.New("failed to delete file")
	ErrUnauthorizedAccess = errors.New("unauthorized access to object")

	allowedAvatarTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
	}
)

// ObjectStorage is the seam between profile handling and the blob store.
type ObjectStorage interface {
	// UploadAvatar stores an avatar and returns its object key. The
	// content type is sniffed from the bytes, never trusted from the
	// client.
	UploadAvatar(ctx context.Context, userID uint, file io.Reader, fileSize int64) (string, error)

	// DeleteAvatar removes an avatar. The key must live under the
	// caller's own namespace.
	DeleteAvatar(ctx context.Context, userID uint, objectKey string) error

	// AvatarURL returns a short-lived presigned GET URL.
	AvatarURL(ctx context.Context, objectKey string) (string, error)
}

// MinioStorage implements ObjectStorage against any S3-compatible store.
// Bucket creation is deferred to first use so a cold store does not block
// process startup.
type MinioStorage struct {
	client   *minio.Client
	bucket   string
	initOnce sync.Once
	initErr  error
}

func NewMinioStorage(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStorage{client: client, bucket: bucket}, nil
}

func (s *MinioStorage) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = fmt.Errorf("%w: %v", ErrBucketUnavailable, err)
			return
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
				s.initErr = fmt.Errorf("%w: %v", ErrBucketUnavailable, err)
			}
		}
	})
	return s.initErr
}

func (s *MinioStorage) UploadAvatar(ctx context.Context, userID uint, file io.Reader, fileSize int64) (string, error) {
	if fileSize > maxAvatarSize {
		return "", ErrFileTooBig
	}

	// Sniff the real content type from the first 512 bytes; the
	// client-sent Content-Type header is spoofable.
	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	buf = buf[:n]

	contentType := strings.ToLower(strings.TrimSpace(http.DetectContentType(buf)))
	if _, allowed := allowedAvatarTypes[contentType]; !allowed {
		return "", ErrInvalidFileType
	}

	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}

	body := io.MultiReader(bytes.NewReader(buf), file)
	objectKey := fmt.Sprintf("%s/user-%d/%s%s", avatarPathPrefix, userID, uuid.NewString(), avatarExtension(contentType))

	_, err = s.client.PutObject(ctx, s.bucket, objectKey, body, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"User-ID":     fmt.Sprintf("%d", userID),
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return objectKey, nil
}

func (s *MinioStorage) DeleteAvatar(ctx context.Context, userID uint, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	if strings.Contains(objectKey, "..") {
		return ErrUnauthorizedAccess
	}
	// Keys are namespaced per user; deleting outside your namespace is a
	// straight authorization failure.
	if !strings.HasPrefix(objectKey, fmt.Sprintf("%s/user-%d/", avatarPathPrefix, userID)) {
		return ErrUnauthorizedAccess
	}

	if err := s.lazyInit(ctx); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (s *MinioStorage) AvatarURL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", fmt.Errorf("%w: empty object key", ErrValidation)
	}
	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, presignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign avatar url: %w", err)
	}
	return u.String(), nil
}

func avatarExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}
