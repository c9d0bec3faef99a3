package export

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioTarget shares exports by uploading them to object storage and
// returning a presigned download link.
type MinioTarget struct {
	client  *minio.Client
	bucket  string
	linkTTL time.Duration
}

// NewMinioTarget connects to the object store and ensures the bucket exists.
func NewMinioTarget(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, linkTTL time.Duration) (*MinioTarget, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &MinioTarget{
		client:  client,
		bucket:  bucket,
		linkTTL: linkTTL,
	}, nil
}

// Share uploads the export text and returns a presigned link to it.
func (t *MinioTarget) Share(ctx context.Context, name, text string) (string, error) {
	reader := strings.NewReader(text)
	_, err := t.client.PutObject(ctx, t.bucket, name, reader, int64(len(text)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}

	link, err := t.client.PresignedGetObject(ctx, t.bucket, name, t.linkTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign export: %w", err)
	}
	return link.String(), nil
}
