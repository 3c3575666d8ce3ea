package cache

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Mirror is a remote blob store consulted when a key misses locally and
// populated best-effort after a store. Mirror failures never fail the
// caller; the local store remains the source of truth.
type Mirror interface {
	Fetch(ctx context.Context, key Key) ([]byte, bool)
	Put(ctx context.Context, key Key, data []byte) error
}

// S3Mirror mirrors cache blobs into an S3 bucket so fresh checkouts and
// CI runners can warm their local cache without recompiling.
//
// The client is injected, not constructed here:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	mirror := cache.NewS3Mirror(s3.NewFromConfig(cfg), "team-cache", "rivet/")
type S3Mirror struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Mirror creates a mirror writing under prefix in bucket.
func NewS3Mirror(client *s3.Client, bucket, prefix string) *S3Mirror {
	return &S3Mirror{client: client, bucket: bucket, prefix: prefix}
}

func (m *S3Mirror) objectKey(key Key) string {
	return m.prefix + key.ID() + blobExt
}

// Fetch downloads the blob for key, reporting absence (or any transport
// failure) as a miss.
func (m *S3Mirror) Fetch(ctx context.Context, key Key) ([]byte, bool) {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.objectKey(key)),
	})
	if err != nil {
		return nil, false
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put uploads the blob for key.
func (m *S3Mirror) Put(ctx context.Context, key Key, data []byte) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/javascript"),
	})
	return err
}
