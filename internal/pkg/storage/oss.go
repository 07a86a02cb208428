package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/zahlentech/str8up_server/config"
)

// OSS stores objects in an Aliyun OSS bucket.
type OSS struct {
	client     *oss.Client
	bucket     *oss.Bucket
	bucketName string
	cdnDomain  string
}

func NewOSS(cfg *config.OSSConfig) (*OSS, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &OSS{
		client:     client,
		bucket:     bucket,
		bucketName: cfg.BucketName,
		cdnDomain:  cfg.CDNDomain,
	}, nil
}

func (o *OSS) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = contentTypeFor(key)
	}
	err := o.bucket.PutObject(key, bytes.NewReader(data), oss.ContentType(contentType), oss.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return o.URL(key), nil
}

func (o *OSS) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := o.bucket.GetObject(key, oss.WithContext(ctx))
	if err != nil {
		var svcErr oss.ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer body.Close()
	return io.ReadAll(body)
}

func (o *OSS) Delete(ctx context.Context, key string) error {
	if err := o.bucket.DeleteObject(key, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// URL returns the CDN URL when configured, else the bucket URL.
func (o *OSS) URL(key string) string {
	if o.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", o.cdnDomain, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", o.bucketName, o.client.Config.Endpoint, key)
}

// SignedURL returns a temporary GET URL, valid for an hour unless expireSeconds is given.
func (o *OSS) SignedURL(key string, expireSeconds ...int64) (string, error) {
	expire := int64(3600)
	if len(expireSeconds) > 0 && expireSeconds[0] > 0 {
		expire = expireSeconds[0]
	}

	signedURL, err := o.bucket.SignURL(key, oss.HTTPGet, expire)
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return signedURL, nil
}
