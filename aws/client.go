// Package aws defines functions used to interact with S3 compatible object
// storage. Cloudflare R2 is reached by setting storage.endpoint.
package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/spf13/viper"
)

const minMultipartSize = 12 << 20

type S3Client struct {
	C         *s3.Client
	Bucket    *string
	PublicURL string
}

// NewS3 builds a client from storage.* and checks that the bucket exists
func NewS3(ctx context.Context) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(viper.GetString("storage.region")),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("storage.access_key_id"),
			viper.GetString("storage.secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(viper.GetString("storage.bucket"))
	endpoint := viper.GetString("storage.endpoint")

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", *bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3Client{
		C:         client,
		Bucket:    bucket,
		PublicURL: strings.TrimRight(viper.GetString("storage.public_url"), "/"),
	}, nil
}

// Put uploads body under key. Bodies above minMultipartSize go through the
// multipart uploader.
func (s *S3Client) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        s.Bucket,
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}

	var err error
	if size > minMultipartSize {
		uploader := manager.NewUploader(s.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})

		_, err = uploader.Upload(ctx, input)
	} else {
		_, err = s.C.PutObject(ctx, input)
	}

	if err != nil {
		return fmt.Errorf("failed to upload %s, %w", key, err)
	}

	return nil
}

func (s *S3Client) Delete(ctx context.Context, key string) error {
	_, err := s.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s, %w", key, err)
	}

	return nil
}

func (s *S3Client) URL(key string) string {
	return s.PublicURL + "/" + key
}

// KeyFromURL reverses URL. ok is false for URLs outside the bucket.
func (s *S3Client) KeyFromURL(u string) (string, bool) {
	key, ok := strings.CutPrefix(u, s.PublicURL+"/")
	if !ok || key == "" {
		return "", false
	}

	return key, true
}
