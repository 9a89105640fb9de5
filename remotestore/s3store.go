package remotestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/erigontech/erigon-lib/log/v3"
)

// S3Store is an S3-API-compatible object store, configured against a
// DigitalOcean Spaces endpoint the same way original_source's
// DigitalOceanStore built its aws-sdk-s3 client: a region-derived custom
// endpoint, private-ACL uploads.
type S3Store struct {
	client *s3.Client
	bucket string
	logger log.Logger
}

// NewS3Store builds a client against https://{region}.digitaloceanspaces.com,
// reading credentials from the standard AWS environment variables
// (AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY), per spec's Configuration
// table.
func NewS3Store(ctx context.Context, region, bucket string, logger log.Logger) (*S3Store, error) {
	endpoint := fmt.Sprintf("https://%s.digitaloceanspaces.com", region)
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("remotestore: load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = false
	})
	return &S3Store{client: client, bucket: bucket, logger: logger}, nil
}

const maxRetryElapsed = 30 * time.Second

func withRetry(ctx context.Context, op string, key string, fn func() error) error {
	bo := backoff.WithContext(backoff.WithMaxElapsedTime(backoff.NewExponentialBackOff(), maxRetryElapsed), ctx)
	var last error
	err := backoff.Retry(func() error {
		last = fn()
		return last
	}, bo)
	if err != nil {
		// Once the context is done backoff reports ctx.Err(); wrap the
		// operation's own last failure instead so callers see the cause.
		if last != nil {
			err = last
		}
		return &RemoteStoreError{Op: op, Key: key, Err: err}
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := withRetry(ctx, "list", prefix, func() error {
		keys = keys[:0]
		var token *string
		for {
			out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(s.bucket),
				Prefix:            aws.String(prefix),
				ContinuationToken: token,
			})
			if err != nil {
				return err
			}
			for _, obj := range out.Contents {
				keys = append(keys, aws.ToString(obj.Key))
			}
			if !aws.ToBool(out.IsTruncated) {
				return nil
			}
			token = out.NextContinuationToken
		}
	})
	return keys, err
}

func (s *S3Store) Retrieve(ctx context.Context, key string) ([]byte, bool, error) {
	var content []byte
	var found bool
	err := withRetry(ctx, "retrieve", key, func() error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
		if err != nil {
			if isNoSuchKey(err) {
				found = false
				return nil
			}
			return err
		}
		defer out.Body.Close()
		b, err := io.ReadAll(out.Body)
		if err != nil {
			return err
		}
		content, found = b, true
		return nil
	})
	return content, found, err
}

func (s *S3Store) Save(ctx context.Context, key string, content []byte) error {
	return withRetry(ctx, "save", key, func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(content),
			ACL:    types.ObjectCannedACLPrivate,
		})
		return err
	})
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	return withRetry(ctx, "delete", key, func() error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
		return err
	})
}

func isNoSuchKey(err error) bool {
	var nk *types.NoSuchKey
	return errors.As(err, &nk)
}
