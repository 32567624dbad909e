// Package s3 provides a rate-limit store backed by S3 objects, one JSON
// object per client key. It is the durable option on serverless runtimes
// where no local filesystem survives between invocations. The limiter's
// per-key lock makes the read-modify-write safe within one instance.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/youming-ai/snatch-sub000/internal/config"
	"github.com/youming-ai/snatch-sub000/internal/ratelimit/store"
)

// Store implements the rate-limit store port on an S3 bucket.
type Store struct {
	client *awss3.Client
	bucket string
	prefix string
}

// NewStore builds an S3-backed store from configuration and verifies the
// bucket is reachable.
func NewStore(cfg config.S3Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required for the s3 rate limit store")
	}

	awsCfg, err := buildAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	s := &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.KeyPrefix,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to verify bucket access: %w", err)
	}

	return s, nil
}

// buildAWSConfig builds the AWS configuration from the S3 config.
func buildAWSConfig(cfg config.S3Config) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		))
	}

	return awsconfig.LoadDefaultConfig(context.Background(), optFns...)
}

func (s *Store) objectKey(key string) string {
	return s.prefix + key + ".json"
}

// Get returns the record for a key.
func (s *Store) Get(ctx context.Context, key string) (store.Record, bool, error) {
	result, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return store.Record{}, false, nil
		}
		return store.Record{}, false, fmt.Errorf("failed to get record object: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return store.Record{}, false, fmt.Errorf("failed to read record object: %w", err)
	}

	var rec store.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return store.Record{}, false, fmt.Errorf("failed to decode record: %w", err)
	}

	return rec, true, nil
}

// Put creates or replaces the record object for a key.
func (s *Store) Put(ctx context.Context, key string, rec store.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	_, err = s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put record object: %w", err)
	}

	return nil
}

// Delete removes the record object for a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete record object: %w", err)
	}
	return nil
}

// Sweep lists record objects under the prefix and deletes those whose
// window started before the cutoff.
func (s *Store) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0

	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return removed, fmt.Errorf("failed to list record objects: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)

			rec, found, err := s.getByObjectKey(ctx, key)
			if err != nil || !found {
				continue
			}

			if rec.WindowStart.Before(cutoff) {
				if _, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
					Bucket: aws.String(s.bucket),
					Key:    aws.String(key),
				}); err == nil {
					removed++
				}
			}
		}
	}

	return removed, nil
}

func (s *Store) getByObjectKey(ctx context.Context, objectKey string) (store.Record, bool, error) {
	result, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return store.Record{}, false, nil
		}
		return store.Record{}, false, err
	}
	defer result.Body.Close()

	var rec store.Record
	if err := json.NewDecoder(result.Body).Decode(&rec); err != nil {
		return store.Record{}, false, err
	}

	return rec, true, nil
}

// Ping verifies the bucket exists and is accessible.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s unavailable: %w", s.bucket, err)
	}
	return nil
}

// Close is a no-op; the S3 client holds no persistent connections.
func (s *Store) Close() error {
	return nil
}

// isNotFound checks if an error is an S3 not-found error.
func isNotFound(err error) bool {
	var noKey *s3types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404")
}
