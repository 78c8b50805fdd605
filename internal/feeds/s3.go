// internal/feeds/s3.go
package feeds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/javajoker/coral-ledger/internal/config"
)

// S3Store reads feeds from and writes reports to one bucket.
type S3Store struct {
	client       s3iface.S3API
	bucket       string
	feedPrefix   string
	reportPrefix string
}

func NewS3Store(client s3iface.S3API, bucket, feedPrefix, reportPrefix string) *S3Store {
	return &S3Store{
		client:       client,
		bucket:       bucket,
		feedPrefix:   feedPrefix,
		reportPrefix: reportPrefix,
	}
}

// NewS3StoreFromConfig builds the client from static credentials when they
// are configured and from the default provider chain otherwise.
func NewS3StoreFromConfig(cfg config.AWSConfig) (*S3Store, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewS3Store(s3.New(sess), cfg.S3Bucket, cfg.FeedPrefix, cfg.ReportPrefix), nil
}

func (s *S3Store) Describe() string {
	return "s3://" + s.bucket + "/" + s.feedPrefix
}

func (s *S3Store) Read(ctx context.Context, name string) ([]byte, error) {
	key := path.Join(s.feedPrefix, name)
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("%s: %w", key, ErrFeedNotFound)
		}
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

func (s *S3Store) Write(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := path.Join(s.reportPrefix, name)
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

// PresignReport returns a time-limited download URL for an exported report.
func (s *S3Store) PresignReport(name string, expiration time.Duration) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path.Join(s.reportPrefix, name)),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}
