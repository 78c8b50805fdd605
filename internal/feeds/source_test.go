// internal/feeds/source_test.go
package feeds

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/coral-ledger/internal/config"
)

func decimalOf(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLocalSource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProductsFeed), []byte(`[]`), 0o644))

	src := NewLocalSource(dir)

	data, err := src.Read(ctx, ProductsFeed)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	_, err = src.Read(ctx, UsersFeed)
	assert.ErrorIs(t, err, ErrFeedNotFound)

	location, err := src.Write(ctx, "reports/r1.json", []byte(`{}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reports", "r1.json"), location)

	// writes cannot escape the directory
	location, err = src.Write(ctx, "../outside.json", []byte(`{}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "outside.json"), location)
}

type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
}

func (f *fakeS3) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	client := &fakeS3{objects: map[string][]byte{
		"bucket/feeds/users.json": []byte(`[{"id":"u1"}]`),
	}}
	store := NewS3Store(client, "bucket", "feeds/", "reports/")

	data, err := store.Read(ctx, UsersFeed)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"u1"}]`, string(data))

	_, err = store.Read(ctx, SharesFeed)
	assert.ErrorIs(t, err, ErrFeedNotFound)

	location, err := store.Write(ctx, "report.json", []byte(`{"ok":true}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/reports/report.json", location)
	assert.Equal(t, `{"ok":true}`, string(client.objects["bucket/reports/report.json"]))
	assert.Equal(t, "s3://bucket/feeds/", store.Describe())
}

func TestS3StorePresignReport(t *testing.T) {
	store, err := NewS3StoreFromConfig(config.AWSConfig{
		Region:          "us-east-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		S3Bucket:        "bucket",
		FeedPrefix:      "feeds/",
		ReportPrefix:    "reports/",
	})
	require.NoError(t, err)

	url, err := store.PresignReport("report.json", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "reports/report.json")
	assert.True(t, strings.Contains(url, "X-Amz-Signature="), url)
	assert.Contains(t, url, "X-Amz-Expires=3600")
}
