package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ObjectPutter is the part of the S3 client the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver uploads JSON reports to a bucket.
type S3Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Archiver loads the default AWS config. A non-empty endpoint switches
// to path-style addressing for LocalStack.
func NewS3Archiver(ctx context.Context, bucket, prefix, endpoint string) (*S3Archiver, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
		client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(cfg)
	}
	return NewS3ArchiverWithClient(client, bucket, prefix), nil
}

func NewS3ArchiverWithClient(client ObjectPutter, bucket, prefix string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix}
}

// Archive uploads the report and returns its object key.
func (a *S3Archiver) Archive(ctx context.Context, r Report) (string, error) {
	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	key := a.key(r.Timestamp)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload report %s: %w", key, err)
	}
	return key, nil
}

func (a *S3Archiver) key(at time.Time) string {
	return a.prefix + "ocpp-report-" + at.UTC().Format("2006-01-02") + "-" + uuid.NewString() + ".json"
}
