package upload

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string // S3 compatible providers (MinIO, B2, R2)
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
	Folder          string
}

// ObjectPutter is the subset of *s3.Client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3 struct {
	opts   S3Options
	client ObjectPutter
	log    *logrus.Logger
	newKey func() string
}

func NewS3(ctx context.Context, opts S3Options, log *logrus.Logger) (*S3, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	// Without static keys the default chain (env, shared config, IAM role) applies
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3WithClient(opts, client, log), nil
}

func NewS3WithClient(opts S3Options, client ObjectPutter, log *logrus.Logger) *S3 {
	return &S3{
		opts:   opts,
		client: client,
		log:    log,
		newKey: func() string { return uuid.NewString() },
	}
}

func (s *S3) Upload(ctx context.Context, file *File) (string, error) {
	key := path.Join(s.opts.Folder, s.newKey()+file.Extension())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file.Data),
		ContentType:   aws.String(file.ContentType),
		ContentLength: aws.Int64(file.Size()),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	s.log.WithFields(logrus.Fields{
		"bucket": s.opts.Bucket,
		"key":    key,
		"size":   file.Size(),
	}).Debug("Image uploaded to S3")

	return s.objectURL(key), nil
}

func (s *S3) objectURL(key string) string {
	if s.opts.PublicURL != "" {
		return strings.TrimRight(s.opts.PublicURL, "/") + "/" + key
	}
	if s.opts.Endpoint != "" {
		return strings.TrimRight(s.opts.Endpoint, "/") + "/" + s.opts.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, key)
}
