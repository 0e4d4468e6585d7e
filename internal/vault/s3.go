package vault

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"sentinel-go/internal/config"
)

// S3Vault stores the state archive as a single object in an S3 bucket.
// Uploads go through the transfer manager so large archives are sent in
// parallel multipart uploads.
type S3Vault struct {
	bucket   string
	key      string
	client   *s3.Client
	uploader *manager.Uploader
}

// NewS3Vault creates an S3 vault from mirror configuration. Credentials come
// from the standard AWS credential chain unless static keys are configured.
func NewS3Vault(ctx context.Context, cfg config.MirrorConfig) (*S3Vault, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 mirror requires s3_bucket to be set")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Vault{
		bucket:   cfg.S3Bucket,
		key:      path.Join(cfg.S3Prefix, StateObjectName),
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

var _ Vault = (*S3Vault)(nil)

// PutState uploads the archive, replacing any previous copy.
func (v *S3Vault) PutState(r io.Reader) error {
	_, err := v.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading state archive to s3://%s/%s: %w", v.bucket, v.key, err)
	}
	return nil
}

// GetState downloads the archive and writes it to w.
func (v *S3Vault) GetState(w io.Writer) error {
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key),
	})
	if err != nil {
		return fmt.Errorf("downloading state archive from s3://%s/%s: %w", v.bucket, v.key, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading state archive: %w", err)
	}
	return nil
}

// ValidateSetup verifies the bucket is reachable with the configured
// credentials.
func (v *S3Vault) ValidateSetup() error {
	_, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(v.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s inaccessible: %w", v.bucket, err)
	}
	return nil
}
