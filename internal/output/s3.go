package output

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"voice-slicer/internal/segmenter"
)

// S3Config holds the configuration for S3 clip storage.
type S3Config struct {
	Bucket          string
	Region          string
	Prefix          string // Optional: key prefix for uploaded clips
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// S3Writer stages clips in a local directory through DirWriter and
// uploads each one to S3. The local copy is kept for later transcription.
type S3Writer struct {
	*DirWriter
	client   *s3.Client
	bucket   string
	region   string
	prefix   string
	endpoint string
}

// NewS3Writer creates an S3Writer staging clips in stagingDir.
func NewS3Writer(ctx context.Context, stagingDir string, cfg S3Config, opts ...DirOption) (*S3Writer, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrS3NotConfigured
	}

	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Writer{
		DirWriter: NewDirWriter(stagingDir, opts...),
		client:    s3.NewFromConfig(awsCfg, clientOpts...),
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
	}, nil
}

// Write stages the clip locally and uploads it. It returns the object URL.
func (w *S3Writer) Write(ctx context.Context, clip *segmenter.Clip) (string, error) {
	localPath, err := w.DirWriter.Write(ctx, clip)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(localPath) // #nosec G304 - path is built by DirWriter
	if err != nil {
		return "", fmt.Errorf("read staged clip: %w", err)
	}

	key := path.Join(w.prefix, ClipName(clip))
	_, err = w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("audio/wav"),
	})
	if err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}

	return w.objectURL(key), nil
}

func (w *S3Writer) objectURL(key string) string {
	if w.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", w.endpoint, w.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", w.bucket, w.region, key)
}
