package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/core/logger"
)

var _ credential.Store = (*CredentialStore)(nil)

// S3Client is the subset of the SDK client the store uses.
type S3Client interface {
	GetObject(ctx context.Context, params *s3aws.GetObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3aws.DeleteObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.DeleteObjectOutput, error)
}

// Config contains the bucket settings.
type Config struct {
	Bucket         string        `env:"S3_BUCKET"`
	Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string        `env:"S3_ACCESS_KEY_ID"`
	SecretKey      string        `env:"S3_SECRET_KEY"`
	Endpoint       string        `env:"S3_ENDPOINT"` // MinIO, Wasabi and other compatible services
	ForcePathStyle bool          `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
	Prefix         string        `env:"S3_PREFIX" envDefault:"credentials/"`
	Timeout        time.Duration `env:"S3_TIMEOUT" envDefault:"10s"`
}

// CredentialStore keeps one object per principal under Config.Prefix.
type CredentialStore struct {
	client  S3Client
	bucket  string
	prefix  string
	timeout time.Duration
	codec   credential.Codec
	logger  *slog.Logger
}

// Option configures CredentialStore.
type Option func(*options)

type options struct {
	httpClient      *http.Client
	s3Client        S3Client
	s3ConfigOptions []func(*config.LoadOptions) error
	s3ClientOptions []func(*s3aws.Options)
	store           []credential.StoreOption
}

// WithS3Client sets a pre-configured client. Tests use it to inject mocks.
func WithS3Client(client S3Client) Option {
	return func(o *options) {
		o.s3Client = client
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithS3ConfigOption adds an AWS config load option.
func WithS3ConfigOption(option func(*config.LoadOptions) error) Option {
	return func(o *options) {
		o.s3ConfigOptions = append(o.s3ConfigOptions, option)
	}
}

// WithS3ClientOption adds an S3 client option.
func WithS3ClientOption(option func(*s3aws.Options)) Option {
	return func(o *options) {
		o.s3ClientOptions = append(o.s3ClientOptions, option)
	}
}

// WithStoreOptions sets the codec and logger.
func WithStoreOptions(opts ...credential.StoreOption) Option {
	return func(o *options) {
		o.store = append(o.store, opts...)
	}
}

// New creates a credential store in cfg.Bucket. Without WithS3Client the
// client is built from the default AWS config chain, using static
// credentials when both key fields are set.
func New(ctx context.Context, cfg Config, opts ...Option) (*CredentialStore, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.s3Client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		if o.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(o.httpClient))
		}
		awsOptions = append(awsOptions, o.s3ConfigOptions...)

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("s3: failed to load AWS config: %w", err)
		}
		client = s3aws.NewFromConfig(awsConfig, func(so *s3aws.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
			for _, opt := range o.s3ClientOptions {
				opt(so)
			}
		})
	}

	so := credential.ApplyStoreOptions(o.store...)
	return &CredentialStore{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		timeout: cfg.Timeout,
		codec:   so.Codec,
		logger:  so.Logger.With(logger.Component("s3-credential-store")),
	}, nil
}

// Key returns the object key for principal.
func (s *CredentialStore) Key(principal string) string {
	return strings.TrimLeft(s.prefix, "/") + credential.Filename(principal) + ".json"
}

// Read loads the principal's set. A missing object yields the empty set.
func (s *CredentialStore) Read(ctx context.Context, principal string) (credential.Set, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3aws.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(principal)),
	})
	if err != nil {
		err = classifyS3Error(err, "get")
		if errors.Is(err, errNotFound) {
			s.logger.DebugContext(ctx, "no stored credentials", logger.Principal(principal))
			return credential.Set{}, nil
		}
		return credential.Set{}, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return credential.Set{}, classifyS3Error(err, "get")
	}
	return s.codec.Decode(data)
}

// Write replaces the principal's object.
func (s *CredentialStore) Write(ctx context.Context, principal string, set credential.Set) error {
	data, err := s.codec.Encode(set)
	if err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.Key(principal)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return classifyS3Error(err, "put")
	}
	s.logger.DebugContext(ctx, "credentials stored", logger.Principal(principal), logger.Count("entries", set.Len()))
	return nil
}

// Delete removes the principal's object. Deleting a missing object succeeds.
func (s *CredentialStore) Delete(ctx context.Context, principal string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3aws.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(principal)),
	})
	if err = classifyS3Error(err, "delete"); err != nil && !errors.Is(err, errNotFound) {
		return err
	}
	return nil
}

func (s *CredentialStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
