package s3vault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/qiqiqi-tech/backoffice/svc/vault"
)

const maxObjectSize = 1 << 20

// Client is the subset of the S3 API the store uses.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store implements vault.Store on S3. It is safe for concurrent use.
type Store struct {
	client Client
	bucket string
	prefix string
}

var _ vault.Store = (*Store)(nil)

type Option func(*options)

type options struct {
	client        Client
	configOptions []func(*config.LoadOptions) error
}

// WithClient injects a pre-configured client, e.g. a mock.
func WithClient(c Client) Option {
	return func(o *options) { o.client = c }
}

func WithConfigOption(opt func(*config.LoadOptions) error) Option {
	return func(o *options) { o.configOptions = append(o.configOptions, opt) }
}

func New(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		loadOpts = append(loadOpts, o.configOptions...)

		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadConfig, err)
		}
		client = s3.NewFromConfig(awsCfg, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	prefix := cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

func (s *Store) key(tenantID string) string {
	return s.prefix + url.PathEscape(tenantID) + ".json"
}

func (s *Store) Get(ctx context.Context, tenantID string) (*vault.Record, error) {
	rec, _, err := s.fetch(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// fetch returns the record with the ETag it was read at.
func (s *Store) fetch(ctx context.Context, tenantID string) (*vault.Record, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(tenantID)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", vault.ErrRecordNotFound
		}
		return nil, "", fmt.Errorf("s3 get vault record: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxObjectSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("s3 read vault record: %w", err)
	}
	if len(data) > maxObjectSize {
		return nil, "", ErrRecordTooLarge
	}

	var rec vault.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, "", errors.Join(ErrCorruptRecord, err)
	}
	rec.TenantID = tenantID
	return rec.Clone(), aws.ToString(out.ETag), nil
}

// Save writes rec only if the stored object still carries rec.Version. The
// version check and the If-Match on the ETag read with it close the window
// between the two calls.
func (s *Store) Save(ctx context.Context, rec *vault.Record) error {
	in := &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(s.key(rec.TenantID)),
		ContentType:          aws.String("application/json"),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	}

	if rec.Version == 0 {
		in.IfNoneMatch = aws.String("*")
	} else {
		current, etag, err := s.fetch(ctx, rec.TenantID)
		switch {
		case errors.Is(err, vault.ErrRecordNotFound):
			return vault.ErrVersionConflict
		case err != nil:
			return err
		case current.Version != rec.Version:
			return vault.ErrVersionConflict
		}
		in.IfMatch = aws.String(etag)
	}

	next := rec.Clone()
	next.Version = rec.Version + 1
	body, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode vault record: %w", err)
	}
	in.Body = bytes.NewReader(body)
	in.ContentLength = aws.Int64(int64(len(body)))

	if _, err := s.client.PutObject(ctx, in); err != nil {
		if isPreconditionFailed(err) {
			return vault.ErrVersionConflict
		}
		return fmt.Errorf("s3 put vault record: %w", err)
	}

	rec.Version = next.Version
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	return false
}
