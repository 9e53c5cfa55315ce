// Package s3 deletes stage artifacts from an S3-compatible bucket and
// measures the bucket prefix against a configured quota.
package s3

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/artifactguard/internal/logger"
	"github.com/marmos91/artifactguard/internal/telemetry"
	"github.com/marmos91/artifactguard/pkg/artifacts"
)

// maxDeleteBatch is the DeleteObjects limit.
const maxDeleteBatch = 1000

// Client is the subset of the S3 API the store uses.
type Client interface {
	s3.ListObjectsV2APIClient
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, opts ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Store removes artifacts stored under a bucket prefix.
type Store struct {
	client   Client
	bucket   string
	prefix   string
	preserve []string

	mu     sync.RWMutex
	closed bool
}

// New creates a store with an existing client.
func New(client Client, cfg artifacts.S3Config, preserve []string) *Store {
	return &Store{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		preserve: preserve,
	}
}

// NewFromConfig builds an S3 client from cfg and creates the store.
func NewFromConfig(ctx context.Context, cfg artifacts.S3Config, preserve []string) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return New(client, cfg, preserve), nil
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return artifacts.ErrStoreClosed
	}
	return nil
}

// DeleteStage implements artifacts.Store.
func (s *Store) DeleteStage(ctx context.Context, loc artifacts.Locator) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if err := loc.Validate(); err != nil {
		return 0, err
	}

	stagePrefix := s.prefix + loc.Path() + "/"
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanS3Delete,
		trace.WithAttributes(telemetry.Bucket(s.bucket), telemetry.Prefix(stagePrefix)))
	defer span.End()
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(stagePrefix),
	})

	var (
		freed int64
		batch []types.ObjectIdentifier
		sizes = make(map[string]int64)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.deleteBatch(ctx, batch, sizes)
		freed += n
		batch = batch[:0]
		clear(sizes)
		return err
	}

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return freed, fmt.Errorf("s3 list objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if artifacts.Preserved(strings.TrimPrefix(key, stagePrefix), s.preserve) {
				continue
			}
			batch = append(batch, types.ObjectIdentifier{Key: obj.Key})
			sizes[key] = aws.ToInt64(obj.Size)
			if len(batch) == maxDeleteBatch {
				if err := flush(); err != nil {
					return freed, err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return freed, err
	}
	return freed, nil
}

// deleteBatch deletes up to maxDeleteBatch objects and returns the bytes
// actually freed.
func (s *Store) deleteBatch(ctx context.Context, objects []types.ObjectIdentifier, sizes map[string]int64) (int64, error) {
	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return 0, fmt.Errorf("s3 delete objects: %w", err)
	}

	for _, e := range out.Errors {
		delete(sizes, aws.ToString(e.Key))
	}
	var freed int64
	for _, n := range sizes {
		freed += n
	}

	if len(out.Errors) > 0 {
		first := out.Errors[0]
		logger.Warn("S3 objects not deleted", logger.KeyBackend, "s3", "count", len(out.Errors))
		return freed, fmt.Errorf("s3 delete objects: %d of %d failed, first %s: %s",
			len(out.Errors), len(objects), aws.ToString(first.Key), aws.ToString(first.Message))
	}
	return freed, nil
}

// UsedBytes sums the size of every object under the store prefix.
func (s *Store) UsedBytes(ctx context.Context) (uint64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var used uint64
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("s3 list objects: %w", err)
		}
		for _, obj := range page.Contents {
			used += uint64(max(aws.ToInt64(obj.Size), 0))
		}
	}
	return used, nil
}

// Healthcheck verifies the bucket is reachable.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("S3 health check failed: %w", err)
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// QuotaProbe reports Capacity minus the bytes stored under the prefix. It
// is the space probe for object storage, which has no free-space notion of
// its own.
type QuotaProbe struct {
	store    *Store
	capacity uint64
}

// NewQuotaProbe creates a probe for store against capacity bytes.
func NewQuotaProbe(store *Store, capacity uint64) *QuotaProbe {
	return &QuotaProbe{store: store, capacity: capacity}
}

// AvailableBytes implements purge.SpaceProbe.
func (p *QuotaProbe) AvailableBytes(ctx context.Context) (uint64, error) {
	used, err := p.store.UsedBytes(ctx)
	if err != nil {
		return 0, err
	}
	if used >= p.capacity {
		return 0, nil
	}
	return p.capacity - used, nil
}

var _ artifacts.Store = (*Store)(nil)
