package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"seismic-stations/internal/station"
	"seismic-stations/pkg/logger"
)

const (
	// DefaultRegion is used when the AWS configuration chain yields none.
	DefaultRegion = "ap-northeast-1"
	// DefaultCollectionKey holds the JSON station collection.
	DefaultCollectionKey = "stations.json"
	// DefaultCSVKey holds the CSV export.
	DefaultCSVKey = "Stations.csv"
	// PresignExpiry is how long a presigned CSV link stays valid.
	PresignExpiry = 7 * 24 * time.Hour
)

// S3Options configures an S3Storage.
// Only Bucket is required; the rest fall back to the defaults above or to
// the ambient AWS configuration.
type S3Options struct {
	Bucket        string
	CollectionKey string
	CSVKey        string
	DefaultRegion string

	// Endpoint, static keys and path style are for S3-compatible services
	// such as R2 or MinIO. Keys must be set together.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

func (o S3Options) withDefaults() S3Options {
	if o.CollectionKey == "" {
		o.CollectionKey = DefaultCollectionKey
	}
	if o.CSVKey == "" {
		o.CSVKey = DefaultCSVKey
	}
	if o.DefaultRegion == "" {
		o.DefaultRegion = DefaultRegion
	}
	return o
}

// S3Storage keeps the station collection and its CSV export in an S3 bucket.
type S3Storage struct {
	client        *s3.Client
	presigner     *s3.PresignClient
	bucket        string
	collectionKey string
	csvKey        string
}

// NewS3Storage creates an S3 storage instance. Region and credentials come
// from the default AWS chain (environment, shared config, instance role),
// unless static keys are given in opts.
func NewS3Storage(ctx context.Context, opts S3Options) (*S3Storage, error) {
	opts = opts.withDefaults()
	if opts.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket name is required", ErrConfig)
	}
	if (opts.AccessKeyID == "") != (opts.SecretAccessKey == "") {
		return nil, fmt.Errorf("%w: access key id and secret access key must be set together", ErrConfig)
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.AccessKeyID != "" {
		credProvider := credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(credProvider))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load AWS config: %w", ErrConfig, err)
	}
	cfg.Region = resolveRegion(cfg.Region, opts.DefaultRegion)

	if cfg.Credentials == nil {
		return nil, fmt.Errorf("%w: no AWS credentials configured", ErrConfig)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("%w: failed to resolve AWS credentials: %w", ErrConfig, err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return NewS3StorageFromClient(client, opts)
}

// NewS3StorageFromClient wraps an already configured S3 client.
func NewS3StorageFromClient(client *s3.Client, opts S3Options) (*S3Storage, error) {
	opts = opts.withDefaults()
	if client == nil {
		return nil, fmt.Errorf("%w: nil S3 client", ErrConfig)
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket name is required", ErrConfig)
	}

	return &S3Storage{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		bucket:        opts.Bucket,
		collectionKey: opts.CollectionKey,
		csvKey:        opts.CSVKey,
	}, nil
}

func resolveRegion(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

// Bucket returns the bucket name.
func (s *S3Storage) Bucket() string {
	return s.bucket
}

// Load downloads and decodes the collection object.
// A missing object is an empty collection.
func (s *S3Storage) Load(ctx context.Context) ([]station.Station, error) {
	start := time.Now()

	data, err := s.getObject(ctx, s.collectionKey)
	if errors.Is(err, ErrNotFound) {
		logger.Log.Debug().Str("bucket", s.bucket).Str("key", s.collectionKey).Msg("[S3] no collection object yet, starting empty")
		return []station.Station{}, nil
	}
	if err != nil {
		return nil, err
	}

	stations, err := decodeStations(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3://%s/%s: %w", s.bucket, s.collectionKey, err)
	}

	logger.Log.Debug().Str("backend", "s3").Str("key", s.collectionKey).Int("stations", len(stations)).
		Dur("elapsed", time.Since(start)).Msg("[S3] Load completed")
	return stations, nil
}

// Save overwrites the collection object with a single PUT.
func (s *S3Storage) Save(ctx context.Context, stations []station.Station) error {
	start := time.Now()

	data, err := encodeStations(stations)
	if err != nil {
		return err
	}
	if err := s.putObject(ctx, s.collectionKey, data, "application/json"); err != nil {
		return err
	}

	logger.Log.Debug().Str("backend", "s3").Str("key", s.collectionKey).Int("stations", len(stations)).
		Dur("elapsed", time.Since(start)).Msg("[S3] Save completed")
	return nil
}

// SaveCSV overwrites the CSV export object with csv as raw bytes.
func (s *S3Storage) SaveCSV(ctx context.Context, csv string) error {
	start := time.Now()

	if err := s.putObject(ctx, s.csvKey, []byte(csv), "text/csv"); err != nil {
		return err
	}

	logger.Log.Debug().Str("backend", "s3").Str("key", s.csvKey).Int("bytes", len(csv)).
		Dur("elapsed", time.Since(start)).Msg("[S3] SaveCSV completed")
	return nil
}

// GeneratePresignedCSVURL signs a GET for the CSV export valid for
// PresignExpiry. The object does not have to exist yet.
func (s *S3Storage) GeneratePresignedCSVURL(ctx context.Context) (*PresignedURL, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.csvKey),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to presign s3://%s/%s: %w", ErrTransport, s.bucket, s.csvKey, err)
	}

	expiresAt, err := presignedExpiry(req.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	logger.Log.Info().Str("key", s.csvKey).Time("expires_at", expiresAt).Msg("[S3] presigned CSV URL issued")

	return &PresignedURL{
		URL:       req.URL,
		Method:    req.Method,
		ExpiresAt: expiresAt,
	}, nil
}

// presignedExpiry reads the signing time and lifetime back out of a SigV4
// query-signed URL.
func presignedExpiry(rawURL string) (time.Time, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse presigned URL: %w", err)
	}
	q := u.Query()

	signedAt, err := time.Parse("20060102T150405Z", q.Get("X-Amz-Date"))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid X-Amz-Date in presigned URL: %w", err)
	}
	seconds, err := strconv.Atoi(q.Get("X-Amz-Expires"))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid X-Amz-Expires in presigned URL: %w", err)
	}
	return signedAt.Add(time.Duration(seconds) * time.Second), nil
}

// BucketExists checks that the bucket is reachable with the configured
// credentials.
func (s *S3Storage) BucketExists(ctx context.Context) (bool, error) {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("%w: failed to access bucket '%s': %w", ErrTransport, s.bucket, err)
}

// getObject downloads key. A missing key yields ErrNotFound.
func (s *S3Storage) getObject(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.bucket, key)
		}
		return nil, fmt.Errorf("%w: failed to get object %s: %w", ErrTransport, key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read object %s: %w", ErrTransport, key, err)
	}
	return data, nil
}

// putObject uploads data to key, replacing any existing object.
func (s *S3Storage) putObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to upload object %s: %w", ErrTransport, key, err)
	}
	return nil
}

// isNotFound reports whether err is S3's missing key response. A missing
// bucket is a configuration problem and does not count.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		case "NoSuchBucket":
			return false
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return false
}

var _ CSVStore = (*S3Storage)(nil)
