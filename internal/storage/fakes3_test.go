package storage

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"seismic-stations/internal/s3fake"
)

const testBucket = "seismic-test"

// newTestS3Client returns a client pointed at srv with retries and optional
// checksums turned off, so request bodies reach the fake verbatim.
func newTestS3Client(srv *s3fake.Server) *s3.Client {
	return s3.New(s3.Options{
		Credentials:                credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
		BaseEndpoint:               aws.String(srv.URL),
		Region:                     DefaultRegion,
		UsePathStyle:               true,
		RetryMaxAttempts:           1,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	})
}

func newTestS3Storage(t *testing.T) (*S3Storage, *s3fake.Server) {
	t.Helper()
	fake := s3fake.New(testBucket)
	t.Cleanup(fake.Close)

	s, err := NewS3StorageFromClient(newTestS3Client(fake), S3Options{Bucket: testBucket})
	if err != nil {
		t.Fatalf("NewS3StorageFromClient: %v", err)
	}
	return s, fake
}
