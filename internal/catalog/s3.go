package catalog

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// VersionMetadataKey is the object metadata entry carrying the dataset version
const VersionMetadataKey = "catalog-version"

// S3API is the subset of the S3 client the loader uses
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Source reads the dataset from a single S3 object. The version comes from the
// document itself, then the object metadata, then the modification time.
type S3Source struct {
	client S3API
	bucket string
	key    string
}

// NewS3Source creates a new S3Source instance
func NewS3Source(client S3API, bucket, key string) *S3Source {
	return &S3Source{client: client, bucket: bucket, key: key}
}

func (s *S3Source) Version(ctx context.Context) (uint64, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to head catalog object s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return objectVersion(out.Metadata, out.LastModified)
}

func (s *S3Source) Load(ctx context.Context) (*Dataset, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog object s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog object: %w", err)
	}
	ds, err := DecodeDataset(data)
	if err != nil {
		return nil, err
	}
	if ds.Version == 0 {
		if ds.Version, err = objectVersion(out.Metadata, out.LastModified); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func objectVersion(meta map[string]string, modified *time.Time) (uint64, error) {
	if raw, ok := meta[VersionMetadataKey]; ok {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s metadata %q: %w", VersionMetadataKey, raw, err)
		}
		return v, nil
	}
	if modified != nil {
		return uint64(modified.Unix()), nil
	}
	return 0, fmt.Errorf("catalog object has neither version metadata nor modification time")
}
