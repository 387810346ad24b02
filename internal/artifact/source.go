package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotFound is returned when an artifact does not exist in its source.
var ErrNotFound = errors.New("artifact not found")

// Source is where artifact files are read from.
type Source interface {
	// Open opens the named artifact for reading.
	// Returns an error satisfying errors.Is(err, ErrNotFound) if it is absent.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// String describes the source for logs and `cosim info`.
	String() string
}

// LocalSource reads artifacts from a directory.
type LocalSource struct {
	Dir string
}

// NewLocalSource creates a source rooted at dir.
func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{Dir: dir}
}

// Open opens dir/name.
func (s *LocalSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Join(s.Dir, name))
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalSource) String() string { return s.Dir }

// MinioConfig locates artifacts in an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioSource reads artifacts from an S3-compatible bucket.
type MinioSource struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioSource connects a bucket source. No request is made until Open.
func NewMinioSource(cfg MinioConfig) (*MinioSource, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio source needs an endpoint and a bucket")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return &MinioSource{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *MinioSource) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open streams the object prefix/name.
func (s *MinioSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := s.key(name)

	// GetObject is lazy; stat first so a missing key surfaces here
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.bucket, key)
		}
		return nil, fmt.Errorf("stat s3://%s/%s: %w", s.bucket, key, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	return obj, nil
}

func (s *MinioSource) String() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}
