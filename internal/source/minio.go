package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/stashgate/cdn/internal/config"
	"github.com/stashgate/cdn/internal/httprange"
)

// thumbnailRefTTL bounds how long a presigned thumbnail URL stays valid.
const thumbnailRefTTL = 15 * time.Minute

// MinioSource serves resources from a MinIO (or S3-compatible) backend.
// The client is the process-wide authenticated handle: constructed once
// at startup, injected here, and safe for concurrent read-only use —
// credential refresh is handled inside the SDK's credential provider.
type MinioSource struct {
	client          *minio.Client
	contentBucket   string
	thumbnailBucket string
}

// Connect builds the authenticated MinIO client from config.
func Connect(cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}
	return client, nil
}

func NewMinioSource(client *minio.Client, contentBucket, thumbnailBucket string) *MinioSource {
	return &MinioSource{
		client:          client,
		contentBucket:   contentBucket,
		thumbnailBucket: thumbnailBucket,
	}
}

func (s *MinioSource) Stat(ctx context.Context, id string) (ResourceInfo, error) {
	info, err := s.client.StatObject(ctx, s.contentBucket, id, minio.StatObjectOptions{})
	if err != nil {
		return ResourceInfo{}, mapMinioError(err, "stat")
	}
	return ResourceInfo{Size: info.Size, ContentType: info.ContentType}, nil
}

func (s *MinioSource) Open(ctx context.Context, id string, rng *httprange.ByteRange) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if rng != nil {
		if err := opts.SetRange(rng.Start, rng.End); err != nil {
			return nil, mapMinioError(err, "set range")
		}
	}

	obj, err := s.client.GetObject(ctx, s.contentBucket, id, opts)
	if err != nil {
		return nil, mapMinioError(err, "open")
	}

	if rng != nil {
		return newExactReadCloser(obj, rng.Len()), nil
	}
	return obj, nil
}

func (s *MinioSource) List(ctx context.Context, containerID string) ([]Entry, error) {
	prefix := containerID
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	objects := s.client.ListObjects(ctx, s.contentBucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	})

	var entries []Entry
	for obj := range objects {
		if obj.Err != nil {
			return nil, mapMinioError(obj.Err, "list")
		}
		name := strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), "/")
		if name == "" {
			continue
		}
		contentType := obj.ContentType
		if strings.HasSuffix(obj.Key, "/") {
			contentType = "application/x-directory"
		}
		entries = append(entries, Entry{
			ID:          obj.Key,
			Name:        name,
			ContentType: contentType,
			Size:        obj.Size,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// ThumbnailRef resolves the thumbnail stored under the same key in the
// thumbnail bucket and returns a time-limited presigned URL for it.
func (s *MinioSource) ThumbnailRef(ctx context.Context, id string) (string, error) {
	key := thumbnailKey(id)
	if _, err := s.client.StatObject(ctx, s.thumbnailBucket, key, minio.StatObjectOptions{}); err != nil {
		return "", mapMinioError(err, "stat thumbnail")
	}

	u, err := s.client.PresignedGetObject(ctx, s.thumbnailBucket, key, thumbnailRefTTL, nil)
	if err != nil {
		return "", mapMinioError(err, "presign thumbnail")
	}
	return u.String(), nil
}

// thumbnailKey maps a resource id to its thumbnail object key: same
// path, extension replaced with .jpg.
func thumbnailKey(id string) string {
	ext := path.Ext(id)
	return strings.TrimSuffix(id, ext) + ".jpg"
}

// mapMinioError folds SDK errors into the source error taxonomy so that
// callers never branch on backend-specific types.
func mapMinioError(err error, op string) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch {
		case resp.StatusCode == http.StatusNotFound,
			resp.Code == "NoSuchKey",
			resp.Code == "NoSuchBucket":
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
