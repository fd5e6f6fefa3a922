package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/stashgate/cdn/internal/httprange"
)

// thumbnailDir is the directory under the storage root holding
// pre-rendered thumbnails, keyed by resource path.
const thumbnailDir = ".thumbnails"

// LocalSource serves resources from a directory tree. It exists for
// development and tests, where a MinIO endpoint is not worth standing up.
type LocalSource struct {
	basePath string
	// thumbnailBaseURL is the public URL prefix thumbnails are reachable
	// under; empty disables thumbnail refs.
	thumbnailBaseURL string
}

func NewLocalSource(basePath, thumbnailBaseURL string) (*LocalSource, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, err
	}
	return &LocalSource{
		basePath:         basePath,
		thumbnailBaseURL: strings.TrimSuffix(thumbnailBaseURL, "/"),
	}, nil
}

// resolve joins id onto the base path, refusing ids that escape it.
func (s *LocalSource) resolve(id string) (string, error) {
	p := filepath.Join(s.basePath, filepath.FromSlash(id))
	if !strings.HasPrefix(p, filepath.Clean(s.basePath)+string(os.PathSeparator)) && p != filepath.Clean(s.basePath) {
		return "", ErrNotFound
	}
	return p, nil
}

func (s *LocalSource) Stat(ctx context.Context, id string) (ResourceInfo, error) {
	p, err := s.resolve(id)
	if err != nil {
		return ResourceInfo{}, err
	}
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return ResourceInfo{}, fmt.Errorf("stat %s: %w", id, ErrNotFound)
	}
	// ContentType stays empty; the handler infers it from the extension.
	return ResourceInfo{Size: info.Size()}, nil
}

func (s *LocalSource) Open(ctx context.Context, id string, rng *httprange.ByteRange) (io.ReadCloser, error) {
	p, err := s.resolve(id)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w: %w", id, ErrUnavailable, err)
	}

	if rng == nil {
		return file, nil
	}

	if _, err := file.Seek(rng.Start, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek %s: %w: %w", id, ErrUnavailable, err)
	}
	return newExactReadCloser(file, rng.Len()), nil
}

func (s *LocalSource) List(ctx context.Context, containerID string) ([]Entry, error) {
	p, err := s.resolve(containerID)
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("list %s: %w", containerID, ErrNotFound)
		}
		return nil, fmt.Errorf("list %s: %w: %w", containerID, ErrUnavailable, err)
	}

	// os.ReadDir already sorts by filename, which is the byte order the
	// listing contract requires.
	var entries []Entry
	for _, de := range dirEntries {
		if de.Name() == thumbnailDir {
			continue
		}
		id := path.Join(containerID, de.Name())
		if de.IsDir() {
			entries = append(entries, Entry{
				ID:          id,
				Name:        de.Name(),
				ContentType: "application/x-directory",
			})
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Entry removed between ReadDir and Info; skip it.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("list %s: %w: %w", containerID, ErrUnavailable, err)
		}
		entries = append(entries, Entry{
			ID:          id,
			Name:        de.Name(),
			ContentType: mime.TypeByExtension(path.Ext(de.Name())),
			Size:        info.Size(),
		})
	}
	return entries, nil
}

func (s *LocalSource) ThumbnailRef(ctx context.Context, id string) (string, error) {
	if s.thumbnailBaseURL == "" {
		return "", fmt.Errorf("thumbnails disabled: %w", ErrNotFound)
	}
	key := thumbnailKey(id)
	p, err := s.resolve(path.Join(thumbnailDir, key))
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("thumbnail %s: %w", id, ErrNotFound)
	}
	return s.thumbnailBaseURL + "/" + key, nil
}
