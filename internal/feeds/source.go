// internal/feeds/source.go
package feeds

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Feed file names, shared by every source.
const (
	InvoicesFeed   = "invoices.json"
	UsersFeed      = "users.json"
	BusinessesFeed = "businesses.json"
	ProductsFeed   = "products.json"
	SharesFeed     = "shares.json"
)

// ErrFeedNotFound is returned when a source has no file for a feed.
var ErrFeedNotFound = errors.New("feed not found")

// Source reads legacy JSON feeds by name.
type Source interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Describe() string
}

// Sink stores exported documents and returns where they went.
type Sink interface {
	Write(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// LocalSource reads and writes feed files in a directory.
type LocalSource struct {
	Dir string
}

func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{Dir: dir}
}

func (l *LocalSource) Describe() string {
	return "dir:" + l.Dir
}

func (l *LocalSource) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(l.Dir, filepath.Base(name)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrFeedNotFound)
		}
		return nil, fmt.Errorf("failed to read feed %s: %w", name, err)
	}
	return data, nil
}

func (l *LocalSource) Write(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(l.Dir, filepath.Clean("/"+name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
