// Package resource maps request paths to media resources.
package resource

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// ErrNotFound reports that no media backs the requested path.
var ErrNotFound = errors.New("resource not found")

// Media is one opened media resource. Close releases the underlying handle
// once the transfer is over.
type Media struct {
	Size   uint64
	src    io.ReaderAt
	closer io.Closer
}

// NewMedia wraps an open byte source of the given size.
func NewMedia(src io.ReaderAt, size uint64) *Media {
	return &Media{Size: size, src: src}
}

// Span returns a reader over the half-open byte span [start, end).
func (m *Media) Span(start, end uint64) io.Reader {
	return io.NewSectionReader(m.src, int64(start), int64(end-start))
}

// Whole returns a reader over the entire resource.
func (m *Media) Whole() io.Reader {
	return m.Span(0, m.Size)
}

func (m *Media) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

// Resolver maps a request path to a media resource. Implementations return
// ErrNotFound when nothing backs the path; the router turns that into a 404.
type Resolver interface {
	Resolve(path string) (*Media, error)
}

// FileResolver serves every media path from one fixed file.
type FileResolver struct {
	Path string
}

func NewFileResolver(path string) *FileResolver {
	return &FileResolver{Path: path}
}

func (r *FileResolver) Resolve(path string) (*Media, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	m := NewMedia(f, uint64(info.Size()))
	m.closer = f
	return m, nil
}
