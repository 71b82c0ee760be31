package application

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Source supplies the raw text of a specifications file.
type Source interface {
	Name() string
	Read(ctx context.Context) ([]byte, error)
}

// FileSource reads a file from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string {
	return filepath.Base(s.Path)
}

func (s FileSource) Read(ctx context.Context) ([]byte, error) {
	f, err := os.Open(filepath.Clean(s.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close() //nolint:errcheck // best-effort close on read path

	data, err := io.ReadAll(&ctxReader{ctx: ctx, r: f})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Name(), err)
	}
	return data, nil
}

// BytesSource serves content that is already in memory, such as an upload.
type BytesSource struct {
	FileName string
	Data     []byte
}

func (s BytesSource) Name() string {
	return s.FileName
}

func (s BytesSource) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Data, nil
}

// ctxReader stops a read between chunks once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
