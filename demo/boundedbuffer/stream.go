package boundedbuffer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// Source opens the byte stream a producer copies from
type Source func(ctx context.Context) (io.ReadCloser, error)

// Sink opens the byte stream a consumer copies to
type Sink func(ctx context.Context) (io.WriteCloser, error)

// FromBytes returns a source over data
func FromBytes(data []byte) Source {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// FromURL returns a source downloading URL with fs
func FromURL(fs afs.Service, URL string) Source {
	return func(ctx context.Context) (io.ReadCloser, error) {
		data, err := fs.DownloadWithURL(ctx, URL)
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", URL, err)
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// ToWriter returns a sink writing to w; Close flushes but does not close w
func ToWriter(w io.Writer) Sink {
	return func(ctx context.Context) (io.WriteCloser, error) {
		return &flusher{Writer: bufio.NewWriter(w)}, nil
	}
}

// ToURL returns a sink uploading everything written to URL once closed
func ToURL(fs afs.Service, URL string) Sink {
	return func(ctx context.Context) (io.WriteCloser, error) {
		return &uploader{ctx: ctx, fs: fs, URL: URL}, nil
	}
}

type flusher struct {
	*bufio.Writer
}

func (f *flusher) Close() error {
	return f.Flush()
}

type uploader struct {
	bytes.Buffer
	ctx context.Context
	fs  afs.Service
	URL string
}

func (u *uploader) Close() error {
	if err := u.fs.Upload(u.ctx, u.URL, file.DefaultFileOsMode, bytes.NewReader(u.Bytes())); err != nil {
		return fmt.Errorf("failed to upload %s: %w", u.URL, err)
	}
	return nil
}
