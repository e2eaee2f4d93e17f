// Package source provides car.Opener implementations for local archives.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"xdao.co/carstream/car"
)

// Compression selects how an archive file is decoded before framing.
type Compression string

const (
	CompressionAuto Compression = ""
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression validates a user-supplied compression name.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case CompressionAuto, "auto":
		return CompressionAuto, nil
	case CompressionNone, CompressionGzip, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("source: unknown compression %q", s)
	}
}

// File returns an Opener for the archive at path. With CompressionAuto the
// format is picked from the extension (.gz, .zst) and otherwise treated as a
// plain archive. The path "-" reads standard input, which is never closed.
func File(path string, c Compression) car.Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		if path == "" {
			return nil, errors.New("source: empty archive path")
		}
		var f io.ReadCloser
		if path == "-" {
			f = io.NopCloser(os.Stdin)
		} else {
			fh, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			f = fh
		}
		comp := c
		if comp == CompressionAuto {
			comp = fromExtension(path)
		}
		rc, err := Decompress(f, comp)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return rc, nil
	}
}

// Reader returns an Opener over an already-open reader. Closing the opened
// source closes r when r is an io.Closer.
func Reader(r io.Reader) car.Opener {
	return func(context.Context) (io.ReadCloser, error) {
		if rc, ok := r.(io.ReadCloser); ok {
			return rc, nil
		}
		return io.NopCloser(r), nil
	}
}

// Decompress wraps rc according to c. Closing the result closes rc.
func Decompress(rc io.ReadCloser, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionAuto, CompressionNone:
		return rc, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(bufio.NewReader(rc))
		if err != nil {
			return nil, fmt.Errorf("source: gzip: %w", err)
		}
		return &stackedCloser{r: zr, dec: zr, rc: rc}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(rc, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("source: zstd: %w", err)
		}
		return &stackedCloser{r: zr, dec: zstdCloser{zr}, rc: rc}, nil
	default:
		return nil, fmt.Errorf("source: unknown compression %q", c)
	}
}

func fromExtension(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return CompressionGzip
	case strings.HasSuffix(path, ".zst"), strings.HasSuffix(path, ".zstd"):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// errClosed is returned by reads on a closed decompressing source.
var errClosed = errors.New("source: read on closed source")

// stackedCloser pairs a decompressor with the transport it reads from.
//
// Close may run on another goroutine while a Read is in progress (the
// decoder closes its source when the context is cancelled). The transport is
// closed first, which unblocks that Read; the decompressor is closed only
// once no Read holds it.
type stackedCloser struct {
	mu     sync.Mutex
	r      io.Reader
	dec    io.Closer
	rc     io.Closer
	closed bool

	once sync.Once
	err  error
}

func (s *stackedCloser) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed
	}
	return s.r.Read(p)
}

func (s *stackedCloser) Close() error {
	s.once.Do(func() {
		s.err = s.rc.Close()

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		if err := s.dec.Close(); err != nil && s.err == nil {
			s.err = err
		}
	})
	return s.err
}

type zstdCloser struct{ d *zstd.Decoder }

func (z zstdCloser) Close() error {
	z.d.Close()
	return nil
}
