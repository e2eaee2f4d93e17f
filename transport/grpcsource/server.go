package grpcsource

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// DefaultChunkSize is the payload size of each streamed message.
const DefaultChunkSize = 64 << 10

// Server streams archive files from a directory over the Archive service.
//
// Archive bytes are sent verbatim in order; the server never parses them.
type Server struct {
	UnimplementedArchiveServer

	// Root is the directory archives are served from.
	Root string
	// ChunkSize bounds each message; DefaultChunkSize when zero.
	ChunkSize int
	// Logger receives one record per stream; discarded when nil.
	Logger *slog.Logger
}

func (s *Server) Fetch(in *wrapperspb.StringValue, stream Archive_FetchServer) error {
	if s == nil || s.Root == "" {
		return status.Error(codes.FailedPrecondition, "missing archive root")
	}
	log := s.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	name := cleanName(in.GetValue())
	if name == "" {
		return mapErr(ErrInvalidName)
	}
	f, err := os.Open(filepath.Join(s.Root, filepath.FromSlash(name)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return mapErr(ErrNotFound)
		}
		return mapErr(err)
	}
	defer f.Close()

	size := s.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	buf := make([]byte, size)
	var sent int64
	for {
		if err := stream.Context().Err(); err != nil {
			return status.FromContextError(err).Err()
		}
		n, rerr := f.Read(buf)
		if n > 0 {
			if err := stream.Send(wrapperspb.Bytes(buf[:n])); err != nil {
				return err
			}
			sent += int64(n)
		}
		if rerr == io.EOF {
			log.Debug("grpcsource: archive sent", "name", name, "bytes", sent)
			return nil
		}
		if rerr != nil {
			return mapErr(rerr)
		}
	}
}

// cleanName normalizes a slash-separated archive name, returning "" for
// absolute paths, empty segments, and parent references.
func cleanName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	if name == "" || strings.HasPrefix(name, "/") {
		return ""
	}
	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return strings.Join(parts, "/")
}
