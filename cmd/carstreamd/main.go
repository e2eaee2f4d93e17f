package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"

	"github.com/lmittmann/tint"
	"google.golang.org/grpc"

	"xdao.co/carstream/transport/grpcsource"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run serves archives until ctx is cancelled or the listener fails.
func run(ctx context.Context, args []string, errOut io.Writer) int {
	fs := flag.NewFlagSet("carstreamd", flag.ContinueOnError)
	fs.SetOutput(errOut)
	listen := fs.String("listen", "127.0.0.1:7778", "listen address")
	root := fs.String("root", "", "directory of archives to serve")
	chunk := fs.Int("chunk-size", grpcsource.DefaultChunkSize, "bytes per streamed message")
	level := fs.String("log-level", "info", "log level: debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(*level)); err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	logger := slog.New(tint.NewHandler(errOut, &tint.Options{Level: lvl}))

	if *root == "" {
		fmt.Fprintln(errOut, "missing --root")
		return 2
	}
	if st, err := os.Stat(*root); err != nil || !st.IsDir() {
		fmt.Fprintf(errOut, "--root must be a directory: %s\n", *root)
		return 2
	}
	if *chunk <= 0 {
		fmt.Fprintln(errOut, "--chunk-size must be positive")
		return 2
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcsource.RegisterArchiveServer(s, &grpcsource.Server{Root: *root, ChunkSize: *chunk, Logger: logger})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			logger.Info("carstreamd shutting down")
			s.GracefulStop()
		case <-done:
		}
	}()

	logger.Info("carstreamd listening", "addr", lis.Addr().String(), "root", *root)
	// Serve reports grpc.ErrServerStopped when shutdown wins the race with startup.
	if err := s.Serve(lis); err != nil && ctx.Err() == nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}
