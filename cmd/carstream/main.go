package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/lmittmann/tint"

	"xdao.co/carstream/car"
	"xdao.co/carstream/cidutil"
	"xdao.co/carstream/config"
	"xdao.co/carstream/storage"
	"xdao.co/carstream/storage/localfs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "inspect":
		return cmdInspect(ctx, args[1:], out, errOut)
	case "extract":
		return cmdExtract(ctx, args[1:], out, errOut)
	case "cid":
		return cmdCID(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "carstream: streaming CAR archive decoder")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  carstream inspect <source flags> [--blocks=false]")
	fmt.Fprintln(w, "  carstream extract <source flags> --out <dir>")
	fmt.Fprintln(w, "  carstream cid [--raw] <file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Source flags (one source):")
	fmt.Fprintln(w, "  --config <file.json>")
	fmt.Fprintln(w, "  --file <path|-> [--compression auto|none|gzip|zstd]")
	fmt.Fprintln(w, "  --host <url> --did <did> [--since <rev>] [--token <jwt>]")
	fmt.Fprintln(w, "  --grpc-target <host:port> --name <archive>")
	fmt.Fprintln(w, "  [--timeout <dur>] [--max-frame-size <bytes>] [--log-level debug|info|warn|error]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - inspect prints the header roots, then one line per block: CID, codec, hash, size")
	fmt.Fprintln(w, "  - extract stores each block under <dir> keyed by CID; payloads are not re-hashed")
	fmt.Fprintln(w, "  - cid prints the dag-cbor (or, with --raw, raw) sha2-256 CIDv1 of a file's bytes")
}

type sourceFlags struct {
	configPath   string
	cfg          config.Config
	maxFrameSize int
}

func registerSourceFlags(fs *flag.FlagSet) *sourceFlags {
	sf := &sourceFlags{}
	fs.StringVar(&sf.configPath, "config", "", "JSON config file (overrides the other source flags)")
	fs.StringVar(&sf.cfg.Source.Path, "file", "", "Archive file, or - for stdin")
	fs.StringVar(&sf.cfg.Source.Compression, "compression", "", "File compression: auto|none|gzip|zstd")
	fs.StringVar(&sf.cfg.Source.Host, "host", "", "Service base URL for com.atproto.sync.getRepo")
	fs.StringVar(&sf.cfg.Source.DID, "did", "", "Repository DID (with --host)")
	fs.StringVar(&sf.cfg.Source.Since, "since", "", "Only blocks after this revision (with --host)")
	fs.StringVar(&sf.cfg.Source.Token, "token", "", "Bearer token (with --host)")
	fs.StringVar(&sf.cfg.Source.Target, "grpc-target", "", "Archive gRPC service host:port")
	fs.StringVar(&sf.cfg.Source.Name, "name", "", "Archive name (with --grpc-target)")
	fs.StringVar(&sf.cfg.Timeout, "timeout", "", "Transport timeout, e.g. 30s")
	fs.IntVar(&sf.maxFrameSize, "max-frame-size", car.DefaultMaxFrameSize, "Largest accepted frame in bytes; 0 disables the limit")
	fs.StringVar(&sf.cfg.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	return sf
}

func (sf *sourceFlags) config() (config.Config, error) {
	if sf.configPath != "" {
		return config.LoadFile(sf.configPath)
	}
	cfg := sf.cfg
	cfg.MaxFrameSize = sf.maxFrameSize
	switch {
	case cfg.Source.Path != "":
		cfg.Source.Kind = "file"
	case cfg.Source.Host != "":
		cfg.Source.Kind = "http"
	case cfg.Source.Target != "":
		cfg.Source.Kind = "grpc"
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	lvl, err := cfg.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(w, &tint.Options{Level: lvl, TimeFormat: "15:04:05"}))
}

// decoder builds a Decoder for the configured source. The returned function
// releases transport resources.
func decoder(cfg config.Config, logger *slog.Logger, extra ...car.Option) (*car.Decoder, func() error, error) {
	open, closeFn, err := cfg.Opener()
	if err != nil {
		return nil, nil, err
	}
	opts := append(cfg.DecodeOptions(logger), extra...)
	return car.NewDecoder(open, opts...), closeFn, nil
}

func cmdInspect(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(errOut)
	sf := registerSourceFlags(fs)
	showBlocks := fs.Bool("blocks", true, "Print one line per block")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := sf.config()
	if err != nil {
		fmt.Fprintf(errOut, "invalid source: %v\n", err)
		return 2
	}
	logger := newLogger(errOut, cfg)

	onHeader := car.WithHeaderFunc(func(raw []byte) error {
		h, err := car.ParseHeader(raw)
		if err != nil {
			logger.Warn("header is not a CAR v1 header", "bytes", len(raw), "error", err)
			return nil
		}
		fmt.Fprintf(out, "version\t%d\n", h.Version)
		for _, r := range h.Roots {
			fmt.Fprintf(out, "root\t%s\n", r)
		}
		return nil
	})
	d, closeFn, err := decoder(cfg, logger, onHeader)
	if err != nil {
		fmt.Fprintf(errOut, "open source: %v\n", err)
		return 1
	}
	defer closeFn()

	var blocks, payload int
	err = d.Decode(ctx, func(b car.Block) error {
		blocks++
		payload += len(b.Data)
		if !*showBlocks {
			return nil
		}
		codec, hash := "-", "-"
		if id, err := b.CID.Parse(); err == nil {
			codec, hash = cidutil.Describe(id)
		}
		fmt.Fprintf(out, "block\t%s\t%s\t%s\t%d\n", b.CID, codec, hash, len(b.Data))
		return nil
	})
	fmt.Fprintf(out, "total\t%d blocks\t%d bytes\n", blocks, payload)
	if err != nil {
		reportDecodeError(errOut, err)
		return 1
	}
	return 0
}

func cmdExtract(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(errOut)
	sf := registerSourceFlags(fs)
	var outDir string
	fs.StringVar(&outDir, "out", "", "Output directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := sf.config()
	if err != nil {
		fmt.Fprintf(errOut, "invalid source: %v\n", err)
		return 2
	}
	if outDir == "" {
		outDir = cfg.Store
	}
	if outDir == "" {
		fmt.Fprintln(errOut, "usage: carstream extract <source flags> --out <dir>")
		return 2
	}
	logger := newLogger(errOut, cfg)

	store, err := localfs.New(outDir)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 1
	}
	d, closeFn, err := decoder(cfg, logger)
	if err != nil {
		fmt.Fprintf(errOut, "open source: %v\n", err)
		return 1
	}
	defer closeFn()

	sink := storage.Sink(store)
	n := 0
	err = d.Decode(ctx, func(b car.Block) error {
		if err := sink(b); err != nil {
			return fmt.Errorf("store %s: %w", b.CID, err)
		}
		n++
		return nil
	})
	logger.Info("extract finished", "blocks", n, "dir", outDir)
	if err != nil {
		reportDecodeError(errOut, err)
		return 1
	}
	_, _ = fmt.Fprintln(out, n)
	return 0
}

func cmdCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	raw := fs.Bool("raw", false, "use the raw codec instead of dag-cbor")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: carstream cid [--raw] <file>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}
	if *raw {
		id, err := cidutil.CIDv1RawSHA256CID(b)
		if err != nil {
			fmt.Fprintf(errOut, "cid: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, id)
		return 0
	}
	_, _ = fmt.Fprintln(out, cidutil.DagCBORSHA256(b))
	return 0
}

func reportDecodeError(w io.Writer, err error) {
	var e *car.Error
	if errors.As(err, &e) {
		fmt.Fprintf(w, "decode failed [%s %s]: %v\n", e.Kind, e.RuleID, err)
		return
	}
	fmt.Fprintf(w, "decode failed: %v\n", err)
}
