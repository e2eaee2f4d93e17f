package car

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"
	"sync"
)

// Opener acquires the byte source for one decode pass. The decoder closes
// the returned ReadCloser exactly once when the pass ends.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// Option configures a decode pass.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	maxFrameSize int
	onHeader     func([]byte) error
}

func defaultOptions() options {
	return options{
		logger:       slog.New(slog.DiscardHandler),
		maxFrameSize: DefaultMaxFrameSize,
	}
}

// WithLogger sets the logger used for per-pass debug records.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxFrameSize bounds the declared length of the header and of each
// frame body. Zero or a negative value removes the bound.
func WithMaxFrameSize(n int) Option {
	return func(o *options) { o.maxFrameSize = n }
}

// WithHeaderFunc receives the raw header bytes before any block is decoded.
// Returning an error aborts the pass.
func WithHeaderFunc(fn func(header []byte) error) Option {
	return func(o *options) { o.onHeader = fn }
}

// Decoder decodes archives from sources it opens itself.
//
// A Decoder holds no per-pass state; it may run any number of concurrent
// passes, each over its own source.
type Decoder struct {
	open Opener
	opts []Option
}

// NewDecoder returns a Decoder that acquires its source through open.
func NewDecoder(open Opener, opts ...Option) *Decoder {
	return &Decoder{open: open, opts: opts}
}

// Decode opens the source, decodes every block and calls onBlock for each
// one in archive order. The source is closed before Decode returns, and is
// also closed early if ctx is cancelled so that a blocked read returns.
//
// Blocks already passed to onBlock are not retracted when a later frame
// fails. A nil onBlock only validates the framing.
func (d *Decoder) Decode(ctx context.Context, onBlock func(Block) error) (err error) {
	src, err := d.acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("car: close source: %w", cerr)
		}
	}()
	return decodeStream(ctx, src, d.options(), onBlock)
}

// Blocks returns a forward-only, single-use sequence over the archive.
//
// The source is opened when iteration starts and closed when it ends,
// including when the caller stops early. A failure is yielded once as the
// final element with a zero Block.
func (d *Decoder) Blocks(ctx context.Context) iter.Seq2[Block, error] {
	return func(yield func(Block, error) bool) {
		src, err := d.acquire(ctx)
		if err != nil {
			yield(Block{}, err)
			return
		}
		stopped := false
		err = decodeStream(ctx, src, d.options(), func(b Block) error {
			if !yield(b, nil) {
				stopped = true
				return errStopped
			}
			return nil
		})
		cerr := src.Close()
		if stopped {
			return
		}
		if err == nil && cerr != nil {
			err = fmt.Errorf("car: close source: %w", cerr)
		}
		if err != nil {
			yield(Block{}, err)
		}
	}
}

func (d *Decoder) options() options {
	o := defaultOptions()
	for _, opt := range d.opts {
		opt(&o)
	}
	return o
}

func (d *Decoder) acquire(ctx context.Context) (*scopedSource, error) {
	if d == nil || d.open == nil {
		return nil, errors.New("car: decoder has no source")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := d.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("car: open source: %w", err)
	}
	s := &scopedSource{rc: rc}
	s.stop = context.AfterFunc(ctx, s.closeSource)
	return s, nil
}

// scopedSource closes the underlying source at most once, whether the pass
// ends normally or ctx is cancelled while a read is blocked.
//
// The cancellation callback only ever runs closeSource; stop is read and
// called solely by the goroutine that owns the pass.
type scopedSource struct {
	rc   io.ReadCloser
	stop func() bool
	once sync.Once
	err  error
}

func (s *scopedSource) Read(p []byte) (int, error) { return s.rc.Read(p) }

func (s *scopedSource) closeSource() {
	s.once.Do(func() { s.err = s.rc.Close() })
}

// Close releases the cancellation callback and closes the source. It waits
// for a close already started by cancellation.
func (s *scopedSource) Close() error {
	if s.stop != nil {
		s.stop()
	}
	s.closeSource()
	return s.err
}

var errStopped = errors.New("car: iteration stopped")

// Decode decodes the archive in r, calling onBlock for each block. r is not
// closed.
func Decode(ctx context.Context, r io.Reader, onBlock func(Block) error, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return decodeStream(ctx, r, o, onBlock)
}

// Blocks returns a single-use sequence over the archive in r. r is not
// closed.
func Blocks(ctx context.Context, r io.Reader, opts ...Option) iter.Seq2[Block, error] {
	return func(yield func(Block, error) bool) {
		err := Decode(ctx, r, func(b Block) error {
			if !yield(b, nil) {
				return errStopped
			}
			return nil
		}, opts...)
		if err != nil && !errors.Is(err, errStopped) {
			yield(Block{}, err)
		}
	}
}

func decodeStream(ctx context.Context, r io.Reader, o options, onBlock func(Block) error) error {
	c := NewCursor(r)
	log := o.logger

	header, terminated := readVarint(c)
	if err := c.Err(); err != nil {
		return cancelled(ctx, err)
	}
	if header.Valid() && !terminated {
		return newError(KindInvalidVarint, "CAR-VARINT-001", "car: header length is truncated")
	}
	if !header.Valid() {
		log.DebugContext(ctx, "car: empty archive")
		return nil
	}
	limit := uint64(math.MaxInt)
	if o.maxFrameSize > 0 {
		limit = uint64(o.maxFrameSize)
	}
	if header.Value > limit {
		return newError(KindMalformedFrame, "CAR-HEADER-001",
			fmt.Sprintf("car: header declares %d bytes, limit is %d", header.Value, limit))
	}
	if o.onHeader != nil {
		hb, err := c.ReadExact(int(header.Value))
		if err != nil {
			return cancelled(ctx, err)
		}
		if err := o.onHeader(hb); err != nil {
			return err
		}
	} else if err := c.Skip(int64(header.Value)); err != nil {
		return cancelled(ctx, err)
	}
	log.DebugContext(ctx, "car: header skipped", "header_bytes", header.Value, "offset", c.Offset())

	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		blk, err := ReadFrame(c, o.maxFrameSize)
		if errors.Is(err, ErrEndOfFrames) {
			log.DebugContext(ctx, "car: archive decoded", "blocks", count, "bytes", c.Offset())
			return nil
		}
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				log.DebugContext(ctx, "car: decode cancelled", "blocks", count, "offset", c.Offset())
				return cerr
			}
			log.DebugContext(ctx, "car: decode failed", "blocks", count, "offset", c.Offset(), "error", err)
			return err
		}
		count++
		if onBlock == nil {
			continue
		}
		if err := onBlock(blk); err != nil {
			return err
		}
	}
}

// cancelled reports ctx.Err in place of a read failure caused by the source
// being closed on cancellation.
func cancelled(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return err
}
