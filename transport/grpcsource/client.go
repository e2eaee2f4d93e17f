package grpcsource

import (
	"context"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/carstream/car"
)

// Client fetches archives from an Archive gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client ArchiveClient

	// Timeout bounds a whole Fetch stream when non-zero. Expiry surfaces to
	// the decoder as an ordinary read error.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets the max receive size when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes)),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc), nil
}

// NewClient wraps an existing connection. Close closes cc.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewArchiveClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Opener returns a car.Opener that starts a Fetch stream for name. Closing
// the opened source cancels the stream.
func (c *Client) Opener(name string) car.Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		var cancel context.CancelFunc
		if c.Timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		} else {
			ctx, cancel = context.WithCancel(ctx)
		}
		stream, err := c.client.Fetch(ctx, wrapperspb.String(name))
		if err != nil {
			cancel()
			return nil, mapRPC(err)
		}
		return &streamReader{stream: stream, cancel: cancel}, nil
	}
}

// streamReader adapts a Fetch stream to io.ReadCloser.
type streamReader struct {
	stream Archive_FetchClient
	cancel context.CancelFunc
	buf    []byte
	err    error
}

func (r *streamReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		m, err := r.stream.Recv()
		if err != nil {
			if err == io.EOF {
				r.err = io.EOF
			} else {
				r.err = mapRPC(err)
			}
			continue
		}
		r.buf = m.GetValue()
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *streamReader) Close() error {
	r.cancel()
	return nil
}
