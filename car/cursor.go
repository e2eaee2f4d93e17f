package car

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// defaultBufferSize is the read-ahead buffer owned by each Cursor.
const defaultBufferSize = 32 << 10

// ReadExact reads exactly n bytes from r into a freshly allocated buffer.
//
// Unlike io.ReadFull it never returns a short buffer and never spins on a
// reader that keeps returning (0, nil): that condition is reported as
// KindStreamExhausted. A clean io.EOF before n bytes is also
// KindStreamExhausted; any other error is wrapped as KindStreamRead.
func ReadExact(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, newError(KindInsufficientData, "CAR-STREAM-004", fmt.Sprintf("car: negative read length %d", n))
	}
	buf := make([]byte, n)
	read := 0
	for read < n {
		m, err := r.Read(buf[read:])
		read += m
		if read >= n {
			// A reader may return the final bytes together with io.EOF.
			break
		}
		switch {
		case err == io.EOF:
			return nil, newError(KindStreamExhausted, "CAR-STREAM-002",
				fmt.Sprintf("car: stream ended after %d of %d bytes", read, n))
		case errors.Is(err, io.ErrNoProgress):
			return nil, wrapError(KindStreamExhausted, "CAR-STREAM-003",
				fmt.Sprintf("car: stream made no progress after %d of %d bytes", read, n), err)
		case err != nil:
			return nil, wrapError(KindStreamRead, "CAR-STREAM-001", "car: stream read failed", err)
		case m == 0:
			return nil, newError(KindStreamExhausted, "CAR-STREAM-003",
				fmt.Sprintf("car: zero-byte read after %d of %d bytes", read, n))
		}
	}
	return buf, nil
}

// ScanBytes returns the first n bytes of b, or a KindInsufficientData error
// when b is shorter than n.
func ScanBytes(b []byte, n int) ([]byte, error) {
	if n < 0 || len(b) < n {
		return nil, newError(KindInsufficientData, "CAR-DATA-001",
			fmt.Sprintf("car: need %d bytes, have %d", n, len(b)))
	}
	return b[:n], nil
}

// Cursor is the per-pass read position over one byte stream.
//
// A Cursor owns its read-ahead buffer and a running count of bytes consumed.
// It is not safe for concurrent use and must not be shared between passes.
type Cursor struct {
	r   *bufio.Reader
	off int64
	err error
}

// NewCursor returns a Cursor reading from r.
func NewCursor(r io.Reader) *Cursor {
	return &Cursor{r: bufio.NewReaderSize(r, defaultBufferSize)}
}

// ReadByte implements io.ByteReader for ReadVarint. A non-EOF failure is
// remembered and reported by Err.
func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err != nil {
		if err != io.EOF && c.err == nil {
			c.err = readFailure(err)
		}
		return 0, err
	}
	c.off++
	return b, nil
}

// ReadExact reads exactly n bytes. See the package-level ReadExact.
func (c *Cursor) ReadExact(n int) ([]byte, error) {
	b, err := ReadExact(c.r, n)
	if err != nil {
		if c.err == nil {
			c.err = err
		}
		return nil, err
	}
	c.off += int64(n)
	return b, nil
}

// Skip discards exactly n bytes without retaining them.
func (c *Cursor) Skip(n int64) error {
	d, err := c.r.Discard(int(n))
	c.off += int64(d)
	if err == nil {
		return nil
	}
	if err == io.EOF {
		err = newError(KindStreamExhausted, "CAR-STREAM-002",
			fmt.Sprintf("car: stream ended after %d of %d bytes", d, n))
	} else {
		err = readFailure(err)
	}
	if c.err == nil {
		c.err = err
	}
	return err
}

// Offset returns the number of bytes consumed from the stream so far.
func (c *Cursor) Offset() int64 { return c.off }

// Err returns the first non-EOF read failure seen by the cursor, if any.
func (c *Cursor) Err() error { return c.err }

// readFailure classifies a non-EOF error returned by the underlying reader.
func readFailure(err error) error {
	if errors.Is(err, io.ErrNoProgress) {
		return wrapError(KindStreamExhausted, "CAR-STREAM-003", "car: stream made no progress", err)
	}
	return wrapError(KindStreamRead, "CAR-STREAM-001", "car: stream read failed", err)
}
