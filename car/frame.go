package car

import (
	"fmt"
	"math"
)

// DefaultMaxFrameSize bounds a single frame body (identifier plus payload).
const DefaultMaxFrameSize = 8 << 20

// ReadFrame reads one length-prefixed frame from c and splits it into a
// content identifier and payload.
//
// It returns ErrEndOfFrames when the stream ends cleanly before a length
// prefix, and the cursor's recorded failure when reading the prefix failed
// for any other reason. A length prefix cut off by the end of the stream is
// KindInvalidVarint. A declared length shorter than CIDLen, or longer than
// maxSize when maxSize > 0, is reported as KindMalformedFrame before any body
// bytes are read.
func ReadFrame(c *Cursor, maxSize int) (Block, error) {
	start := c.Offset()
	n, terminated := readVarint(c)
	if !n.Valid() {
		if err := c.Err(); err != nil {
			return Block{}, err
		}
		return Block{}, ErrEndOfFrames
	}
	if !terminated {
		if err := c.Err(); err != nil {
			return Block{}, err
		}
		return Block{}, newError(KindInvalidVarint, "CAR-VARINT-002",
			fmt.Sprintf("car: frame length at offset %d is truncated", start))
	}
	if n.Value < CIDLen {
		return Block{}, newError(KindMalformedFrame, "CAR-FRAME-001",
			fmt.Sprintf("car: frame at offset %d declares %d bytes, shorter than a %d-byte CID", start, n.Value, CIDLen))
	}
	limit := uint64(math.MaxInt)
	if maxSize > 0 {
		limit = uint64(maxSize)
	}
	if n.Value > limit {
		return Block{}, newError(KindMalformedFrame, "CAR-FRAME-002",
			fmt.Sprintf("car: frame at offset %d declares %d bytes, limit is %d", start, n.Value, limit))
	}

	body, err := c.ReadExact(int(n.Value))
	if err != nil {
		return Block{}, err
	}

	var blk Block
	copy(blk.CID[:], body[:CIDLen])
	blk.Data = body[CIDLen:]
	return blk, nil
}
