package car

import (
	"encoding/hex"

	"github.com/ipfs/go-cid"
)

// CIDLen is the fixed content identifier length in CAR v1 archives produced
// by AT Protocol services: CIDv1, dag-cbor codec, 32-byte sha2-256 multihash.
const CIDLen = 36

// CID is the opaque content identifier at the front of a frame.
//
// The decoder never computes or verifies it against the payload.
type CID [CIDLen]byte

// Bytes returns a copy of the identifier bytes.
func (c CID) Bytes() []byte {
	b := make([]byte, CIDLen)
	copy(b, c[:])
	return b
}

// Parse interprets the identifier as a binary CID.
func (c CID) Parse() (cid.Cid, error) {
	return cid.Cast(c[:])
}

// String returns the multibase form when the bytes parse as a CID and a
// 0x-prefixed hex dump otherwise.
func (c CID) String() string {
	if id, err := c.Parse(); err == nil {
		return id.String()
	}
	return "0x" + hex.EncodeToString(c[:])
}

// Block is one content identifier and payload recovered from a frame.
//
// Data is owned by the Block; the decoder keeps no reference to it.
type Block struct {
	CID  CID
	Data []byte
}

// FrameLen returns the number of archive bytes the block occupied,
// including its length prefix.
func (b Block) FrameLen() int {
	body := CIDLen + len(b.Data)
	return EncodedLen(uint64(body)) + body
}
