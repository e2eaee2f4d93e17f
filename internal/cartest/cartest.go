// Package cartest builds CAR v1 archives for tests.
package cartest

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"

	"xdao.co/carstream/cidutil"
)

// Builder accumulates an archive in memory.
type Builder struct {
	buf bytes.Buffer
}

type header struct {
	Version uint64     `cbor:"version"`
	Roots   []cbor.Tag `cbor:"roots"`
}

// New returns a Builder whose archive starts with a CBOR v1 header naming roots.
func New(roots ...cid.Cid) *Builder {
	h := header{Version: 1, Roots: make([]cbor.Tag, 0, len(roots))}
	for _, r := range roots {
		h.Roots = append(h.Roots, cbor.Tag{Number: 42, Content: append([]byte{0x00}, r.Bytes()...)})
	}
	b, err := cbor.Marshal(h)
	if err != nil {
		panic(fmt.Sprintf("cartest: marshal header: %v", err))
	}
	return NewRaw(b)
}

// NewRaw returns a Builder whose archive starts with the given header bytes.
// An empty header produces the single byte 0x00.
func NewRaw(headerBytes []byte) *Builder {
	b := &Builder{}
	b.buf.Write(varint.ToUvarint(uint64(len(headerBytes))))
	b.buf.Write(headerBytes)
	return b
}

// Frame appends a frame holding id and payload verbatim.
func (b *Builder) Frame(id []byte, payload []byte) *Builder {
	b.buf.Write(varint.ToUvarint(uint64(len(id) + len(payload))))
	b.buf.Write(id)
	b.buf.Write(payload)
	return b
}

// Block appends payload under its dag-cbor sha2-256 CID and returns the CID.
func (b *Builder) Block(payload []byte) cid.Cid {
	id := cidutil.DagCBORSHA256(payload)
	b.Frame(id.Bytes(), payload)
	return id
}

// Raw appends arbitrary bytes.
func (b *Builder) Raw(p []byte) *Builder {
	b.buf.Write(p)
	return b
}

// Bytes returns the archive built so far.
func (b *Builder) Bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}

// ID returns a 36-byte identifier filled with fill. It is not a valid CID.
func ID(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, 36)
}
