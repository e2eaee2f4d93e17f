package storage

import (
	"github.com/ipfs/go-cid"

	"xdao.co/carstream/car"
)

// Store is a minimal block store keyed by the identifier an archive names
// each block with.
//
// Contract:
// - Put MUST be idempotent for identical bytes.
// - Stored blocks MUST be immutable: a second Put of different bytes under
// the same CID returns ErrImmutable.
// - Get MUST return ErrNotFound when the CID is absent.
// - Stores do not hash payloads; the identifier is taken as given.
type Store interface {
	Put(id cid.Cid, data []byte) error
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// Sink returns a car block callback that writes every decoded block to s.
// Blocks whose identifier does not parse as a CID fail with ErrInvalidCID.
func Sink(s Store) func(car.Block) error {
	return func(b car.Block) error {
		id, err := b.CID.Parse()
		if err != nil || !id.Defined() {
			return ErrInvalidCID
		}
		return s.Put(id, b.Data)
	}
}
