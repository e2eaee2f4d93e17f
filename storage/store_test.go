package storage_test

import (
	"bytes"
	"context"
	"testing"

	"xdao.co/carstream/car"
	"xdao.co/carstream/internal/cartest"
	"xdao.co/carstream/storage"
	"xdao.co/carstream/storage/testkit"
)

func TestMemoryStore_Conformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) storage.Store {
		return storage.NewMemoryStore()
	})
}

func TestSink_StoresDecodedBlocks(t *testing.T) {
	b := cartest.New()
	id1 := b.Block([]byte{0xa1, 0x61, 0x6e, 0x01})
	id2 := b.Block([]byte{0xa1, 0x61, 0x6e, 0x02})

	s := storage.NewMemoryStore()
	if err := car.Decode(context.Background(), bytes.NewReader(b.Bytes()), storage.Sink(s)); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Len() != 2 || !s.Has(id1) || !s.Has(id2) {
		t.Fatalf("expected both blocks stored, have %d", s.Len())
	}
}

func TestSink_RejectsOpaqueIdentifier(t *testing.T) {
	in := cartest.NewRaw(nil).Frame(cartest.ID(0xff), []byte("x")).Bytes()
	s := storage.NewMemoryStore()
	err := car.Decode(context.Background(), bytes.NewReader(in), storage.Sink(s))
	if err != storage.ErrInvalidCID {
		t.Fatalf("expected ErrInvalidCID, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected nothing stored")
	}
}
