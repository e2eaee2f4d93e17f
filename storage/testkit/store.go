package testkit

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/carstream/cidutil"
	"xdao.co/carstream/storage"
)

// NewStore constructs a fresh, empty Store instance for a test.
// The returned Store MUST be isolated from other tests.
type NewStore func(t *testing.T) storage.Store

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := []byte{0xa2, 0x61, 0x61, 0x01, 0x61, 0x62, 0x02}
		id := cidutil.DagCBORSHA256(want)

		if err := s.Put(id, want); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		s := newStore(t)
		b := []byte("same bytes")
		id := cidutil.DagCBORSHA256(b)

		if err := s.Put(id, b); err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		if err := s.Put(id, b); err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
	})

	t.Run("RejectMutation", func(t *testing.T) {
		s := newStore(t)
		id := cidutil.DagCBORSHA256([]byte("original"))
		if err := s.Put(id, []byte("original")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := s.Put(id, []byte("different")); err != storage.ErrImmutable {
			t.Fatalf("Put different bytes: got %v want ErrImmutable", err)
		}
		got, err := s.Get(id)
		if err != nil || string(got) != "original" {
			t.Fatalf("Get after rejected Put: got %q, %v", got, err)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		s := newStore(t)
		b := []byte("missing")
		id := cidutil.DagCBORSHA256(b)

		if s.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		_, err := s.Get(id)
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if err := s.Put(id, b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !s.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		s := newStore(t)
		var undef cid.Cid
		if s.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := s.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
		if err := s.Put(undef, []byte("x")); err == nil {
			t.Fatalf("Put should fail for undefined CID")
		}
	})
}
