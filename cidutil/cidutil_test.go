package cidutil

import (
	"testing"

	"github.com/ipfs/go-cid"
)

func TestDagCBORSHA256_Is36Bytes(t *testing.T) {
	id := DagCBORSHA256([]byte{0xa1, 0x61, 0x61, 0x01})
	if !id.Defined() {
		t.Fatalf("expected defined CID")
	}
	if got := len(id.Bytes()); got != 36 {
		t.Fatalf("CID length: got %d want 36", got)
	}
	if id.Type() != cid.DagCBOR {
		t.Fatalf("codec: got %x want dag-cbor", id.Type())
	}
}

func TestDagCBORSHA256_Deterministic(t *testing.T) {
	a := DagCBORSHA256([]byte("same"))
	b := DagCBORSHA256([]byte("same"))
	if !a.Equals(b) {
		t.Fatalf("expected equal CIDs: %s vs %s", a, b)
	}
	if c := DagCBORSHA256([]byte("other")); a.Equals(c) {
		t.Fatalf("expected distinct CIDs for distinct payloads")
	}
}

func TestDescribe(t *testing.T) {
	codec, hash := Describe(DagCBORSHA256([]byte("x")))
	if codec != "dag-cbor" || hash != "sha2-256" {
		t.Fatalf("Describe: got (%q, %q)", codec, hash)
	}
	raw, err := CIDv1RawSHA256CID([]byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if codec, _ := Describe(raw); codec != "raw" {
		t.Fatalf("Describe raw: got %q", codec)
	}
	if codec, hash := Describe(cid.Undef); codec != "" || hash != "" {
		t.Fatalf("Describe undef: got (%q, %q)", codec, hash)
	}
}
