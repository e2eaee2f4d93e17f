package car

import (
	"bytes"
	"errors"
	"testing"

	"xdao.co/carstream/internal/cartest"
)

func TestReadFrame_SplitsIdentifierAndPayload(t *testing.T) {
	b := cartest.NewRaw(nil).Frame(cartest.ID(0x11), []byte("payload"))
	c := NewCursor(bytes.NewReader(b.Bytes()[1:]))
	blk, err := ReadFrame(c, 0)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(blk.CID[:], cartest.ID(0x11)) {
		t.Fatalf("CID mismatch: %x", blk.CID)
	}
	if string(blk.Data) != "payload" {
		t.Fatalf("payload: got %q", blk.Data)
	}
	if _, err := ReadFrame(c, 0); !errors.Is(err, ErrEndOfFrames) {
		t.Fatalf("expected ErrEndOfFrames, got %v", err)
	}
}

func TestReadFrame_EmptyPayload(t *testing.T) {
	b := cartest.NewRaw(nil).Frame(cartest.ID(0x22), nil)
	blk, err := ReadFrame(NewCursor(bytes.NewReader(b.Bytes()[1:])), 0)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if len(blk.Data) != 0 {
		t.Fatalf("expected empty payload, got %q", blk.Data)
	}
}

func TestReadFrame_ShorterThanCID(t *testing.T) {
	frame := append([]byte{10}, bytes.Repeat([]byte{0xaa}, 10)...)
	_, err := ReadFrame(NewCursor(bytes.NewReader(frame)), 0)
	if !IsKind(err, KindMalformedFrame) {
		t.Fatalf("expected KindMalformedFrame, got %v", err)
	}
	if RuleID(err) != "CAR-FRAME-001" {
		t.Fatalf("RuleID: got %q", RuleID(err))
	}
}

func TestReadFrame_ExceedsLimit(t *testing.T) {
	b := cartest.NewRaw(nil).Frame(cartest.ID(0x33), make([]byte, 100))
	_, err := ReadFrame(NewCursor(bytes.NewReader(b.Bytes()[1:])), 64)
	if RuleID(err) != "CAR-FRAME-002" {
		t.Fatalf("expected CAR-FRAME-002, got %v", err)
	}
}

func TestReadFrame_TruncatedBody(t *testing.T) {
	b := cartest.NewRaw(nil).Frame(cartest.ID(0x44), []byte("abcdef")).Bytes()
	_, err := ReadFrame(NewCursor(bytes.NewReader(b[1:len(b)-2])), 0)
	if !IsKind(err, KindStreamExhausted) {
		t.Fatalf("expected KindStreamExhausted, got %v", err)
	}
}

func TestBlock_FrameLen(t *testing.T) {
	blk := Block{Data: make([]byte, 200)}
	if got := blk.FrameLen(); got != 2+CIDLen+200 {
		t.Fatalf("FrameLen: got %d", got)
	}
}

func TestCID_String(t *testing.T) {
	var opaque CID
	copy(opaque[:], cartest.ID(0xff))
	if s := opaque.String(); s[:2] != "0x" {
		t.Fatalf("expected hex form for unparseable CID, got %q", s)
	}

	b := cartest.NewRaw(nil)
	id := b.Block([]byte{0xa0})
	var parsed CID
	copy(parsed[:], id.Bytes())
	if parsed.String() != id.String() {
		t.Fatalf("String: got %q want %q", parsed.String(), id.String())
	}
	got, err := parsed.Parse()
	if err != nil || !got.Equals(id) {
		t.Fatalf("Parse: got %v, %v", got, err)
	}
}

func TestReadFrame_TruncatedLength(t *testing.T) {
	_, err := ReadFrame(NewCursor(bytes.NewReader([]byte{0x80})), 0)
	if !IsKind(err, KindInvalidVarint) {
		t.Fatalf("expected KindInvalidVarint, got %v", err)
	}
}
