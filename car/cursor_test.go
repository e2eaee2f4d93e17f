package car

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

type zeroReader struct{}

func (zeroReader) Read([]byte) (int, error) { return 0, nil }

func TestReadExact_Exact(t *testing.T) {
	r := bytes.NewReader([]byte("abcdefgh"))
	got, err := ReadExact(r, 5)
	if err != nil {
		t.Fatalf("ReadExact: %v", err)
	}
	if string(got) != "abcde" {
		t.Fatalf("got %q", got)
	}
	rest, _ := io.ReadAll(r)
	if string(rest) != "fgh" {
		t.Fatalf("source not positioned after read: rest=%q", rest)
	}
}

func TestReadExact_AccumulatesShortReads(t *testing.T) {
	got, err := ReadExact(iotest.OneByteReader(bytes.NewReader([]byte("0123456789"))), 10)
	if err != nil {
		t.Fatalf("ReadExact: %v", err)
	}
	if string(got) != "0123456789" {
		t.Fatalf("got %q", got)
	}
}

func TestReadExact_DataWithEOF(t *testing.T) {
	got, err := ReadExact(iotest.DataErrReader(bytes.NewReader([]byte("xyz"))), 3)
	if err != nil {
		t.Fatalf("ReadExact: %v", err)
	}
	if string(got) != "xyz" {
		t.Fatalf("got %q", got)
	}
}

func TestReadExact_Zero(t *testing.T) {
	got, err := ReadExact(zeroReader{}, 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("ReadExact(0): got %q, %v", got, err)
	}
}

func TestReadExact_ShortStream(t *testing.T) {
	got, err := ReadExact(bytes.NewReader([]byte("ab")), 4)
	if got != nil {
		t.Fatalf("expected no buffer, got %q", got)
	}
	if !IsKind(err, KindStreamExhausted) {
		t.Fatalf("expected KindStreamExhausted, got %v", err)
	}
	if RuleID(err) != "CAR-STREAM-002" {
		t.Fatalf("RuleID: got %q", RuleID(err))
	}
}

func TestReadExact_ZeroByteRead(t *testing.T) {
	_, err := ReadExact(zeroReader{}, 1)
	if !IsKind(err, KindStreamExhausted) {
		t.Fatalf("expected KindStreamExhausted, got %v", err)
	}
	if RuleID(err) != "CAR-STREAM-003" {
		t.Fatalf("RuleID: got %q", RuleID(err))
	}
}

func TestReadExact_UnderlyingError(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := ReadExact(iotest.ErrReader(boom), 3)
	if !IsKind(err, KindStreamRead) {
		t.Fatalf("expected KindStreamRead, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestScanBytes(t *testing.T) {
	b, err := ScanBytes([]byte("hello"), 3)
	if err != nil || string(b) != "hel" {
		t.Fatalf("ScanBytes: got %q, %v", b, err)
	}
	_, err = ScanBytes([]byte("hi"), 3)
	if !IsKind(err, KindInsufficientData) {
		t.Fatalf("expected KindInsufficientData, got %v", err)
	}
}

func TestCursor_TracksOffset(t *testing.T) {
	c := NewCursor(bytes.NewReader([]byte{0x03, 'a', 'b', 'c', 'd', 'e'}))
	n := ReadVarint(c)
	if n.Value != 3 {
		t.Fatalf("varint: got %+v", n)
	}
	if _, err := c.ReadExact(int(n.Value)); err != nil {
		t.Fatalf("ReadExact: %v", err)
	}
	if err := c.Skip(1); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if c.Offset() != 5 {
		t.Fatalf("Offset: got %d want 5", c.Offset())
	}
	if err := c.Skip(2); !IsKind(err, KindStreamExhausted) {
		t.Fatalf("Skip past end: got %v", err)
	}
	if c.Offset() != 6 {
		t.Fatalf("Offset after short skip: got %d want 6", c.Offset())
	}
}

func TestCursor_RecordsReadFailure(t *testing.T) {
	boom := errors.New("timeout")
	c := NewCursor(iotest.ErrReader(boom))
	if v := ReadVarint(c); v.Valid() {
		t.Fatalf("expected invalid varint, got %+v", v)
	}
	if !IsKind(c.Err(), KindStreamRead) || !errors.Is(c.Err(), boom) {
		t.Fatalf("Err: got %v", c.Err())
	}
}
