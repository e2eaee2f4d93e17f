package car

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_KindSurvivesWrapping(t *testing.T) {
	cause := errors.New("eof on socket")
	err := fmt.Errorf("sync repo: %w", wrapError(KindStreamRead, "CAR-STREAM-001", "car: stream read failed", cause))

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *car.Error, got %T", err)
	}
	if e.Kind != KindStreamRead || RuleID(err) != "CAR-STREAM-001" {
		t.Fatalf("got kind=%s rule=%s", e.Kind, RuleID(err))
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if IsKind(err, KindMalformedFrame) {
		t.Fatalf("unexpected kind match")
	}
}

func TestError_NoStructure(t *testing.T) {
	err := errors.New("plain")
	if IsKind(err, KindStreamRead) || RuleID(err) != "" {
		t.Fatalf("plain errors carry no kind")
	}
	if wrapError(KindInvalidVarint, "CAR-VARINT-001", "m", nil).(*Error).Cause != nil {
		t.Fatalf("nil cause should not be wrapped")
	}
}
