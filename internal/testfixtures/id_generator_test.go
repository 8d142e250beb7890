package testfixtures

import "testing"

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("session")

	if got := gen.Next(); got != "session-1" {
		t.Fatalf("expected session-1, got %s", got)
	}
	if got := gen.Next(); got != "session-2" {
		t.Fatalf("expected session-2, got %s", got)
	}

	gen.SetCounter(41)
	if got := gen.Next(); got != "session-42" {
		t.Fatalf("expected session-42, got %s", got)
	}
}

func TestIDGeneratorDefaultsPrefix(t *testing.T) {
	gen := NewIDGenerator("")
	if got := gen.Next(); got != "id-1" {
		t.Fatalf("expected id-1, got %s", got)
	}
}

func TestNilIDGeneratorNextFunc(t *testing.T) {
	var gen *IDGenerator
	if got := gen.NextFunc()(); got != "" {
		t.Fatalf("expected empty identifier, got %s", got)
	}
}
