package domain

import (
	"encoding/json"
	"testing"
)

func TestStringList_EmptyStoredAsNull(t *testing.T) {
	v, err := StringList(nil).Value()
	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}
	if v != nil {
		t.Fatalf("expected nil driver value, got %#v", v)
	}
}

func TestStringList_ScanAcceptsStringAndBytes(t *testing.T) {
	var fromString StringList
	if err := fromString.Scan(`["a","b"]`); err != nil {
		t.Fatalf("Scan(string) returned error: %v", err)
	}
	if len(fromString) != 2 || fromString[1] != "b" {
		t.Fatalf("unexpected list %v", fromString)
	}

	var fromBytes StringList
	if err := fromBytes.Scan([]byte(`["https://example.com/a.jpg"]`)); err != nil {
		t.Fatalf("Scan([]byte) returned error: %v", err)
	}
	if len(fromBytes) != 1 {
		t.Fatalf("expected 1 url, got %d", len(fromBytes))
	}

	var fromNil StringList
	if err := fromNil.Scan(nil); err != nil || fromNil != nil {
		t.Fatalf("expected nil list without error, got %v / %v", fromNil, err)
	}
}

func TestJSONMap_ScanRejectsGarbage(t *testing.T) {
	var m JSONMap
	if err := m.Scan("not-json"); err == nil {
		t.Fatalf("expected decode error, got nil")
	}
}

func TestStringList_MarshalNilAsEmptyArray(t *testing.T) {
	var l StringList
	b, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "[]" {
		t.Errorf("expected [], got %s", b)
	}
}
