package datastore

import (
	"path/filepath"
	"testing"
)

func TestAddGetDelete(t *testing.T) {
	ds, err := New(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer ds.Close()

	ds.Add("alpha", map[string]any{"n": 1})

	if _, ok := ds.Get("alpha"); !ok {
		t.Error("Get(alpha) missing after Add")
	}
	if _, ok := ds.Get("beta"); ok {
		t.Error("Get(beta) found a key that was never added")
	}

	ds.Delete("alpha")
	if _, ok := ds.Get("alpha"); ok {
		t.Error("Get(alpha) found a deleted key")
	}
}

func TestKeysAreSorted(t *testing.T) {
	ds, err := New(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer ds.Close()

	for _, k := range []string{"c", "a", "b"} {
		ds.Add(k, k)
	}

	keys := ds.Keys()
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("Keys() = %v, want [a b c]", keys)
	}
}

func TestDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	ds, err := New(path)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	ds.Add("greeting", "hello")
	if err := ds.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	ds, err = New(path)
	if err != nil {
		t.Fatalf("reopen = %v", err)
	}
	defer ds.Close()

	v, ok := ds.Get("greeting")
	if !ok || v != "hello" {
		t.Errorf("Get(greeting) = %v, %v; want hello, true", v, ok)
	}
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	ds, err := New(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := ds.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	ds.Add("after", "close")
	if _, ok := ds.Get("after"); ok {
		t.Error("a closed store accepted a write")
	}
	if err := ds.SaveToFile(); err == nil {
		t.Error("SaveToFile() on a closed store = nil, want error")
	}
	if err := ds.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
}
