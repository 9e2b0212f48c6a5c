package storage

import (
	"errors"
	"testing"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	if err := db.Put([]byte("fund/a"), []byte{1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := db.Put([]byte("fund/b"), []byte{2}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := db.Put([]byte("registry/a"), []byte{3}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := db.Get([]byte("fund/a"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("unexpected value: %v", got)
	}

	keys, err := db.Keys([]byte("fund/"))
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || string(keys[0]) != "fund/a" || string(keys[1]) != "fund/b" {
		t.Fatalf("unexpected keys: %q", keys)
	}

	if err := db.Delete([]byte("fund/a")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get([]byte("fund/a")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	ok, err := db.Has([]byte("fund/b"))
	if err != nil || !ok {
		t.Fatalf("expected fund/b present, ok=%v err=%v", ok, err)
	}
}
