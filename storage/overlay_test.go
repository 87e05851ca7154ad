package storage

import (
	"errors"
	"testing"
)

func TestOverlayBuffersUntilFlush(t *testing.T) {
	base := NewMemDB()
	overlay := NewOverlay(base)

	if err := overlay.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := overlay.Get([]byte("k"))
	if err != nil {
		t.Fatalf("overlay get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("overlay get: %q", got)
	}

	if _, err := base.Get([]byte("k")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("write leaked to base before flush: %v", err)
	}

	if err := overlay.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	got, err = base.Get([]byte("k"))
	if err != nil {
		t.Fatalf("base get after flush: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("base get after flush: %q", got)
	}
}

func TestOverlayCloseDiscards(t *testing.T) {
	base := NewMemDB()
	if err := base.Put([]byte("kept"), []byte("1")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	overlay := NewOverlay(base)
	_ = overlay.Put([]byte("new"), []byte("2"))
	_ = overlay.Delete([]byte("kept"))
	overlay.Close()

	if _, err := base.Get([]byte("new")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("discarded write reached base: %v", err)
	}
	got, err := base.Get([]byte("kept"))
	if err != nil {
		t.Fatalf("base get: %v", err)
	}
	if string(got) != "1" {
		t.Fatalf("discarded delete reached base: %q", got)
	}
}

func TestOverlayDeleteShadowsBase(t *testing.T) {
	base := NewMemDB()
	if err := base.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	overlay := NewOverlay(base)
	if err := overlay.Delete([]byte("k")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := overlay.Get([]byte("k")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("deleted key still visible: %v", err)
	}

	// Re-putting after a delete restores visibility.
	if err := overlay.Put([]byte("k"), []byte("v2")); err != nil {
		t.Fatalf("re-put: %v", err)
	}
	got, err := overlay.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get after re-put: %v", err)
	}
	if string(got) != "v2" {
		t.Fatalf("get after re-put: %q", got)
	}

	if err := overlay.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	got, err = base.Get([]byte("k"))
	if err != nil {
		t.Fatalf("base get: %v", err)
	}
	if string(got) != "v2" {
		t.Fatalf("base get: %q", got)
	}
}

func TestOverlayFallsThroughToBase(t *testing.T) {
	base := NewMemDB()
	if err := base.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	overlay := NewOverlay(base)
	got, err := overlay.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("get: %q", got)
	}
}

func TestMemDBDefensiveCopies(t *testing.T) {
	db := NewMemDB()
	value := []byte("abc")
	if err := db.Put([]byte("k"), value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 'z'

	got, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
}
