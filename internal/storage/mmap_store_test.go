package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"microsim-matcher/internal/types"
)

func TestMmapVectorStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")

	store, err := OpenMmapVectorStore(path, 3)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	// Enough rows to force at least one resize.
	for i := 0; i < initialRows+10; i++ {
		row, err := store.Append(types.Vector{float32(i), -float32(i), 0.5})
		if err != nil {
			t.Fatalf("Failed to append row %d: %v", i, err)
		}
		if row != uint64(i) {
			t.Fatalf("Expected row %d, got %d", i, row)
		}
	}
	if count := store.Count(); count != initialRows+10 {
		t.Errorf("Expected count %d, got %d", initialRows+10, count)
	}

	v, err := store.Get(initialRows + 5)
	if err != nil {
		t.Fatalf("Failed to get row: %v", err)
	}
	if v[0] != float32(initialRows+5) || v[1] != -float32(initialRows+5) || v[2] != 0.5 {
		t.Errorf("Row mismatch: %v", v)
	}
	if _, err := store.Get(initialRows + 10); err == nil {
		t.Errorf("Expected out of bounds error")
	}
	_ = store.Close()

	// Reopen without stating the dimension.
	store2, err := OpenMmapVectorStore(path, 0)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer store2.Close()

	if store2.Dim() != 3 {
		t.Errorf("Reopened dim mismatch. Expected 3, got %d", store2.Dim())
	}
	if count := store2.Count(); count != initialRows+10 {
		t.Errorf("Reopened count mismatch. Expected %d, got %d", initialRows+10, count)
	}
	v2, err := store2.Get(1)
	if err != nil {
		t.Fatalf("Failed to get row after reopen: %v", err)
	}
	if v2[0] != 1 || v2[1] != -1 {
		t.Errorf("Row mismatch after reopen: %v", v2)
	}
}

func TestMmapVectorStore_DimMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")

	store, err := OpenMmapVectorStore(path, 2)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if _, err := store.Append(types.Vector{1, 2, 3}); !errors.Is(err, ErrVectorDimension) {
		t.Errorf("Expected dimension error on append, got %v", err)
	}
	if _, err := store.Append(types.Vector{1, 2}); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	_ = store.Close()

	if _, err := OpenMmapVectorStore(path, 3); !errors.Is(err, ErrVectorDimension) {
		t.Fatalf("Expected dimension error on reopen, got %v", err)
	}
}

func TestMmapVectorStore_BadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")
	if err := os.WriteFile(path, make([]byte, HeaderSize+16), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenMmapVectorStore(path, 0); err == nil {
		t.Fatalf("Expected magic mismatch error")
	}
}
