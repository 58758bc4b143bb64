package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"microsim-matcher/internal/types"
)

const (
	vectorSize = 4 // float32

	// File header:
	//   0..7   magic "SIMVEC01"
	//   8..15  dim (uint64)
	//   16..23 count (uint64)
	HeaderSize = 24

	initialRows = 256
)

var fileMagic = [8]byte{'S', 'I', 'M', 'V', 'E', 'C', '0', '1'}

// ErrVectorDimension is returned when a vector or file dimension differs
// from the store's dimension.
var ErrVectorDimension = errors.New("vector dimension mismatch")

// MmapVectorStore keeps the embedding matrix in a memory-mapped file so a
// snapshot can be reopened without re-parsing JSON.
type MmapVectorStore struct {
	filename   string
	file       *os.File
	mu         sync.RWMutex
	mapped     []byte
	dim        int
	count      uint64
	mapHandle  uintptr // windows only
	viewHandle uintptr // windows only
}

// OpenMmapVectorStore opens or creates a vector file. For a new file dim
// must be positive; for an existing file dim may be 0 to accept whatever
// dimension the header records, otherwise it must match.
func OpenMmapVectorStore(filename string, dim int) (*MmapVectorStore, error) {
	if dim < 0 {
		return nil, fmt.Errorf("invalid dim: %d", dim)
	}
	f, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open vector file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	store := &MmapVectorStore{filename: filename, file: f, dim: dim}
	if info.Size() == 0 {
		if dim == 0 {
			_ = f.Close()
			return nil, fmt.Errorf("new vector file %s needs a dimension", filename)
		}
		if err := store.initNew(); err != nil {
			_ = f.Close()
			return nil, err
		}
		return store, nil
	}

	if err := store.remap(); err != nil {
		_ = f.Close()
		return nil, err
	}
	onDiskDim, onDiskCount, err := store.readHeader()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if dim != 0 && int(onDiskDim) != dim {
		_ = store.Close()
		return nil, fmt.Errorf("%w: %s has dim=%d, requested %d", ErrVectorDimension, filename, onDiskDim, dim)
	}
	store.dim = int(onDiskDim)
	store.count = onDiskCount
	if need := int64(HeaderSize) + int64(onDiskCount)*int64(store.dim*vectorSize); need > int64(len(store.mapped)) {
		_ = store.Close()
		return nil, fmt.Errorf("vector file %s truncated: header claims %d rows", filename, onDiskCount)
	}
	return store, nil
}

func (s *MmapVectorStore) initNew() error {
	if err := s.resize(int64(HeaderSize + initialRows*s.dim*vectorSize)); err != nil {
		return err
	}
	if err := s.remap(); err != nil {
		return err
	}
	s.count = 0
	s.writeHeader()
	return nil
}

func (s *MmapVectorStore) readHeader() (dim uint64, count uint64, err error) {
	if len(s.mapped) < HeaderSize {
		return 0, 0, fmt.Errorf("vector file too small for header: %d < %d", len(s.mapped), HeaderSize)
	}
	var mg [8]byte
	copy(mg[:], s.mapped[:8])
	if mg != fileMagic {
		return 0, 0, fmt.Errorf("%s is not a vector file (magic mismatch)", s.filename)
	}
	dim = binary.LittleEndian.Uint64(s.mapped[8:16])
	count = binary.LittleEndian.Uint64(s.mapped[16:24])
	if dim == 0 {
		return 0, 0, fmt.Errorf("%s: header has dim=0", s.filename)
	}
	return dim, count, nil
}

func (s *MmapVectorStore) writeHeader() {
	copy(s.mapped[:8], fileMagic[:])
	binary.LittleEndian.PutUint64(s.mapped[8:16], uint64(s.dim))
	binary.LittleEndian.PutUint64(s.mapped[16:24], s.count)
}

func (s *MmapVectorStore) resize(newSize int64) error {
	if err := s.munmap(); err != nil {
		return err
	}
	return s.file.Truncate(newSize)
}

func (s *MmapVectorStore) remap() error {
	if err := s.munmap(); err != nil {
		return err
	}
	fi, err := s.file.Stat()
	if err != nil {
		return err
	}
	if fi.Size() == 0 {
		return nil
	}
	return s.mmap(fi.Size())
}

func (s *MmapVectorStore) Append(vector types.Vector) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(vector) != s.dim {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrVectorDimension, s.dim, len(vector))
	}

	required := int64(HeaderSize + (int(s.count)+1)*s.dim*vectorSize)
	if required > int64(len(s.mapped)) {
		// Grow by half again, or to the required size if that is larger.
		newSize := int64(len(s.mapped)) + int64(len(s.mapped))/2
		if newSize < required {
			newSize = required
		}
		if err := s.resize(newSize); err != nil {
			return 0, fmt.Errorf("resize failed: %w", err)
		}
		if err := s.remap(); err != nil {
			return 0, fmt.Errorf("remap failed: %w", err)
		}
	}

	offset := HeaderSize + int(s.count)*s.dim*vectorSize
	for i, v := range vector {
		binary.LittleEndian.PutUint32(s.mapped[offset+i*vectorSize:], math.Float32bits(v))
	}
	s.count++
	s.writeHeader()
	return s.count - 1, nil
}

func (s *MmapVectorStore) Get(row uint64) (types.Vector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if row >= s.count {
		return nil, fmt.Errorf("row out of bounds: %d >= %d", row, s.count)
	}
	offset := HeaderSize + int(row)*s.dim*vectorSize
	vec := make(types.Vector, s.dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(s.mapped[offset+i*vectorSize:]))
	}
	return vec, nil
}

func (s *MmapVectorStore) Count() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

func (s *MmapVectorStore) Dim() int {
	return s.dim
}

func (s *MmapVectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.munmap()
	return s.file.Close()
}
