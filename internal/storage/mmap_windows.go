//go:build windows

package storage

import (
	"fmt"
	"syscall"
	"unsafe"
)

// mmap maps exactly size bytes. The mapping object is sized explicitly so
// a view created after the file grows covers the new rows.
func (s *MmapVectorStore) mmap(size int64) error {
	if size <= 0 {
		return fmt.Errorf("mmap %s: invalid size %d", s.filename, size)
	}

	h, err := syscall.CreateFileMapping(
		syscall.Handle(s.file.Fd()),
		nil,
		syscall.PAGE_READWRITE,
		uint32(uint64(size)>>32),
		uint32(uint64(size)&0xffffffff),
		nil,
	)
	if err != nil {
		return fmt.Errorf("CreateFileMapping %s: %w", s.filename, err)
	}
	s.mapHandle = uintptr(h)

	addr, err := syscall.MapViewOfFile(h, syscall.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		_ = syscall.CloseHandle(h)
		s.mapHandle = 0
		return fmt.Errorf("MapViewOfFile %s: %w", s.filename, err)
	}

	s.viewHandle = addr
	s.mapped = unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size))
	return nil
}

func (s *MmapVectorStore) munmap() error {
	if s.viewHandle != 0 {
		_ = syscall.UnmapViewOfFile(s.viewHandle)
		s.viewHandle = 0
	}
	if s.mapHandle != 0 {
		_ = syscall.CloseHandle(syscall.Handle(s.mapHandle))
		s.mapHandle = 0
	}
	s.mapped = nil
	return nil
}
