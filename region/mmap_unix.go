//go:build unix

package region

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	natomic "github.com/natefinch/atomic"
	"golang.org/x/sys/unix"
)

// SharedRegion is a Region backed by a memory-mapped file, visible to any
// process that maps the same path. Callers own the file's lifetime; Close
// unmaps the region and closes the descriptor but does not remove the file.
type SharedRegion struct {
	*Region

	mapping []byte
	file    *os.File
}

// NewFileBacked opens or creates a file of exactly size bytes at path and
// maps it MAP_SHARED, PROT_READ|PROT_WRITE.
//
// If the file does not yet exist, it is materialized crash-safely via
// github.com/natefinch/atomic (temp file + rename), so that no concurrent
// opener ever observes a partially sized file.
//
// If the file exists, its size must already equal size; a mismatch is
// reported as ErrInvalidArgument, since a region never resizes after
// construction.
func NewFileBacked(path string, size int, order binary.ByteOrder) (*SharedRegion, error) {
	if size < 1 {
		return nil, fmt.Errorf("region: size must be >= 1: %w", ErrInvalidArgument)
	}

	info, statErr := os.Stat(path)

	switch {
	case statErr == nil:
		if info.Size() != int64(size) {
			return nil, fmt.Errorf("region: existing file %s has size %d, expected %d: %w", path, info.Size(), size, ErrInvalidArgument)
		}
	case os.IsNotExist(statErr):
		if err := natomic.WriteFile(path, bytes.NewReader(make([]byte, size))); err != nil {
			return nil, fmt.Errorf("region: materialize %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("region: stat %s: %w", path, statErr)
	}

	file, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("region: open %s: %w", path, err)
	}

	mapping, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("region: mmap %s: %w", path, err)
	}

	reg, err := New(mapping, order)
	if err != nil {
		_ = unix.Munmap(mapping)
		_ = file.Close()

		return nil, err
	}

	return &SharedRegion{Region: reg, mapping: mapping, file: file}, nil
}

// NewAnonymousShared creates a MAP_ANON|MAP_SHARED mapping of the given
// size, not backed by any path. Inherited across fork() the same way any
// anonymous shared mapping is; the common use within a single process is
// testing multi-goroutine access against the exact same code path a
// file-backed, cross-process region would take.
func NewAnonymousShared(size int, order binary.ByteOrder) (*SharedRegion, error) {
	if size < 1 {
		return nil, fmt.Errorf("region: size must be >= 1: %w", ErrInvalidArgument)
	}

	mapping, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("region: anonymous mmap: %w", err)
	}

	reg, err := New(mapping, order)
	if err != nil {
		_ = unix.Munmap(mapping)

		return nil, err
	}

	return &SharedRegion{Region: reg, mapping: mapping}, nil
}

// Sync flushes the mapping's dirty pages to the backing file (a no-op for
// anonymous mappings, which have none).
func (s *SharedRegion) Sync() error {
	if s.file == nil {
		return nil
	}

	return unix.Msync(s.mapping, unix.MS_SYNC)
}

// Close unmaps the region and, for file-backed regions, closes the
// descriptor. The backing file itself is left on disk. Idempotent.
func (s *SharedRegion) Close() error {
	if s.mapping == nil {
		return nil
	}

	err := unix.Munmap(s.mapping)
	s.mapping = nil

	if s.file != nil {
		if closeErr := s.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}

		s.file = nil
	}

	return err
}
