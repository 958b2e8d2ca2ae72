package patch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/coreman2200/lightdimmer/internal/color"
)

// SlotSize is the number of bytes one patch occupies in storage (R, G, B, M).
const SlotSize = 4

var ErrSlotOutOfRange = errors.New("patch slot out of range")

// Storage persists patch slots. Implementations must survive power cycles;
// each Save is assumed atomic.
type Storage interface {
	Load(slot int) (color.Sample, error)
	Save(slot int, c color.Sample) error
}

// Address maps a slot to its byte offset in a storage region that starts at
// base. Slots outside [0, Slots) are rejected.
func Address(base int64, slot int) (int64, error) {
	if slot < 0 || slot >= Slots {
		return 0, fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	return base + int64(slot)*SlotSize, nil
}

// MemStorage keeps the slots in memory. Useful for tests and the simulator.
type MemStorage struct {
	mu    sync.Mutex
	slots [Slots]color.Sample
	// Writes counts successful Save calls.
	Writes int
}

func NewMemStorage(init ...color.Sample) *MemStorage {
	m := &MemStorage{}
	copy(m.slots[:], init)
	return m
}

func (m *MemStorage) Load(slot int) (color.Sample, error) {
	if _, err := Address(0, slot); err != nil {
		return color.Sample{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[slot], nil
}

func (m *MemStorage) Save(slot int, c color.Sample) error {
	if _, err := Address(0, slot); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = c
	m.Writes++
	return nil
}

// FileStorage emulates an EEPROM region inside a file: Slots consecutive
// 4-byte records starting at Base. Bytes past the end of the file read as
// zero, so a fresh image boots with all patches dark.
type FileStorage struct {
	mu   sync.Mutex
	path string
	base int64
}

func NewFileStorage(path string, base int64) (*FileStorage, error) {
	if base < 0 {
		return nil, fmt.Errorf("negative base address %d", base)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open patch image: %w", err)
	}
	return &FileStorage{path: path, base: base}, f.Close()
}

func (s *FileStorage) Path() string { return s.path }

func (s *FileStorage) Load(slot int) (color.Sample, error) {
	off, err := Address(s.base, slot)
	if err != nil {
		return color.Sample{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return color.Sample{}, fmt.Errorf("open patch image: %w", err)
	}
	defer f.Close()

	buf := make([]byte, SlotSize)
	n, err := f.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return color.Sample{}, fmt.Errorf("read slot %d: %w", slot, err)
	}
	return color.Deserialize(buf[:n]), nil
}

func (s *FileStorage) Save(slot int, c color.Sample) error {
	off, err := Address(s.base, slot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("open patch image: %w", err)
	}
	if _, err := f.WriteAt(c.Serialize(), off); err != nil {
		_ = f.Close()
		return fmt.Errorf("write slot %d: %w", slot, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync patch image: %w", err)
	}
	return f.Close()
}
