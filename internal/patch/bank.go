// Package patch holds the ten operator patches and their persistence.
package patch

import (
	"errors"
	"fmt"

	"github.com/coreman2200/lightdimmer/internal/color"
)

// Slots is the number of patches in a bank.
const Slots = 10

var ErrInvalidNavigation = errors.New("patch cursor already at the end of the bank")

// Direction of a cursor move.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Previous:
		return "previous"
	case Next:
		return "next"
	default:
		return "unknown"
	}
}

// Bank is the in-memory copy of all patches plus the selection cursor.
type Bank struct {
	slots   [Slots]color.Sample
	cursor  int
	storage Storage
}

// NewBank creates an empty bank backed by s. Call LoadAll to restore it.
func NewBank(s Storage) *Bank {
	return &Bank{storage: s}
}

// LoadAll restores every slot from storage and resets the cursor to 0. On
// error the bank is left as it was.
func (b *Bank) LoadAll() error {
	var slots [Slots]color.Sample
	for i := range slots {
		c, err := b.storage.Load(i)
		if err != nil {
			return fmt.Errorf("load patch %d: %w", i, err)
		}
		slots[i] = c
	}
	b.slots = slots
	b.cursor = 0
	return nil
}

// Select moves the cursor by one slot. At either end the cursor stays put
// and ErrInvalidNavigation is returned.
func (b *Bank) Select(dir Direction) (int, error) {
	next := b.cursor + int(dir)
	if dir != Next && dir != Previous || next < 0 || next >= Slots {
		return b.cursor, ErrInvalidNavigation
	}
	b.cursor = next
	return b.cursor, nil
}

// SaveCurrent stores c in the slot under the cursor, in memory and in
// storage. The in-memory copy is updated even if the storage write fails.
func (b *Bank) SaveCurrent(c color.Sample) error {
	b.slots[b.cursor] = c
	if err := b.storage.Save(b.cursor, c); err != nil {
		return fmt.Errorf("save patch %d: %w", b.cursor, err)
	}
	return nil
}

// Current returns the slot under the cursor.
func (b *Bank) Current() color.Sample { return b.slots[b.cursor] }

// Cursor returns the selected slot index.
func (b *Bank) Cursor() int { return b.cursor }

// Slots returns a copy of all slots.
func (b *Bank) Slots() [Slots]color.Sample { return b.slots }
