package block

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BoundarySlot is the slot value reserved for epoch boundary blocks.
const BoundarySlot uint64 = math.MaxUint64

// Date locates a block in time: an epoch and a slot within it.
// Boundary blocks open each epoch and sort before slot 0.
type Date struct {
	Epoch uint64 `json:"epoch" yaml:"epoch"`
	Slot  uint64 `json:"slot" yaml:"slot"`
}

// BoundaryDate returns the date of the boundary block of epoch.
func BoundaryDate(epoch uint64) Date {
	return Date{Epoch: epoch, Slot: BoundarySlot}
}

// IsBoundary reports whether d is an epoch boundary date.
func (d Date) IsBoundary() bool {
	return d.Slot == BoundarySlot
}

// Compare orders dates: -1 if d < o, 0 if equal, +1 if d > o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Epoch < o.Epoch:
		return -1
	case d.Epoch > o.Epoch:
		return 1
	case d == o:
		return 0
	case d.IsBoundary():
		return -1
	case o.IsBoundary():
		return 1
	case d.Slot < o.Slot:
		return -1
	default:
		return 1
	}
}

// String returns "epoch.slot", or "epoch.boundary".
func (d Date) String() string {
	if d.IsBoundary() {
		return fmt.Sprintf("%d.boundary", d.Epoch)
	}
	return fmt.Sprintf("%d.%d", d.Epoch, d.Slot)
}

// ParseDate parses the String form.
func ParseDate(s string) (Date, error) {
	e, sl, ok := strings.Cut(s, ".")
	if !ok {
		return Date{}, fmt.Errorf("invalid block date %q", s)
	}
	epoch, err := strconv.ParseUint(e, 10, 64)
	if err != nil {
		return Date{}, fmt.Errorf("invalid epoch in %q: %w", s, err)
	}
	if sl == "boundary" {
		return BoundaryDate(epoch), nil
	}
	slot, err := strconv.ParseUint(sl, 10, 64)
	if err != nil || slot == BoundarySlot {
		return Date{}, fmt.Errorf("invalid slot in %q", s)
	}
	return Date{Epoch: epoch, Slot: slot}, nil
}
