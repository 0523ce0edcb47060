// Package block holds the smallest addressable I/O unit of a compressed or
// blocked image and the masks that map block numbers to file offsets.
//
// A mask entry is a tagged variant: either Offset(n) or Absent. Absent marks
// a pad or no-data block that was omitted from the file, so offset zero is
// always a real offset.
package block

import "fmt"

// Entry is one block mask slot.
type Entry struct {
	off     uint64
	present bool
}

// Offset returns a present entry at off.
func Offset(off uint64) Entry { return Entry{off: off, present: true} }

// Absent returns an entry for an omitted block.
func Absent() Entry { return Entry{} }

// Offset returns the stored offset and whether the entry is present.
func (e Entry) Offset() (uint64, bool) { return e.off, e.present }

// Present reports whether the block exists in the file.
func (e Entry) Present() bool { return e.present }

func (e Entry) String() string {
	if !e.present {
		return "absent"
	}
	return fmt.Sprintf("@%d", e.off)
}

// Mask maps block index to Entry.
type Mask struct {
	entries []Entry
}

// NewMask returns a mask of n absent entries.
func NewMask(n int) *Mask {
	return &Mask{entries: make([]Entry, n)}
}

// MaskOf builds a mask from entries.
func MaskOf(entries ...Entry) *Mask {
	m := &Mask{entries: make([]Entry, len(entries))}
	copy(m.entries, entries)
	return m
}

// Len returns the number of block slots.
func (m *Mask) Len() int { return len(m.entries) }

// At returns the entry for block i. Indices past the end read as Absent.
func (m *Mask) At(i int) Entry {
	if i < 0 || i >= len(m.entries) {
		return Absent()
	}
	return m.entries[i]
}

// Set stores e at block i. It panics if i is out of range, like a slice.
func (m *Mask) Set(i int, e Entry) { m.entries[i] = e }

// Present counts present entries.
func (m *Mask) Present() int {
	n := 0
	for _, e := range m.entries {
		if e.present {
			n++
		}
	}
	return n
}

// AllAbsent reports whether no block is present.
func (m *Mask) AllAbsent() bool { return m.Present() == 0 }

// Entries returns a copy of the entries.
func (m *Mask) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask { return MaskOf(m.entries...) }

// Equal reports whether both masks hold the same entries.
func (m *Mask) Equal(o *Mask) bool {
	if m.Len() != o.Len() {
		return false
	}
	for i := range m.entries {
		if m.entries[i] != o.entries[i] {
			return false
		}
	}
	return true
}

// Flat converts the mask to 64-bit values with sentinel standing in for
// Absent. It fails if a present offset collides with the sentinel.
func (m *Mask) Flat(sentinel uint64) ([]uint64, error) {
	out := make([]uint64, len(m.entries))
	for i, e := range m.entries {
		switch {
		case !e.present:
			out[i] = sentinel
		case e.off == sentinel:
			return nil, fmt.Errorf("block %d offset %d collides with the absent sentinel", i, e.off)
		default:
			out[i] = e.off
		}
	}
	return out, nil
}

// FromFlat is the inverse of Flat.
func FromFlat(values []uint64, sentinel uint64) *Mask {
	m := NewMask(len(values))
	for i, v := range values {
		if v != sentinel {
			m.entries[i] = Offset(v)
		}
	}
	return m
}

// MarshalJSON encodes the mask as an array of offsets with null for Absent.
func (m *Mask) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+len(m.entries)*8)
	buf = append(buf, '[')
	for i, e := range m.entries {
		if i > 0 {
			buf = append(buf, ',')
		}
		if !e.present {
			buf = append(buf, "null"...)
			continue
		}
		buf = fmt.Appendf(buf, "%d", e.off)
	}
	return append(buf, ']'), nil
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (m *Mask) UnmarshalJSON(data []byte) error {
	var raw []*uint64
	if err := jsonUnmarshal(data, &raw); err != nil {
		return err
	}
	m.entries = make([]Entry, len(raw))
	for i, v := range raw {
		if v != nil {
			m.entries[i] = Offset(*v)
		}
	}
	return nil
}

// MarshalCBOR encodes the mask the same way as MarshalJSON.
func (m *Mask) MarshalCBOR() ([]byte, error) {
	raw := make([]*uint64, len(m.entries))
	for i, e := range m.entries {
		if e.present {
			off := e.off
			raw[i] = &off
		}
	}
	return cborMarshal(raw)
}

// UnmarshalCBOR decodes the form written by MarshalCBOR.
func (m *Mask) UnmarshalCBOR(data []byte) error {
	var raw []*uint64
	if err := cborUnmarshal(data, &raw); err != nil {
		return err
	}
	m.entries = make([]Entry, len(raw))
	for i, v := range raw {
		if v != nil {
			m.entries[i] = Offset(*v)
		}
	}
	return nil
}
