package chstr

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Errors returned by buffer operations.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidEncoding  = errors.New("invalid utf-8 byte sequence")
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrBufferLimit      = errors.New("buffer cell limit exceeded")
)

// MaxCells bounds the capacity of a single buffer. Growth that would
// exceed it fails with ErrBufferLimit and leaves the buffer unchanged.
const MaxCells = 1 << 24

// Cell is one buffer slot: a codepoint plus its combined attribute bits.
type Cell struct {
	Rune rune
	Attr uint32
}

// Buffer is an attributed cell buffer. The backing slice length is the
// capacity; Len cells at the front are logically meaningful.
// Invariant: 1 <= Len() <= Cap().
type Buffer struct {
	cells  []Cell
	length int
}

// New creates a blank buffer of n cells, each holding a space with the
// zero (no-attribute) value.
func New(n int) (*Buffer, error) {
	if n < 1 {
		return nil, fmt.Errorf("size %d: %w", n, ErrInvalidArgument)
	}
	if n > MaxCells {
		return nil, fmt.Errorf("size %d: %w", n, ErrBufferLimit)
	}
	b := &Buffer{
		cells:  make([]Cell, n),
		length: n,
	}
	for i := range b.cells {
		b.cells[i].Rune = ' '
	}
	return b, nil
}

// FromString creates a buffer holding one cell per Unicode scalar value
// of s, every cell carrying attr. The whole construction fails on the
// first malformed byte sequence; no partial buffer is returned.
func FromString(s string, attr uint32) (*Buffer, error) {
	runes, err := decodeString(s)
	if err != nil {
		return nil, err
	}
	if len(runes) == 0 {
		return nil, fmt.Errorf("empty string: %w", ErrInvalidArgument)
	}
	if len(runes) > MaxCells {
		return nil, fmt.Errorf("%d codepoints: %w", len(runes), ErrBufferLimit)
	}
	b := &Buffer{
		cells:  make([]Cell, len(runes)),
		length: len(runes),
	}
	for i, r := range runes {
		b.cells[i] = Cell{Rune: r, Attr: attr}
	}
	return b, nil
}

// decodeString decodes s into scalar values, rejecting any malformed
// byte sequence. A literal U+FFFD in well-formed input is accepted; only
// a decode failure (RuneError spanning a single byte) is an error.
func decodeString(s string) ([]rune, error) {
	runes := make([]rune, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			return nil, fmt.Errorf("byte offset %d: %w", i, ErrInvalidEncoding)
		}
		runes = append(runes, r)
		i += size
	}
	return runes, nil
}

// Len returns the logical length in cells.
func (b *Buffer) Len() int {
	return b.length
}

// Cap returns the allocated backing capacity in cells.
func (b *Buffer) Cap() int {
	return len(b.cells)
}

// Get returns the codepoint and combined attribute at the 1-based
// offset. Use SplitAttr to break the attribute into its style and
// color-pair fields.
func (b *Buffer) Get(offset int) (rune, uint32, error) {
	if offset < 1 || offset > b.length {
		return 0, 0, fmt.Errorf("offset %d, length %d: %w", offset, b.length, ErrOffsetOutOfRange)
	}
	c := b.cells[offset-1]
	return c.Rune, c.Attr, nil
}

// SetCh writes r into repeat consecutive cells starting at the 1-based
// offset, leaving each cell's attribute untouched. The write must stay
// within the current length; SetCh never grows the buffer.
func (b *Buffer) SetCh(offset int, r rune, repeat int) error {
	return b.setCh(offset, r, 0, false, repeat)
}

// SetChAttr is SetCh with the attribute of each written cell replaced
// by attr.
func (b *Buffer) SetChAttr(offset int, r rune, attr uint32, repeat int) error {
	return b.setCh(offset, r, attr, true, repeat)
}

func (b *Buffer) setCh(offset int, r rune, attr uint32, setAttr bool, repeat int) error {
	if offset < 1 || offset > b.length {
		return fmt.Errorf("offset %d, length %d: %w", offset, b.length, ErrOffsetOutOfRange)
	}
	if repeat < 1 || repeat > b.length-offset+1 {
		return fmt.Errorf("repeat %d at offset %d, length %d: %w", repeat, offset, b.length, ErrOffsetOutOfRange)
	}
	for i := offset - 1; i < offset-1+repeat; i++ {
		b.cells[i].Rune = r
		if setAttr {
			b.cells[i].Attr = attr
		}
	}
	return nil
}

// SetString decodes s and writes the codepoint sequence repeat times
// back-to-back starting at the 1-based offset, every written cell
// receiving attr. The offset must lie within the current length, but
// the write may extend past it: the buffer grows (capacity and length)
// to exactly the required extent.
//
// Decoding and growth happen before any cell is touched, so a failure
// leaves the buffer exactly as it was.
func (b *Buffer) SetString(offset int, s string, attr uint32, repeat int) error {
	if offset < 1 || offset > b.length {
		return fmt.Errorf("offset %d, length %d: %w", offset, b.length, ErrOffsetOutOfRange)
	}
	if repeat < 1 {
		return fmt.Errorf("repeat %d: %w", repeat, ErrInvalidArgument)
	}
	runes, err := decodeString(s)
	if err != nil {
		return err
	}
	if len(runes) == 0 {
		return fmt.Errorf("empty string: %w", ErrInvalidArgument)
	}

	// Bounds check by division; len(runes)*repeat can overflow int.
	if repeat > (MaxCells-(offset-1))/len(runes) {
		return fmt.Errorf("%d codepoints, repeat %d, offset %d: %w", len(runes), repeat, offset, ErrBufferLimit)
	}
	required := (offset - 1) + len(runes)*repeat
	if required > len(b.cells) {
		grown := make([]Cell, required)
		copy(grown, b.cells)
		b.cells = grown
	}
	if required > b.length {
		b.length = required
	}

	i := offset - 1
	for rep := 0; rep < repeat; rep++ {
		for _, r := range runes {
			b.cells[i] = Cell{Rune: r, Attr: attr}
			i++
		}
	}
	return nil
}

// Dup returns an independent deep copy with capacity trimmed to the
// source's logical length. Mutating either buffer never affects the
// other.
func (b *Buffer) Dup() *Buffer {
	dup := &Buffer{
		cells:  make([]Cell, b.length),
		length: b.length,
	}
	copy(dup.cells, b.cells[:b.length])
	return dup
}

// SplitAttr splits a combined attribute into the two caller-visible
// fields using masks supplied by the terminal layer. The buffer itself
// never interprets attribute bits; this is a pure convenience for
// reporting.
func SplitAttr(attr, styleMask, colorMask uint32) (style, color uint32) {
	return attr & styleMask, attr & colorMask
}
