// Package term is the terminal layer behind the scripting surface. It
// defines the combined attribute encoding used by cell buffers (style
// flags in the high half, color-pair index in the low half) and wraps a
// tcell screen with a curses-style color-pair registry and row drawing.
package term

// Masks splitting a combined attribute into its two reported fields.
const (
	StyleMask uint32 = 0xFFFF0000
	ColorMask uint32 = 0x0000FFFF
)

// AttrNormal is the neutral value: no style flags, color pair 0.
const AttrNormal uint32 = 0

// Style flags. Each occupies one bit of the high half of a combined
// attribute.
const (
	AttrBold uint32 = 1 << (16 + iota)
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrStrike
)

// Pair returns the attribute bits selecting color pair n. Combine with
// style flags by OR-ing.
func Pair(n int) uint32 {
	return uint32(n) & ColorMask
}

// PairOf extracts the color-pair index encoded in attr.
func PairOf(attr uint32) int {
	return int(attr & ColorMask)
}
