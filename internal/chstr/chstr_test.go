package chstr

import (
	"errors"
	"math"
	"testing"
)

func TestNewBlank(t *testing.T) {
	for _, n := range []int{1, 10, 80} {
		b, err := New(n)
		if err != nil {
			t.Fatalf("New(%d): unexpected error: %v", n, err)
		}
		if b.Len() != n || b.Cap() != n {
			t.Errorf("New(%d): expected len=cap=%d, got len=%d cap=%d", n, n, b.Len(), b.Cap())
		}
		for i := 1; i <= n; i++ {
			r, attr, err := b.Get(i)
			if err != nil {
				t.Fatalf("Get(%d): unexpected error: %v", i, err)
			}
			if r != ' ' || attr != 0 {
				t.Errorf("cell %d: expected (' ', 0), got (%q, %d)", i, r, attr)
			}
		}
	}
}

func TestNewInvalidSize(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		if _, err := New(n); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("New(%d): expected ErrInvalidArgument, got %v", n, err)
		}
	}
	if _, err := New(MaxCells + 1); !errors.Is(err, ErrBufferLimit) {
		t.Errorf("New(MaxCells+1): expected ErrBufferLimit, got %v", err)
	}
}

func TestFromString(t *testing.T) {
	const attr = uint32(0x00200003)

	b, err := FromString("hi,世界", attr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 5 codepoints, not 9 bytes.
	if b.Len() != 5 || b.Cap() != 5 {
		t.Errorf("expected len=cap=5, got len=%d cap=%d", b.Len(), b.Cap())
	}

	want := []rune{'h', 'i', ',', '世', '界'}
	for i, wr := range want {
		r, a, err := b.Get(i + 1)
		if err != nil {
			t.Fatalf("Get(%d): unexpected error: %v", i+1, err)
		}
		if r != wr {
			t.Errorf("cell %d: expected %q, got %q", i+1, wr, r)
		}
		if a != attr {
			t.Errorf("cell %d: expected attr %#x, got %#x", i+1, attr, a)
		}
	}
}

func TestFromStringEmpty(t *testing.T) {
	if _, err := FromString("", 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestFromStringInvalidUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"lone continuation", "a\x80b"},
		{"truncated sequence", "ok\xe4\xb8"},
		{"overlong encoding", "\xc0\xaf"},
		{"stray 0xff", "\xff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := FromString(tt.input, 0)
			if !errors.Is(err, ErrInvalidEncoding) {
				t.Errorf("expected ErrInvalidEncoding, got %v", err)
			}
			if b != nil {
				t.Error("expected no buffer on decode failure")
			}
		})
	}
}

func TestFromStringAcceptsReplacementChar(t *testing.T) {
	// A literal U+FFFD is well-formed input, not a decode failure.
	b, err := FromString("�", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, _, _ := b.Get(1)
	if r != '�' {
		t.Errorf("expected U+FFFD, got %q", r)
	}
}

func TestSetChRoundTrip(t *testing.T) {
	const attr = uint32(0x00010002)

	b, err := New(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.SetChAttr(3, '风', attr, 1); err != nil {
		t.Fatalf("SetChAttr: unexpected error: %v", err)
	}

	r, a, err := b.Get(3)
	if err != nil {
		t.Fatalf("Get: unexpected error: %v", err)
	}
	if r != '风' || a != attr {
		t.Errorf("expected (风, %#x), got (%q, %#x)", attr, r, a)
	}

	style, color := SplitAttr(a, 0xFFFF0000, 0x0000FFFF)
	if style != 0x00010000 || color != 0x0002 {
		t.Errorf("expected split (0x10000, 0x2), got (%#x, %#x)", style, color)
	}
}

func TestSetChRepeat(t *testing.T) {
	b, _ := New(10)
	if err := b.SetChAttr(2, 'x', 7, 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 2; i <= 10; i++ {
		r, a, _ := b.Get(i)
		if r != 'x' || a != 7 {
			t.Errorf("cell %d: expected ('x', 7), got (%q, %d)", i, r, a)
		}
	}
	// Cell 1 untouched.
	r, a, _ := b.Get(1)
	if r != ' ' || a != 0 {
		t.Errorf("cell 1: expected (' ', 0), got (%q, %d)", r, a)
	}
}

func TestSetChPreservesAttr(t *testing.T) {
	b, _ := FromString("abc", 42)
	if err := b.SetCh(2, 'Z', 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, a, _ := b.Get(2)
	if r != 'Z' {
		t.Errorf("expected 'Z', got %q", r)
	}
	if a != 42 {
		t.Errorf("expected attribute preserved as 42, got %d", a)
	}
}

func TestSetChOutOfRange(t *testing.T) {
	b, _ := New(10)
	snapshot := b.Dup()

	tests := []struct {
		name           string
		offset, repeat int
	}{
		{"offset zero", 0, 1},
		{"offset past end", 11, 1},
		{"repeat zero", 5, 0},
		{"repeat past end", 8, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := b.SetChAttr(tt.offset, 'x', 1, tt.repeat); !errors.Is(err, ErrOffsetOutOfRange) {
				t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
			}
		})
	}

	if !equalCells(t, b, snapshot) {
		t.Error("failed writes must leave the buffer unmodified")
	}
}

func TestSetStringGrowth(t *testing.T) {
	const attr = uint32(9)

	b, _ := New(10)
	// required = (8-1) + 2*2 = 11
	if err := b.SetString(8, "AB", attr, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Len() != 11 {
		t.Errorf("expected length 11, got %d", b.Len())
	}
	if b.Cap() < 11 {
		t.Errorf("expected capacity >= 11, got %d", b.Cap())
	}

	want := []rune{'A', 'B', 'A', 'B'}
	for i, wr := range want {
		r, a, err := b.Get(8 + i)
		if err != nil {
			t.Fatalf("Get(%d): unexpected error: %v", 8+i, err)
		}
		if r != wr || a != attr {
			t.Errorf("cell %d: expected (%q, %d), got (%q, %d)", 8+i, wr, attr, r, a)
		}
	}
}

func TestSetStringInsideExistingContent(t *testing.T) {
	b, _ := New(10)
	if err := b.SetString(1, "hello", 3, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Len() != 10 || b.Cap() != 10 {
		t.Errorf("expected len=cap=10 unchanged, got len=%d cap=%d", b.Len(), b.Cap())
	}
	r, a, _ := b.Get(1)
	if r != 'h' || a != 3 {
		t.Errorf("expected ('h', 3), got (%q, %d)", r, a)
	}
	// Cells past the write keep their blank contents.
	r, a, _ = b.Get(6)
	if r != ' ' || a != 0 {
		t.Errorf("cell 6: expected (' ', 0), got (%q, %d)", r, a)
	}
}

func TestSetStringTilesMultibyte(t *testing.T) {
	b, _ := New(2)
	if err := b.SetString(1, "世界", 5, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Len() != 6 {
		t.Errorf("expected length 6, got %d", b.Len())
	}
	want := []rune{'世', '界', '世', '界', '世', '界'}
	for i, wr := range want {
		r, _, _ := b.Get(i + 1)
		if r != wr {
			t.Errorf("cell %d: expected %q, got %q", i+1, wr, r)
		}
	}
}

func TestSetStringErrors(t *testing.T) {
	mk := func() *Buffer {
		b, _ := FromString("0123456789", 1)
		return b
	}

	tests := []struct {
		name   string
		call   func(*Buffer) error
		target error
	}{
		{"offset zero", func(b *Buffer) error { return b.SetString(0, "x", 0, 1) }, ErrOffsetOutOfRange},
		{"offset past end", func(b *Buffer) error { return b.SetString(11, "x", 0, 1) }, ErrOffsetOutOfRange},
		{"zero repeat", func(b *Buffer) error { return b.SetString(1, "x", 0, 0) }, ErrInvalidArgument},
		{"empty string", func(b *Buffer) error { return b.SetString(1, "", 0, 1) }, ErrInvalidArgument},
		{"invalid utf-8", func(b *Buffer) error { return b.SetString(1, "a\x80", 0, 1) }, ErrInvalidEncoding},
		{"over cell limit", func(b *Buffer) error { return b.SetString(1, "abcd", 0, MaxCells) }, ErrBufferLimit},
		{"repeat near MaxInt", func(b *Buffer) error { return b.SetString(1, "abcd", 0, math.MaxInt/2) }, ErrBufferLimit},
		{"repeat times length wraps", func(b *Buffer) error { return b.SetString(3, "abcd", 0, math.MaxInt/4+1) }, ErrBufferLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mk()
			snapshot := b.Dup()
			if err := tt.call(b); !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
			if b.Len() != 10 || b.Cap() != 10 {
				t.Errorf("failed write changed geometry: len=%d cap=%d", b.Len(), b.Cap())
			}
			if !equalCells(t, b, snapshot) {
				t.Error("failed write must leave cells unmodified")
			}
		})
	}
}

func TestDupTrimsCapacity(t *testing.T) {
	b, _ := New(10)
	if err := b.SetString(8, "AB", 0, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := b.Dup()
	if d.Len() != b.Len() {
		t.Errorf("expected dup length %d, got %d", b.Len(), d.Len())
	}
	if d.Cap() != b.Len() {
		t.Errorf("expected dup capacity trimmed to %d, got %d", b.Len(), d.Cap())
	}
	if !equalCells(t, b, d) {
		t.Error("dup must copy cells verbatim")
	}
}

func TestDupIsIndependent(t *testing.T) {
	b, _ := FromString("hello", 1)
	d := b.Dup()

	if err := d.SetChAttr(1, 'X', 99, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, a, _ := b.Get(1)
	if r != 'h' || a != 1 {
		t.Errorf("mutating the dup changed the source: got (%q, %d)", r, a)
	}

	if err := b.SetString(1, "world!", 2, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, a, _ = d.Get(1)
	if r != 'X' || a != 99 {
		t.Errorf("mutating the source changed the dup: got (%q, %d)", r, a)
	}
}

func TestGetOutOfRange(t *testing.T) {
	b, _ := New(5)
	for _, offset := range []int{0, 6, -1} {
		if _, _, err := b.Get(offset); !errors.Is(err, ErrOffsetOutOfRange) {
			t.Errorf("Get(%d): expected ErrOffsetOutOfRange, got %v", offset, err)
		}
	}
}

func TestSplitAttr(t *testing.T) {
	const (
		styleMask = uint32(0xFFFF0000)
		colorMask = uint32(0x0000FFFF)
	)
	style, color := SplitAttr(0x00240007, styleMask, colorMask)
	if style != 0x00240000 {
		t.Errorf("expected style bits %#x, got %#x", 0x00240000, style)
	}
	if color != 0x0007 {
		t.Errorf("expected color bits %#x, got %#x", 0x0007, color)
	}
}

// equalCells compares the logical cells of two buffers.
func equalCells(t *testing.T, a, b *Buffer) bool {
	t.Helper()
	if a.Len() != b.Len() {
		return false
	}
	for i := 1; i <= a.Len(); i++ {
		ar, aa, _ := a.Get(i)
		br, ba, _ := b.Get(i)
		if ar != br || aa != ba {
			return false
		}
	}
	return true
}
