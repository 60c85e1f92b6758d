package term

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/tbellam/moonterm/internal/chstr"
)

// ErrInvalidPair is returned for color-pair indexes outside [1, MaxPairs).
var ErrInvalidPair = errors.New("invalid color pair")

// MaxPairs is the number of addressable color pairs. Pair 0 is fixed to
// the terminal's default colors and cannot be redefined.
const MaxPairs = 1 << 16

type pairColors struct {
	fg, bg tcell.Color
}

// Screen wraps a tcell screen with the color-pair registry that gives
// combined attributes their meaning. All methods are safe for use from
// a single goroutine; the mutex only guards against stray concurrent
// calls from Go code.
type Screen struct {
	mu      sync.Mutex
	screen  tcell.Screen
	pairs   map[int]pairColors
	started bool
}

// NewScreen creates a screen over the real terminal.
func NewScreen() (*Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Screen{screen: screen, pairs: make(map[int]pairColors)}, nil
}

// NewSimulationScreen creates a screen over a tcell simulation backend,
// for tests and headless runs. The simulation handle is returned so
// callers can inject events and inspect contents.
func NewSimulationScreen() (*Screen, tcell.SimulationScreen) {
	sim := tcell.NewSimulationScreen("UTF-8")
	return &Screen{screen: sim, pairs: make(map[int]pairColors)}, sim
}

// Init initializes the underlying terminal.
func (s *Screen) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.screen.Init(); err != nil {
		return err
	}
	s.started = true
	return nil
}

// Fini restores the terminal. Safe to call more than once.
func (s *Screen) Fini() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.screen.Fini()
		s.started = false
	}
}

// Size returns the screen dimensions in cells.
func (s *Screen) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.screen.Size()
}

// Clear erases the screen contents.
func (s *Screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screen.Clear()
}

// Show flushes pending drawing to the terminal.
func (s *Screen) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screen.Show()
}

// InitPair defines color pair n. Pair indexes run from 1 to MaxPairs-1;
// pair 0 always means the terminal default colors.
func (s *Screen) InitPair(n int, fg, bg tcell.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 1 || n >= MaxPairs {
		return fmt.Errorf("pair %d: %w", n, ErrInvalidPair)
	}
	s.pairs[n] = pairColors{fg: fg, bg: bg}
	return nil
}

// StyleFor converts a combined attribute to a tcell style using the
// registered color pairs. An unregistered pair renders with default
// colors rather than failing; that matches curses, where drawing with
// an uninitialized pair is harmless.
func (s *Screen) StyleFor(attr uint32) tcell.Style {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.styleFor(attr)
}

func (s *Screen) styleFor(attr uint32) tcell.Style {
	style := tcell.StyleDefault

	if p, ok := s.pairs[PairOf(attr)]; ok {
		style = style.Foreground(p.fg).Background(p.bg)
	}

	if attr&AttrBold != 0 {
		style = style.Bold(true)
	}
	if attr&AttrDim != 0 {
		style = style.Dim(true)
	}
	if attr&AttrItalic != 0 {
		style = style.Italic(true)
	}
	if attr&AttrUnderline != 0 {
		style = style.Underline(true)
	}
	if attr&AttrBlink != 0 {
		style = style.Blink(true)
	}
	if attr&AttrReverse != 0 {
		style = style.Reverse(true)
	}
	if attr&AttrStrike != 0 {
		style = style.StrikeThrough(true)
	}

	return style
}

// DrawBuffer renders the logical cells of buf starting at screen
// position (x, y). Wide runes advance two columns; the buffer itself
// stays one codepoint per cell, width is purely a rendering concern.
// Returns the column after the last cell drawn.
func (s *Screen) DrawBuffer(x, y int, buf *chstr.Buffer) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	width, height := s.screen.Size()
	if y < 0 || y >= height {
		return x
	}

	col := x
	for i := 1; i <= buf.Len(); i++ {
		r, attr, err := buf.Get(i)
		if err != nil {
			break
		}
		if col >= width {
			break
		}
		if col >= 0 {
			s.screen.SetContent(col, y, r, nil, s.styleFor(attr))
		}
		w := runewidth.RuneWidth(r)
		if w < 1 {
			w = 1
		}
		col += w
	}
	return col
}

// GetCh blocks until a key event and returns its code: the codepoint
// for character keys, or 256 plus the tcell key code for special keys.
// Resize events are absorbed with a sync. Returns -1 if the event
// stream ends.
func (s *Screen) GetCh() int {
	for {
		ev := s.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyRune {
				return int(ev.Rune())
			}
			return 256 + int(ev.Key())
		case *tcell.EventResize:
			s.screen.Sync()
		case nil:
			return -1
		}
	}
}
