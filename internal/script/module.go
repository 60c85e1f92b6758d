package script

import (
	"github.com/gdamore/tcell/v2"
	lua "github.com/yuin/gopher-lua"

	"github.com/tbellam/moonterm/internal/term"
)

// Module binds the terminal layer and the chstr class into a Lua state
// as the `curses` global.
type Module struct {
	screen    *term.Screen
	newScreen func() (*term.Screen, error)
	initHook  func(*term.Screen) error
}

// ModuleOption configures a Module.
type ModuleOption func(*Module)

// WithScreenFactory replaces how initscr obtains its screen. Tests use
// this to inject a simulation screen.
func WithScreenFactory(factory func() (*term.Screen, error)) ModuleOption {
	return func(m *Module) {
		m.newScreen = factory
	}
}

// WithInitHook runs fn right after initscr brings the screen up, before
// control returns to the script. The host uses it to apply the
// configured palette.
func WithInitHook(fn func(*term.Screen) error) ModuleOption {
	return func(m *Module) {
		m.initHook = fn
	}
}

// NewModule creates a curses module backed by the real terminal unless
// a factory is injected.
func NewModule(opts ...ModuleOption) *Module {
	m := &Module{
		newScreen: term.NewScreen,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register installs the chstr type and the curses module table into the
// state. Every bound function is metered against the state's
// instruction budget.
func (m *Module) Register(st *State) {
	L := st.LuaState()
	registerChstrType(L, st)

	funcs := map[string]lua.LGFunction{
		"chstr":      chstrNew,
		"color_pair": colorPair,
		"initscr":    m.initscr,
		"endwin":     m.endwin,
		"clear":      m.clear,
		"refresh":    m.refresh,
		"getch":      m.getch,
		"addchstr":   m.addchstr,
		"init_pair":  m.initPair,
	}
	for name, fn := range funcs {
		funcs[name] = st.metered(fn)
	}
	mod := L.SetFuncs(L.NewTable(), funcs)

	for name, value := range map[string]uint32{
		"A_NORMAL":     term.AttrNormal,
		"A_BOLD":       term.AttrBold,
		"A_DIM":        term.AttrDim,
		"A_ITALIC":     term.AttrItalic,
		"A_UNDERLINE":  term.AttrUnderline,
		"A_BLINK":      term.AttrBlink,
		"A_REVERSE":    term.AttrReverse,
		"A_STRIKE":     term.AttrStrike,
		"A_ATTRIBUTES": term.StyleMask,
		"A_COLOR":      term.ColorMask,
	} {
		L.SetField(mod, name, lua.LNumber(value))
	}

	// Standard palette indexes, curses numbering.
	for name, value := range map[string]int{
		"COLOR_BLACK":   0,
		"COLOR_RED":     1,
		"COLOR_GREEN":   2,
		"COLOR_YELLOW":  3,
		"COLOR_BLUE":    4,
		"COLOR_MAGENTA": 5,
		"COLOR_CYAN":    6,
		"COLOR_WHITE":   7,
	} {
		L.SetField(mod, name, lua.LNumber(value))
	}

	L.SetGlobal("curses", mod)
}

// Screen returns the live screen, or nil before initscr.
func (m *Module) Screen() *term.Screen {
	return m.screen
}

// Shutdown restores the terminal if a screen is live. Safe to call
// whether or not the script reached endwin.
func (m *Module) Shutdown() {
	if m.screen != nil {
		m.screen.Fini()
		m.screen = nil
	}
}

// colorPair converts a pair index to attribute bits, curses style.
func colorPair(L *lua.LState) int {
	n := L.CheckInt(1)
	if n < 0 || n >= term.MaxPairs {
		L.ArgError(1, "bad color pair")
		return 0
	}
	L.Push(lua.LNumber(term.Pair(n)))
	return 1
}

func (m *Module) initscr(L *lua.LState) int {
	if m.screen != nil {
		return 0
	}
	screen, err := m.newScreen()
	if err != nil {
		L.RaiseError("initscr: %v", err)
		return 0
	}
	if err := screen.Init(); err != nil {
		L.RaiseError("initscr: %v", err)
		return 0
	}
	if m.initHook != nil {
		if err := m.initHook(screen); err != nil {
			screen.Fini()
			L.RaiseError("initscr: %v", err)
			return 0
		}
	}
	m.screen = screen
	return 0
}

func (m *Module) endwin(L *lua.LState) int {
	m.Shutdown()
	return 0
}

// checkScreen raises into Lua when called before initscr.
func (m *Module) checkScreen(L *lua.LState) *term.Screen {
	if m.screen == nil {
		L.RaiseError("%v", ErrNoScreen)
		return nil
	}
	return m.screen
}

func (m *Module) clear(L *lua.LState) int {
	m.checkScreen(L).Clear()
	return 0
}

func (m *Module) refresh(L *lua.LState) int {
	m.checkScreen(L).Show()
	return 0
}

func (m *Module) getch(L *lua.LState) int {
	L.Push(lua.LNumber(m.checkScreen(L).GetCh()))
	return 1
}

// addchstr draws a chstr at row y, column x (0-based screen
// coordinates, as in curses mvaddchstr).
func (m *Module) addchstr(L *lua.LState) int {
	s := m.checkScreen(L)
	y := L.CheckInt(1)
	x := L.CheckInt(2)
	b := checkChstr(L, 3)
	s.DrawBuffer(x, y, b)
	return 0
}

// initPair defines color pair n with palette indexes for foreground
// and background.
func (m *Module) initPair(L *lua.LState) int {
	s := m.checkScreen(L)
	n := L.CheckInt(1)
	fg := L.CheckInt(2)
	bg := L.CheckInt(3)

	if fg < 0 || fg > 255 {
		L.ArgError(2, "bad color")
		return 0
	}
	if bg < 0 || bg > 255 {
		L.ArgError(3, "bad color")
		return 0
	}
	if err := s.InitPair(n, tcell.PaletteColor(fg), tcell.PaletteColor(bg)); err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	return 0
}
