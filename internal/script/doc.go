// Package script embeds a Lua runtime and exposes moonterm to it.
//
// The package wraps gopher-lua with a managed State and registers a
// `curses` module providing:
//   - the chstr class: attributed cell buffers built from
//     internal/chstr, with the classic 1-based set_ch/set_str/get
//     calling convention
//   - attribute constants (A_NORMAL, A_BOLD, ...) and color_pair
//   - screen control (initscr, endwin, refresh, getch, addchstr)
//     backed by internal/term
//
// A minimal session:
//
//	st, _ := script.NewState()
//	defer st.Close()
//	script.NewModule().Register(st)
//	st.DoString(`
//	    local cs = curses.chstr(10)
//	    cs:set_str(1, "hello", curses.A_BOLD)
//	`)
//
// LState is not goroutine-safe: all calls on a State must come from a
// single goroutine.
package script
