package script

import (
	"unicode/utf8"

	lua "github.com/yuin/gopher-lua"

	"github.com/tbellam/moonterm/internal/chstr"
	"github.com/tbellam/moonterm/internal/term"
)

// chstrTypeName is the metatable name for chstr userdata.
const chstrTypeName = "moonterm.chstr"

var chstrMethods = map[string]lua.LGFunction{
	"len":     chstrLen,
	"size":    chstrSize,
	"get":     chstrGet,
	"set_ch":  chstrSetCh,
	"set_str": chstrSetStr,
	"dup":     chstrDup,
}

// registerChstrType installs the chstr metatable into L, metering each
// method against st's instruction budget.
func registerChstrType(L *lua.LState, st *State) {
	methods := make(map[string]lua.LGFunction, len(chstrMethods))
	for name, fn := range chstrMethods {
		methods[name] = st.metered(fn)
	}
	mt := L.NewTypeMetatable(chstrTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), methods))
}

// newChstrUserData wraps a buffer as chstr userdata.
func newChstrUserData(L *lua.LState, b *chstr.Buffer) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = b
	L.SetMetatable(ud, L.GetTypeMetatable(chstrTypeName))
	return ud
}

// checkChstr extracts the buffer from argument n, raising a Lua
// argument error if it is not a chstr.
func checkChstr(L *lua.LState, n int) *chstr.Buffer {
	ud := L.CheckUserData(n)
	if b, ok := ud.Value.(*chstr.Buffer); ok {
		return b
	}
	L.ArgError(n, "chstr expected")
	return nil
}

// chstrNew is the constructor behind curses.chstr. A number argument
// makes a blank buffer of that many cells; a string argument decodes
// UTF-8 text, one cell per codepoint, with an optional attribute.
func chstrNew(L *lua.LState) int {
	var (
		b   *chstr.Buffer
		err error
	)
	switch L.Get(1).Type() {
	case lua.LTNumber:
		b, err = chstr.New(L.CheckInt(1))
	case lua.LTString:
		attr := uint32(L.OptInt(2, int(term.AttrNormal)))
		b, err = chstr.FromString(L.CheckString(1), attr)
	default:
		L.ArgError(1, "number or string expected")
		return 0
	}
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	L.Push(newChstrUserData(L, b))
	return 1
}

// chstrLen reports the logical length in cells.
func chstrLen(L *lua.LState) int {
	b := checkChstr(L, 1)
	L.Push(lua.LNumber(b.Len()))
	return 1
}

// chstrSize reports the allocated capacity in cells.
func chstrSize(L *lua.LState) int {
	b := checkChstr(L, 1)
	L.Push(lua.LNumber(b.Cap()))
	return 1
}

// chstrGet returns codepoint, style bits and color bits at a 1-based
// offset.
func chstrGet(L *lua.LState) int {
	b := checkChstr(L, 1)
	offset := L.CheckInt(2)

	r, attr, err := b.Get(offset)
	if err != nil {
		L.ArgError(2, err.Error())
		return 0
	}
	style, color := chstr.SplitAttr(attr, term.StyleMask, term.ColorMask)
	L.Push(lua.LNumber(r))
	L.Push(lua.LNumber(style))
	L.Push(lua.LNumber(color))
	return 3
}

// checkRuneArg accepts either a codepoint number or a string whose
// first codepoint is used, matching the original calling convention.
func checkRuneArg(L *lua.LState, n int) rune {
	switch L.Get(n).Type() {
	case lua.LTNumber:
		code := L.CheckInt(n)
		// Scalar values only: rejects negatives, surrogates and
		// anything past U+10FFFF.
		if code < 0 || code > utf8.MaxRune || !utf8.ValidRune(rune(code)) {
			L.ArgError(n, "codepoint out of range")
		}
		return rune(code)
	case lua.LTString:
		s := L.CheckString(n)
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || (r == utf8.RuneError && size <= 1) {
			L.ArgError(n, "bad utf8 byte sequence")
		}
		return r
	default:
		L.ArgError(n, "number or string expected")
	}
	return 0
}

// chstrSetCh writes one codepoint with optional attribute and repeat.
// Omitting the attribute preserves each cell's existing one.
func chstrSetCh(L *lua.LState) int {
	b := checkChstr(L, 1)
	offset := L.CheckInt(2)
	r := checkRuneArg(L, 3)
	rep := L.OptInt(5, 1)

	var err error
	if L.Get(4).Type() == lua.LTNil {
		err = b.SetCh(offset, r, rep)
	} else {
		err = b.SetChAttr(offset, r, uint32(L.CheckInt(4)), rep)
	}
	if err != nil {
		L.RaiseError("set_ch: %v", err)
	}
	return 0
}

// chstrSetStr writes a decoded string with attribute and repeat,
// growing the buffer when the write extends past its current length.
func chstrSetStr(L *lua.LState) int {
	b := checkChstr(L, 1)
	offset := L.CheckInt(2)
	s := L.CheckString(3)
	attr := uint32(L.OptInt(4, int(term.AttrNormal)))
	rep := L.OptInt(5, 1)

	if err := b.SetString(offset, s, attr, rep); err != nil {
		L.RaiseError("set_str: %v", err)
	}
	return 0
}

// chstrDup returns an independent copy with capacity trimmed to length.
func chstrDup(L *lua.LState) int {
	b := checkChstr(L, 1)
	L.Push(newChstrUserData(L, b.Dup()))
	return 1
}
