package script

import (
	"fmt"
	"sync"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the per-chunk budget of calls into bound
// Go functions. Generous enough for any reasonable script; a runaway
// loop hammering the host hits it long before exhausting memory.
const DefaultInstructionLimit = 10_000_000

// State wraps a gopher-lua runtime.
//
// gopher-lua's LState is not goroutine-safe. All operations on a State
// must be called from a single goroutine; the mutex here only protects
// against accidental concurrent access from Go code.
type State struct {
	L *lua.LState

	mu      sync.Mutex
	allLibs bool
	closed  bool

	instructionLimit int64
	instructionCount int64
}

// StateOption configures a State.
type StateOption func(*State)

// WithAllLibraries opens the complete Lua standard library, including
// io, os and package. The default opens only the side-effect-free
// libraries (base, table, string, math), which is enough for scripts
// that just build and draw buffers.
func WithAllLibraries() StateOption {
	return func(s *State) {
		s.allLibs = true
	}
}

// WithInstructionLimit overrides DefaultInstructionLimit. The budget
// resets at the start of every DoFile/DoString; a chunk that exceeds it
// is aborted with ErrInstructionLimit. A limit <= 0 disables metering.
func WithInstructionLimit(limit int64) StateOption {
	return func(s *State) {
		s.instructionLimit = limit
	}
}

// NewState creates a new Lua state.
func NewState(opts ...StateOption) (*State, error) {
	state := &State{instructionLimit: DefaultInstructionLimit}
	for _, opt := range opts {
		opt(state)
	}

	if state.allLibs {
		state.L = lua.NewState()
		return state, nil
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // opened selectively below
	})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	state.L = L

	return state, nil
}

// DoFile executes a Lua file. The call blocks until completion or error.
func (s *State) DoFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	atomic.StoreInt64(&s.instructionCount, 0)
	err := s.doWithRecovery(func() error {
		return s.L.DoFile(path)
	})
	if err != nil && s.limitExceeded() {
		return fmt.Errorf("%s: %w", path, ErrInstructionLimit)
	}
	return err
}

// DoString executes a Lua chunk. The call blocks until completion or error.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	atomic.StoreInt64(&s.instructionCount, 0)
	err := s.doWithRecovery(func() error {
		return s.L.DoString(code)
	})
	if err != nil && s.limitExceeded() {
		return ErrInstructionLimit
	}
	return err
}

// doWithRecovery executes a function with panic recovery, so a bug in
// bound Go code surfaces as an error instead of tearing down the host.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// metered wraps a bound Go function so each call from Lua charges one
// instruction against the running chunk's budget.
func (s *State) metered(fn lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		s.tick(L)
		return fn(L)
	}
}

// tick charges one instruction. Once the budget is exhausted it raises
// into Lua, unwinding to the DoFile or DoString that ran the chunk.
func (s *State) tick(L *lua.LState) {
	if s.instructionLimit <= 0 {
		return
	}
	if atomic.AddInt64(&s.instructionCount, 1) > s.instructionLimit {
		L.RaiseError("%v", ErrInstructionLimit)
	}
}

func (s *State) limitExceeded() bool {
	return s.instructionLimit > 0 &&
		atomic.LoadInt64(&s.instructionCount) > s.instructionLimit
}

// LuaState returns the underlying gopher-lua state for module
// registration. Direct use bypasses the mutex and the instruction
// budget; callers own the synchronization.
func (s *State) LuaState() *lua.LState {
	return s.L
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. Further calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
