package lang

import "slices"

// scope is the name table a statement executes against.
type scope interface {
	Get(name string) (Value, bool)
	Set(name string, v Value)
	Delete(name string) bool
	Contains(name string) bool
	Names() []string
}

// Env is the flat mapping of names to values shared by every evaluation of
// an [Interpreter]. It is not safe for concurrent use.
type Env struct {
	vars map[string]Value
}

// NewEnv returns an empty environment.
func NewEnv() *Env {
	return &Env{vars: make(map[string]Value)}
}

// Get returns the value bound to name.
func (e *Env) Get(name string) (Value, bool) {
	v, ok := e.vars[name]

	return v, ok
}

// Set binds name to v, replacing any previous binding.
func (e *Env) Set(name string, v Value) {
	e.vars[name] = v
}

// Delete removes the binding for name and reports whether one existed.
func (e *Env) Delete(name string) bool {
	_, ok := e.vars[name]
	delete(e.vars, name)

	return ok
}

// Contains reports whether name is bound.
func (e *Env) Contains(name string) bool {
	_, ok := e.vars[name]

	return ok
}

// Names returns every bound name, sorted.
func (e *Env) Names() []string {
	return sortedKeys(e.vars)
}

// Len returns the number of bindings.
func (e *Env) Len() int { return len(e.vars) }

// frame holds the locals of one function call. Reads fall through to the
// globals; writes stay local.
type frame struct {
	locals  map[string]Value
	globals scope
}

func newFrame(globals scope) *frame {
	return &frame{locals: make(map[string]Value), globals: globals}
}

func (f *frame) Get(name string) (Value, bool) {
	if v, ok := f.locals[name]; ok {
		return v, true
	}

	return f.globals.Get(name)
}

func (f *frame) Set(name string, v Value) { f.locals[name] = v }

func (f *frame) Delete(name string) bool {
	_, ok := f.locals[name]
	delete(f.locals, name)

	return ok
}

func (f *frame) Contains(name string) bool {
	_, ok := f.Get(name)

	return ok
}

func (f *frame) Names() []string {
	names := append(f.globals.Names(), sortedKeys(f.locals)...)
	slices.Sort(names)

	return slices.Compact(names)
}
