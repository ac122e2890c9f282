package lang

import (
	"context"
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the concrete type of a [Value].
type Kind uint8

// Value kinds.
const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindCallable
	KindModule
)

var kindNames = [...]string{
	KindNone:     "NoneType",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "str",
	KindList:     "list",
	KindMap:      "dict",
	KindCallable: "function",
	KindModule:   "module",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is any value a script can hold.
type Value interface {
	Kind() Kind
	// String returns the printable form; strings print without quotes.
	String() string
	Truth() bool
}

// Callable is a Value that can be invoked.
type Callable interface {
	Value
	Name() string
	Call(ctx context.Context, args []Value) (Value, error)
}

// Signature is implemented by callables that can describe their parameters.
type Signature interface {
	Params() []string
}

type (
	// NoneType is the type of [None].
	NoneType struct{}
	// Bool is a boolean; it counts as 0 or 1 in arithmetic.
	Bool bool
	// Int is a signed 64-bit integer.
	Int int64
	// Float is a 64-bit floating point number.
	Float float64
	// String is an immutable sequence of runes.
	String string
)

// None is the absent value.
var None Value = NoneType{}

// Value constants.
const (
	True  = Bool(true)
	False = Bool(false)
)

func (NoneType) Kind() Kind { return KindNone }
func (NoneType) String() string { return "None" }
func (NoneType) Truth() bool { return false }
func (Bool) Kind() Kind { return KindBool }
func (b Bool) Truth() bool { return bool(b) }
func (Int) Kind() Kind { return KindInt }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) Truth() bool { return i != 0 }
func (Float) Kind() Kind { return KindFloat }
func (f Float) Truth() bool { return f != 0 }
func (String) Kind() Kind { return KindString }
func (s String) String() string { return string(s) }
func (s String) Truth() bool { return s != "" }
func (s String) Len() int { return len([]rune(s)) }

func (b Bool) String() string {
	if b {
		return "True"
	}

	return "False"
}

func (f Float) String() string {
	v := float64(f)

	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}

	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	return s
}

// Repr returns s quoted as a string literal.
func (s String) Repr() string {
	quote := byte('\'')
	if strings.ContainsRune(string(s), '\'') && !strings.ContainsRune(string(s), '"') {
		quote = '"'
	}

	var b strings.Builder

	b.WriteByte(quote)

	for _, r := range string(s) {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}

	b.WriteByte(quote)

	return b.String()
}

// List is an ordered, mutable sequence shared by reference.
type List struct {
	Elems []Value
}

// NewList returns a list holding elems.
func NewList(elems ...Value) *List {
	return &List{Elems: elems}
}

func (*List) Kind() Kind { return KindList }
func (l *List) Truth() bool { return len(l.Elems) > 0 }
func (l *List) Len() int { return len(l.Elems) }
func (l *List) String() string { return Repr(l) }

// Append adds v to the end of l.
func (l *List) Append(v ...Value) { l.Elems = append(l.Elems, v...) }

// hashKey normalizes a hashable value so that numerically equal keys collide.
type hashKey struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func keyOf(v Value) (hashKey, bool) {
	switch v := v.(type) {
	case NoneType:
		return hashKey{kind: KindNone}, true
	case Bool:
		if v {
			return hashKey{kind: KindInt, i: 1}, true
		}

		return hashKey{kind: KindInt}, true
	case Int:
		return hashKey{kind: KindInt, i: int64(v)}, true
	case Float:
		f := float64(v)
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return hashKey{kind: KindInt, i: int64(f)}, true
		}

		return hashKey{kind: KindFloat, f: f}, true
	case String:
		return hashKey{kind: KindString, s: string(v)}, true
	}

	return hashKey{}, false
}

type mapEntry struct {
	key Value
	val Value
}

// Map is an insertion-ordered mapping with unique hashable keys, shared by
// reference.
type Map struct {
	entries []mapEntry
	index   map[hashKey]int
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{index: map[hashKey]int{}}
}

func (*Map) Kind() Kind { return KindMap }
func (m *Map) Truth() bool { return len(m.entries) > 0 }
func (m *Map) Len() int { return len(m.entries) }
func (m *Map) String() string { return Repr(m) }

// Get returns the value stored under key.
func (m *Map) Get(key Value) (Value, bool, error) {
	k, ok := keyOf(key)
	if !ok {
		return nil, false, unhashable(key)
	}

	i, ok := m.index[k]
	if !ok {
		return nil, false, nil
	}

	return m.entries[i].val, true, nil
}

// GetString is Get for string keys.
func (m *Map) GetString(key string) (Value, bool) {
	v, ok, _ := m.Get(String(key))

	return v, ok
}

// Set stores val under key, keeping the original insertion slot of an
// existing key.
func (m *Map) Set(key, val Value) error {
	k, ok := keyOf(key)
	if !ok {
		return unhashable(key)
	}

	if m.index == nil {
		m.index = map[hashKey]int{}
	}

	if i, ok := m.index[k]; ok {
		m.entries[i].val = val

		return nil
	}

	m.index[k] = len(m.entries)
	m.entries = append(m.entries, mapEntry{key: key, val: val})

	return nil
}

// SetString is Set for string keys.
func (m *Map) SetString(key string, val Value) {
	_ = m.Set(String(key), val)
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key Value) (bool, error) {
	k, ok := keyOf(key)
	if !ok {
		return false, unhashable(key)
	}

	i, ok := m.index[k]
	if !ok {
		return false, nil
	}

	m.entries = slices.Delete(m.entries, i, i+1)
	delete(m.index, k)

	for j := i; j < len(m.entries); j++ {
		kk, _ := keyOf(m.entries[j].key)
		m.index[kk] = j
	}

	return true, nil
}

// Clear removes every entry.
func (m *Map) Clear() {
	m.entries = nil
	m.index = map[hashKey]int{}
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Value {
	keys := make([]Value, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}

	return keys
}

// Values returns the values in insertion order.
func (m *Map) Values() []Value {
	vals := make([]Value, len(m.entries))
	for i, e := range m.entries {
		vals[i] = e.val
	}

	return vals
}

// All iterates the entries in insertion order.
func (m *Map) All() iter.Seq2[Value, Value] {
	return func(yield func(Value, Value) bool) {
		for _, e := range m.entries {
			if !yield(e.key, e.val) {
				return
			}
		}
	}
}

// Copy returns a shallow copy of m.
func (m *Map) Copy() *Map {
	c := NewMap()
	for _, e := range m.entries {
		_ = c.Set(e.key, e.val)
	}

	return c
}

// Module is an immutable named table of members.
type Module struct {
	name    string
	members map[string]Value
}

// NewModule returns a module holding a copy of members.
func NewModule(name string, members map[string]Value) *Module {
	m := &Module{name: name, members: make(map[string]Value, len(members))}
	for k, v := range members {
		m.members[k] = v
	}

	return m
}

func (*Module) Kind() Kind { return KindModule }
func (m *Module) Truth() bool { return true }
func (m *Module) Name() string { return m.name }
func (m *Module) String() string { return "<module '" + m.name + "'>" }

// Member returns the named member.
func (m *Module) Member(name string) (Value, bool) {
	v, ok := m.members[name]

	return v, ok
}

// Names returns the member names, sorted.
func (m *Module) Names() []string {
	return sortedKeys(m.members)
}

// Repr renders v as a literal. A container that contains itself renders the
// inner reference as [...] or {...}.
func Repr(v Value) string {
	return repr(v, map[Value]bool{})
}

// repr renders v; active holds the containers being rendered.
func repr(v Value, active map[Value]bool) string {
	switch v := v.(type) {
	case nil:
		return "None"
	case String:
		return v.Repr()
	case *List:
		if active[v] {
			return "[...]"
		}

		active[v] = true
		defer delete(active, v)

		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = repr(e, active)
		}

		return "[" + strings.Join(parts, ", ") + "]"
	case *Map:
		if active[v] {
			return "{...}"
		}

		active[v] = true
		defer delete(active, v)

		parts := make([]string, 0, len(v.entries))
		for _, e := range v.entries {
			parts = append(parts, repr(e.key, active)+": "+repr(e.val, active))
		}

		return "{" + strings.Join(parts, ", ") + "}"
	}

	return v.String()
}

// TypeName returns the script-visible type name of v.
func TypeName(v Value) string {
	if v == nil {
		return KindNone.String()
	}

	return v.Kind().String()
}

// Iterate returns the sequence of values produced by iterating v.
func Iterate(v Value) (iter.Seq[Value], error) {
	switch v := v.(type) {
	case *List:
		elems := slices.Clone(v.Elems)

		return slices.Values(elems), nil
	case String:
		return func(yield func(Value) bool) {
			for _, r := range string(v) {
				if !yield(String(r)) {
					return
				}
			}
		}, nil
	case *Map:
		return slices.Values(v.Keys()), nil
	case *Module:
		return func(yield func(Value) bool) {
			for _, name := range v.Names() {
				if !yield(String(name)) {
					return
				}
			}
		}, nil
	}

	return nil, evalErr("'" + TypeName(v) + "' object is not iterable")
}

// Collect materializes the iteration of v.
func Collect(v Value) ([]Value, error) {
	seq, err := Iterate(v)
	if err != nil {
		return nil, err
	}

	return slices.Collect(seq), nil
}

func unhashable(v Value) error {
	return evalErr("unhashable type: '" + TypeName(v) + "'")
}

func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}
