package tsmini

import "tsmini.dev/tsmini/internal/utils"

// Slot is an entry in a symbol table: a typed variable storage cell or an
// immutable binding to a function's AST, per spec.md §3.
type Slot struct {
	Name       string
	Type       ValueType
	Payload    TypedValue
	IsConst    bool
	IsFunction bool
	Shift      int // byte offset from ebp, multiple of 4; unused for functions
	Function   *FuncDec
}

// SymbolTable is a lexical scope frame: a name->Slot map plus a link to
// its enclosing frame. The teacher's pkg/jack/scopes.go tracks field/local/
// parameter/static scopes as independent named Stack[Variable]s; tsmini's
// grammar instead nests lexical blocks arbitrarily deep (spec.md §3), so
// the frame is modelled as a struct with a pointer to its parent frame
// rather than a fixed set of named scopes, with the slot
// map backed by utils.OrderedMap so declaration order is preserved.
type SymbolTable struct {
	parent    *SymbolTable
	slots     utils.OrderedMap[string, *Slot]
	nextShift int
}

// NewSymbolTable returns a root frame with no parent.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{slots: utils.NewOrderedMap[string, *Slot]()}
}

// NewChildScope returns a frame chained to 'parent'. Child frames continue
// the parent's shift counter: the generated code keeps every variable in
// the single ebp-based frame, so a nested block's variables are placed
// below the enclosing ones instead of reusing their offsets.
func (st *SymbolTable) NewChildScope() *SymbolTable {
	return &SymbolTable{parent: st, slots: utils.NewOrderedMap[string, *Slot](), nextShift: st.nextShift}
}

// CreateVariable declares a new variable slot in this frame, failing if
// the name already exists here (spec.md §3, §4.4).
func (st *SymbolTable) CreateVariable(name string, t ValueType) (*Slot, error) {
	if st.slots.Has(name) {
		return nil, semanticErrorf("variable '%s' already declared in this scope", name)
	}

	st.nextShift += 4
	slot := &Slot{Name: name, Type: t, Payload: zeroValue(t), Shift: st.nextShift}
	st.slots.Set(name, slot)
	return slot, nil
}

// CreateFunction declares an immutable function-binding slot in this
// frame, failing if the name already exists here.
func (st *SymbolTable) CreateFunction(name string, fn *FuncDec) (*Slot, error) {
	if st.slots.Has(name) {
		return nil, semanticErrorf("name '%s' already declared in this scope", name)
	}

	slot := &Slot{Name: name, IsConst: true, IsFunction: true, Function: fn}
	st.slots.Set(name, slot)
	return slot, nil
}

// Get walks the parent chain looking for 'name', failing if it is never
// declared.
func (st *SymbolTable) Get(name string) (*Slot, error) {
	for frame := st; frame != nil; frame = frame.parent {
		if slot, ok := frame.slots.Get(name); ok {
			return slot, nil
		}
	}
	return nil, semanticErrorf("undeclared name '%s'", name)
}

// Set walks the parent chain and updates the payload of 'name' in place,
// failing on a missing name, a function slot, or a type mismatch
// (spec.md §4.4).
func (st *SymbolTable) Set(name string, value TypedValue) error {
	slot, err := st.Get(name)
	if err != nil {
		return err
	}
	if slot.IsFunction {
		return semanticErrorf("cannot assign to function '%s'", name)
	}
	if slot.Type != value.Type {
		return semanticErrorf("cannot assign %s value to '%s' of type %s", value.Type, name, slot.Type)
	}

	slot.Payload = value
	return nil
}
