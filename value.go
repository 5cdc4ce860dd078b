package schem

import "fmt"

// Kind tags a registered value. Every dispatch site switches exhaustively
// over these; anything else is a dead or invalid handle.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNumber
	KindSymbol
	KindList
	KindFunc
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindNumber:  "number",
	KindSymbol:  "symbol",
	KindList:    "list",
	KindFunc:    "function",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%v)", uint8(k))
}

// Ref is a handle to a value in an Interp's registry. Handles are indexes,
// not pointers: they stay valid across collection cycles for as long as
// the value is reachable from a root. NoRef never names a value.
type Ref uint

// NoRef is the null value handle.
const NoRef Ref = 0

// consRef indexes the cons-cell arena. Cons cells are never exposed as
// values; they are only reachable through the list object that owns the
// head of their chain.
type consRef uint

const noCons consRef = 0

// object is one registry slot: a tagged variant over the four value
// kinds. The mark bit belongs to the collector.
type object struct {
	kind   Kind
	marked bool

	num  float64
	sym  uint
	list consRef
	fn   funcData
}

// funcData is the function payload: a primitive code, or a closure's
// parameter list, body expression, and captured environment.
type funcData struct {
	prim   PrimID
	params Ref
	body   Ref
	env    EnvRef
}

// cons is one cell of a list chain.
type cons struct {
	marked bool
	car    Ref
	cdr    consRef
}

// Number registers a self-evaluating number value.
func (in *Interp) Number(n float64) (Ref, error) {
	ref, obj, err := in.allocObject()
	if err != nil {
		return NoRef, err
	}
	obj.kind = KindNumber
	obj.num = n
	in.logf("alloc @%v number %v", ref, n)
	return ref, nil
}

// Symbol registers a symbol value, interning its name.
func (in *Interp) Symbol(name string) (Ref, error) {
	ref, obj, err := in.allocObject()
	if err != nil {
		return NoRef, err
	}
	obj.kind = KindSymbol
	obj.sym = in.symbolicate(name)
	in.logf("alloc @%v symbol %v", ref, name)
	return ref, nil
}

// Pair registers a list value whose chain is head consed onto tail's
// chain. tail must be a list value or NoRef (for the empty tail). The new
// cell and its owning list value are created in one step, so the chain is
// never left without an owner.
func (in *Interp) Pair(head, tail Ref) (Ref, error) {
	if head == NoRef {
		return NoRef, formError("pair needs a head value")
	}
	rest := noCons
	if tail != NoRef {
		obj := in.object(tail)
		if obj == nil {
			return NoRef, refError(tail)
		}
		if obj.kind != KindList {
			return NoRef, typeError{"pair tail", KindList, obj.kind}
		}
		rest = obj.list
	}

	cell, c, err := in.allocCons()
	if err != nil {
		return NoRef, err
	}
	c.car = head
	c.cdr = rest

	ref, obj, err := in.allocObject()
	if err != nil {
		return NoRef, err
	}
	obj.kind = KindList
	obj.list = cell
	in.logf("alloc @%v pair head=@%v", ref, head)
	return ref, nil
}

// List registers a list value over the given elements; with no elements
// it registers the empty list.
func (in *Interp) List(elems ...Ref) (Ref, error) {
	chain := noCons
	for i := len(elems) - 1; i >= 0; i-- {
		if elems[i] == NoRef {
			return NoRef, formError("list needs non-null elements")
		}
		cell, c, err := in.allocCons()
		if err != nil {
			return NoRef, err
		}
		c.car = elems[i]
		c.cdr = chain
		chain = cell
	}

	ref, obj, err := in.allocObject()
	if err != nil {
		return NoRef, err
	}
	obj.kind = KindList
	obj.list = chain
	in.logf("alloc @%v list len=%v", ref, len(elems))
	return ref, nil
}

// Closure registers a user function value: a parameter list, an
// unevaluated body expression, and the environment to reopen on call.
func (in *Interp) Closure(params, body Ref, env EnvRef) (Ref, error) {
	pobj := in.object(params)
	if pobj == nil {
		return NoRef, refError(params)
	}
	if pobj.kind != KindList {
		return NoRef, typeError{"closure parameters", KindList, pobj.kind}
	}
	if body == NoRef {
		return NoRef, formError("closure needs a body")
	}

	ref, obj, err := in.allocObject()
	if err != nil {
		return NoRef, err
	}
	obj.kind = KindFunc
	obj.fn = funcData{params: params, body: body, env: env}
	in.logf("alloc @%v closure params=@%v body=@%v", ref, params, body)
	return ref, nil
}

// Primitive registers a function value naming a builtin operation.
func (in *Interp) Primitive(id PrimID) (Ref, error) {
	if id == 0 || id >= primMax {
		return NoRef, codeError(id)
	}
	ref, obj, err := in.allocObject()
	if err != nil {
		return NoRef, err
	}
	obj.kind = KindFunc
	obj.fn = funcData{prim: id}
	in.logf("alloc @%v builtin %v", ref, primNames[id])
	return ref, nil
}

// Kind reports the tag of the value at ref, or KindInvalid for a null,
// out-of-range, or collected handle.
func (in *Interp) Kind(ref Ref) Kind {
	if obj := in.object(ref); obj != nil {
		return obj.kind
	}
	return KindInvalid
}

// NumberValue returns the scalar held by a number value.
func (in *Interp) NumberValue(ref Ref) (float64, error) {
	obj, err := in.need(ref, KindNumber)
	if err != nil {
		return 0, err
	}
	return obj.num, nil
}

// SymbolName returns the name held by a symbol value.
func (in *Interp) SymbolName(ref Ref) (string, error) {
	obj, err := in.need(ref, KindSymbol)
	if err != nil {
		return "", err
	}
	return in.string(obj.sym), nil
}

// IsEmpty reports whether a list value is the empty list.
func (in *Interp) IsEmpty(ref Ref) (bool, error) {
	obj, err := in.need(ref, KindList)
	if err != nil {
		return false, err
	}
	return obj.list == noCons, nil
}

// Head returns the first element of a non-empty list value.
func (in *Interp) Head(ref Ref) (Ref, error) {
	obj, err := in.need(ref, KindList)
	if err != nil {
		return NoRef, err
	}
	if obj.list == noCons {
		return NoRef, formError("head of empty list")
	}
	return in.consAt(obj.list).car, nil
}

// Tail returns the rest of a non-empty list value as a new list value.
// The chain is shared, not copied; both lists own it for marking.
func (in *Interp) Tail(ref Ref) (Ref, error) {
	obj, err := in.need(ref, KindList)
	if err != nil {
		return NoRef, err
	}
	if obj.list == noCons {
		return NoRef, formError("tail of empty list")
	}
	rest := in.consAt(obj.list).cdr

	tref, tobj, err := in.allocObject()
	if err != nil {
		return NoRef, err
	}
	tobj.kind = KindList
	tobj.list = rest
	return tref, nil
}

// IsPrimitive reports whether a function value is a builtin rather than
// a closure.
func (in *Interp) IsPrimitive(ref Ref) (bool, error) {
	obj, err := in.need(ref, KindFunc)
	if err != nil {
		return false, err
	}
	return obj.fn.prim != 0, nil
}

// PrimitiveID returns the builtin code of a primitive function value.
func (in *Interp) PrimitiveID(ref Ref) (PrimID, error) {
	obj, err := in.need(ref, KindFunc)
	if err != nil {
		return 0, err
	}
	if obj.fn.prim == 0 {
		return 0, formError("function is a closure, not a builtin")
	}
	return obj.fn.prim, nil
}

// ClosureParams returns the parameter list of a closure value.
func (in *Interp) ClosureParams(ref Ref) (Ref, error) {
	obj, err := in.needClosure(ref)
	if err != nil {
		return NoRef, err
	}
	return obj.fn.params, nil
}

// ClosureBody returns the body expression of a closure value.
func (in *Interp) ClosureBody(ref Ref) (Ref, error) {
	obj, err := in.needClosure(ref)
	if err != nil {
		return NoRef, err
	}
	return obj.fn.body, nil
}

// ClosureEnv returns the environment captured by a closure value.
func (in *Interp) ClosureEnv(ref Ref) (EnvRef, error) {
	obj, err := in.needClosure(ref)
	if err != nil {
		return NoEnv, err
	}
	return obj.fn.env, nil
}

func (in *Interp) need(ref Ref, kind Kind) (*object, error) {
	obj := in.object(ref)
	if obj == nil {
		return nil, refError(ref)
	}
	if obj.kind != kind {
		return nil, typeError{"value", kind, obj.kind}
	}
	return obj, nil
}

func (in *Interp) needClosure(ref Ref) (*object, error) {
	obj, err := in.need(ref, KindFunc)
	if err != nil {
		return nil, err
	}
	if obj.fn.prim != 0 {
		return nil, formError("function is a builtin, not a closure")
	}
	return obj, nil
}
