package schem

import (
	"context"
	"fmt"
)

// PrimID names a builtin operation. Primitive function values carry one
// of these; the evaluator dispatches applications through primTable.
type PrimID uint

const (
	primInvalid PrimID = iota

	PrimAdd    // +       fold addition, empty sum is 0
	PrimSub    // -       left fold; one argument negates
	PrimMul    // *       fold multiplication, empty product is 1
	PrimEq     // eq?     numeric equality, 1 or 0
	PrimMap    // map     apply a function to each list element
	PrimFilter // filter  keep elements the predicate holds for
	PrimFact   // fact    factorial of a number
	PrimForce  // force   evaluate a thunk's body, every call

	primMax
)

// primTable is assigned in init: primMap and primFilter re-enter eval,
// which dispatches back through the table, so a composite-literal
// initializer would be an initialization cycle.
var primTable [primMax]func(in *Interp, ctx context.Context, args []Ref, env EnvRef) (Ref, error)

func init() {
	primTable = [primMax]func(in *Interp, ctx context.Context, args []Ref, env EnvRef) (Ref, error){
		PrimAdd:    (*Interp).primAdd,
		PrimSub:    (*Interp).primSub,
		PrimMul:    (*Interp).primMul,
		PrimEq:     (*Interp).primEq,
		PrimMap:    (*Interp).primMap,
		PrimFilter: (*Interp).primFilter,
		PrimFact:   (*Interp).primFact,
		PrimForce:  (*Interp).primForce,
	}
}

var primNames = [primMax]string{
	PrimAdd:    "+",
	PrimSub:    "-",
	PrimMul:    "*",
	PrimEq:     "eq?",
	PrimMap:    "map",
	PrimFilter: "filter",
	PrimFact:   "fact",
	PrimForce:  "force",
}

// codeError names a primitive code outside the builtin table.
type codeError PrimID

func (code codeError) Error() string { return fmt.Sprintf("invalid primitive code %v", uint(code)) }
func (code codeError) Unwrap() error { return ErrMalformedForm }

// DefaultEnv allocates a fresh root scope with every builtin bound under
// its table name, plus the sample closure double. quote, define, lambda,
// if, and delay are special forms handled by the evaluator and are not
// bindable values.
func (in *Interp) DefaultEnv() (EnvRef, error) {
	env, err := in.NewEnv(NoEnv)
	if err != nil {
		return NoEnv, err
	}
	for code := PrimAdd; code < primMax; code++ {
		ref, err := in.Primitive(code)
		if err != nil {
			return NoEnv, err
		}
		if err := in.Define(env, primNames[code], ref); err != nil {
			return NoEnv, err
		}
	}
	if err := in.defineDouble(env); err != nil {
		return NoEnv, err
	}
	return env, nil
}

// defineDouble binds double, a user closure (lambda (x) (* x 2)); really
// only for testing.
func (in *Interp) defineDouble(env EnvRef) error {
	x, err := in.Symbol("x")
	if err != nil {
		return err
	}
	params, err := in.List(x)
	if err != nil {
		return err
	}
	mul, err := in.Symbol(primNames[PrimMul])
	if err != nil {
		return err
	}
	two, err := in.Number(2)
	if err != nil {
		return err
	}
	body, err := in.List(mul, x, two)
	if err != nil {
		return err
	}
	clo, err := in.Closure(params, body, env)
	if err != nil {
		return err
	}
	return in.Define(env, "double", clo)
}

func (in *Interp) applyPrim(ctx context.Context, code PrimID, args []Ref, env EnvRef) (Ref, error) {
	if code == 0 || code >= primMax {
		return NoRef, codeError(code)
	}
	in.logf("prim %v/%v", primNames[code], len(args))
	return primTable[code](in, ctx, args, env)
}

func (in *Interp) numArg(what string, ref Ref) (float64, error) {
	obj := in.object(ref)
	if obj == nil {
		return 0, refError(ref)
	}
	if obj.kind != KindNumber {
		return 0, typeError{what, KindNumber, obj.kind}
	}
	return obj.num, nil
}

func (in *Interp) primAdd(ctx context.Context, args []Ref, env EnvRef) (Ref, error) {
	total := 0.0
	for _, ref := range args {
		n, err := in.numArg("+ argument", ref)
		if err != nil {
			return NoRef, err
		}
		total += n
	}
	return in.Number(total)
}

func (in *Interp) primSub(ctx context.Context, args []Ref, env EnvRef) (Ref, error) {
	if len(args) == 0 {
		return NoRef, formError("- needs at least one argument")
	}
	total, err := in.numArg("- argument", args[0])
	if err != nil {
		return NoRef, err
	}
	if len(args) == 1 {
		return in.Number(-total)
	}
	for _, ref := range args[1:] {
		n, err := in.numArg("- argument", ref)
		if err != nil {
			return NoRef, err
		}
		total -= n
	}
	return in.Number(total)
}

func (in *Interp) primMul(ctx context.Context, args []Ref, env EnvRef) (Ref, error) {
	total := 1.0
	for _, ref := range args {
		n, err := in.numArg("* argument", ref)
		if err != nil {
			return NoRef, err
		}
		total *= n
	}
	return in.Number(total)
}

func (in *Interp) primEq(ctx context.Context, args []Ref, env EnvRef) (Ref, error) {
	if len(args) != 2 {
		return NoRef, arityError{"eq?", 2, len(args)}
	}
	a, err := in.numArg("eq? argument", args[0])
	if err != nil {
		return NoRef, err
	}
	b, err := in.numArg("eq? argument", args[1])
	if err != nil {
		return NoRef, err
	}
	return in.Number(boolNum(a == b))
}

// fnListArgs validates the (function list) argument shape shared by map
// and filter.
func (in *Interp) fnListArgs(what string, args []Ref) (fn Ref, chain consRef, err error) {
	if len(args) != 2 {
		return NoRef, noCons, arityError{what, 2, len(args)}
	}
	fobj := in.object(args[0])
	if fobj == nil || fobj.kind != KindFunc {
		return NoRef, noCons, typeError{what + " function", KindFunc, in.Kind(args[0])}
	}
	lobj := in.object(args[1])
	if lobj == nil || lobj.kind != KindList {
		return NoRef, noCons, typeError{what + " list", KindList, in.Kind(args[1])}
	}
	return args[0], lobj.list, nil
}

// map and filter have no closure-calling convention of their own: for
// each element they synthesize the application (f x) and hand it back to
// the evaluator.
func (in *Interp) primMap(ctx context.Context, args []Ref, env EnvRef) (Ref, error) {
	fn, chain, err := in.fnListArgs("map", args)
	if err != nil {
		return NoRef, err
	}
	var results []Ref
	for cell := chain; cell != noCons; cell = in.consAt(cell).cdr {
		app, err := in.List(fn, in.consAt(cell).car)
		if err != nil {
			return NoRef, err
		}
		val, err := in.eval(ctx, app, env)
		if err != nil {
			return NoRef, err
		}
		results = append(results, val)
	}
	return in.List(results...)
}

func (in *Interp) primFilter(ctx context.Context, args []Ref, env EnvRef) (Ref, error) {
	fn, chain, err := in.fnListArgs("filter", args)
	if err != nil {
		return NoRef, err
	}
	var results []Ref
	for cell := chain; cell != noCons; cell = in.consAt(cell).cdr {
		elem := in.consAt(cell).car
		app, err := in.List(fn, elem)
		if err != nil {
			return NoRef, err
		}
		val, err := in.eval(ctx, app, env)
		if err != nil {
			return NoRef, err
		}
		keep, err := in.truthy("filter result", val)
		if err != nil {
			return NoRef, err
		}
		if keep {
			results = append(results, elem)
		}
	}
	return in.List(results...)
}

func (in *Interp) primFact(ctx context.Context, args []Ref, env EnvRef) (Ref, error) {
	if len(args) != 1 {
		return NoRef, arityError{"fact", 1, len(args)}
	}
	n, err := in.numArg("fact argument", args[0])
	if err != nil {
		return NoRef, err
	}
	if n < 0 {
		return NoRef, formError("fact needs a non-negative number")
	}
	total := 1.0
	for i := 2.0; i <= n; i++ {
		total *= i
	}
	return in.Number(total)
}

// force evaluates a thunk's body in the environment the thunk captured,
// every time it is called; there is no memoization.
func (in *Interp) primForce(ctx context.Context, args []Ref, env EnvRef) (Ref, error) {
	if len(args) != 1 {
		return NoRef, arityError{"force", 1, len(args)}
	}
	obj := in.object(args[0])
	if obj == nil || obj.kind != KindFunc || obj.fn.prim != 0 {
		return NoRef, formError("force needs a thunk")
	}
	return in.eval(ctx, obj.fn.body, obj.fn.env)
}

func boolNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
