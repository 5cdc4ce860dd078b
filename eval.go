package schem

import (
	"context"
	"errors"
	"fmt"
)

// The error taxonomy mirrors the ways an evaluation can die: an unbound
// symbol, applying something that is not a function, a special form or
// builtin missing or mis-typed sub-expressions, or registry exhaustion
// (ErrHeapLimit, in registry.go). All of them abort the one expression
// being evaluated; there is no recovery inside an expression.
var (
	ErrUnboundSymbol = errors.New("unbound symbol")
	ErrNotFunction   = errors.New("not a function")
	ErrMalformedForm = errors.New("malformed form")
)

type unboundError string

func (name unboundError) Error() string { return fmt.Sprintf("unbound symbol %q", string(name)) }
func (name unboundError) Unwrap() error { return ErrUnboundSymbol }

type notFuncError struct {
	ref  Ref
	kind Kind
}

func (err notFuncError) Error() string {
	return fmt.Sprintf("cannot apply %v @%v", err.kind, uint(err.ref))
}
func (err notFuncError) Unwrap() error { return ErrNotFunction }

type formError string

func (err formError) Error() string { return string(err) }
func (err formError) Unwrap() error { return ErrMalformedForm }

type typeError struct {
	what string
	want Kind
	got  Kind
}

func (err typeError) Error() string {
	return fmt.Sprintf("%v must be a %v, got %v", err.what, err.want, err.got)
}
func (err typeError) Unwrap() error { return ErrMalformedForm }

type arityError struct {
	what string
	want int
	got  int
}

func (err arityError) Error() string {
	return fmt.Sprintf("%v takes %v arguments, got %v", err.what, err.want, err.got)
}
func (err arityError) Unwrap() error { return ErrMalformedForm }

// eval is the trampoline. Terminal shapes return; a closure application
// swaps in the body and call frame and loops, so user-level recursion
// through the application path costs no native stack. Only head and
// argument sub-evaluation recurses, bounded by expression nesting.
func (in *Interp) eval(ctx context.Context, expr Ref, env EnvRef) (Ref, error) {
	if in.logfn != nil {
		defer in.withLogPrefix("\t")()
	}

	for {
		if err := ctx.Err(); err != nil {
			return NoRef, err
		}
		obj := in.object(expr)
		if obj == nil {
			return NoRef, refError(expr)
		}
		if in.logfn != nil {
			in.logf("eval @%v %v", expr, in.Format(expr))
		}

		switch obj.kind {
		case KindNumber, KindFunc:
			return expr, nil

		case KindSymbol:
			return in.lookup(env, obj.sym)

		case KindList:
			// handled below

		default:
			return NoRef, refError(expr)
		}

		head := obj.list
		if head == noCons {
			// the empty list self-evaluates
			return expr, nil
		}

		carRef := in.consAt(head).car
		rest := in.consAt(head).cdr

		if car := in.object(carRef); car != nil && car.kind == KindSymbol {
			switch in.string(car.sym) {
			case "quote":
				return in.quoteForm(rest)
			case "define":
				return in.defineForm(ctx, rest, env)
			case "lambda":
				return in.lambdaForm(rest, env)
			case "delay":
				return in.delayForm(rest, env)
			case "if":
				next, err := in.ifForm(ctx, rest, env)
				if err != nil {
					return NoRef, err
				}
				// the chosen branch is in tail position
				expr = next
				continue
			}
		}

		fnRef, err := in.eval(ctx, carRef, env)
		if err != nil {
			return NoRef, err
		}
		fn := in.object(fnRef)
		if fn == nil || fn.kind != KindFunc {
			return NoRef, notFuncError{fnRef, in.Kind(fnRef)}
		}

		args, err := in.evalArgs(ctx, rest, env)
		if err != nil {
			return NoRef, err
		}

		if fn.fn.prim != 0 {
			return in.applyPrim(ctx, fn.fn.prim, args, env)
		}

		callEnv, err := in.newCallFrame(fn, args)
		if err != nil {
			return NoRef, err
		}
		in.logf("call @%v body=@%v env=@%v", fnRef, fn.fn.body, callEnv)
		expr = fn.fn.body
		env = callEnv
	}
}

// evalArgs evaluates every element of an application's argument chain
// left to right.
func (in *Interp) evalArgs(ctx context.Context, rest consRef, env EnvRef) ([]Ref, error) {
	var args []Ref
	for cell := rest; cell != noCons; cell = in.consAt(cell).cdr {
		val, err := in.eval(ctx, in.consAt(cell).car, env)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}
	return args, nil
}

// (quote expr) returns expr unevaluated.
func (in *Interp) quoteForm(rest consRef) (Ref, error) {
	if rest == noCons {
		return NoRef, formError("quote needs an expression")
	}
	return in.consAt(rest).car, nil
}

// (define name expr) evaluates expr, binds it in the current scope, and
// returns the value.
func (in *Interp) defineForm(ctx context.Context, rest consRef, env EnvRef) (Ref, error) {
	if rest == noCons {
		return NoRef, formError("define needs a name")
	}
	nameRef := in.consAt(rest).car
	name := in.object(nameRef)
	if name == nil || name.kind != KindSymbol {
		return NoRef, typeError{"define name", KindSymbol, in.Kind(nameRef)}
	}
	vcell := in.consAt(rest).cdr
	if vcell == noCons {
		return NoRef, formError("define needs a value expression")
	}

	val, err := in.eval(ctx, in.consAt(vcell).car, env)
	if err != nil {
		return NoRef, err
	}
	if err := in.Define(env, in.string(name.sym), val); err != nil {
		return NoRef, err
	}
	return val, nil
}

// (lambda (params...) body) constructs a closure over the current scope.
func (in *Interp) lambdaForm(rest consRef, env EnvRef) (Ref, error) {
	if rest == noCons {
		return NoRef, formError("lambda needs a parameter list")
	}
	bcell := in.consAt(rest).cdr
	if bcell == noCons {
		return NoRef, formError("lambda needs a body")
	}
	return in.Closure(in.consAt(rest).car, in.consAt(bcell).car, env)
}

// (delay expr) wraps expr, unevaluated, as a zero-parameter closure over
// the current scope. Evaluating the argument eagerly (as an application
// would) could never defer anything, so delay lives here with the other
// special forms rather than in the builtin table.
func (in *Interp) delayForm(rest consRef, env EnvRef) (Ref, error) {
	if rest == noCons {
		return NoRef, formError("delay needs an expression")
	}
	params, err := in.List()
	if err != nil {
		return NoRef, err
	}
	return in.Closure(params, in.consAt(rest).car, env)
}

// (if cond then else) evaluates only cond here; the selected branch is
// returned for the trampoline to evaluate in tail position. The branch
// not taken is never evaluated.
func (in *Interp) ifForm(ctx context.Context, rest consRef, env EnvRef) (Ref, error) {
	if rest == noCons {
		return NoRef, formError("if needs a condition")
	}
	tcell := in.consAt(rest).cdr
	if tcell == noCons {
		return NoRef, formError("if needs a consequent")
	}
	ecell := in.consAt(tcell).cdr
	if ecell == noCons {
		return NoRef, formError("if needs an alternative")
	}

	cond, err := in.eval(ctx, in.consAt(rest).car, env)
	if err != nil {
		return NoRef, err
	}
	ok, err := in.truthy("if condition", cond)
	if err != nil {
		return NoRef, err
	}
	if ok {
		return in.consAt(tcell).car, nil
	}
	return in.consAt(ecell).car, nil
}

// truthy implements the runtime's one boolean convention: conditions are
// numbers, and non-zero means true.
func (in *Interp) truthy(what string, ref Ref) (bool, error) {
	obj := in.object(ref)
	if obj == nil {
		return false, refError(ref)
	}
	if obj.kind != KindNumber {
		return false, typeError{what, KindNumber, obj.kind}
	}
	return obj.num != 0, nil
}
