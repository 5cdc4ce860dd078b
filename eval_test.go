package schem

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Feyerabend/schem/internal/logio"
)

func Test_eval(t *testing.T) {
	evalTestCases{

		evalTest("number self-evaluates").
			withExpr(42.0).
			expectNumber(42),

		evalTest("empty list self-evaluates").
			withExpr(lst()).
			expectFormat("()"),

		evalTest("define then lookup").
			withSetup(lst("define", "x", 10.0)).
			withExpr("x").
			expectNumber(10),

		evalTest("unbound symbol").
			withExpr("nope").
			expectError(ErrUnboundSymbol),

		evalTest("redefinition shadows").
			withSetup(
				lst("define", "x", 1.0),
				lst("define", "x", 2.0)).
			withExpr("x").
			expectNumber(2),

		evalTest("add").
			withExpr(lst("+", 1.0, 2.0, 3.0)).
			expectNumber(6),

		evalTest("empty sum").
			withExpr(lst("+")).
			expectNumber(0),

		evalTest("empty product").
			withExpr(lst("*")).
			expectNumber(1),

		evalTest("negate").
			withExpr(lst("-", 5.0)).
			expectNumber(-5),

		evalTest("subtract folds left").
			withExpr(lst("-", 10.0, 3.0, 2.0)).
			expectNumber(5),

		evalTest("multiply").
			withExpr(lst("*", 2.0, 3.0, 4.0)).
			expectNumber(24),

		evalTest("add rejects non-numbers").
			withExpr(lst("+", 1.0, lst("quote", "x"))).
			expectError(ErrMalformedForm),

		evalTest("eq? equal").
			withExpr(lst("eq?", 3.0, 3.0)).
			expectNumber(1),

		evalTest("eq? unequal").
			withExpr(lst("eq?", 3.0, 4.0)).
			expectNumber(0),

		evalTest("eq? needs two arguments").
			withExpr(lst("eq?", 3.0)).
			expectError(ErrMalformedForm),

		evalTest("quote list").
			withExpr(lst("quote", lst(1.0, 2.0, 3.0))).
			expectFormat("(1 2 3)"),

		evalTest("quote symbol").
			withExpr(lst("quote", "x")).
			expectFormat("x"),

		evalTest("immediate lambda application").
			withExpr(lst(lst("lambda", lst("n"), lst("*", "n", "n")), 7.0)).
			expectNumber(49),

		evalTest("closure captures definition scope").
			withSetup(
				lst("define", "a", 10.0),
				lst("define", "addA", lst("lambda", lst("n"), lst("+", "n", "a")))).
			withExpr(lst("addA", 5.0)).
			expectNumber(15),

		evalTest("lambda formats").
			withExpr(lst("lambda", lst("n"), "n")).
			expectFormat("#[closure (n) n]"),

		evalTest("if selects consequent").
			withExpr(lst("if", 1.0, 42.0, "boom")).
			expectNumber(42),

		evalTest("if selects alternative").
			withExpr(lst("if", 0.0, "boom", 7.0)).
			expectNumber(7),

		evalTest("if condition must be a number").
			withExpr(lst("if", lst("quote", "x"), 1.0, 2.0)).
			expectError(ErrMalformedForm),

		evalTest("if needs an alternative").
			withExpr(lst("if", 1.0, 2.0)).
			expectError(ErrMalformedForm),

		evalTest("define needs a value").
			withExpr(lst("define", "x")).
			expectError(ErrMalformedForm),

		evalTest("define name must be a symbol").
			withExpr(lst("define", 1.0, 2.0)).
			expectError(ErrMalformedForm),

		evalTest("apply non-function").
			withExpr(lst(1.0, 2.0)).
			expectError(ErrNotFunction),

		evalTest("call with too many arguments").
			withExpr(lst(lst("lambda", lst("n"), "n"), 1.0, 2.0)).
			expectError(ErrMalformedForm),

		evalTest("call with too few arguments").
			withExpr(lst(lst("lambda", lst("a", "b"), "a"), 1.0)).
			expectError(ErrMalformedForm),

		evalTest("map").
			withExpr(lst("map",
				lst("lambda", lst("n"), lst("*", "n", "n")),
				lst("quote", lst(1.0, 2.0, 3.0)))).
			expectFormat("(1 4 9)"),

		evalTest("map over empty list").
			withExpr(lst("map", lst("lambda", lst("n"), "n"), lst("quote", lst()))).
			expectFormat("()"),

		evalTest("map needs a function").
			withExpr(lst("map", 1.0, lst("quote", lst(1.0)))).
			expectError(ErrMalformedForm),

		evalTest("filter").
			withExpr(lst("filter",
				lst("lambda", lst("n"), "n"),
				lst("quote", lst(-2.0, -1.0, 0.0, 1.0, 2.0)))).
			expectFormat("(-2 -1 1 2)"),

		evalTest("fact").
			withExpr(lst("fact", 10.0)).
			expectNumber(3628800),

		evalTest("fact of zero").
			withExpr(lst("fact", 0.0)).
			expectNumber(1),

		evalTest("fact rejects negatives").
			withExpr(lst("fact", -1.0)).
			expectError(ErrMalformedForm),

		evalTest("force evaluates a promise").
			withSetup(
				lst("define", "a", 2.0),
				lst("define", "p", lst("delay", lst("+", "a", 1.0)))).
			withExpr(lst("force", "p")).
			expectNumber(3),

		evalTest("promise sees later bindings in its scope").
			withSetup(
				lst("define", "p", lst("delay", "a")),
				lst("define", "a", 5.0)).
			withExpr(lst("force", "p")).
			expectNumber(5),

		evalTest("force needs a thunk").
			withExpr(lst("force", 1.0)).
			expectError(ErrMalformedForm),

		evalTest("bootstrap double").
			withExpr(lst("double", 21.0)).
			expectNumber(42),

		evalTest("heap limit kills construction").apply(
			withEvalOptions(WithHeapLimit(14)),
			withEvalExpr(lst("+", 1.0, 2.0, 3.0)),
			expectEvalError(ErrHeapLimit)),

		evalTest("deep recursion runs in constant stack").apply(
			withEvalSetup(lst("define", "loop",
				lst("lambda", lst("n"),
					lst("if", "n",
						lst("loop", lst("-", "n", 1.0)),
						0.0)))),
			withEvalExpr(lst("loop", 100000.0)),
			withEvalTimeout(10*time.Second),
			expectEvalNumber(0)),
	}.run(t)
}

func Test_Eval_cancel(t *testing.T) {
	in := New()
	env, err := in.DefaultEnv()
	require.NoError(t, err)

	expr, err := buildExpr(in, lst("+", 1.0, 2.0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = in.Eval(ctx, expr, env)
	assert.True(t, errors.Is(err, context.Canceled), "expected cancellation, got: %+v", err)
}

func Test_Eval_forceRecomputes(t *testing.T) {
	in := New()
	env, err := in.DefaultEnv()
	require.NoError(t, err)

	ctx := context.Background()
	for _, form := range []interface{}{
		lst("define", "p", lst("delay", lst("+", 1.0, 2.0))),
	} {
		expr, err := buildExpr(in, form)
		require.NoError(t, err)
		_, err = in.Eval(ctx, expr, env)
		require.NoError(t, err)
	}

	force, err := buildExpr(in, lst("force", "p"))
	require.NoError(t, err)

	res1, err := in.Eval(ctx, force, env)
	require.NoError(t, err)
	size1 := in.HeapSize()

	res2, err := in.Eval(ctx, force, env)
	require.NoError(t, err)
	size2 := in.HeapSize()

	assert.NotEqual(t, res1, res2, "expected a fresh result value per force")
	assert.Greater(t, size2, size1, "expected each force to allocate its result")

	n1, err := in.NumberValue(res1)
	require.NoError(t, err)
	n2, err := in.NumberValue(res2)
	require.NoError(t, err)
	assert.Equal(t, n1, n2, "expected equal recomputed values")
}

//// the test case harness

type evalTestCases []evalTestCase

func (evts evalTestCases) run(t *testing.T) {
	{
		var exclusive []evalTestCase
		for _, evt := range evts {
			if evt.exclusive {
				exclusive = append(exclusive, evt)
			}
		}
		if len(exclusive) > 0 {
			evts = exclusive
		}
	}
	for _, evt := range evts {
		if !t.Run(evt.name, evt.run) {
			return
		}
	}
}

func evalTest(name string) (evt evalTestCase) {
	evt.name = name
	return evt
}

type evalTestCase struct {
	name    string
	opts    []Option
	setup   []interface{}
	expr    interface{}
	expect  []func(t *testing.T, in *Interp, res Ref)
	timeout time.Duration
	wantErr error

	exclusive bool
}

func (evt evalTestCase) apply(wraps ...func(evalTestCase) evalTestCase) evalTestCase {
	for _, wrap := range wraps {
		evt = wrap(evt)
	}
	return evt
}

func (evt evalTestCase) exclusiveTest() evalTestCase {
	evt.exclusive = true
	return evt
}

func (evt evalTestCase) withOptions(opts ...Option) evalTestCase {
	evt.opts = append(evt.opts, opts...)
	return evt
}

func (evt evalTestCase) withSetup(forms ...interface{}) evalTestCase {
	evt.setup = append(evt.setup, forms...)
	return evt
}

func (evt evalTestCase) withExpr(form interface{}) evalTestCase {
	evt.expr = form
	return evt
}

func (evt evalTestCase) withTimeout(timeout time.Duration) evalTestCase {
	evt.timeout = timeout
	return evt
}

func (evt evalTestCase) expectError(err error) evalTestCase {
	evt.wantErr = err
	return evt
}

func (evt evalTestCase) expectNumber(value float64) evalTestCase {
	evt.expect = append(evt.expect, func(t *testing.T, in *Interp, res Ref) {
		n, err := in.NumberValue(res)
		if assert.NoError(t, err, "expected a number result") {
			assert.Equal(t, value, n, "expected result value")
		}
	})
	return evt
}

func (evt evalTestCase) expectFormat(s string) evalTestCase {
	evt.expect = append(evt.expect, func(t *testing.T, in *Interp, res Ref) {
		assert.Equal(t, s, in.Format(res), "expected formatted result")
	})
	return evt
}

func (evt evalTestCase) run(t *testing.T) {
	defer func(then time.Time) {
		label := "PASS"
		if t.Failed() {
			label = "FAIL"
		}
		t.Logf("%v\t%v\t%v", label, t.Name(), time.Now().Sub(then))
	}(time.Now())

	if testFails(func(t *testing.T) {
		evt.runEvalTest(context.Background(), t, New(evt.opts...))
	}) {
		in := New(Options(evt.opts...), WithLogf(t.Logf))
		evt.runEvalTest(context.Background(), t, in)
	}
}

func (evt evalTestCase) runEvalTest(ctx context.Context, t *testing.T, in *Interp) {
	const defaultTimeout = time.Second
	timeout := evt.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if t.Failed() {
			lw := logio.Writer{Logf: t.Logf}
			defer lw.Close()
			_ = in.Dump(&lw)
		}
	}()

	res, err := evt.runEval(ctx, in)
	if evt.wantErr != nil {
		assert.True(t, errors.Is(err, evt.wantErr), "expected error: %v\ngot: %+v", evt.wantErr, err)
	} else {
		assert.NoError(t, err, "unexpected eval error")
	}

	if !t.Failed() {
		for _, expect := range evt.expect {
			expect(t, in, res)
		}
	}
}

// runEval runs the whole case pipeline, returning the first error: scope
// construction, setup forms, then the main expression.
func (evt evalTestCase) runEval(ctx context.Context, in *Interp) (Ref, error) {
	env, err := in.DefaultEnv()
	if err != nil {
		return NoRef, err
	}

	for _, form := range evt.setup {
		expr, err := buildExpr(in, form)
		if err != nil {
			return NoRef, err
		}
		if _, err := in.Eval(ctx, expr, env); err != nil {
			return NoRef, err
		}
	}

	expr, err := buildExpr(in, evt.expr)
	if err != nil {
		return NoRef, err
	}
	return in.Eval(ctx, expr, env)
}

//// utilities

// buildExpr turns a literal test form into a value tree: float64s become
// numbers, strings become symbols, and lst(...) slices become lists.
func buildExpr(in *Interp, form interface{}) (Ref, error) {
	switch v := form.(type) {
	case Ref:
		return v, nil
	case float64:
		return in.Number(v)
	case string:
		return in.Symbol(v)
	case []interface{}:
		elems := make([]Ref, len(v))
		for i, sub := range v {
			ref, err := buildExpr(in, sub)
			if err != nil {
				return NoRef, err
			}
			elems[i] = ref
		}
		return in.List(elems...)
	}
	return NoRef, fmt.Errorf("cannot build an expression from %T", form)
}

func lst(forms ...interface{}) []interface{} { return forms }

func testFails(fn func(t *testing.T)) bool {
	var fakeT testing.T
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(&fakeT)
	}()
	<-done
	return fakeT.Failed()
}
