package schem

// @generated from eval_test.go

//go:generate go run scripts/gen_eval_expects.go -- eval_test.go eval_expects_test.go

import (
	"time"
)

func withEvalOptions(opts ...Option) func(evalTestCase) evalTestCase {
	return func(evt evalTestCase) evalTestCase {
		return evt.withOptions(opts...)
	}
}

func withEvalSetup(forms ...interface{}) func(evalTestCase) evalTestCase {
	return func(evt evalTestCase) evalTestCase {
		return evt.withSetup(forms...)
	}
}

func withEvalExpr(form interface{}) func(evalTestCase) evalTestCase {
	return func(evt evalTestCase) evalTestCase {
		return evt.withExpr(form)
	}
}

func withEvalTimeout(timeout time.Duration) func(evalTestCase) evalTestCase {
	return func(evt evalTestCase) evalTestCase {
		return evt.withTimeout(timeout)
	}
}

func expectEvalError(err error) func(evalTestCase) evalTestCase {
	return func(evt evalTestCase) evalTestCase {
		return evt.expectError(err)
	}
}

func expectEvalNumber(value float64) func(evalTestCase) evalTestCase {
	return func(evt evalTestCase) evalTestCase {
		return evt.expectNumber(value)
	}
}

func expectEvalFormat(s string) func(evalTestCase) evalTestCase {
	return func(evt evalTestCase) evalTestCase {
		return evt.expectFormat(s)
	}
}
