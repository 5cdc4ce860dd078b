package schem

import (
	"context"

	"github.com/Feyerabend/schem/internal/panicerr"
)

// New creates an independent interpreter instance. Instances share no
// state and may be used concurrently with one another, though a single
// instance is strictly single-threaded.
func New(opts ...Option) *Interp {
	var in Interp
	Options(opts...).apply(&in)
	return &in
}

// Eval evaluates an expression tree against an environment chain,
// returning the result value or the structured error that killed the
// evaluation. Internal panics are recovered and reported as errors
// rather than escaping the caller.
func (in *Interp) Eval(ctx context.Context, expr Ref, env EnvRef) (Ref, error) {
	res := NoRef
	err := panicerr.Recover("eval", func() (rerr error) {
		res, rerr = in.eval(ctx, expr, env)
		return rerr
	})
	if err != nil {
		return NoRef, err
	}
	return res, nil
}

// WithLogf enables trace logging of allocation, evaluation, and
// collection through the given printf-style function.
func WithLogf(logfn func(mess string, args ...interface{})) Option { return logfnOption(logfn) }

// WithHeapLimit caps each registry arena at limit slots; constructors
// report ErrHeapLimit once it is reached.
func WithHeapLimit(limit uint) Option { return heapLimitOption(limit) }

// WithGCThreshold arms MaybeCollect to run a cycle once the live object
// count reaches count.
func WithGCThreshold(count int) Option { return gcThresholdOption(count) }

// WithPageSize sets the registry arenas' page size, mostly useful to
// exercise paging in tests.
func WithPageSize(size uint) Option { return pageSizeOption(size) }
