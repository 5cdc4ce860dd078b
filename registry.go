package schem

import (
	"errors"
	"fmt"

	"github.com/Feyerabend/schem/internal/arena"
)

// Interp is one self-contained interpreter instance: the object registry,
// the interned symbol table, and the collector's bookkeeping. Instances
// share nothing; handles from one must never be passed to another.
type Interp struct {
	registry
	symbols

	logfn       func(mess string, args ...interface{})
	gcThreshold int
}

// registry owns every allocated slot: tagged values, the cons cells
// backing their list chains, and environment frames. All three are
// addressed by index and reclaimed only by sweep.
type registry struct {
	objects arena.Slab[object]
	conses  arena.Slab[cons]
	frames  arena.Slab[frame]
}

// ErrHeapLimit is reported by any constructor once the configured heap
// limit would be exceeded.
var ErrHeapLimit = errors.New("heap limit exceeded")

func (in *Interp) allocObject() (Ref, *object, error) {
	id, obj, err := in.objects.Alloc()
	if err != nil {
		return NoRef, nil, fmt.Errorf("%w: %w", ErrHeapLimit, err)
	}
	return Ref(id), obj, nil
}

func (in *Interp) allocCons() (consRef, *cons, error) {
	id, c, err := in.conses.Alloc()
	if err != nil {
		return noCons, nil, fmt.Errorf("%w: %w", ErrHeapLimit, err)
	}
	return consRef(id), c, nil
}

func (in *Interp) allocFrame() (EnvRef, *frame, error) {
	id, f, err := in.frames.Alloc()
	if err != nil {
		return NoEnv, nil, fmt.Errorf("%w: %w", ErrHeapLimit, err)
	}
	return EnvRef(id), f, nil
}

func (in *Interp) object(ref Ref) *object    { return in.objects.Get(uint(ref)) }
func (in *Interp) consAt(cr consRef) *cons   { return in.conses.Get(uint(cr)) }
func (in *Interp) frame(er EnvRef) *frame    { return in.frames.Get(uint(er)) }

// HeapSize reports the number of live registry values.
func (in *Interp) HeapSize() int { return in.objects.Len() }

func (in *Interp) logf(mess string, args ...interface{}) {
	if in.logfn != nil {
		in.logfn(mess, args...)
	}
}

func (in *Interp) withLogPrefix(prefix string) func() {
	logfn := in.logfn
	in.logfn = func(mess string, args ...interface{}) {
		logfn(prefix+mess, args...)
	}
	return func() {
		in.logfn = logfn
	}
}

// refError names a handle that no live value answers to.
type refError Ref

func (ref refError) Error() string { return fmt.Sprintf("no value @%v", uint(ref)) }
