package schem

import "fmt"

// EnvRef is a handle to an environment frame. NoEnv never names a frame;
// the root scope has parent NoEnv.
type EnvRef uint

// NoEnv is the null frame handle.
const NoEnv EnvRef = 0

// frame is one environment node. A scope head has name 0 and carries the
// parent link; bindings hang off the head through next and are found
// newest-first, which is what gives define its shadow semantics.
type frame struct {
	marked bool

	name   uint
	value  Ref
	next   EnvRef
	parent EnvRef
}

// NewEnv allocates an empty scope whose parent is the given frame.
func (in *Interp) NewEnv(parent EnvRef) (EnvRef, error) {
	env, f, err := in.allocFrame()
	if err != nil {
		return NoEnv, err
	}
	f.parent = parent
	in.logf("env @%v parent=@%v", env, parent)
	return env, nil
}

// Define prepends a binding to env's own scope. It never searches for an
// existing binding: a duplicate name shadows the older binding rather
// than overwriting it, so a Ref obtained before the redefinition still
// names the original value.
func (in *Interp) Define(env EnvRef, name string, value Ref) error {
	head := in.frame(env)
	if head == nil {
		return envError(env)
	}
	bind, f, err := in.allocFrame()
	if err != nil {
		return err
	}
	f.name = in.symbolicate(name)
	f.value = value
	f.next = head.next
	head.next = bind
	in.logf("define %v -> @%v in env @%v", name, value, env)
	return nil
}

// Lookup scans env's sibling bindings newest-first, then ascends through
// parents until a binding matches or the chain is exhausted.
func (in *Interp) Lookup(env EnvRef, name string) (Ref, error) {
	id := in.symbol(name)
	if id == 0 {
		return NoRef, unboundError(name)
	}
	return in.lookup(env, id)
}

func (in *Interp) lookup(env EnvRef, name uint) (Ref, error) {
	for scope := env; scope != NoEnv; {
		head := in.frame(scope)
		if head == nil {
			break
		}
		for bind := scope; bind != NoEnv; {
			f := in.frame(bind)
			if f == nil {
				break
			}
			if f.name == name {
				return f.value, nil
			}
			bind = f.next
		}
		scope = head.parent
	}
	return NoRef, unboundError(in.string(name))
}

// newCallFrame opens a fresh scope parented to the closure's captured
// environment (not the caller's; that is what keeps closures lexically
// scoped) and binds each parameter to its argument positionally. The
// argument count must match the parameter count exactly.
func (in *Interp) newCallFrame(fn *object, args []Ref) (EnvRef, error) {
	params := in.object(fn.fn.params)
	if params == nil || params.kind != KindList {
		return NoEnv, formError("closure has no parameter list")
	}

	env, err := in.NewEnv(fn.fn.env)
	if err != nil {
		return NoEnv, err
	}

	i := 0
	for cell := params.list; cell != noCons; cell = in.consAt(cell).cdr {
		p := in.object(in.consAt(cell).car)
		if p == nil || p.kind != KindSymbol {
			return NoEnv, typeError{"parameter", KindSymbol, in.Kind(in.consAt(cell).car)}
		}
		if i >= len(args) {
			i++
			continue
		}
		bind, f, err := in.allocFrame()
		if err != nil {
			return NoEnv, err
		}
		head := in.frame(env)
		f.name = p.sym
		f.value = args[i]
		f.next = head.next
		head.next = bind
		i++
	}
	if i != len(args) {
		return NoEnv, arityError{"call", i, len(args)}
	}
	return env, nil
}

// envError names a handle that no live frame answers to.
type envError EnvRef

func (env envError) Error() string { return fmt.Sprintf("no environment @%v", uint(env)) }
