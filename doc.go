/* Package schem is a small Lisp-style runtime: a tagged-value object
model, an environment-chain evaluator, and a mark-and-sweep collector.

The lineage is a tiny educational Scheme written in C, where every value
lives in one global object pool and a stop-the-world collector reclaims
whatever the environment chain can no longer reach. This rework keeps
that shape but makes the runtime an explicit value: an Interp owns its
own registry, symbol table, and collector state, so any number of
independent interpreters can coexist.

There is no reader. Callers build expression trees directly through the
constructors (Number, Symbol, Pair, List, Closure, Primitive) and hand
them to Eval. Code and data share one representation: a list value is an
application when evaluated and a list when quoted.

Values are addressed by Ref, an index into the instance's registry
rather than a pointer. The registry is three slot arenas: tagged values,
the cons cells backing list chains, and environment frames. Cons cells
are created only together with an owning list value, so a chain can
never be left behind unowned. Collection (Collect) marks from a root
environment with an explicit worklist, which both survives reference
cycles (a closure capturing an environment that later binds that same
closure is the ordinary case) and keeps deep structures off the native
stack; sweep then releases every unmarked slot back to its arena's free
list. Handles are stable across any number of cycles.

Evaluation is a trampoline. Terminal shapes (numbers, functions, the
empty list, symbols) return immediately; applying a closure swaps the
loop's expression and environment instead of recursing, so user-level
recursion through the application path runs in constant native stack.
The special forms quote, define, lambda, if, and delay are dispatched by
head symbol before the general eager application rule; in particular if
evaluates only the branch it selects, in tail position, and delay
captures its expression unevaluated.

Errors are structured and final per expression: ErrUnboundSymbol,
ErrNotFunction, ErrMalformedForm, or ErrHeapLimit, each wrapped with
context. One bad expression aborts that Eval call and nothing else.

Collection is never implicit. Collect and the threshold-armed
MaybeCollect are synchronous barriers the embedder invokes between
top-level evaluations; evaluator temporaries are not roots, so
collecting mid-expression is not supported.
*/
package schem
