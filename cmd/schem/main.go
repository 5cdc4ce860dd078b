package main

import (
	"context"
	"fmt"
	"os"
	"time"

	docopt "github.com/docopt/docopt-go"

	"github.com/Feyerabend/schem"
	"github.com/Feyerabend/schem/internal/flushio"
	"github.com/Feyerabend/schem/internal/logio"
)

var usage = `schem runs built-in demonstration programs on the schem runtime.

The runtime has no reader; each demo constructs its expression tree
through the library API and evaluates it.

Usage:
  schem [options] [DEMO...]
  schem -l | --list
  schem -h | --help

Arguments:
  DEMO  Name of a demo program to run; all of them when none given.

Options:
  -t, --trace          Enable evaluator trace logging.
  -d, --dump           Dump the heap after each demo.
  -c, --collect        Collect after each demo, reporting statistics.
  --heap-limit=N       Cap the number of live heap slots.
  --gc-threshold=N     Arm automatic collection at N live values.
  --timeout=DURATION   Time limit across all demos.
  -l, --list           List available demos.
  -h, --help           Show this help.
`

func main() {
	var log logio.Logger
	log.SetOutput(os.Stderr)

	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		panic(err.Error())
	}

	if list, _ := opts.Bool("--list"); list {
		for _, d := range demos {
			fmt.Printf("%-12s %s\n", d.name, d.desc)
		}
		return
	}

	run := demos
	if names := opts["DEMO"].([]string); len(names) != 0 {
		run = run[:0:0]
		for _, name := range names {
			d, ok := demoByName(name)
			if !ok {
				log.Errorf("no such demo %q", name)
				os.Exit(log.ExitCode())
			}
			run = append(run, d)
		}
	}

	var inOpts []schem.Option
	if trace, _ := opts.Bool("--trace"); trace {
		inOpts = append(inOpts, schem.WithLogf(log.Leveledf("TRACE")))
	}
	if n, err := opts.Int("--heap-limit"); err == nil && n > 0 {
		inOpts = append(inOpts, schem.WithHeapLimit(uint(n)))
	}
	if n, err := opts.Int("--gc-threshold"); err == nil && n > 0 {
		inOpts = append(inOpts, schem.WithGCThreshold(n))
	}

	ctx := context.Background()
	if s, err := opts.String("--timeout"); err == nil && s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			log.Errorf("bad --timeout: %v", err)
			os.Exit(log.ExitCode())
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	dump, _ := opts.Bool("--dump")
	collect, _ := opts.Bool("--collect")
	infof := log.Leveledf("INFO")

	in := schem.New(inOpts...)
	env, err := in.DefaultEnv()
	if err != nil {
		log.Errorf("%+v", err)
		os.Exit(log.ExitCode())
	}

	for _, d := range run {
		res, err := d.run(ctx, in, env)
		if err != nil {
			log.Errorf("%s: %+v", d.name, err)
			break
		}
		fmt.Printf("%s => %s\n", d.name, in.Format(res))

		if collect {
			stats := in.Collect(env)
			infof("%s: collected, live=%v freed=%v", d.name, stats.Live, stats.Freed)
		}
		if dump {
			out := flushio.NewWriteFlusher(os.Stdout)
			log.ErrorIf(in.Dump(out))
			log.ErrorIf(out.Flush())
		}
	}

	os.Exit(log.ExitCode())
}

type demo struct {
	name string
	desc string
	run  func(ctx context.Context, in *schem.Interp, env schem.EnvRef) (schem.Ref, error)
}

func demoByName(name string) (demo, bool) {
	for _, d := range demos {
		if d.name == name {
			return d, true
		}
	}
	return demo{}, false
}

var demos = []demo{
	{"answer", "a number evaluates to itself", func(ctx context.Context, in *schem.Interp, env schem.EnvRef) (schem.Ref, error) {
		var b builder
		expr := b.num(in, 42)
		return b.eval(ctx, in, expr, env)
	}},

	{"define", "bind a variable, then look it up", func(ctx context.Context, in *schem.Interp, env schem.EnvRef) (schem.Ref, error) {
		var b builder
		def := b.list(in, b.sym(in, "define"), b.sym(in, "x"), b.num(in, 10))
		if _, err := b.eval(ctx, in, def, env); err != nil {
			return schem.NoRef, err
		}
		return b.eval(ctx, in, b.sym(in, "x"), env)
	}},

	{"sum", "(+ 1 2 3)", func(ctx context.Context, in *schem.Interp, env schem.EnvRef) (schem.Ref, error) {
		var b builder
		expr := b.list(in, b.sym(in, "+"), b.num(in, 1), b.num(in, 2), b.num(in, 3))
		return b.eval(ctx, in, expr, env)
	}},

	{"squares", "map a squaring lambda over (1 2 3)", func(ctx context.Context, in *schem.Interp, env schem.EnvRef) (schem.Ref, error) {
		var b builder
		square := b.list(in,
			b.sym(in, "lambda"),
			b.list(in, b.sym(in, "n")),
			b.list(in, b.sym(in, "*"), b.sym(in, "n"), b.sym(in, "n")))
		nums := b.list(in,
			b.sym(in, "quote"),
			b.list(in, b.num(in, 1), b.num(in, 2), b.num(in, 3)))
		expr := b.list(in, b.sym(in, "map"), square, nums)
		return b.eval(ctx, in, expr, env)
	}},

	{"nonzero", "filter zeroes out of (-2 -1 0 1 2)", func(ctx context.Context, in *schem.Interp, env schem.EnvRef) (schem.Ref, error) {
		var b builder
		ident := b.list(in,
			b.sym(in, "lambda"),
			b.list(in, b.sym(in, "n")),
			b.sym(in, "n"))
		nums := b.list(in,
			b.sym(in, "quote"),
			b.list(in, b.num(in, -2), b.num(in, -1), b.num(in, 0), b.num(in, 1), b.num(in, 2)))
		expr := b.list(in, b.sym(in, "filter"), ident, nums)
		return b.eval(ctx, in, expr, env)
	}},

	{"fact", "(fact 10)", func(ctx context.Context, in *schem.Interp, env schem.EnvRef) (schem.Ref, error) {
		var b builder
		expr := b.list(in, b.sym(in, "fact"), b.num(in, 10))
		return b.eval(ctx, in, expr, env)
	}},

	{"promise", "delay a computation, then force it", func(ctx context.Context, in *schem.Interp, env schem.EnvRef) (schem.Ref, error) {
		var b builder
		def := b.list(in,
			b.sym(in, "define"), b.sym(in, "p"),
			b.list(in,
				b.sym(in, "delay"),
				b.list(in, b.sym(in, "+"), b.num(in, 1), b.num(in, 2))))
		if _, err := b.eval(ctx, in, def, env); err != nil {
			return schem.NoRef, err
		}
		return b.eval(ctx, in, b.list(in, b.sym(in, "force"), b.sym(in, "p")), env)
	}},

	{"countdown", "a self-recursive loop that runs in constant stack", func(ctx context.Context, in *schem.Interp, env schem.EnvRef) (schem.Ref, error) {
		var b builder
		def := b.list(in,
			b.sym(in, "define"), b.sym(in, "loop"),
			b.list(in,
				b.sym(in, "lambda"),
				b.list(in, b.sym(in, "n")),
				b.list(in,
					b.sym(in, "if"), b.sym(in, "n"),
					b.list(in, b.sym(in, "loop"), b.list(in, b.sym(in, "-"), b.sym(in, "n"), b.num(in, 1))),
					b.num(in, 0))))
		if _, err := b.eval(ctx, in, def, env); err != nil {
			return schem.NoRef, err
		}
		return b.eval(ctx, in, b.list(in, b.sym(in, "loop"), b.num(in, 100000)), env)
	}},
}

// builder accumulates the first construction error so demo bodies can
// chain constructor calls without checking each one.
type builder struct{ err error }

func (b *builder) num(in *schem.Interp, n float64) schem.Ref {
	ref, err := in.Number(n)
	if b.err == nil {
		b.err = err
	}
	return ref
}

func (b *builder) sym(in *schem.Interp, s string) schem.Ref {
	ref, err := in.Symbol(s)
	if b.err == nil {
		b.err = err
	}
	return ref
}

func (b *builder) list(in *schem.Interp, elems ...schem.Ref) schem.Ref {
	ref, err := in.List(elems...)
	if b.err == nil {
		b.err = err
	}
	return ref
}

func (b *builder) eval(ctx context.Context, in *schem.Interp, expr schem.Ref, env schem.EnvRef) (schem.Ref, error) {
	if b.err != nil {
		return schem.NoRef, b.err
	}
	return in.Eval(ctx, expr, env)
}
