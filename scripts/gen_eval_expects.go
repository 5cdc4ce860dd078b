// Command gen_eval_expects regenerates eval_expects_test.go: for every
// chainable withX/expectX builder method on evalTestCase it emits a
// standalone shim usable with evalTestCase.apply. Output is piped
// through goimports before it lands.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"regexp"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"
)

type namedReader interface {
	io.ReadCloser
	Name() string
}

var (
	in  namedReader    = os.Stdin
	out io.WriteCloser = os.Stdout
)

func parseFlags() {
	flag.Parse()

	args := flag.Args()

	if len(args) > 0 {
		name := args[0]
		f, err := os.Open(name)
		if err != nil {
			log.Fatalf("failed to open %v: %v", name, err)
		}
		args = args[1:]
		in = f
	}

	if len(args) > 0 {
		name := args[0]
		f, err := os.Create(name)
		if err != nil {
			log.Fatalf("failed to create %v: %v", name, err)
		}
		args = args[1:]
		out = f
	}
}

func main() {
	parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	src := make(chan []byte, 1)

	eg.Go(func() (rerr error) {
		defer close(src)
		defer func() {
			if cerr := in.Close(); rerr == nil {
				rerr = cerr
			}
		}()
		b, err := generate(ctx, in)
		if err != nil {
			return err
		}
		src <- b
		return nil
	})

	eg.Go(func() error {
		var b []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case got, ok := <-src:
			if !ok {
				return nil
			}
			b = got
		}

		defer out.Close()
		gofmt := exec.CommandContext(ctx, "goimports")
		gofmt.Stdin = bytes.NewReader(b)
		gofmt.Stdout = out
		gofmt.Stderr = os.Stderr
		if err := gofmt.Run(); err != nil {
			return fmt.Errorf("goimports run failed: %w", err)
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		log.Fatalln(err)
	}
}

var builderMethod = regexp.MustCompile(`func \(evt evalTestCase\) (expect|with)(.+?)\((.+?)\) evalTestCase`)

// generate scans the harness source and renders the whole shim file into
// memory; formatting is left to the goimports pass.
func generate(ctx context.Context, in namedReader) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(1024)

	fmt.Fprintf(&buf, "package schem\n\n")
	fmt.Fprintf(&buf, "// @generated from %v\n\n", in.Name())
	if args := flag.Args(); len(args) >= 2 {
		fmt.Fprintf(&buf, "//go:generate go run scripts/gen_eval_expects.go --")
		for _, arg := range args {
			fmt.Fprintf(&buf, " %v", arg)
		}
		fmt.Fprintf(&buf, "\n\n")
	}

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		match := builderMethod.FindSubmatch(sc.Bytes())
		if len(match) == 0 {
			continue
		}
		writeShim(&buf, match[1], match[2], match[3])
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), sc.Err()
}

func writeShim(buf *bytes.Buffer, baseName, whatName, args []byte) {
	fmt.Fprintf(buf, "func %s(%s) func(evalTestCase) evalTestCase {\n", shimName(baseName, whatName), args)
	fmt.Fprintf(buf, "  return func(evt evalTestCase) evalTestCase {\n")
	fmt.Fprintf(buf, "    return evt.%s%s(%s)\n", baseName, whatName, passArgs(args))
	fmt.Fprintf(buf, "  }\n")
	fmt.Fprintf(buf, "}\n\n")
}

func shimName(baseName, whatName []byte) string {
	return fmt.Sprintf("%sEval%s", baseName, whatName)
}

// passArgs turns a parameter list into the matching call arguments,
// re-spreading any variadic parameter.
func passArgs(args []byte) string {
	var sb bytes.Buffer
	for i, part := range bytes.Split(args, []byte(",")) {
		if i > 0 {
			sb.WriteString(", ")
		}
		fields := bytes.Fields(bytes.Trim(part, " "))
		sb.Write(fields[0])
		if bytes.HasPrefix(fields[1], []byte("...")) {
			sb.WriteString("...")
		}
	}
	return sb.String()
}
