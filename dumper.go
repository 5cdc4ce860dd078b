package schem

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Feyerabend/schem/internal/flushio"
)

// Format renders a value as an S-expression, for diagnostics and tests.
// Dead or null handles render as #[invalid].
func (in *Interp) Format(ref Ref) string {
	var sb strings.Builder
	in.formatRef(&sb, ref, 0)
	return sb.String()
}

// formatting never follows environment links, so the only unbounded
// nesting comes from caller-built structures; cap it anyway
const maxFormatDepth = 64

func (in *Interp) formatRef(sb *strings.Builder, ref Ref, depth int) {
	if depth > maxFormatDepth {
		sb.WriteString("...")
		return
	}

	obj := in.object(ref)
	if obj == nil {
		fmt.Fprintf(sb, "#[invalid @%v]", uint(ref))
		return
	}

	switch obj.kind {
	case KindNumber:
		sb.WriteString(strconv.FormatFloat(obj.num, 'g', -1, 64))

	case KindSymbol:
		sb.WriteString(in.string(obj.sym))

	case KindList:
		sb.WriteByte('(')
		for cell := obj.list; cell != noCons; cell = in.consAt(cell).cdr {
			if cell != obj.list {
				sb.WriteByte(' ')
			}
			in.formatRef(sb, in.consAt(cell).car, depth+1)
		}
		sb.WriteByte(')')

	case KindFunc:
		if obj.fn.prim != 0 {
			fmt.Fprintf(sb, "#[builtin %v]", primNames[obj.fn.prim])
		} else {
			sb.WriteString("#[closure ")
			in.formatRef(sb, obj.fn.params, depth+1)
			sb.WriteByte(' ')
			in.formatRef(sb, obj.fn.body, depth+1)
			sb.WriteByte(']')
		}

	default:
		fmt.Fprintf(sb, "#[%v @%v]", obj.kind, uint(ref))
	}
}

// Dump writes a heap dump: every live value, cons cell, and environment
// frame, by arena index.
func (in *Interp) Dump(w io.Writer) error {
	out := flushio.NewWriteFlusher(w)
	heapDumper{in: in, out: out}.dump()
	return out.Flush()
}

type heapDumper struct {
	in  *Interp
	out io.Writer

	addrWidth int
}

func (dump heapDumper) dump() {
	in := dump.in
	if dump.addrWidth == 0 {
		max := in.objects.Cap()
		if n := in.conses.Cap(); n > max {
			max = n
		}
		if n := in.frames.Cap(); n > max {
			max = n
		}
		dump.addrWidth = len(strconv.Itoa(int(max))) + 1
	}

	fmt.Fprintf(dump.out, "# Heap Dump\n")
	fmt.Fprintf(dump.out, "  objects: %v live\n", in.objects.Len())
	fmt.Fprintf(dump.out, "  conses: %v live\n", in.conses.Len())
	fmt.Fprintf(dump.out, "  frames: %v live\n", in.frames.Len())

	fmt.Fprintf(dump.out, "# Objects\n")
	in.objects.Each(func(id uint, obj *object) {
		fmt.Fprintf(dump.out, "  @% *v %v %v\n", dump.addrWidth, id, obj.kind, in.Format(Ref(id)))
	})

	fmt.Fprintf(dump.out, "# Cons cells\n")
	in.conses.Each(func(id uint, c *cons) {
		fmt.Fprintf(dump.out, "  @% *v car=@%v cdr=@%v\n", dump.addrWidth, id, uint(c.car), uint(c.cdr))
	})

	fmt.Fprintf(dump.out, "# Frames\n")
	in.frames.Each(func(id uint, f *frame) {
		fmt.Fprintf(dump.out, "  @% *v %v\n", dump.addrWidth, id, dump.formatFrame(f))
	})
}

func (dump heapDumper) formatFrame(f *frame) string {
	var sb strings.Builder
	if f.name == 0 {
		fmt.Fprintf(&sb, "scope parent=@%v", uint(f.parent))
	} else {
		fmt.Fprintf(&sb, "%v -> @%v", dump.in.string(f.name), uint(f.value))
	}
	if f.next != NoEnv {
		fmt.Fprintf(&sb, " next=@%v", uint(f.next))
	}
	return sb.String()
}
