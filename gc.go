package schem

// GCStats reports one collection cycle: survivors and reclaimed slots
// for each of the three arenas.
type GCStats struct {
	Live  int
	Freed int

	ConsLive  int
	ConsFreed int

	FrameLive  int
	FrameFreed int
}

// Collect runs one synchronous mark-and-sweep cycle: everything
// reachable from the root environment chain survives, everything else is
// reclaimed. It must not run while an evaluation is in flight, because
// evaluator temporaries are not roots.
func (in *Interp) Collect(root EnvRef) GCStats {
	in.logf("gc mark from env @%v", root)
	in.mark(root)
	stats := in.sweep()
	in.logf("gc live=%v freed=%v cons=%v/%v frames=%v/%v",
		stats.Live, stats.Freed, stats.ConsLive, stats.ConsFreed, stats.FrameLive, stats.FrameFreed)
	return stats
}

// MaybeCollect runs Collect when a threshold is configured and the live
// object count has reached it. Like Collect, it is only safe between
// top-level evaluations.
func (in *Interp) MaybeCollect(root EnvRef) (GCStats, bool) {
	if in.gcThreshold <= 0 || in.objects.Len() < in.gcThreshold {
		return GCStats{}, false
	}
	return in.Collect(root), true
}

// markWork is the explicit traversal worklist: marking is iterative so
// that deep lists and long environment chains cannot overflow the native
// stack, and the per-slot mark check makes it terminate on cycles.
type markWork struct {
	objects []Ref
	conses  []consRef
	frames  []EnvRef
}

func (in *Interp) mark(root EnvRef) {
	var work markWork
	if root != NoEnv {
		work.frames = append(work.frames, root)
	}

	for {
		switch {
		case len(work.frames) > 0:
			i := len(work.frames) - 1
			env := work.frames[i]
			work.frames = work.frames[:i]

			f := in.frame(env)
			if f == nil || f.marked {
				continue
			}
			f.marked = true
			if f.value != NoRef {
				work.objects = append(work.objects, f.value)
			}
			if f.next != NoEnv {
				work.frames = append(work.frames, f.next)
			}
			if f.parent != NoEnv {
				work.frames = append(work.frames, f.parent)
			}

		case len(work.objects) > 0:
			i := len(work.objects) - 1
			ref := work.objects[i]
			work.objects = work.objects[:i]

			obj := in.object(ref)
			if obj == nil || obj.marked {
				continue
			}
			obj.marked = true
			switch obj.kind {
			case KindList:
				if obj.list != noCons {
					work.conses = append(work.conses, obj.list)
				}
			case KindFunc:
				if obj.fn.prim == 0 {
					work.objects = append(work.objects, obj.fn.params, obj.fn.body)
					if obj.fn.env != NoEnv {
						work.frames = append(work.frames, obj.fn.env)
					}
				}
			}

		case len(work.conses) > 0:
			i := len(work.conses) - 1
			cell := work.conses[i]
			work.conses = work.conses[:i]

			c := in.consAt(cell)
			if c == nil || c.marked {
				continue
			}
			c.marked = true
			if c.car != NoRef {
				work.objects = append(work.objects, c.car)
			}
			if c.cdr != noCons {
				work.conses = append(work.conses, c.cdr)
			}

		default:
			return
		}
	}
}

func (in *Interp) sweep() GCStats {
	var stats GCStats

	var deadObjects []uint
	in.objects.Each(func(id uint, obj *object) {
		if obj.marked {
			obj.marked = false
			stats.Live++
		} else {
			deadObjects = append(deadObjects, id)
		}
	})
	for _, id := range deadObjects {
		in.logf("sweep value @%v", id)
		in.objects.Free(id)
	}
	stats.Freed = len(deadObjects)

	var deadConses []uint
	in.conses.Each(func(id uint, c *cons) {
		if c.marked {
			c.marked = false
			stats.ConsLive++
		} else {
			deadConses = append(deadConses, id)
		}
	})
	for _, id := range deadConses {
		in.conses.Free(id)
	}
	stats.ConsFreed = len(deadConses)

	var deadFrames []uint
	in.frames.Each(func(id uint, f *frame) {
		if f.marked {
			f.marked = false
			stats.FrameLive++
		} else {
			deadFrames = append(deadFrames, id)
		}
	})
	for _, id := range deadFrames {
		in.logf("sweep frame @%v", id)
		in.frames.Free(id)
	}
	stats.FrameFreed = len(deadFrames)

	return stats
}
