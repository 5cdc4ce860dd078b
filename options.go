package schem

// Option configures an Interp at construction.
type Option interface{ apply(in *Interp) }

// Options combines any number of options into one.
func Options(opts ...Option) Option { return options(opts) }

type options []Option

func (os options) apply(in *Interp) {
	for _, o := range os {
		if o != nil {
			o.apply(in)
		}
	}
}

type logfnOption func(mess string, args ...interface{})

func (logfn logfnOption) apply(in *Interp) {
	in.logfn = logfn
}

type heapLimitOption uint

func (lim heapLimitOption) apply(in *Interp) {
	in.objects.Limit = uint(lim)
	in.conses.Limit = uint(lim)
	in.frames.Limit = uint(lim)
}

type gcThresholdOption int

func (count gcThresholdOption) apply(in *Interp) {
	in.gcThreshold = int(count)
}

type pageSizeOption uint

func (size pageSizeOption) apply(in *Interp) {
	in.objects.PageSize = uint(size)
	in.conses.PageSize = uint(size)
	in.frames.PageSize = uint(size)
}
