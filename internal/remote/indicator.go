package remote

import "sync/atomic"

// Indicator is the global "loading" flag shown while a remote call is in flight.
//
// It is a single flag, not a counter: when two calls overlap, whichever finishes
// first clears it while the other is still running.
type Indicator struct {
	loading  atomic.Bool
	onChange func(bool)
}

// NewIndicator returns an indicator that calls onChange (if non-nil) on every toggle.
func NewIndicator(onChange func(bool)) *Indicator {
	return &Indicator{onChange: onChange}
}

// Loading reports whether a call is currently marked in flight.
func (i *Indicator) Loading() bool {
	return i.loading.Load()
}

func (i *Indicator) set(v bool) {
	i.loading.Store(v)
	if i.onChange != nil {
		i.onChange(v)
	}
}
