// Package cancel is the cooperative cancellation contract shared by the
// importer, converter and layers: long loops poll a context and a sticky
// interrupt flag at every iteration boundary.
package cancel

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrInterrupted is returned by work stopped through a Flag or a context.
var ErrInterrupted = errors.New("interrupted")

// Flag is a sticky interrupt flag. The zero value is ready to use.
type Flag struct {
	set atomic.Bool
}

func (f *Flag) Interrupt() { f.set.Store(true) }

func (f *Flag) Interrupted() bool { return f != nil && f.set.Load() }

// Reset clears the flag so later work runs again.
func (f *Flag) Reset() { f.set.Store(false) }

// Stopped reports whether ctx is done or f is set. Either may be nil.
func Stopped(ctx context.Context, f *Flag) bool {
	if f.Interrupted() {
		return true
	}
	return ctx != nil && ctx.Err() != nil
}

// Err is Stopped as an error.
func Err(ctx context.Context, f *Flag) error {
	if Stopped(ctx, f) {
		return ErrInterrupted
	}
	return nil
}
