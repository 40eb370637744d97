package cancel

import (
	"context"
	"errors"
	"testing"
)

func TestStopped(t *testing.T) {
	var f Flag
	if Stopped(context.Background(), &f) || Stopped(nil, nil) {
		t.Fatal("fresh flag reported stopped")
	}
	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()
	if !Stopped(ctx, &f) {
		t.Error("cancelled context not observed")
	}
	f.Interrupt()
	if !Stopped(context.Background(), &f) {
		t.Error("flag not observed")
	}
	if !errors.Is(Err(nil, &f), ErrInterrupted) {
		t.Error("Err should wrap ErrInterrupted")
	}
	f.Reset()
	if Stopped(context.Background(), &f) {
		t.Error("flag still set after Reset")
	}
}
