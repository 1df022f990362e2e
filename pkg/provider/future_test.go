package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFutureResolveOnce(t *testing.T) {
	f := NewFuture[int]()
	if !f.Resolve(1) {
		t.Fatal("first resolve should settle the future")
	}
	if f.Resolve(2) {
		t.Error("second resolve should be ignored")
	}
	if f.Reject(errors.New("late")) {
		t.Error("reject after resolve should be ignored")
	}

	v, err := f.Result(context.Background())
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if v != 1 {
		t.Errorf("got %d, want the first resolution", v)
	}
}

func TestFutureRejectOnce(t *testing.T) {
	f := NewFuture[string]()
	want := errors.New("boom")
	if !f.Reject(want) {
		t.Fatal("first reject should settle the future")
	}
	if f.Resolve("late") {
		t.Error("resolve after reject should be ignored")
	}

	_, err := f.Result(context.Background())
	if !errors.Is(err, want) {
		t.Errorf("got %v, want the rejection error", err)
	}
}

func TestFutureResultHonorsContext(t *testing.T) {
	f := NewFuture[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Result(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want deadline exceeded", err)
	}
}

func TestFutureDoneSignalsWaiters(t *testing.T) {
	f := NewFuture[bool]()
	select {
	case <-f.Done():
		t.Fatal("done channel closed before the future settled")
	default:
	}

	f.Resolve(true)
	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("done channel never closed")
	}
}

func TestResolvedFuture(t *testing.T) {
	f := ResolvedFuture("urn:x")
	v, err := f.Result(context.Background())
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if v != "urn:x" {
		t.Errorf("got %q", v)
	}
}
