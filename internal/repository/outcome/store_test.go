package outcome

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/metro-mecard/mecard/internal/domain/failure"
)

func TestRecordFailure_StoresWithTTL(t *testing.T) {
	m := newMemStore()
	s := New(m, "mecard:", 48*time.Hour)

	f := failure.Failure{CustomerID: "21221012345678", Stdout: "<error> 21221012345678", Stderr: "dup key"}
	if err := s.RecordFailure(context.Background(), f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.ttls["mecard:failure:21221012345678"]; got != 48*time.Hour {
		t.Errorf("ttl = %v, want 48h", got)
	}

	back, err := s.Failure(context.Background(), "21221012345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Stderr != "dup key" || back.Stdout != f.Stdout {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestRecordFailure_EmptyID(t *testing.T) {
	s := New(newMemStore(), "mecard:", time.Hour)
	if err := s.RecordFailure(context.Background(), failure.Failure{}); err == nil {
		t.Fatal("expected error for empty customer id")
	}
}

func TestRecordFailure_StoreError(t *testing.T) {
	m := newMemStore()
	m.setErr = errors.New("connection reset")
	s := New(m, "mecard:", time.Hour)
	err := s.RecordFailure(context.Background(), failure.Failure{CustomerID: "x"})
	if !errors.Is(err, m.setErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestFailure_NotFound(t *testing.T) {
	s := New(newMemStore(), "mecard:", time.Hour)
	if _, err := s.Failure(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFailures_SortedAndScoped(t *testing.T) {
	m := newMemStore()
	s := New(m, "mecard:", time.Hour)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		if err := s.RecordFailure(ctx, failure.Failure{CustomerID: id}); err != nil {
			t.Fatal(err)
		}
	}
	m.data["other:failure:z"] = []byte(`{"customer_id":"z"}`)

	got, err := s.Failures(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 failures, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].CustomerID != want {
			t.Errorf("failures[%d] = %s, want %s", i, got[i].CustomerID, want)
		}
	}
}

func TestFailures_ScanError(t *testing.T) {
	m := newMemStore()
	m.scanErr = context.DeadlineExceeded
	s := New(m, "mecard:", time.Hour)
	if _, err := s.Failures(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestClear(t *testing.T) {
	m := newMemStore()
	s := New(m, "mecard:", time.Hour)
	ctx := context.Background()
	_ = s.RecordFailure(ctx, failure.Failure{CustomerID: "a"})

	if err := s.Clear(ctx, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Failure(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected cleared failure, got %v", err)
	}
}
