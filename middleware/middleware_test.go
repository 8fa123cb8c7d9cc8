package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xraph/sched/id"
	"github.com/xraph/sched/job"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testJob(t *testing.T) *job.Job {
	t.Helper()
	return &job.Job{
		ID:   id.NewJobID(),
		Name: "test-job",
	}
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	tag := func(name string) Middleware {
		return func(ctx context.Context, j *job.Job, next Handler) (any, error) {
			order = append(order, name+":before")
			result, err := next(ctx)
			order = append(order, name+":after")
			return result, err
		}
	}

	mw := Chain(tag("outer"), tag("inner"))
	result, err := mw(context.Background(), testJob(t), func(ctx context.Context) (any, error) {
		order = append(order, "body")
		return "done", nil
	})
	if err != nil {
		t.Fatalf("chain returned error: %v", err)
	}
	if result != "done" {
		t.Fatalf("result = %v, want done", result)
	}

	want := []string{"outer:before", "inner:before", "body", "inner:after", "outer:after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestChainEmpty(t *testing.T) {
	t.Parallel()

	mw := Chain()
	result, err := mw(context.Background(), testJob(t), func(ctx context.Context) (any, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("empty chain returned error: %v", err)
	}
	if result != 42 {
		t.Fatalf("result = %v, want 42", result)
	}
}

func TestRecoverConvertsPanicToError(t *testing.T) {
	t.Parallel()

	j := testJob(t)
	mw := Recover(discardLogger())
	result, err := mw(context.Background(), j, func(ctx context.Context) (any, error) {
		panic("boom")
	})
	if result != nil {
		t.Fatalf("result = %v, want nil", result)
	}
	if err == nil {
		t.Fatal("want error from recovered panic")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("error %q does not mention panic value", err)
	}
}

func TestRecoverPassThrough(t *testing.T) {
	t.Parallel()

	mw := Recover(discardLogger())
	result, err := mw(context.Background(), testJob(t), func(ctx context.Context) (any, error) {
		return "ok", nil
	})
	if err != nil || result != "ok" {
		t.Fatalf("got (%v, %v), want (ok, nil)", result, err)
	}
}

func TestTimeoutEnforcesDeadline(t *testing.T) {
	t.Parallel()

	j := testJob(t)
	j.Timeout = 20 * time.Millisecond

	mw := Timeout(discardLogger())
	_, err := mw(context.Background(), j, func(ctx context.Context) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
			return "too late", nil
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}

func TestTimeoutZeroMeansNoDeadline(t *testing.T) {
	t.Parallel()

	mw := Timeout(discardLogger())
	result, err := mw(context.Background(), testJob(t), func(ctx context.Context) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			t.Error("context has a deadline for zero timeout")
		}
		return "ok", nil
	})
	if err != nil || result != "ok" {
		t.Fatalf("got (%v, %v), want (ok, nil)", result, err)
	}
}

func TestLoggingPreservesResult(t *testing.T) {
	t.Parallel()

	mw := Logging(discardLogger())
	wantErr := errors.New("body error")
	result, err := mw(context.Background(), testJob(t), func(ctx context.Context) (any, error) {
		return nil, wantErr
	})
	if result != nil {
		t.Fatalf("result = %v, want nil", result)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
