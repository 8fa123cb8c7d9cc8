package id_test

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/xraph/sched/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"JobID", id.NewJobID, "job_"},
		{"SchedulerID", id.NewSchedulerID, "sched_"},
		{"CronID", id.NewCronID, "cron_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixJob)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixJob {
		t.Errorf("expected prefix %q, got %q", id.PrefixJob, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"JobID", id.NewJobID, id.ParseJobID},
		{"SchedulerID", id.NewSchedulerID, id.ParseSchedulerID},
		{"CronID", id.NewCronID, id.ParseCronID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseJobID rejects sched_", id.NewSchedulerID().String(), id.ParseJobID},
		{"ParseSchedulerID rejects cron_", id.NewCronID().String(), id.ParseSchedulerID},
		{"ParseCronID rejects job_", id.NewJobID().String(), id.ParseCronID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parseFn(tt.input)
			if err == nil {
				t.Errorf("expected error for cross-type parse of %q, got nil", tt.input)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "not-a-typeid", "job_"} {
		if _, err := id.Parse(s); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", s)
		}
	}
}

func TestNil(t *testing.T) {
	if !id.Nil.IsNil() {
		t.Error("Nil.IsNil() = false, want true")
	}
	if id.Nil.String() != "" {
		t.Errorf("Nil.String() = %q, want empty", id.Nil.String())
	}
}

func TestTextMarshaling(t *testing.T) {
	original := id.NewJobID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var parsed id.ID
	if err := parsed.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
	}

	var zero id.ID
	if err := zero.UnmarshalText(nil); err != nil {
		t.Fatalf("UnmarshalText(nil): %v", err)
	}
	if !zero.IsNil() {
		t.Error("expected Nil after unmarshaling empty text")
	}
}

func TestSQLRoundTrip(t *testing.T) {
	original := id.NewJobID()
	v, err := original.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var scanned id.ID
	if err := scanned.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", scanned.String(), original.String())
	}

	var fromNil id.ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if !fromNil.IsNil() {
		t.Error("expected Nil after scanning nil")
	}

	if err := scanned.Scan(42); err == nil {
		t.Error("Scan(int) expected error, got nil")
	}
}

// IDs generated in distinct milliseconds must sort in generation order:
// the engine relies on K-sortability when it reports monotonically
// increasing IDs.
func TestKSortable(t *testing.T) {
	ids := make([]string, 0, 20)
	for range 20 {
		ids = append(ids, id.NewJobID().String())
		time.Sleep(2 * time.Millisecond)
	}
	if !sort.StringsAreSorted(ids) {
		t.Error("expected sequentially generated IDs to be sorted")
	}
}
