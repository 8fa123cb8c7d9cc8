package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/sched"
	"github.com/xraph/sched/id"
	"github.com/xraph/sched/job"
)

// InsertJob stores the job record as a Hash and adds it to the ID set.
func (s *Store) InsertJob(ctx context.Context, j *job.Job) error {
	jID := j.ID.String()
	key := jobKey(jID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("sched/redis: insert check exists: %w", err)
	}
	if exists > 0 {
		return sched.ErrJobAlreadyExists
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, jobToMap(j))
	pipe.SAdd(ctx, jobIDsKey, jID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("sched/redis: insert job: %w", err)
	}
	return nil
}

// GetJob retrieves a job record by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	return s.getJobByKey(ctx, jobKey(jobID.String()))
}

// UpdateJob persists changes to an existing job record.
func (s *Store) UpdateJob(ctx context.Context, j *job.Job) error {
	jID := j.ID.String()
	key := jobKey(jID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("sched/redis: update job exists: %w", err)
	}
	if exists == 0 {
		return sched.ErrJobNotFound
	}

	fields := jobToMap(j)
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	if _, err := s.client.HSet(ctx, key, fields).Result(); err != nil {
		return fmt.Errorf("sched/redis: update job: %w", err)
	}
	return nil
}

// ListJobs returns job records ordered by submission sequence.
func (s *Store) ListJobs(ctx context.Context, opts job.ListOpts) ([]*job.Job, error) {
	ids, err := s.client.SMembers(ctx, jobIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("sched/redis: list jobs smembers: %w", err)
	}

	jobs := make([]*job.Job, 0, len(ids))
	for _, jID := range ids {
		j, getErr := s.getJobByKey(ctx, jobKey(jID))
		if getErr != nil {
			continue // skip missing
		}
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].Seq < jobs[k].Seq })

	if opts.Offset > 0 {
		if opts.Offset >= len(jobs) {
			return nil, nil
		}
		jobs = jobs[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(jobs) {
		jobs = jobs[:opts.Limit]
	}
	return jobs, nil
}

// CountJobs returns the number of jobs matching the given options.
func (s *Store) CountJobs(ctx context.Context, opts job.CountOpts) (int64, error) {
	ids, err := s.client.SMembers(ctx, jobIDsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("sched/redis: count smembers: %w", err)
	}

	var count int64
	for _, jID := range ids {
		j, getErr := s.getJobByKey(ctx, jobKey(jID))
		if getErr != nil {
			continue
		}
		if opts.State != "" && j.State != opts.State {
			continue
		}
		count++
	}
	return count, nil
}

// PutResult records the outcome value as write-once JSON via SETNX.
func (s *Store) PutResult(ctx context.Context, jobID id.JobID, value any) error {
	payload, err := json.Marshal(resultEnvelope{Value: value})
	if err != nil {
		return fmt.Errorf("sched/redis: marshal result: %w", err)
	}

	set, err := s.client.SetNX(ctx, resultKey(jobID.String()), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("sched/redis: put result: %w", err)
	}
	if !set {
		return sched.ErrResultExists
	}
	return nil
}

// GetResult returns the recorded outcome for a job.
func (s *Store) GetResult(ctx context.Context, jobID id.JobID) (any, bool, error) {
	raw, err := s.client.Get(ctx, resultKey(jobID.String())).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("sched/redis: get result: %w", err)
	}

	var env resultEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, false, fmt.Errorf("sched/redis: unmarshal result: %w", err)
	}
	return env.Value, true, nil
}

// ── helpers ──

// resultEnvelope wraps the result value so a recorded nil result is
// distinguishable from a missing key.
type resultEnvelope struct {
	Value any `json:"value"`
}

func jobToMap(j *job.Job) map[string]interface{} {
	m := map[string]interface{}{
		"id":           j.ID.String(),
		"name":         j.Name,
		"seq":          strconv.FormatUint(j.Seq, 10),
		"priority":     strconv.Itoa(j.Priority),
		"dependencies": marshalDeps(j.Dependencies),
		"state":        string(j.State),
		"last_error":   j.LastError,
		"timeout":      strconv.FormatInt(int64(j.Timeout), 10),
		"created_at":   j.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":   j.UpdatedAt.Format(time.RFC3339Nano),
	}
	if j.StartedAt != nil {
		m["started_at"] = j.StartedAt.Format(time.RFC3339Nano)
	}
	if j.CompletedAt != nil {
		m["completed_at"] = j.CompletedAt.Format(time.RFC3339Nano)
	}
	return m
}

func (s *Store) getJobByKey(ctx context.Context, key string) (*job.Job, error) {
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("sched/redis: get job: %w", err)
	}
	if len(vals) == 0 {
		return nil, sched.ErrJobNotFound
	}
	return mapToJob(vals)
}

func mapToJob(m map[string]string) (*job.Job, error) {
	jID, err := id.ParseJobID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("sched/redis: parse job id: %w", err)
	}

	seq, _ := strconv.ParseUint(m["seq"], 10, 64)        //nolint:errcheck // best-effort parse from trusted Redis data
	priority, _ := strconv.Atoi(m["priority"])           //nolint:errcheck // best-effort parse from trusted Redis data
	timeout, _ := strconv.ParseInt(m["timeout"], 10, 64) //nolint:errcheck // best-effort parse from trusted Redis data

	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"]) //nolint:errcheck // best-effort parse from trusted Redis data
	updatedAt, _ := time.Parse(time.RFC3339Nano, m["updated_at"]) //nolint:errcheck // best-effort parse from trusted Redis data

	j := &job.Job{
		Entity: sched.Entity{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		ID:           jID,
		Name:         m["name"],
		Seq:          seq,
		Priority:     priority,
		Dependencies: unmarshalDeps(m["dependencies"]),
		State:        job.State(m["state"]),
		LastError:    m["last_error"],
		Timeout:      time.Duration(timeout),
	}

	if v := m["started_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		j.StartedAt = &t
	}
	if v := m["completed_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		j.CompletedAt = &t
	}

	return j, nil
}

// marshalDeps encodes dependency IDs as a JSON array of strings.
func marshalDeps(deps []id.JobID) string {
	if len(deps) == 0 {
		return "[]"
	}
	strs := make([]string, len(deps))
	for i, d := range deps {
		strs[i] = d.String()
	}
	b, _ := json.Marshal(strs) //nolint:errcheck // marshal should not fail for string slices
	return string(b)
}

// unmarshalDeps parses a JSON array of dependency ID strings.
func unmarshalDeps(s string) []id.JobID {
	if s == "" || s == "null" || s == "[]" {
		return nil
	}
	var strs []string
	_ = json.Unmarshal([]byte(s), &strs) //nolint:errcheck // best-effort parse from trusted Redis data

	deps := make([]id.JobID, 0, len(strs))
	for _, v := range strs {
		d, err := id.ParseJobID(v)
		if err != nil {
			continue
		}
		deps = append(deps, d)
	}
	return deps
}
