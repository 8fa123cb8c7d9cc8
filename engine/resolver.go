package engine

import (
	"context"

	"github.com/xraph/sched"
	"github.com/xraph/sched/id"
	"github.com/xraph/sched/job"
)

// checkAcyclic rejects a submission whose dependency set would close a
// cycle. Because every prior submission passed this check, the existing
// graph is acyclic; any cycle therefore includes the candidate, so a
// Kahn pass over the non-terminal records plus the candidate either
// drains completely or proves one.
//
// Dependencies on terminal jobs are already satisfied and dependencies
// on IDs not yet submitted have no outgoing edges, so neither can be
// part of a cycle. Callers must hold submitMu.
func (eng *Engine) checkAcyclic(ctx context.Context, candidate *job.Job) error {
	if len(candidate.Dependencies) == 0 {
		// A job nothing depends on yet cannot close a cycle.
		return nil
	}

	records, err := eng.store.ListJobs(ctx, job.ListOpts{})
	if err != nil {
		return err
	}

	// node → its dependencies, restricted to non-terminal records.
	nodes := make(map[id.JobID][]id.JobID, len(records)+1)
	for _, j := range records {
		if j.State.Terminal() || j.ID == candidate.ID {
			continue
		}
		nodes[j.ID] = j.Dependencies
	}
	nodes[candidate.ID] = candidate.Dependencies

	indegree := make(map[id.JobID]int, len(nodes))
	dependents := make(map[id.JobID][]id.JobID, len(nodes))
	for nodeID, deps := range nodes {
		for _, dep := range deps {
			if _, known := nodes[dep]; !known {
				continue
			}
			indegree[nodeID]++
			dependents[dep] = append(dependents[dep], nodeID)
		}
	}

	ready := make([]id.JobID, 0, len(nodes))
	for nodeID := range nodes {
		if indegree[nodeID] == 0 {
			ready = append(ready, nodeID)
		}
	}

	drained := 0
	for len(ready) > 0 {
		nodeID := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		drained++

		for _, dependent := range dependents[nodeID] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if drained != len(nodes) {
		return sched.ErrCyclicDependency
	}
	return nil
}
