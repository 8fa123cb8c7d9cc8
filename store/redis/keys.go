package redis

// Redis key naming conventions for sched data.
// All keys are prefixed with "sched:" to avoid collisions.

const keyPrefix = "sched:"

// jobKey returns the key for a job record: sched:job:{id}
func jobKey(id string) string { return keyPrefix + "job:" + id }

// resultKey returns the key for a job's result: sched:result:{id}
func resultKey(id string) string { return keyPrefix + "result:" + id }

// jobIDsKey is the Set tracking all job IDs for enumeration.
const jobIDsKey = keyPrefix + "job_ids"
