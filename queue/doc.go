// Package queue provides the admission-side containers of the
// scheduler: the ordered pending queue and the concurrency gate.
//
// [Pending] holds not-yet-running jobs in a total order (priority
// descending, submission sequence ascending). Selection skips past
// dependency-blocked entries, so head-of-line blocking never starves
// eligible lower-priority work.
//
// [Gate] is a counting semaphore bounding the running set, with an
// optional token-bucket rate limit on admissions. Its limit can be
// adjusted at runtime; shrinking never interrupts in-flight jobs.
package queue
