package sched

import "github.com/xraph/sched/id"

// ID is the primary identifier type for all sched entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
