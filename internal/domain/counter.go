package domain

import "github.com/uptrace/bun"

// SequenceCounter backs the monotonic appointment identifier. One row per
// counter namespace, mutated only by the store's atomic upsert-increment.
type SequenceCounter struct {
	bun.BaseModel `bun:"table:sequence_counters"`

	Name  string `bun:"name,pk"`
	Value int64  `bun:"value,notnull"`
}
