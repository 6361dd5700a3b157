package store

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Ref identifies an appointment either by its numeric sequence identifier or
// by the store's native record id. The variant is resolved once, when the
// raw identifier is parsed: anything that reads as an integer is a sequence
// ref, anything that reads as a UUID is a record ref.
type Ref struct {
	Sequence   int64
	Record     uuid.UUID
	BySequence bool
}

func SequenceRef(id int64) Ref {
	return Ref{Sequence: id, BySequence: true}
}

func RecordRef(id uuid.UUID) Ref {
	return Ref{Record: id}
}

// ParseRef resolves a raw identifier, trying the numeric form first.
// Identifiers that are neither numeric nor a UUID cannot match any record,
// so the error is ErrNotFound.
func ParseRef(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return SequenceRef(n), nil
	}
	if id, err := uuid.Parse(raw); err == nil {
		return RecordRef(id), nil
	}
	return Ref{}, ErrNotFound
}

func (r Ref) String() string {
	if r.BySequence {
		return strconv.FormatInt(r.Sequence, 10)
	}
	return r.Record.String()
}
