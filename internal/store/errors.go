package store

import (
	"errors"
	"fmt"
)

var (
	ErrConflict = errors.New("slot conflict")
	ErrNotFound = errors.New("not found")
)

type ConflictDimension string

const (
	ConflictClient   ConflictDimension = "client"
	ConflictProvider ConflictDimension = "provider"
)

// SlotConflictError reports that the store's uniqueness enforcement rejected
// a write: the client or the provider already holds an appointment at that
// date and time. It is only ever produced from the store's duplicate-key
// signal, never from a prior existence check.
type SlotConflictError struct {
	Dimension ConflictDimension
	Date      string
	Time      string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("%s already booked on %s at %s", e.Dimension, e.Date, e.Time)
}

func (e *SlotConflictError) Is(target error) bool {
	return target == ErrConflict
}
