package store

import (
	"context"

	"github.com/google/uuid"

	"slotbook/backend/internal/domain"
)

// AppointmentIDCounter is the sequence namespace for appointment identifiers.
const AppointmentIDCounter = "appointmentId"

// AppointmentUpdate carries the fields of a partial update. Nil means the
// field is untouched.
type AppointmentUpdate struct {
	ClientName   *string
	ProviderName *string
	Service      *string
	Date         *string
	Time         *string
	Status       *domain.Status
}

func (u AppointmentUpdate) Empty() bool {
	return u.ClientName == nil && u.ProviderName == nil && u.Service == nil &&
		u.Date == nil && u.Time == nil && u.Status == nil
}

type AppointmentRepository interface {
	// Insert persists a new appointment. A duplicate client or provider slot
	// surfaces as *SlotConflictError.
	Insert(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	// UpdateFields applies a partial update and returns the updated record.
	UpdateFields(ctx context.Context, ref Ref, update AppointmentUpdate) (domain.Appointment, error)
	FindBySequence(ctx context.Context, id int64) (domain.Appointment, error)
	FindByRecord(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	// FindAll returns every appointment ordered by date, then time.
	FindAll(ctx context.Context) ([]domain.Appointment, error)
	Delete(ctx context.Context, ref Ref) (domain.Appointment, error)
	// NextSequence atomically increments the named counter, creating it at
	// zero first if absent, and returns the post-increment value.
	NextSequence(ctx context.Context, name string) (int64, error)
}
