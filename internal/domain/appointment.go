package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is one of the enumerated appointment statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusCancelled
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	// ID is the store's native record identifier.
	ID uuid.UUID `bun:"id,pk,type:uuid" json:"recordId"`
	// AppointmentID is the sequence identifier, strictly increasing across
	// creates and immutable once assigned.
	AppointmentID int64     `bun:"appointment_id,notnull" json:"appointmentId"`
	ClientName    string    `bun:"client_name,notnull" json:"clientName"`
	ProviderName  string    `bun:"provider_name,notnull" json:"providerName"`
	Service       string    `bun:"service,notnull" json:"service"`
	Date          string    `bun:"date,notnull" json:"date"`
	Time          string    `bun:"time,notnull" json:"time"`
	Status        Status    `bun:"status,notnull" json:"status"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.Status == "" {
			a.Status = StatusActive
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
