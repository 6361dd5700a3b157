package appointments

import (
	"context"
	"strings"
	"time"

	"slotbook/backend/internal/domain"
	"slotbook/backend/internal/store"
)

type ValidationKind string

const (
	ValidationFieldMissing  ValidationKind = "field-missing"
	ValidationPastDateTime  ValidationKind = "past-datetime"
	ValidationInvalidSlot   ValidationKind = "invalid-slot"
	ValidationOutsideHours  ValidationKind = "outside-hours"
	ValidationInvalidStatus ValidationKind = "invalid-status"
)

type ValidationError struct {
	Kind ValidationKind
	msg  string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(kind ValidationKind, msg string) error {
	return &ValidationError{Kind: kind, msg: msg}
}

type Service struct {
	repo store.AppointmentRepository
	now  func() time.Time
}

func NewService(repo store.AppointmentRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type CreateInput struct {
	ClientName   string
	ProviderName string
	Service      string
	Date         string
	Time         string
}

// Create runs the admission pipeline: required fields, not in the past,
// 30-minute slot boundary, business hours; then allocates the sequence id
// and persists. A slot conflict from the store passes through untouched and
// is never retried here.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Appointment, error) {
	client := strings.TrimSpace(in.ClientName)
	provider := strings.TrimSpace(in.ProviderName)
	service := strings.TrimSpace(in.Service)
	date := strings.TrimSpace(in.Date)
	timeOfDay := strings.TrimSpace(in.Time)

	if client == "" || provider == "" || service == "" || date == "" || timeOfDay == "" {
		return domain.Appointment{}, validationError(ValidationFieldMissing, "all fields are required and must be non-empty")
	}

	if err := s.validateSlot(date, timeOfDay); err != nil {
		return domain.Appointment{}, err
	}

	seq, err := s.repo.NextSequence(ctx, store.AppointmentIDCounter)
	if err != nil {
		return domain.Appointment{}, err
	}

	return s.repo.Insert(ctx, domain.Appointment{
		AppointmentID: seq,
		ClientName:    client,
		ProviderName:  provider,
		Service:       service,
		Date:          date,
		Time:          timeOfDay,
		Status:        domain.StatusActive,
	})
}

type UpdateInput struct {
	ClientName   *string
	ProviderName *string
	Service      *string
	Date         *string
	Time         *string
	Status       *string
}

// Update applies a partial update. Supplied fields must be non-empty after
// trimming, and a supplied status must be one of the enumerated values; both
// checks run before anything is read or written. If date or time change, the
// merged (date, time) of the resulting record is revalidated exactly like a
// fresh booking. No new sequence id is ever allocated.
func (s *Service) Update(ctx context.Context, ref store.Ref, in UpdateInput) (domain.Appointment, error) {
	var update store.AppointmentUpdate

	if in.ClientName != nil {
		v := strings.TrimSpace(*in.ClientName)
		if v == "" {
			return domain.Appointment{}, validationError(ValidationFieldMissing, "clientName cannot be empty")
		}
		update.ClientName = &v
	}
	if in.ProviderName != nil {
		v := strings.TrimSpace(*in.ProviderName)
		if v == "" {
			return domain.Appointment{}, validationError(ValidationFieldMissing, "providerName cannot be empty")
		}
		update.ProviderName = &v
	}
	if in.Service != nil {
		v := strings.TrimSpace(*in.Service)
		if v == "" {
			return domain.Appointment{}, validationError(ValidationFieldMissing, "service cannot be empty")
		}
		update.Service = &v
	}
	if in.Date != nil {
		v := strings.TrimSpace(*in.Date)
		if v == "" {
			return domain.Appointment{}, validationError(ValidationFieldMissing, "date cannot be empty")
		}
		update.Date = &v
	}
	if in.Time != nil {
		v := strings.TrimSpace(*in.Time)
		if v == "" {
			return domain.Appointment{}, validationError(ValidationFieldMissing, "time cannot be empty")
		}
		update.Time = &v
	}
	if in.Status != nil {
		st := domain.Status(strings.TrimSpace(*in.Status))
		if !st.Valid() {
			return domain.Appointment{}, validationError(ValidationInvalidStatus, "status must be ACTIVE or CANCELLED")
		}
		update.Status = &st
	}

	if update.Date != nil || update.Time != nil {
		current, err := s.findByRef(ctx, ref)
		if err != nil {
			return domain.Appointment{}, err
		}

		date := current.Date
		if update.Date != nil {
			date = *update.Date
		}
		timeOfDay := current.Time
		if update.Time != nil {
			timeOfDay = *update.Time
		}

		if err := s.validateSlot(date, timeOfDay); err != nil {
			return domain.Appointment{}, err
		}
	}

	return s.repo.UpdateFields(ctx, ref, update)
}

func (s *Service) Get(ctx context.Context, ref store.Ref) (domain.Appointment, error) {
	return s.findByRef(ctx, ref)
}

func (s *Service) List(ctx context.Context) ([]domain.Appointment, error) {
	return s.repo.FindAll(ctx)
}

func (s *Service) Delete(ctx context.Context, ref store.Ref) (domain.Appointment, error) {
	return s.repo.Delete(ctx, ref)
}

// validateSlot short-circuits on the first failing rule; callers receive a
// single reason.
func (s *Service) validateSlot(date, timeOfDay string) error {
	if domain.IsPast(date, timeOfDay, s.now()) {
		return validationError(ValidationPastDateTime, "appointments in the past are not allowed")
	}
	if !domain.IsValidSlot(timeOfDay) {
		return validationError(ValidationInvalidSlot, "invalid time: slots start every 30 minutes")
	}
	if !domain.IsWithinBusinessHours(date, timeOfDay) {
		return validationError(ValidationOutsideHours, "outside business hours. "+domain.BusinessHoursMessage(date))
	}
	return nil
}

func (s *Service) findByRef(ctx context.Context, ref store.Ref) (domain.Appointment, error) {
	if ref.BySequence {
		return s.repo.FindBySequence(ctx, ref.Sequence)
	}
	return s.repo.FindByRecord(ctx, ref.Record)
}
