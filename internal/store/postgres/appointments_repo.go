package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"slotbook/backend/internal/domain"
	"slotbook/backend/internal/store"
)

// Constraint names declared in migrations. The duplicate-key signal carries
// the violated constraint, which is what picks the conflict dimension.
const (
	clientSlotConstraint   = "appointments_client_slot_key"
	providerSlotConstraint = "appointments_provider_slot_key"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) Insert(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		return domain.Appointment{}, classifySlotConflict(err, appt.Date, appt.Time)
	}
	return m, nil
}

func (r *AppointmentRepo) UpdateFields(ctx context.Context, ref store.Ref, update store.AppointmentUpdate) (domain.Appointment, error) {
	if update.Empty() {
		return r.findByRef(ctx, ref)
	}

	var m domain.Appointment
	q := r.db.NewUpdate().Model(&m)
	if update.ClientName != nil {
		q = q.Set("client_name = ?", *update.ClientName)
	}
	if update.ProviderName != nil {
		q = q.Set("provider_name = ?", *update.ProviderName)
	}
	if update.Service != nil {
		q = q.Set("service = ?", *update.Service)
	}
	if update.Date != nil {
		q = q.Set("date = ?", *update.Date)
	}
	if update.Time != nil {
		q = q.Set("time = ?", *update.Time)
	}
	if update.Status != nil {
		q = q.Set("status = ?", *update.Status)
	}
	q = q.Set("updated_at = now()")

	res, err := whereRefUpdate(q, ref).Returning("*").Exec(ctx)
	if err != nil {
		date, tm := "", ""
		if update.Date != nil {
			date = *update.Date
		}
		if update.Time != nil {
			tm = *update.Time
		}
		return domain.Appointment{}, classifySlotConflict(err, date, tm)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return m, nil
}

func (r *AppointmentRepo) FindBySequence(ctx context.Context, id int64) (domain.Appointment, error) {
	var m domain.Appointment
	err := r.db.NewSelect().
		Model(&m).
		Where("appointment_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r *AppointmentRepo) FindByRecord(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var m domain.Appointment
	err := r.db.NewSelect().
		Model(&m).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r *AppointmentRepo) FindAll(ctx context.Context) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("date ASC, time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) Delete(ctx context.Context, ref store.Ref) (domain.Appointment, error) {
	var m domain.Appointment
	q := r.db.NewDelete().Model(&m)
	res, err := whereRefDelete(q, ref).Returning("*").Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return m, nil
}

// NextSequence is a single atomic upsert-increment; the store, not the
// application, serializes concurrent callers.
func (r *AppointmentRepo) NextSequence(ctx context.Context, name string) (int64, error) {
	m := domain.SequenceCounter{Name: name, Value: 1}
	_, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (name) DO UPDATE").
		Set("value = sequence_counter.value + 1").
		Returning("value").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return m.Value, nil
}

func (r *AppointmentRepo) findByRef(ctx context.Context, ref store.Ref) (domain.Appointment, error) {
	if ref.BySequence {
		return r.FindBySequence(ctx, ref.Sequence)
	}
	return r.FindByRecord(ctx, ref.Record)
}

func whereRefUpdate(q *bun.UpdateQuery, ref store.Ref) *bun.UpdateQuery {
	if ref.BySequence {
		return q.Where("appointment_id = ?", ref.Sequence)
	}
	return q.Where("id = ?", ref.Record)
}

func whereRefDelete(q *bun.DeleteQuery, ref store.Ref) *bun.DeleteQuery {
	if ref.BySequence {
		return q.Where("appointment_id = ?", ref.Sequence)
	}
	return q.Where("id = ?", ref.Record)
}

// classifySlotConflict maps the store's duplicate-key signal to the typed
// conflict outcome. Anything else passes through unchanged.
func classifySlotConflict(err error, date, timeOfDay string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case clientSlotConstraint:
		return &store.SlotConflictError{Dimension: store.ConflictClient, Date: date, Time: timeOfDay}
	case providerSlotConstraint:
		return &store.SlotConflictError{Dimension: store.ConflictProvider, Date: date, Time: timeOfDay}
	}
	return err
}
