package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"slotbook/backend/internal/domain"
	"slotbook/backend/internal/store"
)

// setupIntegrationRepo creates a throwaway schema, applies migrations/, and
// returns a repo whose connections are pinned to that schema.
func setupIntegrationRepo(t *testing.T) *AppointmentRepo {
	t.Helper()

	databaseURL := strings.TrimSpace(os.Getenv("SLOTBOOK_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("SLOTBOOK_TEST_DATABASE_URL not set")
	}

	admin, err := Open(databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(admin)
	})

	schema := "slotbook_test_" + randomHex(t, 8)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := admin.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer ccancel()
		_, _ = admin.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(cctx)
	})

	sep := "?"
	if strings.Contains(databaseURL, "?") {
		sep = "&"
	}
	testURL := databaseURL + sep + "options=-csearch_path%3D" + schema

	db, err := Open(testURL, PoolConfig{MaxOpenConns: 8})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	return NewAppointmentRepo(db)
}

func testAppointment(seq int64, client, provider, date, timeOfDay string) domain.Appointment {
	return domain.Appointment{
		AppointmentID: seq,
		ClientName:    client,
		ProviderName:  provider,
		Service:       "Haircut",
		Date:          date,
		Time:          timeOfDay,
		Status:        domain.StatusActive,
	}
}

func TestPostgresIntegration_SlotUniqueness(t *testing.T) {
	repo := setupIntegrationRepo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	first, err := repo.Insert(ctx, testAppointment(1, "Ana", "Luis", "2099-01-05", "10:00"))
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if first.ID == uuid.Nil {
		t.Fatalf("record id not assigned")
	}

	// Same client, same slot, different provider.
	_, err = repo.Insert(ctx, testAppointment(2, "Ana", "Marta", "2099-01-05", "10:00"))
	var scErr *store.SlotConflictError
	if err == nil || !errors.As(err, &scErr) || scErr.Dimension != store.ConflictClient {
		t.Fatalf("err = %v, want client slot conflict", err)
	}

	// Same provider, same slot, different client.
	_, err = repo.Insert(ctx, testAppointment(3, "Bea", "Luis", "2099-01-05", "10:00"))
	if err == nil || !errors.As(err, &scErr) || scErr.Dimension != store.ConflictProvider {
		t.Fatalf("err = %v, want provider slot conflict", err)
	}

	// A different slot is free.
	if _, err := repo.Insert(ctx, testAppointment(4, "Ana", "Luis", "2099-01-05", "10:30")); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	// Cancelling does not free the slot.
	cancelled := domain.StatusCancelled
	if _, err := repo.UpdateFields(ctx, store.SequenceRef(1), store.AppointmentUpdate{Status: &cancelled}); err != nil {
		t.Fatalf("UpdateFields error: %v", err)
	}
	_, err = repo.Insert(ctx, testAppointment(5, "Ana", "Marta", "2099-01-05", "10:00"))
	if err == nil || !errors.As(err, &scErr) || scErr.Dimension != store.ConflictClient {
		t.Fatalf("err = %v, want client slot conflict after cancel", err)
	}
}

func TestPostgresIntegration_SequenceMonotonicUnderConcurrency(t *testing.T) {
	repo := setupIntegrationRepo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	first, err := repo.NextSequence(ctx, store.AppointmentIDCounter)
	if err != nil {
		t.Fatalf("NextSequence error: %v", err)
	}
	if first != 1 {
		t.Fatalf("first value = %d, want 1 (implicit counter creation)", first)
	}

	const workers = 20
	values := make([]int64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			values[i], errs[i] = repo.NextSequence(ctx, store.AppointmentIDCounter)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	for i, v := range values {
		if want := first + int64(i) + 1; v != want {
			t.Fatalf("values[%d] = %d, want %d (distinct, gap-free continuation)", i, v, want)
		}
	}

	// Separate namespaces do not interfere.
	other, err := repo.NextSequence(ctx, "otherCounter")
	if err != nil {
		t.Fatalf("NextSequence error: %v", err)
	}
	if other != 1 {
		t.Fatalf("other counter = %d, want 1", other)
	}
}

func TestPostgresIntegration_LookupUpdateDelete(t *testing.T) {
	repo := setupIntegrationRepo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := repo.Insert(ctx, testAppointment(1, "Ana", "Luis", "2099-01-06", "09:00"))
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if _, err := repo.Insert(ctx, testAppointment(2, "Bea", "Luis", "2099-01-05", "19:30")); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	bySeq, err := repo.FindBySequence(ctx, 1)
	if err != nil || bySeq.ClientName != "Ana" {
		t.Fatalf("FindBySequence = %+v, %v", bySeq, err)
	}
	byRec, err := repo.FindByRecord(ctx, a.ID)
	if err != nil || byRec.AppointmentID != 1 {
		t.Fatalf("FindByRecord = %+v, %v", byRec, err)
	}
	if _, err := repo.FindBySequence(ctx, 999); err != store.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll error: %v", err)
	}
	if len(all) != 2 || all[0].AppointmentID != 2 || all[1].AppointmentID != 1 {
		t.Fatalf("FindAll order wrong: %+v", all)
	}

	newService := "Beard trim"
	updated, err := repo.UpdateFields(ctx, store.RecordRef(a.ID), store.AppointmentUpdate{Service: &newService})
	if err != nil {
		t.Fatalf("UpdateFields error: %v", err)
	}
	if updated.Service != "Beard trim" || updated.ClientName != "Ana" || updated.AppointmentID != 1 {
		t.Fatalf("updated = %+v", updated)
	}
	if !updated.UpdatedAt.After(a.UpdatedAt) {
		t.Fatalf("updated_at not advanced: %v -> %v", a.UpdatedAt, updated.UpdatedAt)
	}

	if _, err := repo.UpdateFields(ctx, store.SequenceRef(999), store.AppointmentUpdate{Service: &newService}); err != store.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	deleted, err := repo.Delete(ctx, store.SequenceRef(1))
	if err != nil || deleted.AppointmentID != 1 {
		t.Fatalf("Delete = %+v, %v", deleted, err)
	}
	if _, err := repo.Delete(ctx, store.SequenceRef(1)); err != store.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}

type rawExecutor interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

func applyMigrations(ctx context.Context, exec rawExecutor) error {
	dir, err := migrationsDir()
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	type mig struct {
		name string
		path string
	}
	migs := make([]mig, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		migs = append(migs, mig{name: e.Name(), path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].name < migs[j].name })

	for _, m := range migs {
		b, err := os.ReadFile(m.path)
		if err != nil {
			return err
		}
		upSQL, err := extractGooseUp(string(b))
		if err != nil {
			return err
		}
		for _, stmt := range splitSQLStatements(upSQL) {
			if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

func migrationsDir() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("runtime.Caller failed")
	}
	base := filepath.Dir(file)
	return filepath.Clean(filepath.Join(base, "..", "..", "..", "migrations")), nil
}

func extractGooseUp(sql string) (string, error) {
	upMarker := "-- +goose Up"
	downMarker := "-- +goose Down"

	upIdx := strings.Index(sql, upMarker)
	if upIdx < 0 {
		return "", fmt.Errorf("missing goose up marker")
	}
	afterUp := sql[upIdx+len(upMarker):]
	afterUp = strings.TrimLeft(afterUp, "\r\n")

	downIdx := strings.Index(afterUp, downMarker)
	if downIdx < 0 {
		return strings.TrimSpace(afterUp), nil
	}
	return strings.TrimSpace(afterUp[:downIdx]), nil
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
