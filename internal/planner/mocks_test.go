package planner_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/learnadoodle/planner/internal/event"
)

type mockResolver struct {
	familyID uuid.UUID
	err      error
}

func (m *mockResolver) FamilyID(context.Context, uuid.UUID) (uuid.UUID, error) {
	return m.familyID, m.err
}

type mockEvents struct {
	event.Repository
	getByIDFn          func(ctx context.Context, id uuid.UUID) (*event.Event, error)
	markDoneFn         func(ctx context.Context, id uuid.UUID) (*event.Event, error)
	rescheduleFn       func(ctx context.Context, id uuid.UUID, start, end time.Time, origin, reason string) (*event.Event, error)
	upsertAttendanceFn func(ctx context.Context, a *event.Attendance) error
	upsertOutcomeFn    func(ctx context.Context, o *event.Outcome) error
	setWeekFrozenFn    func(ctx context.Context, fam uuid.UUID, from, to time.Time, frozen bool) (int, error)
	upsertOffDaysFn    func(ctx context.Context, fam uuid.UUID, days []time.Time) (int, error)
}

func (m *mockEvents) GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockEvents) MarkDone(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	return m.markDoneFn(ctx, id)
}

func (m *mockEvents) Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time, origin, reason string) (*event.Event, error) {
	return m.rescheduleFn(ctx, id, start, end, origin, reason)
}

func (m *mockEvents) UpsertAttendance(ctx context.Context, a *event.Attendance) error {
	return m.upsertAttendanceFn(ctx, a)
}

func (m *mockEvents) UpsertOutcome(ctx context.Context, o *event.Outcome) error {
	return m.upsertOutcomeFn(ctx, o)
}

func (m *mockEvents) SetWeekFrozen(ctx context.Context, fam uuid.UUID, from, to time.Time, frozen bool) (int, error) {
	return m.setWeekFrozenFn(ctx, fam, from, to, frozen)
}

func (m *mockEvents) UpsertOffDays(ctx context.Context, fam uuid.UUID, days []time.Time) (int, error) {
	return m.upsertOffDaysFn(ctx, fam, days)
}

type rpcCall struct {
	fn     string
	params map[string]any
}

type mockBackend struct {
	calls      []rpcCall
	rpcFn      func(fn string, dest any) error
	downloadFn func(bucket, path string) ([]byte, error)
}

func (m *mockBackend) RPC(_ context.Context, fn string, params any, dest any) error {
	m.calls = append(m.calls, rpcCall{fn: fn, params: params.(map[string]any)})
	if m.rpcFn != nil {
		return m.rpcFn(fn, dest)
	}
	return nil
}

func (m *mockBackend) Download(_ context.Context, bucket, path string) ([]byte, error) {
	return m.downloadFn(bucket, path)
}
