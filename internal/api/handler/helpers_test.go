package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/learnadoodle/planner/internal/api/middleware"
	"github.com/learnadoodle/planner/internal/auth"
	"github.com/learnadoodle/planner/internal/child"
	"github.com/learnadoodle/planner/internal/event"
	"github.com/learnadoodle/planner/internal/family"
	"github.com/learnadoodle/planner/internal/invite"
	"github.com/learnadoodle/planner/internal/planner"
	"github.com/learnadoodle/planner/internal/search"
	"github.com/learnadoodle/planner/internal/syllabus"
)

var (
	testUser   = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	testFamily = uuid.MustParse("ffffffff-0000-0000-0000-000000000001")
)

func makeChiRequest(method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, w
}

// signedIn attaches the test identity and family, as Auth and RequireFamily would.
func signedIn(req *http.Request) *http.Request {
	ctx := middleware.WithIdentity(req.Context(), &auth.Identity{UserID: testUser, Email: "parent@example.com"})
	ctx = middleware.WithFamilyID(ctx, testFamily)
	return req.WithContext(ctx)
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err, "failed to parse response body")
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := parseEnvelope(t, w)
	errObj, ok := env["error"].(map[string]any)
	require.True(t, ok, "expected error object, got %v", env["error"])
	return errObj["code"].(string)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// --- mocks ---

type mockPlanner struct {
	completeFn   func(ctx context.Context, userID, eventID uuid.UUID, in planner.CompleteInput) (*planner.CompleteResult, error)
	outcomeFn    func(ctx context.Context, userID, eventID uuid.UUID, in planner.OutcomeInput) (*event.Outcome, error)
	rescheduleFn func(ctx context.Context, userID, eventID uuid.UUID, in planner.RescheduleInput) (*event.Event, error)
	shiftFn      func(ctx context.Context, userID uuid.UUID, weekStart time.Time) (int, error)
	freezeFn     func(ctx context.Context, userID uuid.UUID, weekStart time.Time, frozen bool) (int, error)
	blackoutsFn  func(ctx context.Context, userID uuid.UUID, year int, state string) (*planner.BlackoutSync, error)
}

func (m *mockPlanner) CompleteEvent(ctx context.Context, userID, eventID uuid.UUID, in planner.CompleteInput) (*planner.CompleteResult, error) {
	return m.completeFn(ctx, userID, eventID, in)
}

func (m *mockPlanner) SaveOutcome(ctx context.Context, userID, eventID uuid.UUID, in planner.OutcomeInput) (*event.Outcome, error) {
	return m.outcomeFn(ctx, userID, eventID, in)
}

func (m *mockPlanner) RescheduleEvent(ctx context.Context, userID, eventID uuid.UUID, in planner.RescheduleInput) (*event.Event, error) {
	return m.rescheduleFn(ctx, userID, eventID, in)
}

func (m *mockPlanner) ShiftWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) (int, error) {
	return m.shiftFn(ctx, userID, weekStart)
}

func (m *mockPlanner) FreezeWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time, frozen bool) (int, error) {
	return m.freezeFn(ctx, userID, weekStart, frozen)
}

func (m *mockPlanner) SyncBlackouts(ctx context.Context, userID uuid.UUID, year int, state string) (*planner.BlackoutSync, error) {
	return m.blackoutsFn(ctx, userID, year, state)
}

type mockSyllabus struct {
	importFn   func(ctx context.Context, req syllabus.ImportRequest) (*syllabus.ImportResult, error)
	sectionsFn func(ctx context.Context, familyID, syllabusID uuid.UUID, text string) ([]syllabus.Section, error)
}

func (m *mockSyllabus) Import(ctx context.Context, req syllabus.ImportRequest) (*syllabus.ImportResult, error) {
	return m.importFn(ctx, req)
}

func (m *mockSyllabus) SaveSections(ctx context.Context, familyID, syllabusID uuid.UUID, text string) ([]syllabus.Section, error) {
	return m.sectionsFn(ctx, familyID, syllabusID, text)
}

type mockFamilies struct {
	belongsFn  func(ctx context.Context, childID, familyID uuid.UUID) (bool, error)
	nameFn     func(ctx context.Context, familyID uuid.UUID) (string, error)
	childrenFn func(ctx context.Context, familyID uuid.UUID) ([]family.Child, error)
	membersFn  func(ctx context.Context, familyID uuid.UUID) ([]family.Member, error)
}

func (m *mockFamilies) ChildBelongsToFamily(ctx context.Context, childID, familyID uuid.UUID) (bool, error) {
	return m.belongsFn(ctx, childID, familyID)
}

func (m *mockFamilies) FamilyName(ctx context.Context, familyID uuid.UUID) (string, error) {
	return m.nameFn(ctx, familyID)
}

func (m *mockFamilies) ListChildren(ctx context.Context, familyID uuid.UUID) ([]family.Child, error) {
	return m.childrenFn(ctx, familyID)
}

func (m *mockFamilies) ListMembers(ctx context.Context, familyID uuid.UUID) ([]family.Member, error) {
	return m.membersFn(ctx, familyID)
}

type mockSearcher struct {
	searchFn func(ctx context.Context, familyID uuid.UUID, q string) ([]search.Hit, error)
}

func (m *mockSearcher) Search(ctx context.Context, familyID uuid.UUID, q string) ([]search.Hit, error) {
	return m.searchFn(ctx, familyID, q)
}

type mockOverview struct {
	overviewFn func(ctx context.Context, userID uuid.UUID) (*child.Overview, error)
	tutorFn    func(ctx context.Context, userID uuid.UUID) (*child.TutorOverview, error)
	progressFn func(ctx context.Context, userID uuid.UUID, childID, subjectID *uuid.UUID) ([]child.SubjectProgress, error)
}

func (m *mockOverview) Overview(ctx context.Context, userID uuid.UUID) (*child.Overview, error) {
	return m.overviewFn(ctx, userID)
}

func (m *mockOverview) TutorOverview(ctx context.Context, userID uuid.UUID) (*child.TutorOverview, error) {
	return m.tutorFn(ctx, userID)
}

func (m *mockOverview) Progress(ctx context.Context, userID uuid.UUID, childID, subjectID *uuid.UUID) ([]child.SubjectProgress, error) {
	return m.progressFn(ctx, userID, childID, subjectID)
}

type mockInvites struct {
	createFn  func(ctx context.Context, userID uuid.UUID, email, role string, scope []uuid.UUID) (*invite.Created, error)
	listFn    func(ctx context.Context, userID uuid.UUID, email string) ([]invite.Invite, error)
	previewFn func(ctx context.Context, token string) (*invite.Preview, error)
	acceptFn  func(ctx context.Context, userID uuid.UUID, token string) (*invite.Accepted, error)
}

func (m *mockInvites) Create(ctx context.Context, userID uuid.UUID, email, role string, scope []uuid.UUID) (*invite.Created, error) {
	return m.createFn(ctx, userID, email, role, scope)
}

func (m *mockInvites) List(ctx context.Context, userID uuid.UUID, email string) ([]invite.Invite, error) {
	return m.listFn(ctx, userID, email)
}

func (m *mockInvites) Preview(ctx context.Context, token string) (*invite.Preview, error) {
	return m.previewFn(ctx, token)
}

func (m *mockInvites) Accept(ctx context.Context, userID uuid.UUID, token string) (*invite.Accepted, error) {
	return m.acceptFn(ctx, userID, token)
}
