package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/shiftwise-backend/internal/auditlog"
)

type fakeRepo struct {
	reports  map[string]*Report
	replaced int
}

func newFakeRepo(reports ...*Report) *fakeRepo {
	r := &fakeRepo{reports: make(map[string]*Report)}
	for _, rep := range reports {
		r.reports[rep.ID] = rep
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, rep *Report) error {
	r.reports[rep.ID] = rep
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*Report, error) {
	rep, ok := r.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	clone := *rep
	clone.Issues = make([]Issue, len(rep.Issues))
	copy(clone.Issues, rep.Issues)
	return &clone, nil
}

func (r *fakeRepo) List(_ context.Context) ([]Report, error) {
	var out []Report
	for _, rep := range r.reports {
		out = append(out, *rep)
	}
	return out, nil
}

func (r *fakeRepo) ReplaceIssues(_ context.Context, reportID string, issues []Issue, reportDate *time.Time) error {
	rep, ok := r.reports[reportID]
	if !ok {
		return ErrReportNotFound
	}
	rep.Issues = issues
	if reportDate != nil {
		rep.ReportDate = *reportDate
	}
	r.replaced++
	return nil
}

type nopAudit struct{}

func (nopAudit) LogAction(context.Context, string, *string, string, map[string]interface{}, string, string) error {
	return nil
}

func (nopAudit) GetAuditLogs(context.Context, auditlog.AuditLogFilter) (*auditlog.PaginatedAuditLogs, error) {
	return &auditlog.PaginatedAuditLogs{}, nil
}

func (nopAudit) GetAuditLogByID(context.Context, uint) (*auditlog.AuditLog, error) {
	return nil, errors.New("not found")
}

type captureEvents struct {
	events []UpdateEvent
}

func (c *captureEvents) IssueUpdated(evt UpdateEvent) {
	c.events = append(c.events, evt)
}

func seedReport() *Report {
	return &Report{
		ID:          "550e8400-e29b-41d4-a716-446655440000",
		SubmittedBy: "alice",
		ReportDate:  time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC),
		Issues: []Issue{
			{
				Title:       "Conveyor belt misalignment",
				PMUN:        "PM-1042",
				Description: "Belt drifting left at station 3",
				Status:      StatusOpen,
			},
			{
				Title:       "Hydraulic leak",
				Description: "Slow drip near press 2",
				Status:      StatusInProgress,
				History: []HistoryEntry{
					{Status: StatusInProgress, ChangedBy: "bob", Note: "started work"},
				},
			},
		},
	}
}

func newTestService(repo Repository, events EventPublisher) Service {
	return NewService(repo, nopAudit{}, events)
}

func TestApplyTransitionStatusChangeAppendsHistory(t *testing.T) {
	repo := newFakeRepo(seedReport())
	events := &captureEvents{}
	svc := newTestService(repo, events)

	issueID := ComposeIssueID("550e8400-e29b-41d4-a716-446655440000", 0)
	view, err := svc.ApplyTransition(context.Background(), issueID, "Completed", "fixed the sensor",
		IssueEdit{}, Actor{Name: "alice", Role: RoleTechnician}, "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, view.Status)
	require.Len(t, view.History, 1)
	entry := view.History[0]
	assert.Equal(t, StatusCompleted, entry.Status)
	assert.Equal(t, "alice", entry.ChangedBy)
	assert.Equal(t, RoleTechnician, entry.Role)
	assert.Equal(t, "fixed the sensor", entry.Note)
	assert.False(t, entry.ChangedAt.IsZero())

	// Persisted, not just returned.
	stored, err := repo.GetByID(context.Background(), "550e8400-e29b-41d4-a716-446655440000")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Issues[0].Status)
	require.Len(t, stored.Issues[0].History, 1)

	require.Len(t, events.events, 1)
	evt := events.events[0]
	assert.Equal(t, issueID, evt.IssueID)
	assert.Equal(t, "status", evt.ChangeType)
	assert.Equal(t, "Issue Updated: Conveyor belt misalignment", evt.Title)
	assert.Equal(t, "Status: Completed (changed) - Updates: status", evt.Body)
}

func TestApplyTransitionHistoryOnlyAppends(t *testing.T) {
	repo := newFakeRepo(seedReport())
	svc := newTestService(repo, &captureEvents{})

	issueID := ComposeIssueID("550e8400-e29b-41d4-a716-446655440000", 1)
	view, err := svc.ApplyTransition(context.Background(), issueID, "Escalated", "needs maintenance crew",
		IssueEdit{}, Actor{Name: "carol", Role: RoleSupervisor}, "")
	require.NoError(t, err)

	// The prior entry survives untouched; the new one lands at the end.
	require.Len(t, view.History, 2)
	assert.Equal(t, "bob", view.History[0].ChangedBy)
	assert.Equal(t, StatusEscalated, view.History[1].Status)
}

func TestApplyTransitionRequiresNoteOnStatusChange(t *testing.T) {
	repo := newFakeRepo(seedReport())
	svc := newTestService(repo, &captureEvents{})

	issueID := ComposeIssueID("550e8400-e29b-41d4-a716-446655440000", 0)
	for _, note := range []string{"", "   ", "\t\n"} {
		_, err := svc.ApplyTransition(context.Background(), issueID, "Completed", note,
			IssueEdit{}, Actor{Name: "alice"}, "")
		assert.True(t, errors.Is(err, ErrMissingJustification), "note %q gave %v", note, err)
	}

	// The rejected transitions never reached the store.
	assert.Equal(t, 0, repo.replaced)
	stored, _ := repo.GetByID(context.Background(), "550e8400-e29b-41d4-a716-446655440000")
	assert.Equal(t, StatusOpen, stored.Issues[0].Status)
	assert.Empty(t, stored.Issues[0].History)
}

func TestApplyTransitionSameStatusIsHistoryNoOp(t *testing.T) {
	repo := newFakeRepo(seedReport())
	events := &captureEvents{}
	svc := newTestService(repo, events)

	issueID := ComposeIssueID("550e8400-e29b-41d4-a716-446655440000", 0)
	view, err := svc.ApplyTransition(context.Background(), issueID, "Open", "",
		IssueEdit{}, Actor{Name: "alice"}, "")
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, view.Status)
	assert.Empty(t, view.History)
	assert.Empty(t, events.events)
}

func TestApplyTransitionSameStatusPersistsEdits(t *testing.T) {
	repo := newFakeRepo(seedReport())
	events := &captureEvents{}
	svc := newTestService(repo, events)

	desc := "Belt drifting left at station 3, worse after lunch"
	actions := "Tensioned idler roller"
	issueID := ComposeIssueID("550e8400-e29b-41d4-a716-446655440000", 0)
	view, err := svc.ApplyTransition(context.Background(), issueID, "Open", "",
		IssueEdit{Description: &desc, Actions: &actions}, Actor{Name: "alice"}, "")
	require.NoError(t, err)

	assert.Equal(t, desc, view.Description)
	assert.Equal(t, actions, view.Actions)
	assert.Empty(t, view.History)

	require.Len(t, events.events, 1)
	evt := events.events[0]
	assert.Equal(t, "description, actions", evt.ChangeType)
	assert.Equal(t, "Status: Open - Updates: description, actions", evt.Body)
}

func TestApplyTransitionErrors(t *testing.T) {
	repo := newFakeRepo(seedReport())
	svc := newTestService(repo, &captureEvents{})
	ctx := context.Background()

	_, err := svc.ApplyTransition(ctx, "garbage", "Completed", "x", IssueEdit{}, Actor{}, "")
	assert.True(t, errors.Is(err, ErrMalformedIdentifier))

	issueID := ComposeIssueID("550e8400-e29b-41d4-a716-446655440000", 0)
	_, err = svc.ApplyTransition(ctx, issueID, "Resolved", "x", IssueEdit{}, Actor{}, "")
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	_, err = svc.ApplyTransition(ctx, ComposeIssueID("missing-report", 0), "Completed", "x", IssueEdit{}, Actor{}, "")
	assert.True(t, errors.Is(err, ErrReportNotFound))

	_, err = svc.ApplyTransition(ctx, ComposeIssueID("550e8400-e29b-41d4-a716-446655440000", 9), "Completed", "x", IssueEdit{}, Actor{}, "")
	assert.True(t, errors.Is(err, ErrIssueNotFound))
}

func TestCreateReportAndListIssues(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &captureEvents{})
	ctx := context.Background()

	rep, err := svc.CreateReport(ctx, CreateReportInput{
		SubmittedBy: "dave",
		ReportDate:  time.Date(2026, 3, 15, 6, 0, 0, 0, time.UTC),
		Issues: []IssueInput{
			{Title: "Broken gauge", Description: "Pressure gauge stuck at zero"},
			{Title: "Noisy bearing", Description: "Grinding from motor housing", Status: "Escalated"},
		},
	})
	require.NoError(t, err)
	require.Len(t, rep.Issues, 2)
	assert.Equal(t, StatusOpen, rep.Issues[0].Status)
	assert.Equal(t, StatusEscalated, rep.Issues[1].Status)

	views, err := svc.ListIssues(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, rep.ID, v.ReportID)
		assert.Equal(t, ComposeIssueID(rep.ID, v.IssueIndex), v.ID)
		assert.Equal(t, "dave", v.SubmittedBy)
	}
}

func TestCreateReportValidation(t *testing.T) {
	svc := newTestService(newFakeRepo(), &captureEvents{})
	ctx := context.Background()

	_, err := svc.CreateReport(ctx, CreateReportInput{SubmittedBy: "  ", Issues: []IssueInput{{Title: "x", Description: "y"}}})
	assert.Error(t, err)

	_, err = svc.CreateReport(ctx, CreateReportInput{SubmittedBy: "dave"})
	assert.Error(t, err)

	_, err = svc.CreateReport(ctx, CreateReportInput{
		SubmittedBy: "dave",
		Issues:      []IssueInput{{Title: "x", Description: "y", Status: "Done"}},
	})
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}
