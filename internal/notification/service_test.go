package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/shiftwise-backend/internal/auditlog"
	"github.com/shiftwise/shiftwise-backend/internal/report"
	"github.com/shiftwise/shiftwise-backend/internal/subscription"
)

type fakeReportRepo struct {
	reports map[string]*report.Report
}

func (r *fakeReportRepo) Create(_ context.Context, rep *report.Report) error {
	r.reports[rep.ID] = rep
	return nil
}

func (r *fakeReportRepo) GetByID(_ context.Context, id string) (*report.Report, error) {
	rep, ok := r.reports[id]
	if !ok {
		return nil, report.ErrReportNotFound
	}
	return rep, nil
}

func (r *fakeReportRepo) List(_ context.Context) ([]report.Report, error) {
	return nil, nil
}

func (r *fakeReportRepo) ReplaceIssues(_ context.Context, _ string, _ []report.Issue, _ *time.Time) error {
	return nil
}

type fakePrefRepo struct {
	prefs map[string]subscription.Preference
}

func (r *fakePrefRepo) Get(_ context.Context, userID string) (*subscription.Preference, error) {
	pref, ok := r.prefs[userID]
	if !ok {
		return nil, subscription.ErrPreferenceNotFound
	}
	return &pref, nil
}

func (r *fakePrefRepo) AddSubscription(context.Context, string, string) error    { return nil }
func (r *fakePrefRepo) RemoveSubscription(context.Context, string, string) error { return nil }
func (r *fakePrefRepo) AddToken(context.Context, string, string) error           { return nil }
func (r *fakePrefRepo) RemoveToken(context.Context, string, string) error        { return nil }
func (r *fakePrefRepo) SetEnabled(context.Context, string, bool) error           { return nil }

func (r *fakePrefRepo) GetEnabledByUserIDs(_ context.Context, userIDs []string) ([]subscription.Preference, error) {
	var out []subscription.Preference
	for _, id := range userIDs {
		if pref, ok := r.prefs[id]; ok && pref.Enabled {
			out = append(out, pref)
		}
	}
	return out, nil
}

// fakeGateway records every send; tokens listed in failing error out.
type fakeGateway struct {
	mu      sync.Mutex
	sent    []string
	failing map[string]bool
}

func newFakeGateway(failing ...string) *fakeGateway {
	g := &fakeGateway{failing: make(map[string]bool)}
	for _, tok := range failing {
		g.failing[tok] = true
	}
	return g
}

func (g *fakeGateway) Send(_ context.Context, token string, _ Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, token)
	if g.failing[token] {
		return errors.New("unregistered token")
	}
	return nil
}

func (g *fakeGateway) sendCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
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

const testReportID = "550e8400-e29b-41d4-a716-446655440000"

func fixture(subscribers []string, prefs map[string]subscription.Preference, gateway Gateway) Service {
	reports := &fakeReportRepo{reports: map[string]*report.Report{
		testReportID: {
			ID: testReportID,
			Issues: []report.Issue{
				{Title: "Conveyor belt misalignment", Status: report.StatusOpen, Subscribers: subscribers},
			},
		},
	}}
	return NewService(reports, &fakePrefRepo{prefs: prefs}, gateway, nopAudit{}, time.Second)
}

func TestDispatchNoSubscribersShortCircuits(t *testing.T) {
	gateway := newFakeGateway()
	svc := fixture(nil, nil, gateway)

	res, err := svc.Dispatch(context.Background(), report.ComposeIssueID(testReportID, 0), testReportID, "status", "", "")
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{}, res)
	assert.Zero(t, gateway.sendCount())
}

func TestDispatchSkipsDisabledAndMissingPreferences(t *testing.T) {
	gateway := newFakeGateway()
	svc := fixture(
		[]string{"bob", "carol", "ghost"},
		map[string]subscription.Preference{
			"bob":   {UserID: "bob", Enabled: false, FCMTokens: []string{"tok-bob"}},
			"carol": {UserID: "carol", Enabled: true},
		},
		gateway,
	)

	// bob is disabled, carol has no tokens and ghost has no preference doc.
	res, err := svc.Dispatch(context.Background(), report.ComposeIssueID(testReportID, 0), testReportID, "status", "", "")
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{}, res)
	assert.Zero(t, gateway.sendCount())
}

func TestDispatchIsolatesPerTokenFailures(t *testing.T) {
	gateway := newFakeGateway("tok-carol")
	svc := fixture(
		[]string{"bob", "carol", "dave"},
		map[string]subscription.Preference{
			"bob":   {UserID: "bob", Enabled: true, FCMTokens: []string{"tok-bob"}},
			"carol": {UserID: "carol", Enabled: true, FCMTokens: []string{"tok-carol"}},
			"dave":  {UserID: "dave", Enabled: true, FCMTokens: []string{"tok-dave"}},
		},
		gateway,
	)

	res, err := svc.Dispatch(context.Background(), report.ComposeIssueID(testReportID, 0), testReportID, "status", "Issue Updated", "Status: Completed")
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Notified: 2, Failed: 1}, res)
	assert.Equal(t, 3, gateway.sendCount())
}

func TestDispatchFansOutToEveryDevice(t *testing.T) {
	gateway := newFakeGateway()
	svc := fixture(
		[]string{"bob"},
		map[string]subscription.Preference{
			"bob": {UserID: "bob", Enabled: true, FCMTokens: []string{"tok-phone", "tok-tablet"}},
		},
		gateway,
	)

	res, err := svc.Dispatch(context.Background(), report.ComposeIssueID(testReportID, 0), testReportID, "status", "", "")
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Notified: 2}, res)
	assert.ElementsMatch(t, []string{"tok-phone", "tok-tablet"}, gateway.sent)
}

func TestDispatchTotalFailureIsNotAnError(t *testing.T) {
	gateway := newFakeGateway("tok-bob", "tok-carol")
	svc := fixture(
		[]string{"bob", "carol"},
		map[string]subscription.Preference{
			"bob":   {UserID: "bob", Enabled: true, FCMTokens: []string{"tok-bob"}},
			"carol": {UserID: "carol", Enabled: true, FCMTokens: []string{"tok-carol"}},
		},
		gateway,
	)

	res, err := svc.Dispatch(context.Background(), report.ComposeIssueID(testReportID, 0), testReportID, "status", "", "")
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Notified: 0, Failed: 2}, res)
}

func TestDispatchErrors(t *testing.T) {
	svc := fixture(nil, nil, newFakeGateway())
	ctx := context.Background()

	_, err := svc.Dispatch(ctx, "garbage", testReportID, "status", "", "")
	assert.True(t, errors.Is(err, report.ErrMalformedIdentifier))

	_, err = svc.Dispatch(ctx, report.ComposeIssueID("missing-report", 0), "missing-report", "status", "", "")
	assert.True(t, errors.Is(err, report.ErrReportNotFound))

	_, err = svc.Dispatch(ctx, report.ComposeIssueID(testReportID, 5), testReportID, "status", "", "")
	assert.True(t, errors.Is(err, report.ErrIssueNotFound))
}
