package subscription

import (
	"context"
	"errors"
	"log"

	"github.com/shiftwise/shiftwise-backend/internal/auditlog"
	"github.com/shiftwise/shiftwise-backend/internal/report"
)

// Service maintains the denormalized subscription registry: the user-side
// subscribedIssues set and the issue-side subscribers array inside the parent
// report. Both sides are written in the same logical operation; a mismatch
// between them is tolerated downstream, never fatal.
type Service interface {
	// Subscribe and Unsubscribe are idempotent on both sides. A false return
	// means the parent report could not be located or written — the user-side
	// write may have already succeeded, so callers should retry or reconcile,
	// not assume a clean no-op.
	Subscribe(ctx context.Context, userID, issueID, ip string) bool
	Unsubscribe(ctx context.Context, userID, issueID, ip string) bool

	// IsSubscribed reads only the user-side set; the issue-side mirror is
	// write-optimized for dispatch and not consulted here.
	IsSubscribed(ctx context.Context, userID, issueID string) bool

	RegisterToken(ctx context.Context, userID, token, ip string) error
	RemoveToken(ctx context.Context, userID, token string) error
	SetEnabled(ctx context.Context, userID string, enabled bool) error
	GetPreference(ctx context.Context, userID string) (*Preference, error)
}

type service struct {
	repo     Repository
	reports  report.Repository
	auditSvc auditlog.Service
}

func NewService(repo Repository, reports report.Repository, auditSvc auditlog.Service) Service {
	return &service{
		repo:     repo,
		reports:  reports,
		auditSvc: auditSvc,
	}
}

func (s *service) Subscribe(ctx context.Context, userID, issueID, ip string) bool {
	ok := s.applyBothSides(ctx, userID, issueID, true)
	s.audit(ctx, userID, issueID, "ISSUE_SUBSCRIBED", ip, ok)
	return ok
}

func (s *service) Unsubscribe(ctx context.Context, userID, issueID, ip string) bool {
	ok := s.applyBothSides(ctx, userID, issueID, false)
	s.audit(ctx, userID, issueID, "ISSUE_UNSUBSCRIBED", ip, ok)
	return ok
}

// applyBothSides writes the user-side preference set first, then mirrors the
// change into the issue's subscribers array inside the parent report.
func (s *service) applyBothSides(ctx context.Context, userID, issueID string, add bool) bool {
	var err error
	if add {
		err = s.repo.AddSubscription(ctx, userID, issueID)
	} else {
		err = s.repo.RemoveSubscription(ctx, userID, issueID)
	}
	if err != nil {
		log.Printf("⚠️  Preference write failed for user %s: %v", userID, err)
		return false
	}

	reportID, idx, err := report.ParseIssueID(issueID)
	if err != nil {
		log.Printf("⚠️  Cannot mirror subscription, bad issue id %q: %v", issueID, err)
		return false
	}

	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		log.Printf("⚠️  Cannot mirror subscription for issue %s: %v", issueID, err)
		return false
	}
	if idx >= len(rep.Issues) {
		log.Printf("⚠️  Cannot mirror subscription, issue %s out of range", issueID)
		return false
	}

	issue := &rep.Issues[idx]
	if add {
		issue.Subscribers = addToSet(issue.Subscribers, userID)
	} else {
		issue.Subscribers = removeFromSet(issue.Subscribers, userID)
	}

	if err := s.reports.ReplaceIssues(ctx, reportID, rep.Issues, nil); err != nil {
		log.Printf("⚠️  Subscriber mirror write failed for issue %s: %v", issueID, err)
		return false
	}
	return true
}

func (s *service) IsSubscribed(ctx context.Context, userID, issueID string) bool {
	pref, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrPreferenceNotFound) {
		return false
	}
	if err != nil {
		log.Printf("⚠️  Subscription check failed for user %s: %v", userID, err)
		return false
	}
	for _, id := range pref.SubscribedIssues {
		if id == issueID {
			return true
		}
	}
	return false
}

func (s *service) RegisterToken(ctx context.Context, userID, token, ip string) error {
	err := s.repo.AddToken(ctx, userID, token)
	status := "success"
	if err != nil {
		status = "failure"
	}
	details := map[string]interface{}{"token_suffix": tokenSuffix(token)}
	if auditErr := s.auditSvc.LogAction(ctx, userID, nil, "DEVICE_REGISTERED", details, ip, status); auditErr != nil {
		log.Printf("❌ Audit log error: %v", auditErr)
	}
	return err
}

func (s *service) RemoveToken(ctx context.Context, userID, token string) error {
	return s.repo.RemoveToken(ctx, userID, token)
}

func (s *service) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	return s.repo.SetEnabled(ctx, userID, enabled)
}

func (s *service) GetPreference(ctx context.Context, userID string) (*Preference, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) audit(ctx context.Context, userID, issueID, action, ip string, ok bool) {
	status := "success"
	if !ok {
		status = "failure"
	}
	if err := s.auditSvc.LogAction(ctx, userID, &issueID, action, nil, ip, status); err != nil {
		log.Printf("❌ Audit log error: %v", err)
	}
}

func addToSet(set []string, value string) []string {
	for _, v := range set {
		if v == value {
			return set
		}
	}
	return append(set, value)
}

func removeFromSet(set []string, value string) []string {
	out := set[:0]
	for _, v := range set {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

func tokenSuffix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return "..." + token[len(token)-8:]
}
