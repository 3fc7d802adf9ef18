package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shiftwise/shiftwise-backend/internal/auditlog"
	"github.com/shiftwise/shiftwise-backend/internal/report"
	"github.com/shiftwise/shiftwise-backend/internal/subscription"
	"github.com/shiftwise/shiftwise-backend/utils"
)

// DispatchResult aggregates one fan-out: how many tokens were delivered to
// and how many failed. Delivery is best-effort; zero successes is still a
// successful dispatch from the engine's point of view.
type DispatchResult struct {
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
}

type Service interface {
	// Dispatch resolves the issue's subscribers to their device tokens and
	// sends one push per token concurrently. Per-token failures are counted
	// and logged, never raised.
	Dispatch(ctx context.Context, issueID, reportID, changeType, title, body string) (DispatchResult, error)
}

type service struct {
	reports  report.Repository
	prefs    subscription.Repository
	gateway  Gateway
	auditSvc auditlog.Service
	timeout  time.Duration
}

func NewService(reports report.Repository, prefs subscription.Repository, gateway Gateway, auditSvc auditlog.Service, timeout time.Duration) Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &service{
		reports:  reports,
		prefs:    prefs,
		gateway:  gateway,
		auditSvc: auditSvc,
		timeout:  timeout,
	}
}

func (s *service) Dispatch(ctx context.Context, issueID, reportID, changeType, title, body string) (DispatchResult, error) {
	_, idx, err := report.ParseIssueID(issueID)
	if err != nil {
		return DispatchResult{}, err
	}

	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return DispatchResult{}, err
	}
	if idx >= len(rep.Issues) {
		return DispatchResult{}, fmt.Errorf("%w: index %d out of range", report.ErrIssueNotFound, idx)
	}

	issue := rep.Issues[idx]
	subscribers := issue.Subscribers
	if len(subscribers) == 0 {
		log.Printf("🔔 No subscribers for issue %s, nothing to dispatch", issueID)
		return DispatchResult{}, nil
	}

	// Missing or disabled preference documents are skipped, not errors: the
	// two denormalized subscription sides may drift and the dispatcher
	// treats either as advisory.
	prefs, err := s.prefs.GetEnabledByUserIDs(ctx, subscribers)
	if err != nil {
		return DispatchResult{}, err
	}

	var tokens []string
	for _, pref := range prefs {
		tokens = append(tokens, pref.FCMTokens...)
	}

	if len(tokens) == 0 {
		log.Printf("🔔 No device tokens among %d subscribers of issue %s", len(subscribers), issueID)
		return DispatchResult{}, nil
	}

	msg := Message{
		Title:      title,
		Body:       body,
		IssueID:    issueID,
		ReportID:   reportID,
		ChangeType: changeType,
	}
	if msg.Title == "" {
		msg.Title = fmt.Sprintf("Issue Update: %s", issue.Title)
	}
	if msg.Body == "" {
		msg.Body = fmt.Sprintf("Status: %s - Update: %s", issue.Status, changeType)
	}

	result := s.fanOut(ctx, tokens, msg)

	s.publishBell(prefs, msg)
	s.audit(ctx, issueID, changeType, len(subscribers), result)

	log.Printf("📊 Dispatch complete for issue %s: %d notified, %d failed out of %d tokens",
		issueID, result.Notified, result.Failed, len(tokens))
	return result, nil
}

// fanOut sends one push per token as independent concurrent sends, each with
// its own bounded timeout, joined before the aggregate is returned. A failed
// send never aborts or blocks the rest.
func (s *service) fanOut(ctx context.Context, tokens []string, msg Message) DispatchResult {
	var notified, failed int64
	var wg sync.WaitGroup

	for _, token := range tokens {
		wg.Add(1)
		go func(tok string) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			if err := s.gateway.Send(sendCtx, tok, msg); err != nil {
				atomic.AddInt64(&failed, 1)
				log.Printf("❌ Failed to send to token %s: %v", tokenSuffix(tok), err)
				return
			}
			atomic.AddInt64(&notified, 1)
		}(token)
	}
	wg.Wait()

	return DispatchResult{Notified: int(notified), Failed: int(failed)}
}

// publishBell mirrors the update onto each recipient's Redis channel so the
// dashboard bell refreshes without a push round-trip.
func (s *service) publishBell(prefs []subscription.Preference, msg Message) {
	payload, err := json.Marshal(map[string]interface{}{
		"issueId":    msg.IssueID,
		"reportId":   msg.ReportID,
		"changeType": msg.ChangeType,
		"title":      msg.Title,
		"body":       msg.Body,
		"sentAt":     time.Now(),
	})
	if err != nil {
		return
	}
	for _, pref := range prefs {
		utils.PublishUserEvent(pref.UserID, string(payload))
	}
}

func (s *service) audit(ctx context.Context, issueID, changeType string, subscriberCount int, result DispatchResult) {
	details := map[string]interface{}{
		"change_type": changeType,
		"subscribers": subscriberCount,
		"notified":    result.Notified,
		"failed":      result.Failed,
	}
	if err := s.auditSvc.LogAction(ctx, "dispatcher", &issueID, "DISPATCH_COMPLETED", details, "", "success"); err != nil {
		log.Printf("❌ Audit log error: %v", err)
	}
}

func tokenSuffix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return "..." + token[len(token)-8:]
}
