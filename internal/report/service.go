package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shiftwise/shiftwise-backend/internal/auditlog"
	"github.com/shiftwise/shiftwise-backend/utils"
)

// EventPublisher decouples the mutation path from notification fan-out.
// Publishing is fire-and-observe: a failed publish is logged by the sink
// and never fails the mutation.
type EventPublisher interface {
	IssueUpdated(evt UpdateEvent)
}

type kafkaPublisher struct{}

// NewKafkaPublisher returns the production publisher backed by the
// issue-updates topic.
func NewKafkaPublisher() EventPublisher {
	return kafkaPublisher{}
}

func (kafkaPublisher) IssueUpdated(evt UpdateEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Printf("⚠️  Failed to encode issue event %s: %v", evt.IssueID, err)
		return
	}
	utils.PublishIssueEvent(evt.IssueID, payload)
}

type Service interface {
	CreateReport(ctx context.Context, in CreateReportInput) (*Report, error)
	GetReport(ctx context.Context, id string) (*Report, error)
	ListIssues(ctx context.Context) ([]IssueView, error)

	// ApplyTransition validates and applies a status change to one issue,
	// appending a history entry when the status actually changes. Field edits
	// bundled in the same call are persisted either way.
	ApplyTransition(ctx context.Context, issueID, newStatus, note string, edit IssueEdit, actor Actor, ip string) (*IssueView, error)
}

type service struct {
	repo     Repository
	auditSvc auditlog.Service
	events   EventPublisher
	now      func() time.Time
}

func NewService(repo Repository, auditSvc auditlog.Service, events EventPublisher) Service {
	return &service{
		repo:     repo,
		auditSvc: auditSvc,
		events:   events,
		now:      time.Now,
	}
}

type IssueInput struct {
	Title       string   `json:"issue"`
	PMUN        string   `json:"pmun"`
	Description string   `json:"description"`
	Actions     string   `json:"actions"`
	Status      string   `json:"status"`
	Photos      []string `json:"photos"`
}

type CreateReportInput struct {
	SubmittedBy string       `json:"submittedBy"`
	ReportDate  time.Time    `json:"reportDate"`
	Issues      []IssueInput `json:"issues"`
}

// CreateReport creates the per-shift report holding the first issue(s).
func (s *service) CreateReport(ctx context.Context, in CreateReportInput) (*Report, error) {
	if strings.TrimSpace(in.SubmittedBy) == "" {
		return nil, fmt.Errorf("submitter name is required")
	}
	if len(in.Issues) == 0 {
		return nil, fmt.Errorf("at least one issue block is required")
	}

	rep := &Report{
		ID:          uuid.NewString(),
		SubmittedBy: in.SubmittedBy,
		ReportDate:  in.ReportDate,
		Issues:      make([]Issue, 0, len(in.Issues)),
	}
	if rep.ReportDate.IsZero() {
		rep.ReportDate = s.now()
	}

	for _, block := range in.Issues {
		if strings.TrimSpace(block.Title) == "" || strings.TrimSpace(block.Description) == "" {
			return nil, fmt.Errorf("issue title and description are required")
		}
		status := StatusOpen
		if block.Status != "" {
			parsed, err := ParseStatus(block.Status)
			if err != nil {
				return nil, err
			}
			status = parsed
		}
		rep.Issues = append(rep.Issues, Issue{
			Title:       block.Title,
			PMUN:        block.PMUN,
			Description: block.Description,
			Actions:     block.Actions,
			Status:      status,
			Photos:      block.Photos,
		})
	}

	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *service) GetReport(ctx context.Context, id string) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

// ListIssues flattens every report's issues array into addressable views.
func (s *service) ListIssues(ctx context.Context) ([]IssueView, error) {
	reports, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var views []IssueView
	for _, rep := range reports {
		for idx, issue := range rep.Issues {
			views = append(views, IssueView{
				Issue:       issue,
				ID:          ComposeIssueID(rep.ID, idx),
				ReportID:    rep.ID,
				IssueIndex:  idx,
				ReportDate:  rep.ReportDate,
				SubmittedBy: rep.SubmittedBy,
			})
		}
	}
	return views, nil
}

// updateIssueAt funnels every single-element mutation through one place so
// callers never touch the array splice directly.
func updateIssueAt(rep *Report, idx int, fn func(*Issue)) {
	fn(&rep.Issues[idx])
}

func (s *service) ApplyTransition(ctx context.Context, issueID, newStatus, note string, edit IssueEdit, actor Actor, ip string) (*IssueView, error) {
	reportID, idx, err := ParseIssueID(issueID)
	if err != nil {
		return nil, err
	}

	status, err := ParseStatus(newStatus)
	if err != nil {
		return nil, err
	}

	rep, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if idx >= len(rep.Issues) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrIssueNotFound, idx)
	}

	current := rep.Issues[idx]
	statusChanged := status != current.Status

	// An actual status change must be justified; a same-status call is a
	// no-op for history but still persists the bundled field edits.
	if statusChanged && strings.TrimSpace(note) == "" {
		return nil, ErrMissingJustification
	}

	changes := changedFields(current, rep.ReportDate, status, edit)

	updateIssueAt(rep, idx, func(issue *Issue) {
		if edit.Title != nil {
			issue.Title = *edit.Title
		}
		if edit.PMUN != nil {
			issue.PMUN = *edit.PMUN
		}
		if edit.Description != nil {
			issue.Description = *edit.Description
		}
		if edit.Actions != nil {
			issue.Actions = *edit.Actions
		}
		if edit.Photos != nil {
			issue.Photos = edit.Photos
		}
		if statusChanged {
			issue.Status = status
			issue.History = append(issue.History, HistoryEntry{
				Status:    status,
				ChangedBy: actor.Name,
				ChangedAt: s.now(),
				Role:      actor.Role,
				Note:      note,
			})
		}
	})

	if err := s.repo.ReplaceIssues(ctx, reportID, rep.Issues, edit.ReportDate); err != nil {
		return nil, err
	}

	updated := rep.Issues[idx]
	reportDate := rep.ReportDate
	if edit.ReportDate != nil {
		reportDate = *edit.ReportDate
	}

	s.audit(ctx, actor, statusChanged, issueID, status, changes, ip)

	if len(changes) > 0 && s.events != nil {
		changeType := strings.Join(changes, ", ")
		body := fmt.Sprintf("Status: %s - Updates: %s", updated.Status, changeType)
		if statusChanged {
			body = fmt.Sprintf("Status: %s (changed) - Updates: %s", updated.Status, changeType)
		}
		s.events.IssueUpdated(UpdateEvent{
			IssueID:    issueID,
			ReportID:   reportID,
			ChangeType: changeType,
			Title:      fmt.Sprintf("Issue Updated: %s", updated.Title),
			Body:       body,
		})
	}

	return &IssueView{
		Issue:       updated,
		ID:          issueID,
		ReportID:    reportID,
		IssueIndex:  idx,
		ReportDate:  reportDate,
		SubmittedBy: rep.SubmittedBy,
	}, nil
}

// changedFields mirrors what the dashboard reports in the change summary.
func changedFields(current Issue, currentDate time.Time, status Status, edit IssueEdit) []string {
	var changes []string
	if edit.Title != nil && *edit.Title != current.Title {
		changes = append(changes, "title")
	}
	if edit.Description != nil && *edit.Description != current.Description {
		changes = append(changes, "description")
	}
	if status != current.Status {
		changes = append(changes, "status")
	}
	if edit.PMUN != nil && *edit.PMUN != current.PMUN {
		changes = append(changes, "pmun")
	}
	if edit.Actions != nil && *edit.Actions != current.Actions {
		changes = append(changes, "actions")
	}
	if edit.ReportDate != nil && !edit.ReportDate.Equal(currentDate) {
		changes = append(changes, "date")
	}
	if edit.Photos != nil {
		changes = append(changes, "photos")
	}
	return changes
}

func (s *service) audit(ctx context.Context, actor Actor, statusChanged bool, issueID string, status Status, changes []string, ip string) {
	action := "ISSUE_UPDATED"
	if statusChanged {
		action = "STATUS_CHANGED"
	}

	details := map[string]interface{}{
		"issue_id": issueID,
		"status":   string(status),
		"changes":  changes,
	}

	if err := s.auditSvc.LogAction(ctx, actor.Name, &issueID, action, details, ip, "success"); err != nil {
		log.Printf("❌ Audit log error: %v", err)
	}
}
