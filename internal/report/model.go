package report

import (
	"errors"
	"fmt"
	"time"
)

// Status is the closed set of issue lifecycle states.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusEscalated  Status = "Escalated"
)

// StatusOptions lists every valid status, in display order.
var StatusOptions = []Status{StatusOpen, StatusInProgress, StatusCompleted, StatusEscalated}

// ParseStatus validates a free-form status string against the closed set.
func ParseStatus(s string) (Status, error) {
	for _, opt := range StatusOptions {
		if s == string(opt) {
			return opt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Role is the actor's role at the time of a status change.
type Role string

const (
	RoleOperator   Role = "operator"
	RoleTechnician Role = "technician"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOperator, RoleTechnician, RoleSupervisor, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// HistoryEntry is an immutable audit record of one status change.
// Entries are only ever appended; a status-changing entry carries a
// non-empty Note.
type HistoryEntry struct {
	Status    Status    `bson:"status" json:"status"`
	ChangedBy string    `bson:"changedBy" json:"changedBy"`
	ChangedAt time.Time `bson:"changedAt" json:"changedAt"`
	Role      Role      `bson:"role,omitempty" json:"role,omitempty"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
}

// Issue is a single reported problem. Issues have no storage of their own;
// they live as array elements inside their parent Report and are addressed
// by index.
type Issue struct {
	Title       string         `bson:"issue" json:"issue"`
	PMUN        string         `bson:"pmun,omitempty" json:"pmun,omitempty"`
	Description string         `bson:"description" json:"description"`
	Actions     string         `bson:"actions,omitempty" json:"actions,omitempty"`
	Status      Status         `bson:"status" json:"status"`
	Photos      []string       `bson:"photos,omitempty" json:"photos,omitempty"`
	Subscribers []string       `bson:"subscribers,omitempty" json:"subscribers,omitempty"`
	History     []HistoryEntry `bson:"history,omitempty" json:"history,omitempty"`
}

// Report is the per-shift document aggregating one or more issues.
type Report struct {
	ID          string    `bson:"_id" json:"id"`
	SubmittedBy string    `bson:"submittedBy" json:"submittedBy"`
	ReportDate  time.Time `bson:"reportDate" json:"reportDate"`
	Issues      []Issue   `bson:"issues" json:"issues"`
}

// IssueView is an issue pulled out of its parent report, carrying the
// metadata the UI needs to address it.
type IssueView struct {
	Issue
	ID          string    `json:"id"`
	ReportID    string    `json:"reportId"`
	IssueIndex  int       `json:"issueIndex"`
	ReportDate  time.Time `json:"reportDate"`
	SubmittedBy string    `json:"submittedBy"`
}

// IssueEdit carries the optional field edits that may be bundled with a
// status transition. Nil pointers mean "leave unchanged".
type IssueEdit struct {
	Title       *string    `json:"issue,omitempty"`
	PMUN        *string    `json:"pmun,omitempty"`
	Description *string    `json:"description,omitempty"`
	Actions     *string    `json:"actions,omitempty"`
	Photos      []string   `json:"photos,omitempty"`
	ReportDate  *time.Time `json:"reportDate,omitempty"`
}

// Actor identifies who is applying a change, for the history trail.
type Actor struct {
	Name string
	Role Role
}

// UpdateEvent is the payload published after a successful issue mutation.
// The notification consumer turns it into a dispatch.
type UpdateEvent struct {
	IssueID    string `json:"issueId"`
	ReportID   string `json:"reportId"`
	ChangeType string `json:"changeType"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

// Error taxonomy surfaced by the engine.
var (
	ErrMalformedIdentifier  = errors.New("malformed issue identifier")
	ErrReportNotFound       = errors.New("report not found")
	ErrIssueNotFound        = errors.New("issue not found")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrMissingJustification = errors.New("a comment is required when changing status")
	ErrStoreUnavailable     = errors.New("document store unavailable")
)
