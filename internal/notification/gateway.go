package notification

import "context"

// Message is one push notification as handed to the gateway. The data block
// travels with the notification so the client can deep-link to the issue.
type Message struct {
	Title      string
	Body       string
	IssueID    string
	ReportID   string
	ChangeType string
}

// Gateway is the network boundary that delivers a message to one device
// token. Any non-nil error is a per-token delivery failure, never fatal for
// the dispatch as a whole.
type Gateway interface {
	Send(ctx context.Context, token string, msg Message) error
}
