package notification

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"github.com/shiftwise/shiftwise-backend/utils"
)

// FCMGateway implements Gateway on top of Firebase Cloud Messaging.
type FCMGateway struct {
	client *messaging.Client
}

// NewFCMGateway wraps the shared FCM client. The client may be nil when
// Firebase is not configured; every send then fails per-token, which the
// dispatcher counts like any other delivery failure.
func NewFCMGateway() *FCMGateway {
	return &FCMGateway{client: utils.GetFCMClient()}
}

func (g *FCMGateway) Send(ctx context.Context, token string, msg Message) error {
	if g.client == nil {
		return fmt.Errorf("FCM client not initialized")
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: map[string]string{
			"issueId":    msg.IssueID,
			"reportId":   msg.ReportID,
			"changeType": msg.ChangeType,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:        "default",
				ChannelID:    "shiftwise_notifications",
				Priority:     messaging.PriorityHigh,
				DefaultSound: true,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: intPtr(1),
				},
			},
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: msg.Title,
				Body:  msg.Body,
				Icon:  "/icon-192x192.png",
			},
			FCMOptions: &messaging.WebpushFCMOptions{
				Link: fmt.Sprintf("/history?issueId=%s", msg.IssueID),
			},
		},
	}

	if _, err := g.client.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send FCM message: %v", err)
	}
	return nil
}

// Helper function to create int pointer
func intPtr(i int) *int {
	return &i
}
