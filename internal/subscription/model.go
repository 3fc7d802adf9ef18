package subscription

import (
	"errors"
	"time"
)

// Preference is the per-user notification document (userNotifications
// collection). Created lazily on first subscribe or token registration.
// Tokens accumulate so a user can receive pushes on several devices.
type Preference struct {
	UserID           string    `bson:"userId" json:"userId"`
	SubscribedIssues []string  `bson:"subscribedIssues" json:"subscribedIssues"`
	FCMTokens        []string  `bson:"fcmTokens" json:"fcmTokens"`
	Enabled          bool      `bson:"enabled" json:"enabled"`
	LastUpdated      time.Time `bson:"lastUpdated" json:"lastUpdated"`
}

var (
	ErrPreferenceNotFound = errors.New("notification preference not found")
	ErrStoreUnavailable   = errors.New("document store unavailable")
)
