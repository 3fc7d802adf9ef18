package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Get(ctx context.Context, userID string) (*Preference, error)

	// AddSubscription adds issueID to the user's subscribed set, creating the
	// preference document with defaults if it does not exist yet.
	AddSubscription(ctx context.Context, userID, issueID string) error
	RemoveSubscription(ctx context.Context, userID, issueID string) error

	// AddToken accumulates a device token; existing tokens are never
	// overwritten.
	AddToken(ctx context.Context, userID, token string) error
	RemoveToken(ctx context.Context, userID, token string) error
	SetEnabled(ctx context.Context, userID string, enabled bool) error

	// GetEnabledByUserIDs returns the preference documents of the given users
	// whose notifications are enabled. Missing documents are simply absent
	// from the result, never an error.
	GetEnabledByUserIDs(ctx context.Context, userIDs []string) ([]Preference, error)
}

type repository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) Repository {
	return &repository{col: col}
}

func (r *repository) Get(ctx context.Context, userID string) (*Preference, error) {
	var pref Preference
	err := r.col.FindOne(ctx, bson.M{"userId": userID}).Decode(&pref)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPreferenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &pref, nil
}

// upsert applies $addToSet/$pull style updates, creating the document with
// defaults on first write.
func (r *repository) upsert(ctx context.Context, userID string, update bson.M) error {
	setOnInsert := bson.M{
		"userId":  userID,
		"enabled": true,
	}
	touched := map[string]bool{}
	if add, ok := update["$addToSet"].(bson.M); ok {
		for field := range add {
			touched[field] = true
		}
	}
	if pull, ok := update["$pull"].(bson.M); ok {
		for field := range pull {
			touched[field] = true
		}
	}
	if set, ok := update["$set"].(bson.M); ok {
		for field := range set {
			touched[field] = true
		}
	}
	if touched["enabled"] {
		delete(setOnInsert, "enabled")
	}
	for _, field := range []string{"subscribedIssues", "fcmTokens"} {
		if !touched[field] {
			setOnInsert[field] = []string{}
		}
	}
	update["$setOnInsert"] = setOnInsert

	if set, ok := update["$set"].(bson.M); ok {
		set["lastUpdated"] = time.Now()
	} else {
		update["$set"] = bson.M{"lastUpdated": time.Now()}
	}

	_, err := r.col.UpdateOne(ctx, bson.M{"userId": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *repository) AddSubscription(ctx context.Context, userID, issueID string) error {
	return r.upsert(ctx, userID, bson.M{
		"$addToSet": bson.M{"subscribedIssues": issueID},
	})
}

func (r *repository) RemoveSubscription(ctx context.Context, userID, issueID string) error {
	return r.upsert(ctx, userID, bson.M{
		"$pull": bson.M{"subscribedIssues": issueID},
	})
}

func (r *repository) AddToken(ctx context.Context, userID, token string) error {
	return r.upsert(ctx, userID, bson.M{
		"$addToSet": bson.M{"fcmTokens": token},
	})
}

func (r *repository) RemoveToken(ctx context.Context, userID, token string) error {
	return r.upsert(ctx, userID, bson.M{
		"$pull": bson.M{"fcmTokens": token},
	})
}

func (r *repository) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	return r.upsert(ctx, userID, bson.M{
		"$set": bson.M{"enabled": enabled},
	})
}

func (r *repository) GetEnabledByUserIDs(ctx context.Context, userIDs []string) ([]Preference, error) {
	cur, err := r.col.Find(ctx, bson.M{
		"userId":  bson.M{"$in": userIDs},
		"enabled": true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cur.Close(ctx)

	var prefs []Preference
	if err := cur.All(ctx, &prefs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return prefs, nil
}
