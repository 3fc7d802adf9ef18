package report

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
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id string) (*Report, error)
	List(ctx context.Context) ([]Report, error)

	// ReplaceIssues writes the full issues array back to the parent report,
	// optionally together with a new report date. There is no compare-and-swap
	// around the read-modify-write: concurrent writers race at the document
	// level and the last write wins.
	ReplaceIssues(ctx context.Context, reportID string, issues []Issue, reportDate *time.Time) error
}

type repository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) Repository {
	return &repository{col: col}
}

func (r *repository) Create(ctx context.Context, rep *Report) error {
	if _, err := r.col.InsertOne(ctx, rep); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Report, error) {
	var rep Report
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rep)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &rep, nil
}

func (r *repository) List(ctx context.Context) ([]Report, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "reportDate", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer cur.Close(ctx)

	var reports []Report
	if err := cur.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return reports, nil
}

func (r *repository) ReplaceIssues(ctx context.Context, reportID string, issues []Issue, reportDate *time.Time) error {
	set := bson.M{"issues": issues}
	if reportDate != nil {
		set["reportDate"] = *reportDate
	}

	res, err := r.col.UpdateByID(ctx, reportID, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return ErrReportNotFound
	}
	return nil
}
