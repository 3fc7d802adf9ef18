package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shiftwise/shiftwise-backend/config"
)

var (
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
)

// Collection names for the three logical collections of the document store.
const (
	ColReports       = "shiftReports"
	ColUsers         = "users"
	ColNotifications = "userNotifications"
)

// ConnectMongo establishes a singleton MongoDB connection.
func ConnectMongo(ctx context.Context, cfg *config.Config) error {
	if mongoClient != nil && mongoDB != nil {
		return nil
	}

	start := time.Now()
	log.Printf("mongo: connecting db=%s", cfg.MongoDB)

	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	c, err := mongo.Connect(dctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err = c.Ping(dctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return fmt.Errorf("mongo ping: %w", err)
	}

	mongoClient = c
	mongoDB = c.Database(cfg.MongoDB)

	if err := createIndexes(); err != nil {
		log.Printf("mongo: index creation warnings: %v", err)
	}

	log.Printf("mongo: connected ok in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

func DisconnectMongo(ctx context.Context) error {
	if mongoClient == nil {
		return nil
	}
	defer func() { mongoClient, mongoDB = nil, nil }()
	return mongoClient.Disconnect(ctx)
}

// Col returns a handle to a named collection.
func Col(name string) *mongo.Collection {
	if mongoDB == nil {
		panic("database not connected: call database.ConnectMongo first")
	}
	return mongoDB.Collection(name)
}

func createIndexes() error {
	ctxIdx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []string

	if _, err := Col(ColReports).Indexes().CreateOne(ctxIdx, mongo.IndexModel{
		Keys: bson.D{{Key: "reportDate", Value: -1}},
	}); err != nil {
		errs = append(errs, "reportDate: "+err.Error())
	}
	if _, err := Col(ColUsers).Indexes().CreateOne(ctxIdx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		errs = append(errs, "email: "+err.Error())
	}
	if _, err := Col(ColNotifications).Indexes().CreateOne(ctxIdx, mongo.IndexModel{
		Keys: bson.D{{Key: "subscribedIssues", Value: 1}},
	}); err != nil {
		errs = append(errs, "subscribedIssues: "+err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d index errors: %v", len(errs), errs)
	}
	return nil
}
