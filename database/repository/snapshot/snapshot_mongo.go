package snapshotRepo

import (
	"context"
	"fmt"
	"time"

	"locumly/config"
	"locumly/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSnapshotRepo implements SnapshotRepository using MongoDB.
type MongoSnapshotRepo struct {
	coll *mongo.Collection
}

// NewMongoSnapshotRepo creates a new instance of SnapshotRepository using MongoDB.
func NewMongoSnapshotRepo() SnapshotRepository {
	coll := database.MongoClient.Database(config.AppConfig.DatabaseName).Collection("shift_snapshots")
	repo := &MongoSnapshotRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoSnapshotRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

type snapshotDoc struct {
	UserID   string  `bson:"userId"`
	ShiftIDs []int64 `bson:"shiftIds,omitempty"`
	SlotIDs  []int64 `bson:"slotIds,omitempty"`
	TakenAt  int64   `bson:"takenAt"`
}

func (r *MongoSnapshotRepo) Save(userID string, shiftIDs, slotIDs []int64) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	doc := snapshotDoc{UserID: userID, ShiftIDs: shiftIDs, SlotIDs: slotIDs, TakenAt: time.Now().Unix()}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"userId": userID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save shift snapshot for user %s: %w", userID, err)
	}
	return nil
}

func (r *MongoSnapshotRepo) Get(userID string) ([]int64, []int64, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var doc snapshotDoc
	err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch shift snapshot for user %s: %w", userID, err)
	}
	return doc.ShiftIDs, doc.SlotIDs, nil
}
