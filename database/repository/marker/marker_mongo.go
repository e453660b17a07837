package markerRepo

import (
	"context"
	"fmt"
	"time"

	"locumly/config"
	"locumly/database"
	"locumly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoMarkerRepo implements MarkerRepository using MongoDB.
type MongoMarkerRepo struct {
	coll *mongo.Collection
}

// NewMongoMarkerRepo creates a new instance of MarkerRepository using MongoDB.
func NewMongoMarkerRepo() MarkerRepository {
	coll := database.MongoClient.Database(config.AppConfig.DatabaseName).Collection("markers")
	repo := &MongoMarkerRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoMarkerRepo) ensureIndexes() error {
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

type markerDoc struct {
	UserID           string  `bson:"userId"`
	AppliedShiftIDs  []int64 `bson:"appliedShiftIds,omitempty"`
	AppliedSlotIDs   []int64 `bson:"appliedSlotIds,omitempty"`
	RejectedShiftIDs []int64 `bson:"rejectedShiftIds,omitempty"`
	RejectedSlotIDs  []int64 `bson:"rejectedSlotIds,omitempty"`
	SavedShiftIDs    []int64 `bson:"savedShiftIds,omitempty"`
	UpdatedAt        int64   `bson:"updatedAt"`
}

func (r *MongoMarkerRepo) Get(userID string) (*models.MarkerSets, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var doc markerDoc
	err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch markers for user %s: %w", userID, err)
	}

	sets := models.NewMarkerSets()
	sets.AppliedShiftIDs = models.NewIDSet(doc.AppliedShiftIDs...)
	sets.AppliedSlotIDs = models.NewIDSet(doc.AppliedSlotIDs...)
	sets.RejectedShiftIDs = models.NewIDSet(doc.RejectedShiftIDs...)
	sets.RejectedSlotIDs = models.NewIDSet(doc.RejectedSlotIDs...)
	sets.SavedShiftIDs = models.NewIDSet(doc.SavedShiftIDs...)
	return sets, nil
}

// setOrUnset puts non-empty sets under $set and empty ones under $unset so
// the stored document never carries empty arrays.
func setOrUnset(set, unset bson.M, field string, ids []int64) {
	if len(ids) == 0 {
		unset[field] = ""
		return
	}
	set[field] = ids
}

func (r *MongoMarkerRepo) Upsert(userID string, sets *models.MarkerSets) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	set := bson.M{"userId": userID, "updatedAt": time.Now().Unix()}
	unset := bson.M{}
	setOrUnset(set, unset, "appliedShiftIds", sets.AppliedShiftIDs.Sorted())
	setOrUnset(set, unset, "appliedSlotIds", sets.AppliedSlotIDs.Sorted())
	setOrUnset(set, unset, "rejectedShiftIds", sets.RejectedShiftIDs.Sorted())
	setOrUnset(set, unset, "rejectedSlotIds", sets.RejectedSlotIDs.Sorted())
	setOrUnset(set, unset, "savedShiftIds", sets.SavedShiftIDs.Sorted())

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, bson.M{"userId": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to upsert markers for user %s: %w", userID, err)
	}
	return nil
}

func (r *MongoMarkerRepo) Delete(userID string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID}); err != nil {
		return fmt.Errorf("failed to delete markers for user %s: %w", userID, err)
	}
	return nil
}
