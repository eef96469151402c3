package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/repository"
	"github.com/Gogfather/thegogfather.com/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoContentRepository implements ContentRepository using MongoDB. Each
// content collection maps to a Mongo collection of the same name; records
// carry their namespace so one database serves every deployment channel.
type MongoContentRepository struct {
	db *mongo.Database
}

// NewMongoContentRepository creates the repository and ensures indexes.
func NewMongoContentRepository(db *mongo.Database) (*MongoContentRepository, error) {
	repo := &MongoContentRepository{db: db}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create content indexes: %w", err)
	}
	return repo, nil
}

func (r *MongoContentRepository) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, collection := range model.Collections {
		indexes := []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "namespace", Value: 1},
					{Key: "created_at", Value: -1},
				},
			},
		}
		if collection == model.CollectionPhotos {
			indexes = append(indexes, mongo.IndexModel{
				Keys: bson.D{
					{Key: "namespace", Value: 1},
					{Key: "is_featured", Value: 1},
				},
				Options: options.Index().SetPartialFilterExpression(bson.M{"is_featured": true}),
			})
		}
		if _, err := r.db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
			return err
		}
	}
	return nil
}

// CreateRecord stores a new record.
func (r *MongoContentRepository) CreateRecord(ctx context.Context, record *model.Record) error {
	if !model.KnownCollection(record.Collection) {
		return errors.ErrUnknownCollection
	}
	_, err := r.db.Collection(record.Collection).InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// GetRecord fetches one record by collection and id.
func (r *MongoContentRepository) GetRecord(ctx context.Context, namespace, collection, id string) (*model.Record, error) {
	if !model.KnownCollection(collection) {
		return nil, errors.ErrUnknownCollection
	}

	var record model.Record
	err := r.db.Collection(collection).FindOne(ctx, bson.M{
		"_id":       id,
		"namespace": namespace,
	}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &record, nil
}

// ListRecords returns every record of a collection, newest first.
func (r *MongoContentRepository) ListRecords(ctx context.Context, namespace, collection string) ([]model.Record, error) {
	if !model.KnownCollection(collection) {
		return nil, errors.ErrUnknownCollection
	}

	cursor, err := r.db.Collection(collection).Find(ctx,
		bson.M{"namespace": namespace},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer cursor.Close(ctx)

	records := []model.Record{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

// DeleteRecord removes a record outright.
func (r *MongoContentRepository) DeleteRecord(ctx context.Context, namespace, collection, id string) error {
	if !model.KnownCollection(collection) {
		return errors.ErrUnknownCollection
	}

	res, err := r.db.Collection(collection).DeleteOne(ctx, bson.M{
		"_id":       id,
		"namespace": namespace,
	})
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if res.DeletedCount == 0 {
		return errors.ErrRecordNotFound
	}
	return nil
}

// UnfeatureAll clears isFeatured on every currently-featured photo. There is
// normally exactly one, but prior races can leave zero or several.
func (r *MongoContentRepository) UnfeatureAll(ctx context.Context, namespace string) ([]string, error) {
	photos := r.db.Collection(model.CollectionPhotos)
	filter := bson.M{"namespace": namespace, "is_featured": true}

	cursor, err := photos.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to find featured photos: %w", err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode featured photos: %w", err)
	}

	if len(docs) == 0 {
		return nil, nil
	}

	if _, err := photos.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_featured": false}}); err != nil {
		return nil, fmt.Errorf("failed to unfeature photos: %w", err)
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// Feature sets isFeatured on one photo.
func (r *MongoContentRepository) Feature(ctx context.Context, namespace, photoID string) error {
	res, err := r.db.Collection(model.CollectionPhotos).UpdateOne(ctx,
		bson.M{"_id": photoID, "namespace": namespace},
		bson.M{"$set": bson.M{"is_featured": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to feature photo: %w", err)
	}
	if res.MatchedCount == 0 {
		return errors.ErrRecordNotFound
	}
	return nil
}

// SetFeaturedAtomic performs unfeature-all plus feature-target in one ordered
// bulk write, closing the window in which zero or two photos are featured.
func (r *MongoContentRepository) SetFeaturedAtomic(ctx context.Context, namespace, photoID string) ([]string, error) {
	photos := r.db.Collection(model.CollectionPhotos)

	count, err := photos.CountDocuments(ctx, bson.M{"_id": photoID, "namespace": namespace})
	if err != nil {
		return nil, fmt.Errorf("failed to check photo: %w", err)
	}
	if count == 0 {
		return nil, errors.ErrRecordNotFound
	}

	featuredFilter := bson.M{"namespace": namespace, "is_featured": true}

	cursor, err := photos.Find(ctx, featuredFilter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to find featured photos: %w", err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode featured photos: %w", err)
	}

	models := []mongo.WriteModel{
		mongo.NewUpdateManyModel().
			SetFilter(featuredFilter).
			SetUpdate(bson.M{"$set": bson.M{"is_featured": false}}),
		mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": photoID, "namespace": namespace}).
			SetUpdate(bson.M{"$set": bson.M{"is_featured": true}}),
	}

	if _, err := photos.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return nil, fmt.Errorf("failed to set featured photo: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.ID != photoID {
			ids = append(ids, d.ID)
		}
	}
	return ids, nil
}

var _ repository.ContentRepository = (*MongoContentRepository)(nil)
