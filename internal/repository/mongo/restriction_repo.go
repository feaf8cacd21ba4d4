package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const restrictionCollectionName = "restrictions"

type mongoRestrictionRepository struct {
	collection *mongo.Collection
}

// NewMongoRestrictionRepository creates a restriction catalog repository backed by MongoDB.
func NewMongoRestrictionRepository(db *mongo.Database) repository.RestrictionRepository {
	return &mongoRestrictionRepository{collection: db.Collection(restrictionCollectionName)}
}

func (r *mongoRestrictionRepository) List(ctx context.Context, category domain.RestrictionCategory) ([]domain.Restriction, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	findOptions := options.Find().SetSort(bsonKeys("category", "name"))
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	restrictions := []domain.Restriction{}
	if err = cursor.All(ctx, &restrictions); err != nil {
		return nil, err
	}
	return restrictions, nil
}

func (r *mongoRestrictionRepository) Upsert(ctx context.Context, restriction *domain.Restriction) error {
	if restriction.Name == "" {
		return errors.New("restriction name is required")
	}
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"category":    restriction.Category,
			"description": restriction.Description,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.Update().SetUpsert(true)
	result, err := r.collection.UpdateOne(ctx, bson.M{"name": restriction.Name}, update, opts)
	if err != nil {
		return err
	}
	if id, ok := result.UpsertedID.(primitive.ObjectID); ok {
		restriction.ID = id
		restriction.CreatedAt = now
	}
	restriction.UpdatedAt = now
	return nil
}

// EnsureRestrictionIndexes creates necessary indexes for the restrictions collection.
func EnsureRestrictionIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bsonKeys("name"),
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bsonKeys("category", "name"),
			Options: options.Index(),
		},
	})
}
