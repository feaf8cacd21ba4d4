package mongo

import (
	"context"
	"errors"

	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ingredientCollectionName = "ingredients"

type mongoIngredientRepository struct {
	collection *mongo.Collection
}

// NewMongoIngredientRepository creates a catalog repository backed by MongoDB.
func NewMongoIngredientRepository(db *mongo.Database) repository.IngredientRepository {
	return &mongoIngredientRepository{collection: db.Collection(ingredientCollectionName)}
}

// ListGroups returns the catalog ordered by category.
func (r *mongoIngredientRepository) ListGroups(ctx context.Context) ([]domain.CatalogGroup, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "category", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	groups := []domain.CatalogGroup{}
	if err = cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// UpsertGroup replaces the group with the same category.
func (r *mongoIngredientRepository) UpsertGroup(ctx context.Context, group *domain.CatalogGroup) error {
	if group.Category == "" {
		return errors.New("catalog group category is required")
	}
	opts := options.Replace().SetUpsert(true)
	result, err := r.collection.ReplaceOne(ctx, bson.M{"category": group.Category}, group, opts)
	if err != nil {
		return err
	}
	if id, ok := result.UpsertedID.(primitive.ObjectID); ok {
		group.ID = id
	}
	return nil
}

// EnsureIngredientIndexes creates necessary indexes for the ingredients collection.
func EnsureIngredientIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bsonKeys("category"),
			Options: options.Index().SetUnique(true),
		},
	})
}
