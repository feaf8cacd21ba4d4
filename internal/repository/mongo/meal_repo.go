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

const mealCollectionName = "meals"

type mongoMealRepository struct {
	collection *mongo.Collection
}

// NewMongoMealRepository creates a meal repository backed by MongoDB.
func NewMongoMealRepository(db *mongo.Database) repository.MealRepository {
	return &mongoMealRepository{collection: db.Collection(mealCollectionName)}
}

func (r *mongoMealRepository) Create(ctx context.Context, meal *domain.Meal) (primitive.ObjectID, error) {
	if meal.Name == "" || meal.UserID.IsZero() {
		return primitive.NilObjectID, errors.New("meal name and user ID are required")
	}
	meal.ID = primitive.NewObjectID()
	meal.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, meal); err != nil {
		return primitive.NilObjectID, err
	}
	return meal.ID, nil
}

func (r *mongoMealRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Meal, error) {
	var meal domain.Meal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&meal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &meal, nil
}

// GetByUserID lists the meals of a user, newest first.
func (r *mongoMealRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Meal, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	meals := []domain.Meal{}
	if err = cursor.All(ctx, &meals); err != nil {
		return nil, err
	}
	return meals, nil
}

func (r *mongoMealRepository) UpdateIngredients(ctx context.Context, meal *domain.Meal) error {
	update := bson.M{"$set": bson.M{
		"ingredients": meal.Ingredients,
		"totals":      meal.Totals,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": meal.ID, "userId": meal.UserID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureMealIndexes creates necessary indexes for the meals collection.
func EnsureMealIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	})
}
