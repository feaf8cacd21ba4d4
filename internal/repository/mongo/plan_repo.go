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

const planCollectionName = "plans"

type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a plan repository backed by MongoDB.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{collection: db.Collection(planCollectionName)}
}

func (r *mongoPlanRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Upsert replaces the plan of plan.UserID, creating it when missing.
func (r *mongoPlanRepository) Upsert(ctx context.Context, plan *domain.Plan) error {
	if plan.UserID.IsZero() {
		return errors.New("plan user ID is required")
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	opts := options.Replace().SetUpsert(true)
	result, err := r.collection.ReplaceOne(ctx, bson.M{"userId": plan.UserID}, plan, opts)
	if err != nil {
		return err
	}
	if id, ok := result.UpsertedID.(primitive.ObjectID); ok {
		plan.ID = id
	}
	return nil
}

// List returns every plan ordered by user id.
func (r *mongoPlanRepository) List(ctx context.Context) ([]domain.Plan, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bsonKeys("userId")))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []domain.Plan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// EnsurePlanIndexes creates necessary indexes for the plans collection.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{uniqueByUser()})
}
