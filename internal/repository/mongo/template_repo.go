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

const templateCollectionName = "templates"

type mongoTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoTemplateRepository creates a template repository backed by MongoDB.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{collection: db.Collection(templateCollectionName)}
}

func (r *mongoTemplateRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Template, error) {
	var tpl domain.Template
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&tpl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

// Save inserts a template with version 0 or replaces the stored one when the
// versions match. On success tpl.Version is the new stored version.
func (r *mongoTemplateRepository) Save(ctx context.Context, tpl *domain.Template) error {
	if tpl.UserID.IsZero() {
		return errors.New("template user ID is required")
	}
	now := time.Now().UTC()
	expected := tpl.Version

	next := *tpl
	next.Version = expected + 1
	next.UpdatedAt = now

	if expected == 0 {
		next.ID = primitive.NewObjectID()
		next.CreatedAt = now
		if _, err := r.collection.InsertOne(ctx, &next); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return repository.ErrConflict
			}
			return err
		}
		*tpl = next
		return nil
	}

	filter := bson.M{"userId": tpl.UserID, "version": expected}
	result, err := r.collection.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrConflict
	}
	*tpl = next
	return nil
}

// ListByUserIDs returns the templates of the given users. Users without a
// template are simply absent from the result.
func (r *mongoTemplateRepository) ListByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]domain.Template, error) {
	if len(userIDs) == 0 {
		return []domain.Template{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"userId": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var templates []domain.Template
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// EnsureTemplateIndexes creates necessary indexes for the templates collection.
func EnsureTemplateIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		uniqueByUser(),
		{
			Keys:    bsonKeys("history.completedAt"),
			Options: options.Index(),
		},
	})
}
