package repository

import (
	"context"
	"errors"

	"progression-service/internal/apperr"
	"progression-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProgressRepository struct {
	Col *mongo.Collection
}

func NewProgressRepository(db *mongo.Database) *ProgressRepository {
	return &ProgressRepository{Col: db.Collection("progress")}
}

func (r *ProgressRepository) ByUserID(ctx context.Context, userID string) (*models.ProgressRecord, error) {
	var rec models.ProgressRecord
	err := r.Col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *ProgressRepository) Create(ctx context.Context, rec *models.ProgressRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := r.Col.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("progress record already exists for user " + rec.UserID)
	}
	return err
}

func (r *ProgressRepository) Save(ctx context.Context, rec *models.ProgressRecord) error {
	_, err := r.Col.ReplaceOne(ctx, bson.M{"user_id": rec.UserID}, rec,
		options.Replace().SetUpsert(true))
	return err
}

func (r *ProgressRepository) Count(ctx context.Context) (int64, error) {
	return r.Col.CountDocuments(ctx, bson.M{})
}

func (r *ProgressRepository) CountDiagnosticCompleted(ctx context.Context) (int64, error) {
	return r.Col.CountDocuments(ctx, bson.M{"diagnostic_completed": true})
}

func (r *ProgressRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := r.Col.Indexes().CreateMany(ctx, indexes)
	return err
}
