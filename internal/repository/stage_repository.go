package repository

import (
	"context"
	"errors"
	"time"

	"progression-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StageRepository struct {
	Col *mongo.Collection
}

func NewStageRepository(db *mongo.Database) *StageRepository {
	return &StageRepository{Col: db.Collection("stages")}
}

// FindAll returns the catalog ordered by stage number, the diagnostic
// first.
func (r *StageRepository) FindAll(ctx context.Context) ([]models.Stage, error) {
	cur, err := r.Col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "stage_number", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var stages []models.Stage
	for cur.Next(ctx) {
		var s models.Stage
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, cur.Err()
}

func (r *StageRepository) ByID(ctx context.Context, id string) (*models.Stage, error) {
	var stage models.Stage
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&stage)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

func (r *StageRepository) ByNumber(ctx context.Context, number int) (*models.Stage, error) {
	var stage models.Stage
	err := r.Col.FindOne(ctx, bson.M{"stage_number": number}).Decode(&stage)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

// RegularStageCount counts the sequential stages (the diagnostic is not
// part of the ladder); this is the certificate completion requirement.
func (r *StageRepository) RegularStageCount(ctx context.Context) (int, error) {
	count, err := r.Col.CountDocuments(ctx, bson.M{"stage_number": bson.M{"$gte": 1}})
	return int(count), err
}

func (r *StageRepository) Count(ctx context.Context) (int64, error) {
	return r.Col.CountDocuments(ctx, bson.M{})
}

func (r *StageRepository) Create(ctx context.Context, stage *models.Stage) error {
	if stage.ID == "" {
		stage.ID = uuid.NewString()
	}
	if stage.CreatedAt.IsZero() {
		stage.CreatedAt = time.Now()
	}
	_, err := r.Col.InsertOne(ctx, stage)
	return err
}

func (r *StageRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "stage_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := r.Col.Indexes().CreateMany(ctx, indexes)
	return err
}
