package repository

import (
	"context"

	"progression-service/internal/apperr"
	"progression-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AttemptRepository struct {
	Col *mongo.Collection
}

func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{Col: db.Collection("attempts")}
}

func (r *AttemptRepository) CountForUserStage(ctx context.Context, userID, stageID string) (int, error) {
	count, err := r.Col.CountDocuments(ctx, bson.M{"user_id": userID, "stage_id": stageID})
	return int(count), err
}

// Insert appends an attempt. The unique (user_id, stage_id,
// attempt_number) index is the backstop against a duplicate slipping in
// between the count and the write; a collision surfaces as a conflict.
func (r *AttemptRepository) Insert(ctx context.Context, attempt *models.AttemptRecord) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	_, err := r.Col.InsertOne(ctx, attempt)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("attempt already recorded for this stage and number")
	}
	return err
}

func (r *AttemptRepository) ForUser(ctx context.Context, userID, stageID string) ([]models.AttemptRecord, error) {
	filter := bson.M{"user_id": userID}
	if stageID != "" {
		filter["stage_id"] = stageID
	}
	cur, err := r.Col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "completed_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var attempts []models.AttemptRecord
	for cur.Next(ctx) {
		var a models.AttemptRecord
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, cur.Err()
}

// PassedStageNumbers returns the distinct stage numbers the user has at
// least one passing attempt on.
func (r *AttemptRepository) PassedStageNumbers(ctx context.Context, userID string) ([]int, error) {
	raw, err := r.Col.Distinct(ctx, "stage_number", bson.M{"user_id": userID, "passed": true})
	if err != nil {
		return nil, err
	}
	numbers := make([]int, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case int32:
			numbers = append(numbers, int(n))
		case int64:
			numbers = append(numbers, int(n))
		case int:
			numbers = append(numbers, n)
		}
	}
	return numbers, nil
}

func (r *AttemptRepository) CountPassed(ctx context.Context) (int64, error) {
	return r.Col.CountDocuments(ctx, bson.M{"passed": true, "stage_number": bson.M{"$gt": 0}})
}

// StageCompletionCounts returns, per regular stage number, how many
// distinct users have passed it at least once.
func (r *AttemptRepository) StageCompletionCounts(ctx context.Context) (map[int]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"passed": true, "stage_number": bson.M{"$gt": 0}}}},
		{{Key: "$group", Value: bson.M{"_id": bson.M{"stage": "$stage_number", "user": "$user_id"}}}},
		{{Key: "$group", Value: bson.M{"_id": "$_id.stage", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.Col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[int]int)
	for cur.Next(ctx) {
		var row struct {
			Stage int32 `bson:"_id"`
			Count int32 `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[int(row.Stage)] = int(row.Count)
	}
	return counts, cur.Err()
}

func (r *AttemptRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "stage_id", Value: 1},
				{Key: "attempt_number", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "completed_at", Value: -1},
			},
		},
	}
	_, err := r.Col.Indexes().CreateMany(ctx, indexes)
	return err
}
