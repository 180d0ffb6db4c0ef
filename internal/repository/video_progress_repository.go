package repository

import (
	"context"

	"progression-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type VideoProgressRepository struct {
	Col *mongo.Collection
}

func NewVideoProgressRepository(db *mongo.Database) *VideoProgressRepository {
	return &VideoProgressRepository{Col: db.Collection("video_progress")}
}

// MarkCompleted upserts on (user_id, video_id): a re-watch refreshes
// last_watched_at on the existing row.
func (r *VideoProgressRepository) MarkCompleted(ctx context.Context, completion *models.VideoCompletion) error {
	filter := bson.M{"user_id": completion.UserID, "video_id": completion.VideoID}
	update := bson.M{
		"$set": bson.M{
			"completed":       completion.Completed,
			"last_watched_at": completion.LastWatchedAt,
		},
		"$setOnInsert": bson.M{
			"_id":      uuid.NewString(),
			"user_id":  completion.UserID,
			"video_id": completion.VideoID,
		},
	}
	_, err := r.Col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *VideoProgressRepository) ForUser(ctx context.Context, userID string) ([]models.VideoCompletion, error) {
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "last_watched_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []models.VideoCompletion
	for cur.Next(ctx) {
		var row models.VideoCompletion
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, cur.Err()
}

func (r *VideoProgressRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "video_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := r.Col.Indexes().CreateMany(ctx, indexes)
	return err
}
