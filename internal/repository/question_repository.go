package repository

import (
	"context"
	"time"

	"progression-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type QuestionRepository struct {
	Col *mongo.Collection
}

func NewQuestionRepository(db *mongo.Database) *QuestionRepository {
	return &QuestionRepository{Col: db.Collection("questions")}
}

func (r *QuestionRepository) FindByStage(ctx context.Context, stageID string) ([]models.Question, error) {
	cur, err := r.Col.Find(ctx, bson.M{"stage_id": stageID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var questions []models.Question
	for cur.Next(ctx) {
		var q models.Question
		if err := cur.Decode(&q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, cur.Err()
}

// CorrectOptions loads the answer key for the given question ids. Ids
// that do not exist are simply absent from the result.
func (r *QuestionRepository) CorrectOptions(ctx context.Context, ids []string) (map[string]string, error) {
	key := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return key, nil
	}
	cur, err := r.Col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"correct_option": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var doc struct {
			ID            string `bson:"_id"`
			CorrectOption string `bson:"correct_option"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		key[doc.ID] = doc.CorrectOption
	}
	return key, cur.Err()
}

func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now()
	}
	_, err := r.Col.InsertOne(ctx, question)
	return err
}

func (r *QuestionRepository) Count(ctx context.Context) (int64, error) {
	return r.Col.CountDocuments(ctx, bson.M{})
}

func (r *QuestionRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "stage_id", Value: 1}}},
	}
	_, err := r.Col.Indexes().CreateMany(ctx, indexes)
	return err
}
