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

type CertificateRepository struct {
	Col *mongo.Collection
}

func NewCertificateRepository(db *mongo.Database) *CertificateRepository {
	return &CertificateRepository{Col: db.Collection("certificates")}
}

func (r *CertificateRepository) ByUserID(ctx context.Context, userID string) (*models.Certificate, error) {
	var cert models.Certificate
	err := r.Col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cert)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) ByCode(ctx context.Context, code string) (*models.Certificate, error) {
	var cert models.Certificate
	err := r.Col.FindOne(ctx, bson.M{"code": code}).Decode(&cert)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// Insert stores a certificate. The unique user_id index makes issuance
// idempotent under races: the loser gets a conflict and re-reads the
// winner's document.
func (r *CertificateRepository) Insert(ctx context.Context, cert *models.Certificate) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	_, err := r.Col.InsertOne(ctx, cert)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("certificate already issued for user " + cert.UserID)
	}
	return err
}

func (r *CertificateRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := r.Col.Indexes().CreateMany(ctx, indexes)
	return err
}
