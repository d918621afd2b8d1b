package repository

import (
	"context"
	"quizfunnel/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LeadRepo handles persistence of captured leads
type LeadRepo interface {
	Create(ctx context.Context, lead *model.Lead) error
	GetByID(ctx context.Context, id string) (*model.Lead, error)
	ListByQuiz(ctx context.Context, quizID string) ([]*model.Lead, error)
}

type leadRepo struct {
	collection *mongo.Collection
}

// NewLeadRepo creates a new lead repository
func NewLeadRepo(db *mongo.Database) LeadRepo {
	return &leadRepo{
		collection: db.Collection("leads"),
	}
}

func (r *leadRepo) Create(ctx context.Context, lead *model.Lead) error {
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, lead)
	return err
}

func (r *leadRepo) GetByID(ctx context.Context, id string) (*model.Lead, error) {
	var lead model.Lead
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&lead)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepo) ListByQuiz(ctx context.Context, quizID string) ([]*model.Lead, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"quizId": quizID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	leads := []*model.Lead{}
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}
