package repository

import (
	"context"
	"quizfunnel/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StepRepo handles persistence of quiz steps
type StepRepo interface {
	Create(ctx context.Context, step *model.Step) error
	GetByID(ctx context.Context, id string) (*model.Step, error)
	// ListByQuiz returns the quiz's steps ordered by ascending order
	ListByQuiz(ctx context.Context, quizID string) ([]*model.Step, error)
	Update(ctx context.Context, step *model.Step) error
	Delete(ctx context.Context, id string) error
	DeleteByQuiz(ctx context.Context, quizID string) error
}

type stepRepo struct {
	collection *mongo.Collection
}

// NewStepRepo creates a new step repository
func NewStepRepo(db *mongo.Database) StepRepo {
	return &stepRepo{
		collection: db.Collection("steps"),
	}
}

func (r *stepRepo) Create(ctx context.Context, step *model.Step) error {
	now := time.Now()
	step.CreatedAt = now
	step.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, step)
	return err
}

func (r *stepRepo) GetByID(ctx context.Context, id string) (*model.Step, error) {
	var step model.Step
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&step)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &step, nil
}

func (r *stepRepo) ListByQuiz(ctx context.Context, quizID string) ([]*model.Step, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"quizId": quizID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	steps := []*model.Step{}
	if err := cursor.All(ctx, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *stepRepo) Update(ctx context.Context, step *model.Step) error {
	step.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": step.ID}, step)
	return err
}

func (r *stepRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *stepRepo) DeleteByQuiz(ctx context.Context, quizID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"quizId": quizID})
	return err
}
