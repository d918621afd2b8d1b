package repository

import (
	"context"
	"quizfunnel/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuizRepo handles persistence of quizzes
type QuizRepo interface {
	Create(ctx context.Context, quiz *model.Quiz) error
	GetByID(ctx context.Context, id string) (*model.Quiz, error)
	GetBySlug(ctx context.Context, slug string) (*model.Quiz, error)
	GetByOwner(ctx context.Context, ownerID string) ([]*model.Quiz, error)
	Update(ctx context.Context, quiz *model.Quiz) error
	Delete(ctx context.Context, id string) error
}

type quizRepo struct {
	collection *mongo.Collection
}

// NewQuizRepo creates a new quiz repository
func NewQuizRepo(db *mongo.Database) QuizRepo {
	return &quizRepo{
		collection: db.Collection("quizzes"),
	}
}

func (r *quizRepo) Create(ctx context.Context, quiz *model.Quiz) error {
	now := time.Now()
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, quiz)
	return err
}

func (r *quizRepo) GetByID(ctx context.Context, id string) (*model.Quiz, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *quizRepo) GetBySlug(ctx context.Context, slug string) (*model.Quiz, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *quizRepo) findOne(ctx context.Context, filter bson.M) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.collection.FindOne(ctx, filter).Decode(&quiz)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepo) GetByOwner(ctx context.Context, ownerID string) ([]*model.Quiz, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	quizzes := []*model.Quiz{}
	if err := cursor.All(ctx, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *quizRepo) Update(ctx context.Context, quiz *model.Quiz) error {
	quiz.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": quiz.ID}, quiz)
	return err
}

func (r *quizRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
