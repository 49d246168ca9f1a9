package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flowtune/internal/model"
)

// TransitionRepo handles MongoDB operations for difficulty transitions
type TransitionRepo interface {
	Insert(ctx context.Context, t *model.DifficultyTransition) error
	SetValidation(ctx context.Context, id string, actual *model.Impact, reaction *model.PlayerReaction, success bool) error
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]model.DifficultyTransition, error)
	DeleteByPlayer(ctx context.Context, playerID string) error
}

type transitionRepo struct {
	col *mongo.Collection
}

// NewTransitionRepo creates a new transition repository
func NewTransitionRepo(db *mongo.Database) TransitionRepo {
	return &transitionRepo{col: db.Collection("transitions")}
}

func (r *transitionRepo) Insert(ctx context.Context, t *model.DifficultyTransition) error {
	_, err := r.col.InsertOne(ctx, t)
	return err
}

func (r *transitionRepo) SetValidation(ctx context.Context, id string, actual *model.Impact, reaction *model.PlayerReaction, success bool) error {
	update := bson.M{"$set": bson.M{
		"actualImpact":   actual,
		"playerReaction": reaction,
		"success":        success,
	}}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *transitionRepo) ListByPlayer(ctx context.Context, playerID string, limit int) ([]model.DifficultyTransition, error) {
	opts := options.Find().
		SetSort(bson.M{"timestamp": -1}).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, bson.M{"playerId": playerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var transitions []model.DifficultyTransition
	if err := cursor.All(ctx, &transitions); err != nil {
		return nil, err
	}
	return transitions, nil
}

func (r *transitionRepo) DeleteByPlayer(ctx context.Context, playerID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"playerId": playerID})
	return err
}
