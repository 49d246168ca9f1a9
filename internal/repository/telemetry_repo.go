package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flowtune/internal/model"
)

// TelemetryRepo archives raw action telemetry so the background loops can
// re-read a player's recent window without the caller resupplying it
type TelemetryRepo interface {
	InsertActions(ctx context.Context, actions []model.ActionTelemetry) error
	RecentActions(ctx context.Context, playerID string, limit int) ([]model.ActionTelemetry, error)
	DeleteByPlayer(ctx context.Context, playerID string) error
}

type telemetryRepo struct {
	col *mongo.Collection
}

// NewTelemetryRepo creates a new telemetry repository
func NewTelemetryRepo(db *mongo.Database) TelemetryRepo {
	return &telemetryRepo{col: db.Collection("telemetry")}
}

func (r *telemetryRepo) InsertActions(ctx context.Context, actions []model.ActionTelemetry) error {
	if len(actions) == 0 {
		return nil
	}
	docs := make([]interface{}, len(actions))
	for i := range actions {
		docs[i] = actions[i]
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

// RecentActions returns the last actions for a player in chronological order.
func (r *telemetryRepo) RecentActions(ctx context.Context, playerID string, limit int) ([]model.ActionTelemetry, error) {
	opts := options.Find().
		SetSort(bson.M{"timestamp": -1}).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, bson.M{"playerId": playerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var actions []model.ActionTelemetry
	if err := cursor.All(ctx, &actions); err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(actions)-1; i < j; i, j = i+1, j-1 {
		actions[i], actions[j] = actions[j], actions[i]
	}
	return actions, nil
}

func (r *telemetryRepo) DeleteByPlayer(ctx context.Context, playerID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"playerId": playerID})
	return err
}
