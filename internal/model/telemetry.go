package model

import "time"

// ActionType classifies a single player action in the telemetry stream.
type ActionType string

const (
	ActionMove      ActionType = "move"
	ActionTrade     ActionType = "trade"
	ActionBuild     ActionType = "build"
	ActionAuction   ActionType = "auction"
	ActionManage    ActionType = "manage"
	ActionPass      ActionType = "pass"
	ActionUndefined ActionType = ""
)

// ActionTelemetry is one per-action record from the game. Optional fields are
// pointers; a missing field never contributes to a facet and the facet falls
// back to its neutral default when nothing contributed.
type ActionTelemetry struct {
	PlayerID       string     `json:"playerId" bson:"playerId"`
	Type           ActionType `json:"type" bson:"type"`
	Timestamp      time.Time  `json:"timestamp" bson:"timestamp"`
	DecisionTimeMs *float64   `json:"decisionTimeMs,omitempty" bson:"decisionTimeMs,omitempty"`
	RiskLevel      *float64   `json:"riskLevel,omitempty" bson:"riskLevel,omitempty"` // 0-1
	IsOptimal      *bool      `json:"isOptimal,omitempty" bson:"isOptimal,omitempty"`
	IsError        *bool      `json:"isError,omitempty" bson:"isError,omitempty"`
	IsSuccess      *bool      `json:"isSuccess,omitempty" bson:"isSuccess,omitempty"`
	ImmediateValue *float64   `json:"immediateValue,omitempty" bson:"immediateValue,omitempty"`
	OutputValue    *float64   `json:"outputValue,omitempty" bson:"outputValue,omitempty"`
	InputCost      *float64   `json:"inputCost,omitempty" bson:"inputCost,omitempty"`
}

// SessionMetrics arrive periodically alongside the action stream.
type SessionMetrics struct {
	PlayerID         string  `json:"playerId" bson:"playerId"`
	SessionDuration  float64 `json:"sessionDuration" bson:"sessionDuration"` // seconds
	IdleTime         float64 `json:"idleTime" bson:"idleTime"`               // seconds
	FeatureUsageRate float64 `json:"featureUsageRate" bson:"featureUsageRate"`
}

// TelemetryBatch is the ingestion payload for one player.
type TelemetryBatch struct {
	Actions []ActionTelemetry `json:"actions"`
	Session *SessionMetrics   `json:"session,omitempty"`
}
