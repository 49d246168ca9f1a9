package model

import "time"

// GameplayMetrics are the quality facets derived from the telemetry window
// plus longer-lived per-player history. All normalized fields live in [0,1]
// except AverageDecisionTime and AverageGameDuration, which are raw averages.
type GameplayMetrics struct {
	PlayerID string `json:"playerId" bson:"playerId"`

	WinRate             float64 `json:"winRate" bson:"winRate"`
	AverageDecisionTime float64 `json:"averageDecisionTime" bson:"averageDecisionTime"` // ms
	ErrorRate           float64 `json:"errorRate" bson:"errorRate"`
	OptimalMoveRate     float64 `json:"optimalMoveRate" bson:"optimalMoveRate"`
	RiskTakingBehavior  float64 `json:"riskTakingBehavior" bson:"riskTakingBehavior"`
	AdaptationSpeed     float64 `json:"adaptationSpeed" bson:"adaptationSpeed"`
	EngagementLevel     float64 `json:"engagementLevel" bson:"engagementLevel"`
	FrustrationLevel    float64 `json:"frustrationLevel" bson:"frustrationLevel"`
	FlowStateIndicator  float64 `json:"flowStateIndicator" bson:"flowStateIndicator"`
	AverageGameDuration float64 `json:"averageGameDuration" bson:"averageGameDuration"` // seconds

	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
