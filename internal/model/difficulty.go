package model

import (
	"time"

	"flowtune/internal/config"
)

// Knob names one tunable difficulty parameter.
type Knob string

const (
	KnobAIAggressiveness     Knob = "aiAggressiveness"
	KnobAISkillLevel         Knob = "aiSkillLevel"
	KnobGameComplexity       Knob = "gameComplexity"
	KnobTimePressure         Knob = "timePressure"
	KnobResourceScarcity     Knob = "resourceScarcity"
	KnobMarketVolatility     Knob = "marketVolatility"
	KnobRandomEventFrequency Knob = "randomEventFrequency"
	KnobCompetitionIntensity Knob = "competitionIntensity"
)

// Knobs lists every difficulty knob in a fixed order.
var Knobs = []Knob{
	KnobAIAggressiveness,
	KnobAISkillLevel,
	KnobGameComplexity,
	KnobTimePressure,
	KnobResourceScarcity,
	KnobMarketVolatility,
	KnobRandomEventFrequency,
	KnobCompetitionIntensity,
}

// DifficultyMetrics holds the eight difficulty knobs for one player. Each
// knob lives in [0,1]; OverallDifficulty is always the weighted sum of the
// knobs. One live instance exists per player, mutated only by the adjustment
// engine.
type DifficultyMetrics struct {
	AIAggressiveness     float64 `json:"aiAggressiveness" bson:"aiAggressiveness"`
	AISkillLevel         float64 `json:"aiSkillLevel" bson:"aiSkillLevel"`
	GameComplexity       float64 `json:"gameComplexity" bson:"gameComplexity"`
	TimePressure         float64 `json:"timePressure" bson:"timePressure"`
	ResourceScarcity     float64 `json:"resourceScarcity" bson:"resourceScarcity"`
	MarketVolatility     float64 `json:"marketVolatility" bson:"marketVolatility"`
	RandomEventFrequency float64 `json:"randomEventFrequency" bson:"randomEventFrequency"`
	CompetitionIntensity float64 `json:"competitionIntensity" bson:"competitionIntensity"`

	OverallDifficulty float64 `json:"overallDifficulty" bson:"overallDifficulty"`
}

// DefaultDifficulty returns the neutral starting point: every knob at 0.5.
func DefaultDifficulty(w config.DifficultyWeights) DifficultyMetrics {
	d := DifficultyMetrics{
		AIAggressiveness:     0.5,
		AISkillLevel:         0.5,
		GameComplexity:       0.5,
		TimePressure:         0.5,
		ResourceScarcity:     0.5,
		MarketVolatility:     0.5,
		RandomEventFrequency: 0.5,
		CompetitionIntensity: 0.5,
	}
	d.ComputeOverall(w)
	return d
}

// Get returns the value of one knob.
func (d *DifficultyMetrics) Get(k Knob) float64 {
	switch k {
	case KnobAIAggressiveness:
		return d.AIAggressiveness
	case KnobAISkillLevel:
		return d.AISkillLevel
	case KnobGameComplexity:
		return d.GameComplexity
	case KnobTimePressure:
		return d.TimePressure
	case KnobResourceScarcity:
		return d.ResourceScarcity
	case KnobMarketVolatility:
		return d.MarketVolatility
	case KnobRandomEventFrequency:
		return d.RandomEventFrequency
	case KnobCompetitionIntensity:
		return d.CompetitionIntensity
	}
	return 0
}

// Set assigns one knob, clamped to [0,1]. Callers must recompute the overall
// afterwards.
func (d *DifficultyMetrics) Set(k Knob, v float64) {
	v = Clamp01(v)
	switch k {
	case KnobAIAggressiveness:
		d.AIAggressiveness = v
	case KnobAISkillLevel:
		d.AISkillLevel = v
	case KnobGameComplexity:
		d.GameComplexity = v
	case KnobTimePressure:
		d.TimePressure = v
	case KnobResourceScarcity:
		d.ResourceScarcity = v
	case KnobMarketVolatility:
		d.MarketVolatility = v
	case KnobRandomEventFrequency:
		d.RandomEventFrequency = v
	case KnobCompetitionIntensity:
		d.CompetitionIntensity = v
	}
}

// ComputeOverall recomputes OverallDifficulty from the knobs.
func (d *DifficultyMetrics) ComputeOverall(w config.DifficultyWeights) {
	d.OverallDifficulty = Clamp01(
		d.AIAggressiveness*w.AIAggressiveness +
			d.AISkillLevel*w.AISkillLevel +
			d.GameComplexity*w.GameComplexity +
			d.TimePressure*w.TimePressure +
			d.ResourceScarcity*w.ResourceScarcity +
			d.MarketVolatility*w.MarketVolatility +
			d.RandomEventFrequency*w.RandomEventFrequency +
			d.CompetitionIntensity*w.CompetitionIntensity)
}

// AdjustmentDirection says which way an adjustment should move difficulty.
type AdjustmentDirection string

const (
	DirectionIncrease AdjustmentDirection = "increase"
	DirectionDecrease AdjustmentDirection = "decrease"
	DirectionMaintain AdjustmentDirection = "maintain"
)

// Priority ranks how urgently a recommendation should be acted on.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Impact is a set of expected or measured deltas caused by an adjustment.
type Impact struct {
	EngagementDelta  float64 `json:"engagementDelta" bson:"engagementDelta"`
	FrustrationDelta float64 `json:"frustrationDelta" bson:"frustrationDelta"`
	FlowStateDelta   float64 `json:"flowStateDelta" bson:"flowStateDelta"`
	RetentionDelta   float64 `json:"retentionDelta" bson:"retentionDelta"`
}

// AdjustmentRecommendation is the gap analyzer's output: which direction to
// move, how far, and which knobs to touch.
type AdjustmentRecommendation struct {
	Direction      AdjustmentDirection `json:"direction"`
	Magnitude      float64             `json:"magnitude"` // 0-1
	Priority       Priority            `json:"priority"`
	TargetMetrics  map[Knob]float64    `json:"targetMetrics"` // knob -> target value
	Reasoning      []string            `json:"reasoning"`
	ExpectedImpact Impact              `json:"expectedImpact"`
	Confidence     float64             `json:"confidence"`
	Gap            float64             `json:"gap"` // signed, positive = too hard
	DataPoints     int                 `json:"dataPoints"`
}

// PlayerReaction captures post-adjustment player behavior for validation.
type PlayerReaction struct {
	SatisfactionDelta   float64 `json:"satisfactionDelta" bson:"satisfactionDelta"`
	EngagementDelta     float64 `json:"engagementDelta" bson:"engagementDelta"`
	FrustrationDelta    float64 `json:"frustrationDelta" bson:"frustrationDelta"`
	PerformanceDelta    float64 `json:"performanceDelta" bson:"performanceDelta"`
	RetentionLikelihood float64 `json:"retentionLikelihood" bson:"retentionLikelihood"`
	AdaptationTime      float64 `json:"adaptationTime" bson:"adaptationTime"` // seconds
}

// DifficultyTransition is the immutable record of one applied adjustment.
// ActualImpact, PlayerReaction and Success are written exactly once, by the
// validation step.
type DifficultyTransition struct {
	ID             string            `json:"id" bson:"_id"`
	Timestamp      time.Time         `json:"timestamp" bson:"timestamp"`
	PlayerID       string            `json:"playerId" bson:"playerId"`
	FromDifficulty DifficultyMetrics `json:"fromDifficulty" bson:"fromDifficulty"`
	ToDifficulty   DifficultyMetrics `json:"toDifficulty" bson:"toDifficulty"`
	StrategyID     string            `json:"strategyId" bson:"strategyId"`
	Reason         string            `json:"reason" bson:"reason"`
	ExpectedImpact Impact            `json:"expectedImpact" bson:"expectedImpact"`
	Success        bool              `json:"success" bson:"success"`
	ActualImpact   *Impact           `json:"actualImpact,omitempty" bson:"actualImpact,omitempty"`
	PlayerReaction *PlayerReaction   `json:"playerReaction,omitempty" bson:"playerReaction,omitempty"`
}
