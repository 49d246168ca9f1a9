package model

import (
	"time"

	"flowtune/internal/config"
)

// FlowPhase is the current position in the flow state machine.
type FlowPhase string

const (
	PhaseEntering    FlowPhase = "entering"
	PhaseMaintaining FlowPhase = "maintaining"
	PhaseDeclining   FlowPhase = "declining"
	PhaseLost        FlowPhase = "lost"
)

// FlowQuality grades how deep the flow state is.
type FlowQuality string

const (
	QualityShallow  FlowQuality = "shallow"
	QualityModerate FlowQuality = "moderate"
	QualityDeep     FlowQuality = "deep"
	QualityOptimal  FlowQuality = "optimal"
)

// TrendDirection summarizes where the flow score is heading.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// FlowIndicators are the nine flow facets, each in [0,1].
type FlowIndicators struct {
	SkillChallengeBalance float64 `json:"skillChallengeBalance" bson:"skillChallengeBalance"`
	Concentration         float64 `json:"concentration" bson:"concentration"`
	TimeDistortion        float64 `json:"timeDistortion" bson:"timeDistortion"`
	IntrinsicMotivation   float64 `json:"intrinsicMotivation" bson:"intrinsicMotivation"`
	SelfConsciousness     float64 `json:"selfConsciousness" bson:"selfConsciousness"`
	Autotelic             float64 `json:"autotelic" bson:"autotelic"`
	ControlSense          float64 `json:"controlSense" bson:"controlSense"`
	ClearGoals            float64 `json:"clearGoals" bson:"clearGoals"`
	ImmediateFeedback     float64 `json:"immediateFeedback" bson:"immediateFeedback"`
}

// WeightedScore combines the indicators into the overall flow score.
func (i FlowIndicators) WeightedScore(w config.FlowWeights) float64 {
	return Clamp01(
		i.SkillChallengeBalance*w.SkillChallengeBalance +
			i.Concentration*w.Concentration +
			i.TimeDistortion*w.TimeDistortion +
			i.IntrinsicMotivation*w.IntrinsicMotivation +
			i.SelfConsciousness*w.SelfConsciousness +
			i.Autotelic*w.Autotelic +
			i.ControlSense*w.ControlSense +
			i.ClearGoals*w.ClearGoals +
			i.ImmediateFeedback*w.ImmediateFeedback)
}

// FlowTrend is the first/second difference view of recent flow scores.
type FlowTrend struct {
	Direction    TrendDirection `json:"direction" bson:"direction"`
	Velocity     float64        `json:"velocity" bson:"velocity"`
	Acceleration float64        `json:"acceleration" bson:"acceleration"`
}

// FlowPrediction is a linear projection of the flow score.
type FlowPrediction struct {
	HorizonSec     float64 `json:"horizonSec" bson:"horizonSec"`
	ProjectedScore float64 `json:"projectedScore" bson:"projectedScore"`
	Confidence     float64 `json:"confidence" bson:"confidence"`
}

// FlowStateMetrics is one detector sample for a player.
type FlowStateMetrics struct {
	PlayerID  string    `json:"playerId" bson:"playerId"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`

	Indicators       FlowIndicators `json:"indicators" bson:"indicators"`
	OverallFlowScore float64        `json:"overallFlowScore" bson:"overallFlowScore"`
	Phase            FlowPhase      `json:"flowPhase" bson:"flowPhase"`
	Stability        float64        `json:"flowStability" bson:"flowStability"`
	Quality          FlowQuality    `json:"flowQuality" bson:"flowQuality"`
	Duration         float64        `json:"flowDuration" bson:"flowDuration"` // seconds above maintaining

	Trend      FlowTrend      `json:"flowTrends" bson:"flowTrends"`
	Prediction FlowPrediction `json:"prediction" bson:"prediction"`

	RiskFactors   []string `json:"riskFactors,omitempty" bson:"riskFactors,omitempty"`
	Opportunities []string `json:"opportunities,omitempty" bson:"opportunities,omitempty"`
}
