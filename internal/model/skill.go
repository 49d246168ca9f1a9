package model

import (
	"time"

	"flowtune/internal/config"
)

// PlayerSkillMetrics holds the eight normalized skill facets for a player.
// Every facet lives in [0,1]; OverallSkillLevel is always the weighted sum of
// the facets and is never set directly.
type PlayerSkillMetrics struct {
	PlayerID string `json:"playerId" bson:"playerId"`

	DecisionSpeed        float64 `json:"decisionSpeed" bson:"decisionSpeed"`
	StrategicThinking    float64 `json:"strategicThinking" bson:"strategicThinking"`
	RiskManagement       float64 `json:"riskManagement" bson:"riskManagement"`
	ResourceOptimization float64 `json:"resourceOptimization" bson:"resourceOptimization"`
	Adaptability         float64 `json:"adaptability" bson:"adaptability"`
	GameKnowledge        float64 `json:"gameKnowledge" bson:"gameKnowledge"`
	ConsistencyLevel     float64 `json:"consistencyLevel" bson:"consistencyLevel"`
	LearningRate         float64 `json:"learningRate" bson:"learningRate"`

	OverallSkillLevel float64   `json:"overallSkillLevel" bson:"overallSkillLevel"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ComputeOverall recomputes OverallSkillLevel from the facets.
func (m *PlayerSkillMetrics) ComputeOverall(w config.SkillWeights) {
	m.OverallSkillLevel = Clamp01(
		m.DecisionSpeed*w.DecisionSpeed +
			m.StrategicThinking*w.StrategicThinking +
			m.RiskManagement*w.RiskManagement +
			m.ResourceOptimization*w.ResourceOptimization +
			m.Adaptability*w.Adaptability +
			m.GameKnowledge*w.GameKnowledge +
			m.ConsistencyLevel*w.ConsistencyLevel +
			m.LearningRate*w.LearningRate)
}

// Clamp01 bounds a normalized value to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
