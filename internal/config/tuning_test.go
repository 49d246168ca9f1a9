package config

import (
	"math"
	"testing"
)

func TestWeightSums(t *testing.T) {
	tuning := DefaultTuning()

	s := tuning.Skill
	skillSum := s.DecisionSpeed + s.StrategicThinking + s.RiskManagement +
		s.ResourceOptimization + s.Adaptability + s.GameKnowledge +
		s.ConsistencyLevel + s.LearningRate
	if math.Abs(skillSum-1.0) > 1e-9 {
		t.Errorf("skill weights sum to %v, want 1.0", skillSum)
	}

	d := tuning.Difficulty
	diffSum := d.AIAggressiveness + d.AISkillLevel + d.GameComplexity +
		d.TimePressure + d.ResourceScarcity + d.MarketVolatility +
		d.RandomEventFrequency + d.CompetitionIntensity
	if math.Abs(diffSum-1.0) > 1e-9 {
		t.Errorf("difficulty weights sum to %v, want 1.0", diffSum)
	}

	f := tuning.Flow
	flowSum := f.SkillChallengeBalance + f.Concentration + f.TimeDistortion +
		f.IntrinsicMotivation + f.SelfConsciousness + f.Autotelic +
		f.ControlSense + f.ClearGoals + f.ImmediateFeedback
	if math.Abs(flowSum-1.0) > 1e-9 {
		t.Errorf("flow weights sum to %v, want 1.0", flowSum)
	}
}

func TestPhaseThresholdsOrdered(t *testing.T) {
	p := DefaultTuning().Phases
	if !(p.Entering < p.Declining && p.Declining < p.Maintaining && p.Maintaining < p.Optimal) {
		t.Errorf("phase thresholds not ordered: entering %v declining %v maintaining %v optimal %v",
			p.Entering, p.Declining, p.Maintaining, p.Optimal)
	}
}
