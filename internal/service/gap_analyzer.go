package service

import (
	"fmt"
	"math"

	"flowtune/internal/config"
	"flowtune/internal/model"
)

// GapAnalyzer compares the live difficulty against inferred skill and quality
// and produces a signed gap plus an adjustment recommendation. Positive gap
// means difficulty exceeds skill.
type GapAnalyzer struct {
	tuning *config.Tuning
}

// NewGapAnalyzer creates a gap analyzer.
func NewGapAnalyzer(tuning *config.Tuning) *GapAnalyzer {
	return &GapAnalyzer{tuning: tuning}
}

// Analyze produces the recommendation for one player. dataPoints is the total
// number of actions observed for the player and drives confidence.
func (g *GapAnalyzer) Analyze(skill model.PlayerSkillMetrics, quality model.GameplayMetrics, difficulty model.DifficultyMetrics, dataPoints int) model.AdjustmentRecommendation {
	t := g.tuning

	gap := difficulty.OverallDifficulty - skill.OverallSkillLevel
	gap -= t.FrustrationGapWeight * quality.FrustrationLevel
	gap += t.EngagementGapWeight * (quality.EngagementLevel - 0.5)
	gap = clampSigned(gap, -1, 1)

	// Being in flow dampens the perceived mismatch.
	if quality.FlowStateIndicator > t.FlowDampenAbove {
		gap *= t.FlowDampening
	}

	rec := model.AdjustmentRecommendation{
		Gap:        gap,
		Magnitude:  math.Abs(gap),
		DataPoints: dataPoints,
	}

	switch {
	case math.Abs(gap) < t.MaintainBand:
		rec.Direction = model.DirectionMaintain
	case gap > 0:
		rec.Direction = model.DirectionDecrease
	default:
		rec.Direction = model.DirectionIncrease
	}

	rec.Priority = priorityFor(math.Abs(gap))
	rec.TargetMetrics = g.targets(difficulty, gap)
	rec.Reasoning = g.reasoning(skill, quality, difficulty, gap)
	rec.ExpectedImpact = g.expectedImpact(rec.Direction, rec.Magnitude)
	rec.Confidence = g.confidence(quality, dataPoints)

	return rec
}

func priorityFor(magnitude float64) model.Priority {
	switch {
	case magnitude > 0.5:
		return model.PriorityCritical
	case magnitude > 0.3:
		return model.PriorityHigh
	case magnitude > 0.2:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// targets nudges each knob toward skill-aligned values. AI skill carries the
// largest share of the raw delta; each target is clamped to [0.1, 1].
func (g *GapAnalyzer) targets(difficulty model.DifficultyMetrics, gap float64) map[model.Knob]float64 {
	shares := map[model.Knob]float64{
		model.KnobAISkillLevel:         0.30,
		model.KnobAIAggressiveness:     0.15,
		model.KnobGameComplexity:       0.15,
		model.KnobTimePressure:         0.10,
		model.KnobCompetitionIntensity: 0.10,
	}

	targets := make(map[model.Knob]float64, len(shares))
	for knob, share := range shares {
		v := difficulty.Get(knob) - gap*share
		if v < 0.1 {
			v = 0.1
		}
		if v > 1 {
			v = 1
		}
		targets[knob] = v
	}
	return targets
}

func (g *GapAnalyzer) reasoning(skill model.PlayerSkillMetrics, quality model.GameplayMetrics, difficulty model.DifficultyMetrics, gap float64) []string {
	reasons := []string{
		fmt.Sprintf("difficulty %.2f vs skill %.2f (gap %+.2f)", difficulty.OverallDifficulty, skill.OverallSkillLevel, gap),
	}
	if quality.FrustrationLevel > 0.5 {
		reasons = append(reasons, fmt.Sprintf("elevated frustration %.2f pulls difficulty down", quality.FrustrationLevel))
	}
	if quality.EngagementLevel < 0.4 {
		reasons = append(reasons, fmt.Sprintf("low engagement %.2f", quality.EngagementLevel))
	} else if quality.EngagementLevel > 0.7 {
		reasons = append(reasons, fmt.Sprintf("high engagement %.2f supports the current level", quality.EngagementLevel))
	}
	if quality.FlowStateIndicator > g.tuning.FlowDampenAbove {
		reasons = append(reasons, "player appears in flow, dampening the correction")
	}
	return reasons
}

func (g *GapAnalyzer) expectedImpact(direction model.AdjustmentDirection, magnitude float64) model.Impact {
	var impact model.Impact
	switch direction {
	case model.DirectionDecrease:
		impact.EngagementDelta = magnitude * 0.3
		impact.FrustrationDelta = -magnitude * 0.4
	case model.DirectionIncrease:
		impact.EngagementDelta = magnitude * 0.2
		impact.FrustrationDelta = magnitude * 0.1
	}
	impact.FlowStateDelta = (impact.EngagementDelta - impact.FrustrationDelta) / 2
	impact.RetentionDelta = magnitude * 0.1
	return impact
}

// confidence grows with data volume and gets boosted for extreme flow states
// and high engagement, floored at 0.3.
func (g *GapAnalyzer) confidence(quality model.GameplayMetrics, dataPoints int) float64 {
	c := float64(dataPoints) / 20
	if c > 1 {
		c = 1
	}
	if quality.FlowStateIndicator > 0.8 || quality.FlowStateIndicator < 0.2 {
		c *= 1.2
	}
	if quality.EngagementLevel > 0.7 {
		c *= 1.1
	}
	if c < 0.3 {
		c = 0.3
	}
	if c > 1 {
		c = 1
	}
	return c
}

func clampSigned(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
