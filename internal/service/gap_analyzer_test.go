package service

import (
	"math"
	"testing"

	"flowtune/internal/config"
	"flowtune/internal/model"
)

func neutralQuality() model.GameplayMetrics {
	return model.GameplayMetrics{
		EngagementLevel:    0.5,
		FrustrationLevel:   0.0,
		FlowStateIndicator: 0.5,
	}
}

func TestAnalyzeTooHardRecommendsDecrease(t *testing.T) {
	g := NewGapAnalyzer(config.DefaultTuning())

	skill := model.PlayerSkillMetrics{OverallSkillLevel: 0.3}
	difficulty := model.DifficultyMetrics{OverallDifficulty: 0.8, AISkillLevel: 0.8}

	rec := g.Analyze(skill, neutralQuality(), difficulty, 100)

	if rec.Direction != model.DirectionDecrease {
		t.Fatalf("direction = %q, want decrease", rec.Direction)
	}
	if math.Abs(rec.Gap-0.5) > 1e-9 {
		t.Errorf("gap = %v, want 0.5", rec.Gap)
	}
	if rec.Priority != model.PriorityHigh {
		t.Errorf("priority = %q, want high for a 0.5 gap", rec.Priority)
	}
	if target := rec.TargetMetrics[model.KnobAISkillLevel]; target >= difficulty.AISkillLevel {
		t.Errorf("aiSkillLevel target %v not below current %v", target, difficulty.AISkillLevel)
	}
}

func TestAnalyzeTooEasyRecommendsIncrease(t *testing.T) {
	g := NewGapAnalyzer(config.DefaultTuning())

	skill := model.PlayerSkillMetrics{OverallSkillLevel: 0.9}
	difficulty := model.DifficultyMetrics{OverallDifficulty: 0.4, AISkillLevel: 0.4}

	rec := g.Analyze(skill, neutralQuality(), difficulty, 100)

	if rec.Direction != model.DirectionIncrease {
		t.Fatalf("direction = %q, want increase", rec.Direction)
	}
	if target := rec.TargetMetrics[model.KnobAISkillLevel]; target <= difficulty.AISkillLevel {
		t.Errorf("aiSkillLevel target %v not above current %v", target, difficulty.AISkillLevel)
	}
}

func TestAnalyzeBalancedRecommendsMaintain(t *testing.T) {
	g := NewGapAnalyzer(config.DefaultTuning())

	skill := model.PlayerSkillMetrics{OverallSkillLevel: 0.5}
	difficulty := model.DifficultyMetrics{OverallDifficulty: 0.5}

	rec := g.Analyze(skill, neutralQuality(), difficulty, 100)
	if rec.Direction != model.DirectionMaintain {
		t.Errorf("direction = %q, want maintain for zero gap", rec.Direction)
	}
}

func TestFrustrationPullsGapDown(t *testing.T) {
	g := NewGapAnalyzer(config.DefaultTuning())

	skill := model.PlayerSkillMetrics{OverallSkillLevel: 0.5}
	difficulty := model.DifficultyMetrics{OverallDifficulty: 0.5}
	quality := neutralQuality()
	quality.FrustrationLevel = 0.8

	rec := g.Analyze(skill, quality, difficulty, 100)
	if rec.Gap >= 0 {
		t.Errorf("gap = %v, want negative under heavy frustration", rec.Gap)
	}
	if rec.Direction != model.DirectionIncrease {
		// Negative gap means difficulty sits below where the player can be.
		t.Errorf("direction = %q, want increase for negative gap", rec.Direction)
	}
}

func TestFlowDampensGap(t *testing.T) {
	tuning := config.DefaultTuning()
	g := NewGapAnalyzer(tuning)

	skill := model.PlayerSkillMetrics{OverallSkillLevel: 0.3}
	difficulty := model.DifficultyMetrics{OverallDifficulty: 0.8}

	plain := g.Analyze(skill, neutralQuality(), difficulty, 100)

	inFlow := neutralQuality()
	inFlow.FlowStateIndicator = 0.9
	damped := g.Analyze(skill, inFlow, difficulty, 100)

	want := plain.Gap * tuning.FlowDampening
	if math.Abs(damped.Gap-want) > 1e-9 {
		t.Errorf("damped gap = %v, want %v", damped.Gap, want)
	}
}

func TestConfidenceGrowsWithData(t *testing.T) {
	g := NewGapAnalyzer(config.DefaultTuning())

	skill := model.PlayerSkillMetrics{OverallSkillLevel: 0.3}
	difficulty := model.DifficultyMetrics{OverallDifficulty: 0.8}

	sparse := g.Analyze(skill, neutralQuality(), difficulty, 2)
	rich := g.Analyze(skill, neutralQuality(), difficulty, 40)

	if sparse.Confidence != 0.3 {
		t.Errorf("sparse confidence = %v, want floor 0.3", sparse.Confidence)
	}
	if rich.Confidence <= sparse.Confidence {
		t.Errorf("confidence did not grow with data: %v then %v", sparse.Confidence, rich.Confidence)
	}
}

func TestTargetsStayAboveFloor(t *testing.T) {
	g := NewGapAnalyzer(config.DefaultTuning())

	skill := model.PlayerSkillMetrics{OverallSkillLevel: 0.0}
	difficulty := model.DifficultyMetrics{OverallDifficulty: 1.0, AISkillLevel: 0.12}
	rec := g.Analyze(skill, neutralQuality(), difficulty, 100)
	for knob, v := range rec.TargetMetrics {
		if v < 0.1 {
			t.Errorf("target for %s = %v, below the 0.1 floor", knob, v)
		}
	}
}
