package service

import (
	"testing"

	"flowtune/internal/model"
)

func recommendation(priority model.Priority, magnitude float64) model.AdjustmentRecommendation {
	return model.AdjustmentRecommendation{
		Priority:  priority,
		Magnitude: magnitude,
		TargetMetrics: map[model.Knob]float64{
			model.KnobAISkillLevel:     0.4,
			model.KnobAIAggressiveness: 0.4,
			model.KnobGameComplexity:   0.4,
		},
	}
}

func TestSelectStrategyCriticalTakesEmergency(t *testing.T) {
	registry := defaultStrategies()
	s := selectStrategy(registry, recommendation(model.PriorityCritical, 0.6), 0.5, 0.5)
	if s == nil || s.ID != StrategyEmergencyReduction {
		t.Fatalf("got %v, want %s", s, StrategyEmergencyReduction)
	}
}

func TestSelectStrategySmallGapInFlowFineTunes(t *testing.T) {
	registry := defaultStrategies()
	s := selectStrategy(registry, recommendation(model.PriorityLow, 0.12), 0.5, 0.8)
	if s == nil || s.ID != StrategyFlowOptimization {
		t.Fatalf("got %v, want %s", s, StrategyFlowOptimization)
	}
}

func TestSelectStrategyRespectsSkillRange(t *testing.T) {
	registry := defaultStrategies()

	// A weak player out of flow must not get the strong-player ramp.
	s := selectStrategy(registry, recommendation(model.PriorityHigh, 0.4), 0.2, 0.3)
	if s == nil {
		t.Fatal("expected a strategy")
	}
	if s.SkillMin > 0.2 {
		t.Errorf("selected %s with SkillMin %v for skill 0.2", s.ID, s.SkillMin)
	}
}

func TestSelectStrategyPrefersTargetOverlap(t *testing.T) {
	registry := defaultStrategies()

	rec := model.AdjustmentRecommendation{
		Priority:  model.PriorityMedium,
		Magnitude: 0.3,
		TargetMetrics: map[model.Knob]float64{
			model.KnobAISkillLevel:     0.4,
			model.KnobAIAggressiveness: 0.4,
			model.KnobTimePressure:     0.4,
		},
	}
	s := selectStrategy(registry, rec, 0.2, 0.3)
	if s == nil || s.ID != "gradual-decrease" {
		t.Fatalf("got %v, want gradual-decrease for full target overlap", s)
	}
}

func TestFindStrategyUnknownID(t *testing.T) {
	if s := findStrategy(defaultStrategies(), "no-such-strategy"); s != nil {
		t.Errorf("got %v, want nil", s)
	}
}
