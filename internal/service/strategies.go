package service

import (
	"time"

	"flowtune/internal/model"
)

// StrategyConstraints bound what a strategy may do to a knob in one step.
type StrategyConstraints struct {
	Min     float64
	Max     float64
	MaxStep float64
}

// Strategy is one named way of moving difficulty knobs toward their targets.
type Strategy struct {
	ID      string
	Name    string
	Targets []model.Knob
	// Adjust computes the next value of a knob from its current value, the
	// recommended target and the recommendation magnitude.
	Adjust      func(current, target, magnitude float64) float64
	Constraints StrategyConstraints
	Cooldown    time.Duration
	SkillMin    float64
	SkillMax    float64
}

// StrategyEmergencyReduction is the registry id of the hard-correction
// strategy; emergencies and critical recommendations both select it.
const StrategyEmergencyReduction = "emergency-reduction"

// StrategyFlowOptimization fine-tunes around an already balanced state.
const StrategyFlowOptimization = "flow-optimization"

// defaultStrategies builds the fixed registry. Order matters: ties during
// selection break toward earlier entries.
func defaultStrategies() []Strategy {
	halfStep := func(current, target, magnitude float64) float64 {
		return current + (target-current)*magnitude*0.5
	}
	fineStep := func(current, target, magnitude float64) float64 {
		return current + (target-current)*magnitude*0.3
	}
	fullStep := func(current, target, magnitude float64) float64 {
		return current + (target-current)*magnitude
	}

	return []Strategy{
		{
			ID:          "gradual-increase",
			Name:        "Gradual challenge increase",
			Targets:     []model.Knob{model.KnobAISkillLevel, model.KnobAIAggressiveness, model.KnobGameComplexity},
			Adjust:      halfStep,
			Constraints: StrategyConstraints{Min: 0.1, Max: 0.95, MaxStep: 0.1},
			Cooldown:    60 * time.Second,
			SkillMin:    0.3,
			SkillMax:    1.0,
		},
		{
			ID:          "gradual-decrease",
			Name:        "Gradual relief",
			Targets:     []model.Knob{model.KnobAISkillLevel, model.KnobAIAggressiveness, model.KnobTimePressure},
			Adjust:      halfStep,
			Constraints: StrategyConstraints{Min: 0.1, Max: 0.95, MaxStep: 0.1},
			Cooldown:    60 * time.Second,
			SkillMin:    0.0,
			SkillMax:    0.7,
		},
		{
			ID:          StrategyEmergencyReduction,
			Name:        "Emergency reduction",
			Targets:     []model.Knob{model.KnobAISkillLevel, model.KnobAIAggressiveness, model.KnobGameComplexity, model.KnobTimePressure, model.KnobCompetitionIntensity},
			Adjust:      fullStep,
			Constraints: StrategyConstraints{Min: 0.1, Max: 1.0, MaxStep: 0.3},
			Cooldown:    30 * time.Second,
			SkillMin:    0.0,
			SkillMax:    1.0,
		},
		{
			ID:          StrategyFlowOptimization,
			Name:        "Flow fine-tuning",
			Targets:     []model.Knob{model.KnobAISkillLevel, model.KnobRandomEventFrequency, model.KnobMarketVolatility},
			Adjust:      fineStep,
			Constraints: StrategyConstraints{Min: 0.2, Max: 0.9, MaxStep: 0.05},
			Cooldown:    90 * time.Second,
			SkillMin:    0.0,
			SkillMax:    1.0,
		},
		{
			ID:          "complexity-ramp",
			Name:        "Complexity ramp for strong players",
			Targets:     []model.Knob{model.KnobGameComplexity, model.KnobResourceScarcity, model.KnobMarketVolatility},
			Adjust:      halfStep,
			Constraints: StrategyConstraints{Min: 0.1, Max: 0.95, MaxStep: 0.08},
			Cooldown:    90 * time.Second,
			SkillMin:    0.5,
			SkillMax:    1.0,
		},
	}
}

// selectStrategy picks a strategy for the recommendation. Critical priority
// always takes the emergency reduction; a near-balanced state with decent
// flow takes flow optimization; otherwise strategies in skill range are
// scored by target overlap plus a priority bonus.
func selectStrategy(registry []Strategy, rec model.AdjustmentRecommendation, skill float64, flowIndicator float64) *Strategy {
	if rec.Priority == model.PriorityCritical {
		return findStrategy(registry, StrategyEmergencyReduction)
	}
	if rec.Magnitude < 0.25 && flowIndicator >= 0.5 {
		return findStrategy(registry, StrategyFlowOptimization)
	}

	var best *Strategy
	bestScore := -1
	for i := range registry {
		s := &registry[i]
		if skill < s.SkillMin || skill > s.SkillMax {
			continue
		}
		score := 0
		for _, knob := range s.Targets {
			if _, ok := rec.TargetMetrics[knob]; ok {
				score++
			}
		}
		switch rec.Priority {
		case model.PriorityHigh:
			score += 2
		case model.PriorityMedium:
			score++
		}
		if score > bestScore {
			best = s
			bestScore = score
		}
	}
	return best
}

func findStrategy(registry []Strategy, id string) *Strategy {
	for i := range registry {
		if registry[i].ID == id {
			return &registry[i]
		}
	}
	return nil
}
