package service

import (
	"time"

	"flowtune/internal/config"
	"flowtune/internal/model"
)

// knobFloors are the lowest values the emergency reduction may push a knob
// to. AI skill keeps a higher floor so the opponent never becomes trivially
// beatable in one step.
var knobFloors = map[model.Knob]float64{
	model.KnobAIAggressiveness:     0.1,
	model.KnobAISkillLevel:         0.2,
	model.KnobGameComplexity:       0.15,
	model.KnobTimePressure:         0.1,
	model.KnobResourceScarcity:     0.1,
	model.KnobMarketVolatility:     0.1,
	model.KnobRandomEventFrequency: 0.1,
	model.KnobCompetitionIntensity: 0.15,
}

// recoveryBase is the per-type recovery time before severity scaling.
var recoveryBase = map[model.EmergencyType]time.Duration{
	model.EmergencyFrustration:   180 * time.Second,
	model.EmergencyDisengagement: 120 * time.Second,
	model.EmergencyOverload:      240 * time.Second,
	model.EmergencyBoredom:       60 * time.Second,
}

// EmergencyResponder is the fast safety net: it fires on hard threshold
// crossings regardless of the normal confidence and cooldown gates.
type EmergencyResponder struct {
	tuning *config.Tuning
}

// NewEmergencyResponder creates an emergency responder.
func NewEmergencyResponder(tuning *config.Tuning) *EmergencyResponder {
	return &EmergencyResponder{tuning: tuning}
}

// Check evaluates the hard thresholds against the current quality metrics.
// When several conditions fire at once the first matched type is kept and
// severity is elevated to the highest observed. Returns nil when calm.
func (r *EmergencyResponder) Check(current model.DifficultyMetrics, quality model.GameplayMetrics) *model.EmergencyResponse {
	e := r.tuning.Emergency

	var matched model.EmergencyType
	var severity model.Severity

	record := func(t model.EmergencyType, s model.Severity) {
		if matched == "" {
			matched = t
			severity = s
			return
		}
		if severityRank(s) > severityRank(severity) {
			severity = s
		}
	}

	if quality.FrustrationLevel > e.Frustration {
		if quality.FrustrationLevel > e.FrustrationCritical {
			record(model.EmergencyFrustration, model.SeverityCritical)
		} else {
			record(model.EmergencyFrustration, model.SeverityHigh)
		}
	}
	if quality.EngagementLevel < e.Engagement {
		if quality.EngagementLevel < e.EngagementCritical {
			record(model.EmergencyDisengagement, model.SeverityCritical)
		} else {
			record(model.EmergencyDisengagement, model.SeverityMedium)
		}
	}
	if quality.ErrorRate > e.ErrorRate {
		if quality.ErrorRate > e.ErrorRateCritical {
			record(model.EmergencyOverload, model.SeverityCritical)
		} else {
			record(model.EmergencyOverload, model.SeverityHigh)
		}
	}
	if quality.FlowStateIndicator < e.BoredomFlow && quality.EngagementLevel < e.BoredomEngagement {
		record(model.EmergencyBoredom, model.SeverityMedium)
	}

	if matched == "" {
		return nil
	}

	resp := &model.EmergencyResponse{
		Triggered: true,
		Type:      matched,
		Severity:  severity,
	}
	resp.ImmediateAction = r.immediateAction(current, severity)
	resp.EstimatedRecovery = r.recoveryTime(matched, severity)
	resp.FollowUpActions = r.followUps(resp.ImmediateAction, severity)
	return resp
}

func severityRank(s model.Severity) int {
	switch s {
	case model.SeverityCritical:
		return 3
	case model.SeverityHigh:
		return 2
	case model.SeverityMedium:
		return 1
	default:
		return 0
	}
}

// immediateAction reduces every knob by a severity-scaled amount, floored
// per knob.
func (r *EmergencyResponder) immediateAction(current model.DifficultyMetrics, severity model.Severity) model.DifficultyMetrics {
	reduction := 0.2
	switch severity {
	case model.SeverityCritical:
		reduction = 0.4
	case model.SeverityHigh:
		reduction = 0.3
	}

	action := current
	for _, knob := range model.Knobs {
		v := current.Get(knob) - reduction
		if floor := knobFloors[knob]; v < floor {
			v = floor
		}
		action.Set(knob, v)
	}
	action.ComputeOverall(r.tuning.Difficulty)
	return action
}

func (r *EmergencyResponder) recoveryTime(t model.EmergencyType, severity model.Severity) time.Duration {
	base := recoveryBase[t]
	switch severity {
	case model.SeverityCritical:
		return base * 2
	case model.SeverityHigh:
		return base * 3 / 2
	}
	return base
}

// followUps is the staged ramp from the immediate correction back toward the
// neutral 0.5, spread linearly over the recovery time. The last step lands
// exactly on neutral.
func (r *EmergencyResponder) followUps(immediate model.DifficultyMetrics, severity model.Severity) []model.DifficultyMetrics {
	steps := 3
	if severity == model.SeverityCritical {
		steps = 5
	}

	actions := make([]model.DifficultyMetrics, 0, steps)
	for i := 1; i <= steps; i++ {
		step := immediate
		frac := float64(i) / float64(steps)
		for _, knob := range model.Knobs {
			from := immediate.Get(knob)
			step.Set(knob, from+(0.5-from)*frac)
		}
		step.ComputeOverall(r.tuning.Difficulty)
		actions = append(actions, step)
	}
	return actions
}
