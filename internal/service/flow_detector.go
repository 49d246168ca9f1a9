package service

import (
	"math"
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	"flowtune/internal/config"
	"flowtune/internal/model"
)

// FlowStateDetector samples skill, difficulty and quality on a cadence per
// player, scores the nine flow indicators, tracks phase transitions and
// predicts near-future flow. History is a per-player ring capped at the
// configured window.
type FlowStateDetector struct {
	tuning *config.Tuning

	mu     sync.Mutex
	states map[string]*flowState
}

type flowState struct {
	history    []model.FlowStateMetrics
	scores     []float64
	aboveTicks int // contiguous ticks at or above the maintaining threshold
}

// NewFlowStateDetector creates a flow detector.
func NewFlowStateDetector(tuning *config.Tuning) *FlowStateDetector {
	return &FlowStateDetector{
		tuning: tuning,
		states: make(map[string]*flowState),
	}
}

// Detect runs one detection tick for a player and returns the new sample.
func (d *FlowStateDetector) Detect(playerID string, skill model.PlayerSkillMetrics, difficulty model.DifficultyMetrics, quality model.GameplayMetrics, now time.Time) model.FlowStateMetrics {
	ind := d.indicators(skill, difficulty, quality)
	score := ind.WeightedScore(d.tuning.Flow)

	d.mu.Lock()
	defer d.mu.Unlock()

	st, ok := d.states[playerID]
	if !ok {
		st = &flowState{}
		d.states[playerID] = st
	}

	phase := d.phase(st, score)
	stability := d.stability(st, score)
	trend := d.trend(st, score)

	if score >= d.tuning.Phases.Maintaining {
		st.aboveTicks++
	} else {
		st.aboveTicks = 0
	}
	duration := float64(st.aboveTicks) * d.tuning.FlowSampleInterval.Seconds()

	m := model.FlowStateMetrics{
		PlayerID:         playerID,
		Timestamp:        now,
		Indicators:       ind,
		OverallFlowScore: score,
		Phase:            phase,
		Stability:        stability,
		Quality:          d.quality(score, stability),
		Duration:         duration,
		Trend:            trend,
		Prediction:       d.predict(st, score, trend),
	}
	m.RiskFactors, m.Opportunities = d.tags(ind, m)

	st.scores = append(st.scores, score)
	st.history = append(st.history, m)
	if limit := d.tuning.FlowHistoryCap; len(st.history) > limit {
		st.history = st.history[len(st.history)-limit:]
		st.scores = st.scores[len(st.scores)-limit:]
	}

	return m
}

// History returns the retained samples for a player, oldest first.
func (d *FlowStateDetector) History(playerID string) []model.FlowStateMetrics {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.states[playerID]
	if !ok {
		return nil
	}
	out := make([]model.FlowStateMetrics, len(st.history))
	copy(out, st.history)
	return out
}

// Latest returns the most recent sample, if any.
func (d *FlowStateDetector) Latest(playerID string) (model.FlowStateMetrics, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.states[playerID]
	if !ok || len(st.history) == 0 {
		return model.FlowStateMetrics{}, false
	}
	return st.history[len(st.history)-1], true
}

// RemovePlayer drops the ring buffer for a player.
func (d *FlowStateDetector) RemovePlayer(playerID string) {
	d.mu.Lock()
	delete(d.states, playerID)
	d.mu.Unlock()
}

func (d *FlowStateDetector) indicators(skill model.PlayerSkillMetrics, difficulty model.DifficultyMetrics, quality model.GameplayMetrics) model.FlowIndicators {
	eng := quality.EngagementLevel
	fru := quality.FrustrationLevel

	return model.FlowIndicators{
		SkillChallengeBalance: model.Clamp01(1 - math.Abs(skill.OverallSkillLevel-difficulty.OverallDifficulty)),
		Concentration:         model.Clamp01((eng + (1 - quality.ErrorRate) + quality.OptimalMoveRate + (1 - fru)) / 4),
		TimeDistortion:        model.Clamp01(0.6*eng + 0.4*quality.FlowStateIndicator),
		IntrinsicMotivation:   model.Clamp01(0.5*eng + 0.3*(1-fru) + 0.2*quality.AdaptationSpeed),
		SelfConsciousness:     model.Clamp01(0.5*(1-fru) + 0.5*skill.ConsistencyLevel),
		Autotelic:             model.Clamp01((eng + (1 - fru)) / 2),
		ControlSense:          model.Clamp01(0.4*skill.OverallSkillLevel + 0.4*(1-quality.ErrorRate) + 0.2*skill.RiskManagement),
		ClearGoals:            model.Clamp01(0.5*quality.OptimalMoveRate + 0.5*skill.StrategicThinking),
		ImmediateFeedback:     model.Clamp01(0.5*skill.DecisionSpeed + 0.5*quality.AdaptationSpeed),
	}
}

// phase runs the threshold+trend state machine against the previous score.
func (d *FlowStateDetector) phase(st *flowState, score float64) model.FlowPhase {
	t := d.tuning.Phases

	if len(st.scores) == 0 {
		if score >= t.Entering {
			return model.PhaseEntering
		}
		return model.PhaseLost
	}
	prev := st.scores[len(st.scores)-1]

	switch {
	case score < t.Entering:
		return model.PhaseLost
	case score >= t.Optimal:
		return model.PhaseMaintaining
	case score >= t.Maintaining:
		if score < prev {
			return model.PhaseDeclining
		}
		return model.PhaseMaintaining
	default: // between entering and maintaining
		if score > prev {
			return model.PhaseEntering
		}
		if score >= t.Declining {
			return model.PhaseDeclining
		}
		return model.PhaseLost
	}
}

// stability is one minus the variance of the last samples plus the current
// score.
func (d *FlowStateDetector) stability(st *flowState, score float64) float64 {
	recent := st.scores
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	sample := append(append([]float64{}, recent...), score)
	if len(sample) < 2 {
		return 1
	}
	variance, err := stats.Variance(sample)
	if err != nil {
		return 1
	}
	return model.Clamp01(1 - variance)
}

func (d *FlowStateDetector) trend(st *flowState, score float64) model.FlowTrend {
	series := append(append([]float64{}, st.scores...), score)
	if len(series) > 4 {
		series = series[len(series)-4:]
	}

	tr := model.FlowTrend{Direction: model.TrendStable}
	if len(series) >= 2 {
		tr.Velocity = series[len(series)-1] - series[len(series)-2]
	}
	if len(series) >= 3 {
		prevVelocity := series[len(series)-2] - series[len(series)-3]
		tr.Acceleration = tr.Velocity - prevVelocity
	}

	switch {
	case tr.Velocity > d.tuning.TrendBand:
		tr.Direction = model.TrendImproving
	case tr.Velocity < -d.tuning.TrendBand:
		tr.Direction = model.TrendDeclining
	}
	return tr
}

// predict projects the score one sample interval ahead.
func (d *FlowStateDetector) predict(st *flowState, score float64, tr model.FlowTrend) model.FlowPrediction {
	projected := model.Clamp01(score + tr.Velocity + tr.Acceleration/2)

	confidence := float64(len(st.scores)+1) / 10
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0.3 {
		confidence = 0.3
	}

	return model.FlowPrediction{
		HorizonSec:     d.tuning.FlowSampleInterval.Seconds(),
		ProjectedScore: projected,
		Confidence:     confidence,
	}
}

func (d *FlowStateDetector) quality(score, stability float64) model.FlowQuality {
	t := d.tuning.Phases
	switch {
	case score >= t.Optimal && stability >= 0.7:
		return model.QualityOptimal
	case score >= t.Optimal:
		return model.QualityDeep
	case score >= t.Maintaining:
		return model.QualityModerate
	default:
		return model.QualityShallow
	}
}

func (d *FlowStateDetector) tags(ind model.FlowIndicators, m model.FlowStateMetrics) (risks, opportunities []string) {
	if ind.SkillChallengeBalance < 0.4 {
		risks = append(risks, "skill_challenge_mismatch")
	}
	if ind.Concentration < 0.4 {
		risks = append(risks, "fading_concentration")
	}
	if m.Stability < 0.4 {
		risks = append(risks, "unstable_flow")
	}
	if m.Trend.Direction == model.TrendDeclining {
		risks = append(risks, "declining_trend")
	}

	if ind.SkillChallengeBalance > 0.8 {
		opportunities = append(opportunities, "deepen_challenge")
	}
	if m.OverallFlowScore >= d.tuning.Phases.Optimal {
		opportunities = append(opportunities, "sustain_peak")
	}
	if m.Trend.Direction == model.TrendImproving {
		opportunities = append(opportunities, "positive_momentum")
	}
	return risks, opportunities
}
