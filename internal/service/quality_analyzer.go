package service

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	"flowtune/internal/config"
	"flowtune/internal/model"
)

// QualityAnalyzer converts the telemetry window plus longer-lived per-player
// history into gameplay quality metrics: engagement, frustration, error rate
// and the flow indicator that feed the gap analyzer and the emergency check.
type QualityAnalyzer struct {
	tuning *config.Tuning

	mu      sync.Mutex
	history map[string]*qualityHistory
}

type qualityHistory struct {
	points         []float64 // per-window composite quality, FIFO capped
	durations      []float64 // session durations, seconds
	prevEngagement float64
	hasPrev        bool
}

// NewQualityAnalyzer creates a quality analyzer.
func NewQualityAnalyzer(tuning *config.Tuning) *QualityAnalyzer {
	return &QualityAnalyzer{
		tuning:  tuning,
		history: make(map[string]*qualityHistory),
	}
}

// AnalyzeQuality computes gameplay quality from the recent window and the
// optional session metrics. Facets with no contributing actions fall back to
// 0.5, except error rate which defaults to 0 so a silent window never reads
// as an emergency.
func (q *QualityAnalyzer) AnalyzeQuality(playerID string, window []model.ActionTelemetry, session *model.SessionMetrics) model.GameplayMetrics {
	if n := q.tuning.TelemetryWindow; len(window) > n {
		window = window[len(window)-n:]
	}

	m := model.GameplayMetrics{
		PlayerID:  playerID,
		UpdatedAt: time.Now(),
	}

	m.WinRate = rateOf(window, func(a model.ActionTelemetry) (bool, bool) {
		if a.IsSuccess == nil {
			return false, false
		}
		return *a.IsSuccess, true
	}, neutralFacet)

	m.ErrorRate = rateOf(window, func(a model.ActionTelemetry) (bool, bool) {
		if a.IsError == nil {
			return false, false
		}
		return *a.IsError, true
	}, 0)

	m.OptimalMoveRate = rateOf(window, func(a model.ActionTelemetry) (bool, bool) {
		if a.IsOptimal == nil {
			return false, false
		}
		return *a.IsOptimal, true
	}, neutralFacet)

	m.AverageDecisionTime = avgDecisionTime(window)
	m.RiskTakingBehavior = avgRisk(window)
	m.AdaptationSpeed = q.adaptationSpeed(window)

	hist := q.playerHistory(playerID)

	m.EngagementLevel = q.engagement(hist, window, session)
	m.FrustrationLevel = q.frustration(window, m)
	m.FlowStateIndicator = model.Clamp01(
		0.4*m.EngagementLevel + 0.3*(1-m.FrustrationLevel) + 0.3*m.OptimalMoveRate)

	m.AverageGameDuration = q.recordSession(hist, window, session)

	return m
}

// RemovePlayer drops the carried history for a player.
func (q *QualityAnalyzer) RemovePlayer(playerID string) {
	q.mu.Lock()
	delete(q.history, playerID)
	q.mu.Unlock()
}

func (q *QualityAnalyzer) playerHistory(playerID string) *qualityHistory {
	q.mu.Lock()
	defer q.mu.Unlock()
	h, ok := q.history[playerID]
	if !ok {
		h = &qualityHistory{}
		q.history[playerID] = h
	}
	return h
}

// rateOf counts flagged actions; def is returned when nothing contributed.
func rateOf(window []model.ActionTelemetry, flag func(model.ActionTelemetry) (bool, bool), def float64) float64 {
	var hits, n int
	for _, a := range window {
		v, ok := flag(a)
		if !ok {
			continue
		}
		n++
		if v {
			hits++
		}
	}
	if n == 0 {
		return def
	}
	return float64(hits) / float64(n)
}

func avgDecisionTime(window []model.ActionTelemetry) float64 {
	var sum float64
	var n int
	for _, a := range window {
		if a.DecisionTimeMs != nil {
			sum += *a.DecisionTimeMs
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func avgRisk(window []model.ActionTelemetry) float64 {
	var sum float64
	var n int
	for _, a := range window {
		if a.RiskLevel != nil {
			sum += model.Clamp01(*a.RiskLevel)
			n++
		}
	}
	if n == 0 {
		return neutralFacet
	}
	return model.Clamp01(sum / float64(n))
}

// adaptationSpeed compares quality in the back half of the window against the
// front half: recovering players score above neutral.
func (q *QualityAnalyzer) adaptationSpeed(window []model.ActionTelemetry) float64 {
	scores := qualityScores(window)
	if len(scores) < 4 {
		return neutralFacet
	}
	half := len(scores) / 2
	early, err1 := stats.Mean(scores[:half])
	late, err2 := stats.Mean(scores[half:])
	if err1 != nil || err2 != nil {
		return neutralFacet
	}
	return model.Clamp01(0.5 + (late - early))
}

// engagement blends idle share, action cadence and feature usage, smoothed
// against the previous reading with the same 70/30 split the profiler uses.
func (q *QualityAnalyzer) engagement(hist *qualityHistory, window []model.ActionTelemetry, session *model.SessionMetrics) float64 {
	var parts []float64

	if session != nil && session.SessionDuration > 0 {
		active := 1 - model.Clamp01(session.IdleTime/session.SessionDuration)
		parts = append(parts, active)
		parts = append(parts, model.Clamp01(session.FeatureUsageRate))
	}

	if len(window) >= 2 {
		span := window[len(window)-1].Timestamp.Sub(window[0].Timestamp).Minutes()
		if span > 0 {
			// 6 actions per minute saturates the cadence part.
			cadence := model.Clamp01(float64(len(window)) / span / 6)
			parts = append(parts, cadence)
		}
	}

	if len(parts) == 0 {
		if hist.hasPrev {
			return hist.prevEngagement
		}
		return neutralFacet
	}

	mean, err := stats.Mean(parts)
	if err != nil {
		return neutralFacet
	}
	current := model.Clamp01(mean)

	q.mu.Lock()
	defer q.mu.Unlock()
	if hist.hasPrev {
		current = model.Clamp01(0.7*current + 0.3*hist.prevEngagement)
	}
	hist.prevEngagement = current
	hist.hasPrev = true
	return current
}

// frustration composes error pressure, decision-time stress and the longest
// consecutive error streak.
func (q *QualityAnalyzer) frustration(window []model.ActionTelemetry, m model.GameplayMetrics) float64 {
	if len(window) == 0 {
		return neutralFacet
	}

	stress := 0.0
	if m.AverageDecisionTime > 0 {
		stress = model.Clamp01((m.AverageDecisionTime - q.tuning.DecisionTimeFloorMs) / q.tuning.DecisionTimeRangeMs)
	}

	var streak, longest int
	for _, a := range window {
		if a.IsError != nil && *a.IsError {
			streak++
			if streak > longest {
				longest = streak
			}
		} else {
			streak = 0
		}
	}
	streakPressure := model.Clamp01(float64(longest) / 5)

	return model.Clamp01(0.4*m.ErrorRate + 0.3*stress + 0.3*streakPressure)
}

// recordSession appends the window's composite quality and session duration
// to the capped per-player history and returns the average game duration.
func (q *QualityAnalyzer) recordSession(hist *qualityHistory, window []model.ActionTelemetry, session *model.SessionMetrics) float64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	if scores := qualityScores(window); len(scores) > 0 {
		if mean, err := stats.Mean(scores); err == nil {
			hist.points = append(hist.points, mean)
			if len(hist.points) > q.tuning.QualityHistoryCap {
				hist.points = hist.points[len(hist.points)-q.tuning.QualityHistoryCap:]
			}
		}
	}

	if session != nil && session.SessionDuration > 0 {
		hist.durations = append(hist.durations, session.SessionDuration)
		if len(hist.durations) > q.tuning.QualityHistoryCap {
			hist.durations = hist.durations[len(hist.durations)-q.tuning.QualityHistoryCap:]
		}
	}

	if len(hist.durations) == 0 {
		return 0
	}
	mean, err := stats.Mean(hist.durations)
	if err != nil {
		return 0
	}
	return mean
}
