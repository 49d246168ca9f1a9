package service

import (
	"math"
	"testing"

	"flowtune/internal/config"
	"flowtune/internal/model"
)

func TestAnalyzeQualityEmptyWindow(t *testing.T) {
	q := NewQualityAnalyzer(config.DefaultTuning())
	m := q.AnalyzeQuality("p1", nil, nil)

	if m.ErrorRate != 0 {
		t.Errorf("errorRate = %v, want 0 so a silent window never reads as an emergency", m.ErrorRate)
	}
	if m.WinRate != 0.5 {
		t.Errorf("winRate = %v, want neutral 0.5", m.WinRate)
	}
	if m.FrustrationLevel != 0.5 {
		t.Errorf("frustrationLevel = %v, want neutral 0.5", m.FrustrationLevel)
	}
}

func TestErrorStreakRaisesFrustration(t *testing.T) {
	q := NewQualityAnalyzer(config.DefaultTuning())

	clean := make([]model.ActionTelemetry, 0, 6)
	errs := make([]model.ActionTelemetry, 0, 6)
	for i := 0; i < 6; i++ {
		a := actionAt(i)
		a.IsError = bptr(false)
		clean = append(clean, a)

		b := actionAt(i)
		b.IsError = bptr(true)
		errs = append(errs, b)
	}

	calm := q.AnalyzeQuality("p1", clean, nil)
	tense := q.AnalyzeQuality("p2", errs, nil)

	if tense.FrustrationLevel <= calm.FrustrationLevel {
		t.Errorf("error streak frustration %v not above clean %v", tense.FrustrationLevel, calm.FrustrationLevel)
	}
	if tense.ErrorRate != 1.0 {
		t.Errorf("errorRate = %v, want 1.0", tense.ErrorRate)
	}
}

func TestEngagementUsesSessionMetrics(t *testing.T) {
	q := NewQualityAnalyzer(config.DefaultTuning())

	session := &model.SessionMetrics{
		PlayerID:         "p1",
		SessionDuration:  600,
		IdleTime:         60,
		FeatureUsageRate: 0.8,
	}
	window := []model.ActionTelemetry{actionAt(0), actionAt(1), actionAt(2)}

	m := q.AnalyzeQuality("p1", window, session)
	if m.EngagementLevel <= 0.5 {
		t.Errorf("engagementLevel = %v, want above neutral for an active session", m.EngagementLevel)
	}
}

func TestEngagementSmoothedAgainstPrevious(t *testing.T) {
	q := NewQualityAnalyzer(config.DefaultTuning())

	lively := &model.SessionMetrics{SessionDuration: 600, IdleTime: 0, FeatureUsageRate: 1.0}
	dead := &model.SessionMetrics{SessionDuration: 600, IdleTime: 600, FeatureUsageRate: 0.0}
	window := []model.ActionTelemetry{actionAt(0), actionAt(1), actionAt(2)}

	first := q.AnalyzeQuality("p1", window, lively)
	second := q.AnalyzeQuality("p1", window, dead)

	// The drop is blended against the previous reading, so it cannot hit the
	// raw floor in one step.
	if second.EngagementLevel >= first.EngagementLevel {
		t.Fatalf("engagement did not drop: %v then %v", first.EngagementLevel, second.EngagementLevel)
	}
	if second.EngagementLevel < 0.3*first.EngagementLevel-1e-9 {
		t.Errorf("engagement %v dropped below the smoothed floor %v", second.EngagementLevel, 0.3*first.EngagementLevel)
	}
}

func TestFlowIndicatorComposition(t *testing.T) {
	q := NewQualityAnalyzer(config.DefaultTuning())

	window := make([]model.ActionTelemetry, 0, 6)
	for i := 0; i < 6; i++ {
		a := actionAt(i)
		a.IsOptimal = bptr(true)
		a.IsError = bptr(false)
		window = append(window, a)
	}
	m := q.AnalyzeQuality("p1", window, nil)

	want := model.Clamp01(0.4*m.EngagementLevel + 0.3*(1-m.FrustrationLevel) + 0.3*m.OptimalMoveRate)
	if math.Abs(m.FlowStateIndicator-want) > 1e-9 {
		t.Errorf("flowStateIndicator = %v, want %v", m.FlowStateIndicator, want)
	}
}

func TestAverageGameDurationAccumulates(t *testing.T) {
	q := NewQualityAnalyzer(config.DefaultTuning())

	window := []model.ActionTelemetry{actionAt(0)}
	q.AnalyzeQuality("p1", window, &model.SessionMetrics{SessionDuration: 600})
	m := q.AnalyzeQuality("p1", window, &model.SessionMetrics{SessionDuration: 1200})

	if math.Abs(m.AverageGameDuration-900) > 1e-9 {
		t.Errorf("averageGameDuration = %v, want 900", m.AverageGameDuration)
	}
}
