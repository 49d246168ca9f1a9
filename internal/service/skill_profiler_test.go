package service

import (
	"math"
	"testing"
	"time"

	"flowtune/internal/config"
	"flowtune/internal/model"
)

func fptr(v float64) *float64 { return &v }
func bptr(v bool) *bool       { return &v }

// actionAt builds a telemetry action n seconds after a fixed base time.
func actionAt(n int) model.ActionTelemetry {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return model.ActionTelemetry{
		PlayerID:  "p1",
		Timestamp: base.Add(time.Duration(n) * 5 * time.Second),
	}
}

func TestAnalyzeSkillEmptyWindow(t *testing.T) {
	p := NewSkillProfiler(config.DefaultTuning())
	m := p.AnalyzeSkill("p1", nil)

	facets := map[string]float64{
		"decisionSpeed":        m.DecisionSpeed,
		"strategicThinking":    m.StrategicThinking,
		"riskManagement":       m.RiskManagement,
		"resourceOptimization": m.ResourceOptimization,
		"adaptability":         m.Adaptability,
		"gameKnowledge":        m.GameKnowledge,
		"consistencyLevel":     m.ConsistencyLevel,
		"learningRate":         m.LearningRate,
	}
	for name, v := range facets {
		if v != 0.5 {
			t.Errorf("%s = %v, want neutral 0.5", name, v)
		}
	}
	if math.Abs(m.OverallSkillLevel-0.5) > 1e-9 {
		t.Errorf("overall = %v, want 0.5", m.OverallSkillLevel)
	}
}

func TestDecisionSpeedNormalization(t *testing.T) {
	tests := []struct {
		name string
		ms   float64
		want float64
	}{
		{"instant", 1000, 1.0},
		{"midrange", 6000, 0.5},
		{"past range", 11000, 0.0},
		{"beyond range clamps", 30000, 0.0},
	}
	p := NewSkillProfiler(config.DefaultTuning())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := actionAt(0)
			a.DecisionTimeMs = fptr(tt.ms)
			m := p.AnalyzeSkill("p-speed-"+tt.name, []model.ActionTelemetry{a})
			if math.Abs(m.DecisionSpeed-tt.want) > 1e-9 {
				t.Errorf("decisionSpeed = %v, want %v", m.DecisionSpeed, tt.want)
			}
		})
	}
}

func TestRiskManagementRewardsPayoff(t *testing.T) {
	p := NewSkillProfiler(config.DefaultTuning())

	win := actionAt(0)
	win.RiskLevel = fptr(0.8)
	win.IsSuccess = bptr(true)
	m := p.AnalyzeSkill("p1", []model.ActionTelemetry{win})
	if m.RiskManagement <= 0.5 {
		t.Errorf("successful high risk = %v, want above 0.5", m.RiskManagement)
	}

	loss := actionAt(0)
	loss.RiskLevel = fptr(0.8)
	loss.IsSuccess = bptr(false)
	m = p.AnalyzeSkill("p2", []model.ActionTelemetry{loss})
	if m.RiskManagement >= 0.5 {
		t.Errorf("failed high risk = %v, want below 0.5", m.RiskManagement)
	}
}

func TestAnalyzeSkillIdempotent(t *testing.T) {
	p := NewSkillProfiler(config.DefaultTuning())

	window := make([]model.ActionTelemetry, 0, 8)
	for i := 0; i < 8; i++ {
		a := actionAt(i)
		a.Type = model.ActionTrade
		a.IsOptimal = bptr(i%2 == 0)
		a.IsSuccess = bptr(true)
		window = append(window, a)
	}

	first := p.AnalyzeSkill("p1", window)
	second := p.AnalyzeSkill("p1", window)

	if first.GameKnowledge != second.GameKnowledge {
		t.Errorf("gameKnowledge drifted on re-analysis: %v then %v", first.GameKnowledge, second.GameKnowledge)
	}
	if first.OverallSkillLevel != second.OverallSkillLevel {
		t.Errorf("overall drifted on re-analysis: %v then %v", first.OverallSkillLevel, second.OverallSkillLevel)
	}
}

func TestGameKnowledgeAdvancesOnNewActions(t *testing.T) {
	p := NewSkillProfiler(config.DefaultTuning())

	weak := actionAt(0)
	weak.IsOptimal = bptr(false)
	p.AnalyzeSkill("p1", []model.ActionTelemetry{weak})

	strong := actionAt(1)
	strong.IsOptimal = bptr(true)
	m := p.AnalyzeSkill("p1", []model.ActionTelemetry{strong})

	// Blend of a strong window against the weak carried value lands between.
	if m.GameKnowledge <= 0.3 || m.GameKnowledge >= 0.9 {
		t.Errorf("blended gameKnowledge = %v, want between carried and current", m.GameKnowledge)
	}
}

func TestLearningRateDetectsImprovement(t *testing.T) {
	p := NewSkillProfiler(config.DefaultTuning())

	window := make([]model.ActionTelemetry, 0, 10)
	for i := 0; i < 10; i++ {
		a := actionAt(i)
		a.IsOptimal = bptr(i >= 5) // bad early, good late
		window = append(window, a)
	}

	m := p.AnalyzeSkill("p1", window)
	if m.LearningRate <= 0.5 {
		t.Errorf("learningRate = %v, want above 0.5 for an improving window", m.LearningRate)
	}
}

func TestConsistencyPenalizesVariance(t *testing.T) {
	p := NewSkillProfiler(config.DefaultTuning())

	steady := make([]model.ActionTelemetry, 0, 6)
	erratic := make([]model.ActionTelemetry, 0, 6)
	for i := 0; i < 6; i++ {
		a := actionAt(i)
		a.IsOptimal = bptr(true)
		steady = append(steady, a)

		b := actionAt(i)
		b.IsOptimal = bptr(i%2 == 0)
		erratic = append(erratic, b)
	}

	ms := p.AnalyzeSkill("p1", steady)
	me := p.AnalyzeSkill("p2", erratic)
	if ms.ConsistencyLevel <= me.ConsistencyLevel {
		t.Errorf("steady consistency %v not above erratic %v", ms.ConsistencyLevel, me.ConsistencyLevel)
	}
}

func TestWindowTrimsToMostRecent(t *testing.T) {
	tuning := config.DefaultTuning()
	p := NewSkillProfiler(tuning)

	// Old half all errors, recent window all clean. Only the recent
	// TelemetryWindow actions should count.
	window := make([]model.ActionTelemetry, 0, tuning.TelemetryWindow*2)
	for i := 0; i < tuning.TelemetryWindow; i++ {
		a := actionAt(i)
		a.IsOptimal = bptr(false)
		window = append(window, a)
	}
	for i := tuning.TelemetryWindow; i < tuning.TelemetryWindow*2; i++ {
		a := actionAt(i)
		a.IsOptimal = bptr(true)
		window = append(window, a)
	}

	m := p.AnalyzeSkill("p1", window)
	if m.StrategicThinking != 1.0 {
		t.Errorf("strategicThinking = %v, want 1.0 when only the clean recent window counts", m.StrategicThinking)
	}
}
