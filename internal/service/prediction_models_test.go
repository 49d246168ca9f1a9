package service

import (
	"testing"
	"time"

	"flowtune/internal/config"
	"flowtune/internal/model"
)

func TestPredictWithoutData(t *testing.T) {
	p := NewPredictionModels(config.DefaultTuning())
	optimal, confidence := p.PredictOptimalDifficulty("nobody", 10*time.Minute)
	if optimal != 0.5 {
		t.Errorf("optimal = %v, want neutral 0.5", optimal)
	}
	if confidence != 0.3 {
		t.Errorf("confidence = %v, want floor 0.3", confidence)
	}
}

func TestPredictProjectsRisingSkill(t *testing.T) {
	p := NewPredictionModels(config.DefaultTuning())
	for _, s := range []float64{0.4, 0.45, 0.5, 0.55, 0.6} {
		p.RecordSkill("p1", s)
	}

	optimal, confidence := p.PredictOptimalDifficulty("p1", 10*time.Minute)
	if optimal <= 0.6 {
		t.Errorf("optimal = %v, want above current skill for a rising player", optimal)
	}
	if confidence <= 0.3 {
		t.Errorf("confidence = %v, want above the floor with history", confidence)
	}
}

func TestPredictConfidenceShrinksWithHorizon(t *testing.T) {
	p := NewPredictionModels(config.DefaultTuning())
	for i := 0; i < 10; i++ {
		p.RecordSkill("p1", 0.5)
	}

	_, near := p.PredictOptimalDifficulty("p1", 5*time.Minute)
	_, far := p.PredictOptimalDifficulty("p1", time.Hour)
	if far >= near {
		t.Errorf("far confidence %v not below near %v", far, near)
	}
	if far < 0.3 {
		t.Errorf("far confidence %v fell below the floor", far)
	}
}

func TestPredictTempersWithFailedAdjustments(t *testing.T) {
	p := NewPredictionModels(config.DefaultTuning())
	for _, s := range []float64{0.3, 0.5, 0.7, 0.9} {
		p.RecordSkill("p1", s)
	}

	held := model.DifficultyMetrics{OverallDifficulty: 0.45}
	for i := 0; i < 4; i++ {
		p.RecordTransition(model.DifficultyTransition{
			PlayerID:     "p1",
			ToDifficulty: held,
			Success:      false,
		})
	}

	optimal, _ := p.PredictOptimalDifficulty("p1", 10*time.Minute)
	if optimal != 0.45 {
		t.Errorf("optimal = %v, want the last difficulty that held when every adjustment failed", optimal)
	}
}

func TestRemovePlayerResetsPredictors(t *testing.T) {
	p := NewPredictionModels(config.DefaultTuning())
	p.RecordSkill("p1", 0.9)
	p.RemovePlayer("p1")

	optimal, confidence := p.PredictOptimalDifficulty("p1", 10*time.Minute)
	if optimal != 0.5 || confidence != 0.3 {
		t.Errorf("got %v/%v after removal, want 0.5/0.3", optimal, confidence)
	}
}
