package service

import (
	"sync"
	"time"

	"flowtune/internal/config"
	"flowtune/internal/model"
)

// PredictionModels are deliberately simple heuristic predictors fed by
// validated transitions and skill observations. They are not trained models;
// they project trends and temper them with how well past adjustments worked.
type PredictionModels struct {
	tuning *config.Tuning

	mu      sync.Mutex
	players map[string]*predictionHistory
}

type predictionHistory struct {
	skills      []float64 // overall skill observations, capped
	validated   int
	successful  int
	lastOverall float64 // difficulty after the last validated transition
	hasOverall  bool
}

const skillHistoryCap = 50

// NewPredictionModels creates the predictor set.
func NewPredictionModels(tuning *config.Tuning) *PredictionModels {
	return &PredictionModels{
		tuning:  tuning,
		players: make(map[string]*predictionHistory),
	}
}

// RecordSkill feeds one skill observation into the skill-progression model.
func (p *PredictionModels) RecordSkill(playerID string, overall float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := p.history(playerID)
	h.skills = append(h.skills, overall)
	if len(h.skills) > skillHistoryCap {
		h.skills = h.skills[len(h.skills)-skillHistoryCap:]
	}
}

// RecordTransition feeds a validated transition into the difficulty-response
// model.
func (p *PredictionModels) RecordTransition(t model.DifficultyTransition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := p.history(t.PlayerID)
	h.validated++
	if t.Success {
		h.successful++
	}
	h.lastOverall = t.ToDifficulty.OverallDifficulty
	h.hasOverall = true
}

// RemovePlayer drops predictor state for a player.
func (p *PredictionModels) RemovePlayer(playerID string) {
	p.mu.Lock()
	delete(p.players, playerID)
	p.mu.Unlock()
}

// PredictOptimalDifficulty projects where the overall difficulty should sit
// at the given horizon. Confidence shrinks with horizon length (floor 0.3 at
// one hour) and grows with available history (capped at 10 points).
func (p *PredictionModels) PredictOptimalDifficulty(playerID string, horizon time.Duration) (float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.players[playerID]
	if !ok || len(h.skills) == 0 {
		return 0.5, 0.3
	}

	// Skill progression: project the recent slope forward, one slope step
	// per five minutes of horizon.
	current := h.skills[len(h.skills)-1]
	slope := 0.0
	if len(h.skills) >= 2 {
		recent := h.skills
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		slope = (recent[len(recent)-1] - recent[0]) / float64(len(recent)-1)
	}
	steps := horizon.Minutes() / 5
	projected := model.Clamp01(current + slope*steps)

	// The flow channel sits slightly above projected skill.
	optimal := model.Clamp01(projected + 0.05)

	// Difficulty response: if past adjustments mostly failed, stay closer to
	// the last difficulty that held.
	if h.validated > 0 && h.hasOverall {
		successRate := float64(h.successful) / float64(h.validated)
		optimal = model.Clamp01(successRate*optimal + (1-successRate)*h.lastOverall)
	}

	points := len(h.skills) + h.validated
	if points > 10 {
		points = 10
	}
	confidence := float64(points) / 10
	confidence *= 1 - horizon.Hours()*0.7
	if confidence < 0.3 {
		confidence = 0.3
	}
	if confidence > 1 {
		confidence = 1
	}

	return optimal, confidence
}

func (p *PredictionModels) history(playerID string) *predictionHistory {
	h, ok := p.players[playerID]
	if !ok {
		h = &predictionHistory{}
		p.players[playerID] = h
	}
	return h
}
