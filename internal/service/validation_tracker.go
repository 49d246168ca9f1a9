package service

import (
	"fmt"
	"log"
	"math"
	"sync"

	"flowtune/internal/config"
	"flowtune/internal/model"
)

// ValidationTracker re-measures a player some time after each adjustment and
// scores whether the adjustment achieved its expected impact.
type ValidationTracker struct {
	tuning    *config.Tuning
	scheduler *Scheduler

	mu      sync.Mutex
	pending map[string]pendingValidation

	qualitySource func(playerID string) (model.GameplayMetrics, bool)
	onValidated   func(t model.DifficultyTransition)
}

type pendingValidation struct {
	transition model.DifficultyTransition
	before     model.GameplayMetrics
}

// NewValidationTracker creates a validation tracker.
func NewValidationTracker(tuning *config.Tuning, scheduler *Scheduler) *ValidationTracker {
	return &ValidationTracker{
		tuning:    tuning,
		scheduler: scheduler,
		pending:   make(map[string]pendingValidation),
	}
}

// SetQualitySource sets the callback used to capture post-adjustment metrics
func (v *ValidationTracker) SetQualitySource(fn func(playerID string) (model.GameplayMetrics, bool)) {
	v.qualitySource = fn
}

// SetOnValidated sets the completion hook
func (v *ValidationTracker) SetOnValidated(fn func(t model.DifficultyTransition)) {
	v.onValidated = fn
}

// Schedule queues a delayed re-measurement for a transition.
func (v *ValidationTracker) Schedule(t model.DifficultyTransition, before model.GameplayMetrics) {
	v.mu.Lock()
	v.pending[t.ID] = pendingValidation{transition: t, before: before}
	v.mu.Unlock()

	key := fmt.Sprintf("validate:%s:%s", t.PlayerID, t.ID)
	v.scheduler.Schedule(key, v.tuning.ValidationPeriod, func() {
		v.validate(t.ID)
	})
}

// CancelPlayer drops every pending validation for a player.
func (v *ValidationTracker) CancelPlayer(playerID string) {
	v.scheduler.CancelPrefix("validate:" + playerID + ":")
	v.mu.Lock()
	for id, p := range v.pending {
		if p.transition.PlayerID == playerID {
			delete(v.pending, id)
		}
	}
	v.mu.Unlock()
}

func (v *ValidationTracker) validate(transitionID string) {
	v.mu.Lock()
	p, ok := v.pending[transitionID]
	delete(v.pending, transitionID)
	v.mu.Unlock()
	if !ok {
		return
	}

	if v.qualitySource == nil {
		log.Printf("validation: no quality source configured, dropping transition %s", transitionID)
		return
	}
	after, ok := v.qualitySource(p.transition.PlayerID)
	if !ok {
		// Could not capture post-adjustment metrics; success stays false.
		log.Printf("validation: no post-adjustment metrics for player %s, transition %s left unvalidated",
			p.transition.PlayerID, transitionID)
		return
	}

	actual, reaction, success := ScoreAdjustment(p.before, after, p.transition.ExpectedImpact, v.tuning.ValidationPeriod.Seconds())

	t := p.transition
	t.ActualImpact = &actual
	t.PlayerReaction = &reaction
	t.Success = success

	if v.onValidated != nil {
		v.onValidated(t)
	}
}

// ScoreAdjustment computes the measured impact, the player reaction and the
// success verdict from metrics captured before and after an adjustment.
func ScoreAdjustment(before, after model.GameplayMetrics, expected model.Impact, adaptationSeconds float64) (model.Impact, model.PlayerReaction, bool) {
	engDelta := after.EngagementLevel - before.EngagementLevel
	fruDelta := after.FrustrationLevel - before.FrustrationLevel

	retention := model.Clamp01(0.5 + engDelta - math.Max(0, fruDelta))
	actual := model.Impact{
		EngagementDelta:  engDelta,
		FrustrationDelta: fruDelta,
		FlowStateDelta:   (engDelta - fruDelta) / 2,
		RetentionDelta:   retention - 0.5,
	}

	reaction := model.PlayerReaction{
		SatisfactionDelta:   (engDelta - fruDelta) / 2,
		EngagementDelta:     engDelta,
		FrustrationDelta:    fruDelta,
		PerformanceDelta:    after.OptimalMoveRate - before.OptimalMoveRate,
		RetentionLikelihood: retention,
		AdaptationTime:      adaptationSeconds,
	}

	success := math.Abs(engDelta-expected.EngagementDelta) < 0.3 &&
		math.Abs(fruDelta-expected.FrustrationDelta) < 0.3 &&
		actual.RetentionDelta > -0.1

	return actual, reaction, success
}
