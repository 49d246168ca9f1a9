package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"flowtune/internal/cache"
	"flowtune/internal/config"
	"flowtune/internal/model"
	"flowtune/internal/repository"
)

// AdjustmentEngine owns the live difficulty per player. It runs the analysis
// pipeline over incoming telemetry, lets the emergency responder short-
// circuit the normal path, selects and applies strategies under cooldown and
// adaptation gates, and records every applied transition.
type AdjustmentEngine struct {
	tuning     *config.Tuning
	profiler   *SkillProfiler
	analyzer   *QualityAnalyzer
	gap        *GapAnalyzer
	responder  *EmergencyResponder
	detector   *FlowStateDetector
	validator  *ValidationTracker
	predictors *PredictionModels
	scheduler  *Scheduler
	strategies []Strategy

	clock func() time.Time

	mu     sync.Mutex
	states map[string]*playerState

	broadcaster    Broadcaster
	transitionRepo repository.TransitionRepo
	telemetryRepo  repository.TelemetryRepo
	diffCache      cache.DifficultyCache
	flowCache      cache.FlowCache
}

// playerState is everything the engine carries per player. Each player has
// its own lock so pipelines for different players never block each other.
type playerState struct {
	mu sync.Mutex

	difficulty      model.DifficultyMetrics
	lastAdjustment  time.Time
	adaptationUntil time.Time
	lastStrategyUse map[string]time.Time

	transitions []model.DifficultyTransition
	dataPoints  int

	lastSkill   model.PlayerSkillMetrics
	lastQuality model.GameplayMetrics
	hasQuality  bool
	lastWindow  []model.ActionTelemetry

	emergencyActive bool
	lastPhase       model.FlowPhase
}

// NewAdjustmentEngine wires the analysis pipeline together. Persistence and
// broadcasting are optional and injected via setters.
func NewAdjustmentEngine(
	tuning *config.Tuning,
	profiler *SkillProfiler,
	analyzer *QualityAnalyzer,
	gap *GapAnalyzer,
	responder *EmergencyResponder,
	detector *FlowStateDetector,
	validator *ValidationTracker,
	predictors *PredictionModels,
	scheduler *Scheduler,
) *AdjustmentEngine {
	e := &AdjustmentEngine{
		tuning:     tuning,
		profiler:   profiler,
		analyzer:   analyzer,
		gap:        gap,
		responder:  responder,
		detector:   detector,
		validator:  validator,
		predictors: predictors,
		scheduler:  scheduler,
		strategies: defaultStrategies(),
		clock:      time.Now,
		states:     make(map[string]*playerState),
	}

	validator.SetQualitySource(e.latestQuality)
	validator.SetOnValidated(e.onValidated)
	return e
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (e *AdjustmentEngine) SetBroadcaster(b Broadcaster) {
	e.broadcaster = b
}

// SetTransitionRepo enables durable transition storage
func (e *AdjustmentEngine) SetTransitionRepo(r repository.TransitionRepo) {
	e.transitionRepo = r
}

// SetTelemetryRepo enables the telemetry archive used by the background loops
func (e *AdjustmentEngine) SetTelemetryRepo(r repository.TelemetryRepo) {
	e.telemetryRepo = r
}

// SetDifficultyCache enables the published difficulty read model
func (e *AdjustmentEngine) SetDifficultyCache(c cache.DifficultyCache) {
	e.diffCache = c
}

// SetFlowCache enables the published flow history
func (e *AdjustmentEngine) SetFlowCache(c cache.FlowCache) {
	e.flowCache = c
}

// SetClock overrides the time source.
func (e *AdjustmentEngine) SetClock(clock func() time.Time) {
	e.clock = clock
}

// ProcessAdjustment runs the full pipeline for one telemetry batch. A nil
// transition with a nil error is a normal no-op: gating declined to adjust.
func (e *AdjustmentEngine) ProcessAdjustment(ctx context.Context, playerID string, batch model.TelemetryBatch) (tr *model.DifficultyTransition, err error) {
	defer func() {
		if r := recover(); r != nil {
			tr = nil
			err = fmt.Errorf("adjustment pipeline for player %s: %v", playerID, r)
		}
	}()

	if len(batch.Actions) == 0 {
		return nil, nil
	}

	if e.telemetryRepo != nil {
		if err := e.telemetryRepo.InsertActions(ctx, batch.Actions); err != nil {
			log.Printf("Warning: failed to archive telemetry for %s: %v", playerID, err)
		}
	}

	return e.process(ctx, playerID, batch.Actions, batch.Session, true)
}

func (e *AdjustmentEngine) process(ctx context.Context, playerID string, actions []model.ActionTelemetry, session *model.SessionMetrics, fresh bool) (*model.DifficultyTransition, error) {
	st := e.state(playerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	now := e.clock()

	skill := e.profiler.AnalyzeSkill(playerID, actions)
	quality := e.analyzer.AnalyzeQuality(playerID, actions, session)

	st.lastSkill = skill
	st.lastQuality = quality
	st.hasQuality = true
	st.lastWindow = actions
	if fresh {
		st.dataPoints += len(actions)
		e.predictors.RecordSkill(playerID, skill.OverallSkillLevel)
	}

	// The emergency check runs before and independently of the normal gates.
	if !st.emergencyActive {
		if resp := e.responder.Check(st.difficultyLocked(e.tuning), quality); resp != nil {
			t := e.applyEmergencyLocked(ctx, st, playerID, resp, quality, now)
			return t, nil
		}
	} else {
		// Recovery ramp in progress; do not fight it.
		return nil, nil
	}

	if len(actions) < e.tuning.MinimumDataPoints {
		return nil, nil
	}

	rec := e.gap.Analyze(skill, quality, st.difficultyLocked(e.tuning), st.dataPoints)

	if rec.Direction == model.DirectionMaintain {
		return nil, nil
	}
	if rec.Confidence < e.tuning.ConfidenceGate {
		return nil, nil
	}
	if math.Abs(rec.Gap) < e.tuning.GapGate {
		return nil, nil
	}
	if !st.lastAdjustment.IsZero() && now.Sub(st.lastAdjustment) < e.tuning.AdjustCooldown {
		return nil, nil
	}
	if now.Before(st.adaptationUntil) {
		return nil, nil
	}

	strategy := selectStrategy(e.strategies, rec, skill.OverallSkillLevel, quality.FlowStateIndicator)
	if strategy == nil {
		return nil, nil
	}
	if last, ok := st.lastStrategyUse[strategy.ID]; ok && now.Sub(last) < strategy.Cooldown {
		return nil, nil
	}

	from := st.difficultyLocked(e.tuning)
	to := e.applyStrategy(from, strategy, rec)

	t := model.DifficultyTransition{
		ID:             uuid.New().String(),
		Timestamp:      now,
		PlayerID:       playerID,
		FromDifficulty: from,
		ToDifficulty:   to,
		StrategyID:     strategy.ID,
		Reason:         fmt.Sprintf("%s (gap %+.2f, %s priority)", strategy.Name, rec.Gap, rec.Priority),
		ExpectedImpact: rec.ExpectedImpact,
	}

	st.difficulty = to
	st.lastAdjustment = now
	st.adaptationUntil = now.Add(e.tuning.AdaptationWindow)
	if st.lastStrategyUse == nil {
		st.lastStrategyUse = make(map[string]time.Time)
	}
	st.lastStrategyUse[strategy.ID] = now
	e.recordTransitionLocked(st, t)

	e.publishDifficulty(ctx, playerID, to)
	e.persistTransition(ctx, t)
	e.notify(EventAdjustmentApplied, playerID, t)
	e.validator.Schedule(t, quality)

	return &t, nil
}

// applyStrategy moves each target knob via the strategy's adjustment
// function, bounded by its constraints, then smooths the whole vector toward
// the result so players never see a jump.
func (e *AdjustmentEngine) applyStrategy(from model.DifficultyMetrics, s *Strategy, rec model.AdjustmentRecommendation) model.DifficultyMetrics {
	stepped := from
	for _, knob := range s.Targets {
		target, ok := rec.TargetMetrics[knob]
		if !ok {
			continue
		}
		cur := from.Get(knob)
		v := s.Adjust(cur, target, rec.Magnitude)
		if v < s.Constraints.Min {
			v = s.Constraints.Min
		}
		if v > s.Constraints.Max {
			v = s.Constraints.Max
		}
		if step := s.Constraints.MaxStep; math.Abs(v-cur) > step {
			if v > cur {
				v = cur + step
			} else {
				v = cur - step
			}
		}
		stepped.Set(knob, v)
	}
	stepped.ComputeOverall(e.tuning.Difficulty)

	smoothed := from
	for _, knob := range model.Knobs {
		f := from.Get(knob)
		smoothed.Set(knob, f+(stepped.Get(knob)-f)*e.tuning.SmoothingFactor)
	}
	smoothed.ComputeOverall(e.tuning.Difficulty)
	return smoothed
}

// applyEmergencyLocked applies the immediate correction and schedules the
// staged recovery. Caller holds st.mu.
func (e *AdjustmentEngine) applyEmergencyLocked(ctx context.Context, st *playerState, playerID string, resp *model.EmergencyResponse, quality model.GameplayMetrics, now time.Time) *model.DifficultyTransition {
	from := st.difficultyLocked(e.tuning)

	t := model.DifficultyTransition{
		ID:             uuid.New().String(),
		Timestamp:      now,
		PlayerID:       playerID,
		FromDifficulty: from,
		ToDifficulty:   resp.ImmediateAction,
		StrategyID:     StrategyEmergencyReduction,
		Reason:         fmt.Sprintf("emergency: %s (%s)", resp.Type, resp.Severity),
		ExpectedImpact: model.Impact{
			EngagementDelta:  0.3,
			FrustrationDelta: -0.4,
			FlowStateDelta:   0.35,
			RetentionDelta:   0.2,
		},
	}

	st.difficulty = resp.ImmediateAction
	st.lastAdjustment = now
	st.emergencyActive = true
	e.recordTransitionLocked(st, t)

	e.publishDifficulty(ctx, playerID, resp.ImmediateAction)
	e.persistTransition(ctx, t)
	e.notify(EventEmergencyTriggered, playerID, map[string]interface{}{
		"playerId":   playerID,
		"type":       resp.Type,
		"severity":   resp.Severity,
		"transition": t,
	})

	// Staged recovery, evenly spread over the estimated recovery time. The
	// last step clears the emergency state.
	steps := len(resp.FollowUpActions)
	if steps > 0 {
		interval := resp.EstimatedRecovery / time.Duration(steps)
		for i, action := range resp.FollowUpActions {
			action := action
			last := i == steps-1
			key := fmt.Sprintf("emergency:%s:%d", playerID, i)
			e.scheduler.Schedule(key, interval*time.Duration(i+1), func() {
				e.applyRecoveryStep(playerID, action, last)
			})
		}
	} else {
		st.emergencyActive = false
	}

	e.validator.Schedule(t, quality)
	return &t
}

func (e *AdjustmentEngine) applyRecoveryStep(playerID string, action model.DifficultyMetrics, last bool) {
	// The step may already be dequeued when EndSession cancels the prefix.
	st, ok := e.lookupState(playerID)
	if !ok {
		return
	}
	st.mu.Lock()
	action.ComputeOverall(e.tuning.Difficulty)
	st.difficulty = action
	if last {
		st.emergencyActive = false
	}
	st.mu.Unlock()

	e.publishDifficulty(context.Background(), playerID, action)
	e.notify(EventAdjustmentApplied, playerID, map[string]interface{}{
		"playerId": playerID,
		"reason":   "emergency-recovery",
		"final":    last,
	})
}

// GetDifficulty returns the live difficulty for one player, creating the
// neutral default on first reference.
func (e *AdjustmentEngine) GetDifficulty(playerID string) model.DifficultyMetrics {
	st := e.state(playerID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.difficultyLocked(e.tuning)
}

// Transitions returns the retained transition log, newest last.
func (e *AdjustmentEngine) Transitions(playerID string) []model.DifficultyTransition {
	st := e.state(playerID)
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]model.DifficultyTransition, len(st.transitions))
	copy(out, st.transitions)
	return out
}

// TransitionHistory returns up to limit transitions, newest last. The
// retained in-memory log answers most reads; limits beyond it fall back to
// the durable archive. A limit of zero means the whole retained log.
func (e *AdjustmentEngine) TransitionHistory(ctx context.Context, playerID string, limit int) []model.DifficultyTransition {
	mem := e.Transitions(playerID)
	if limit <= 0 {
		return mem
	}
	if limit <= len(mem) {
		return mem[len(mem)-limit:]
	}
	if e.transitionRepo == nil {
		return mem
	}
	archived, err := e.transitionRepo.ListByPlayer(ctx, playerID, limit)
	if err != nil {
		log.Printf("Warning: failed to list archived transitions for %s: %v", playerID, err)
		return mem
	}
	if len(archived) <= len(mem) {
		return mem
	}
	// The archive sorts newest first.
	out := make([]model.DifficultyTransition, len(archived))
	for i := range archived {
		out[len(archived)-1-i] = archived[i]
	}
	return out
}

// ActivePlayers lists players with live state.
func (e *AdjustmentEngine) ActivePlayers() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	players := make([]string, 0, len(e.states))
	for id := range e.states {
		players = append(players, id)
	}
	return players
}

// EndSession cancels every pending timer for the player, drops all live
// state and purges the telemetry archive. Archived transitions are kept.
func (e *AdjustmentEngine) EndSession(ctx context.Context, playerID string) {
	e.scheduler.CancelPrefix("emergency:" + playerID + ":")
	e.validator.CancelPlayer(playerID)

	e.mu.Lock()
	delete(e.states, playerID)
	e.mu.Unlock()

	e.profiler.RemovePlayer(playerID)
	e.analyzer.RemovePlayer(playerID)
	e.detector.RemovePlayer(playerID)
	e.predictors.RemovePlayer(playerID)

	if e.diffCache != nil {
		if err := e.diffCache.Delete(ctx, playerID); err != nil {
			log.Printf("Warning: failed to clear difficulty cache for %s: %v", playerID, err)
		}
	}
	if e.flowCache != nil {
		if err := e.flowCache.Delete(ctx, playerID); err != nil {
			log.Printf("Warning: failed to clear flow cache for %s: %v", playerID, err)
		}
	}
	if e.telemetryRepo != nil {
		if err := e.telemetryRepo.DeleteByPlayer(ctx, playerID); err != nil {
			log.Printf("Warning: failed to purge telemetry for %s: %v", playerID, err)
		}
	}
	log.Printf("Session ended for player %s", playerID)
}

// RunFlowSampler runs the flow detection tick loop until ctx is canceled.
func (e *AdjustmentEngine) RunFlowSampler(ctx context.Context) {
	ticker := time.NewTicker(e.tuning.FlowSampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, playerID := range e.ActivePlayers() {
				e.sampleFlow(ctx, playerID)
			}
		}
	}
}

func (e *AdjustmentEngine) sampleFlow(ctx context.Context, playerID string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: flow sampling for %s: %v", playerID, r)
		}
	}()

	st := e.state(playerID)
	st.mu.Lock()
	if !st.hasQuality {
		st.mu.Unlock()
		return
	}
	skill := st.lastSkill
	quality := st.lastQuality
	difficulty := st.difficultyLocked(e.tuning)
	prevPhase := st.lastPhase
	st.mu.Unlock()

	sample := e.detector.Detect(playerID, skill, difficulty, quality, e.clock())

	st.mu.Lock()
	st.lastPhase = sample.Phase
	st.mu.Unlock()

	if e.flowCache != nil {
		if err := e.flowCache.PushSample(ctx, playerID, &sample, e.tuning.FlowHistoryCap); err != nil {
			log.Printf("Warning: failed to publish flow sample for %s: %v", playerID, err)
		}
	}
	if prevPhase != "" && prevPhase != sample.Phase {
		e.notify(EventFlowPhaseChanged, playerID, map[string]interface{}{
			"playerId": playerID,
			"from":     prevPhase,
			"to":       sample.Phase,
			"score":    sample.OverallFlowScore,
		})
	}
}

// RunAdjustmentLoop re-runs the pipeline for every active player on a global
// interval, re-reading the recent window from the telemetry archive.
func (e *AdjustmentEngine) RunAdjustmentLoop(ctx context.Context) {
	ticker := time.NewTicker(e.tuning.AdjustInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, playerID := range e.ActivePlayers() {
				e.loopAdjust(ctx, playerID)
			}
		}
	}
}

func (e *AdjustmentEngine) loopAdjust(ctx context.Context, playerID string) {
	actions := e.recentWindow(ctx, playerID)
	if len(actions) == 0 {
		return
	}
	if _, err := e.process(ctx, playerID, actions, nil, false); err != nil {
		log.Printf("Warning: adjustment loop for %s: %v", playerID, err)
	}
}

// RunEmergencySweep runs the fast safety check loop until ctx is canceled.
func (e *AdjustmentEngine) RunEmergencySweep(ctx context.Context) {
	ticker := time.NewTicker(e.tuning.EmergencySweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, playerID := range e.ActivePlayers() {
				e.sweepEmergency(ctx, playerID)
			}
		}
	}
}

func (e *AdjustmentEngine) sweepEmergency(ctx context.Context, playerID string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: emergency sweep for %s: %v", playerID, r)
		}
	}()

	st := e.state(playerID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.hasQuality || st.emergencyActive {
		return
	}
	resp := e.responder.Check(st.difficultyLocked(e.tuning), st.lastQuality)
	if resp == nil {
		return
	}
	e.applyEmergencyLocked(ctx, st, playerID, resp, st.lastQuality, e.clock())
}

// PredictOptimalDifficulty exposes the heuristic predictors.
func (e *AdjustmentEngine) PredictOptimalDifficulty(playerID string, horizon time.Duration) (float64, float64) {
	return e.predictors.PredictOptimalDifficulty(playerID, horizon)
}

func (e *AdjustmentEngine) recentWindow(ctx context.Context, playerID string) []model.ActionTelemetry {
	if e.telemetryRepo != nil {
		actions, err := e.telemetryRepo.RecentActions(ctx, playerID, e.tuning.TelemetryWindow)
		if err == nil && len(actions) > 0 {
			return actions
		}
		if err != nil {
			log.Printf("Warning: failed to fetch recent telemetry for %s: %v", playerID, err)
		}
	}
	st := e.state(playerID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastWindow
}

// lookupState returns the player's state without creating it.
func (e *AdjustmentEngine) lookupState(playerID string) (*playerState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[playerID]
	return st, ok
}

func (e *AdjustmentEngine) state(playerID string) *playerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[playerID]
	if !ok {
		st = &playerState{lastStrategyUse: make(map[string]time.Time)}
		e.states[playerID] = st
	}
	return st
}

// difficultyLocked returns the live difficulty, initializing the neutral
// default on first reference. Caller holds st.mu.
func (st *playerState) difficultyLocked(tuning *config.Tuning) model.DifficultyMetrics {
	if st.difficulty.OverallDifficulty == 0 && st.difficulty.AISkillLevel == 0 {
		st.difficulty = model.DefaultDifficulty(tuning.Difficulty)
	}
	return st.difficulty
}

func (e *AdjustmentEngine) recordTransitionLocked(st *playerState, t model.DifficultyTransition) {
	st.transitions = append(st.transitions, t)
	if limit := e.tuning.TransitionCap; len(st.transitions) > limit {
		st.transitions = st.transitions[len(st.transitions)-limit:]
	}
}

func (e *AdjustmentEngine) latestQuality(playerID string) (model.GameplayMetrics, bool) {
	st := e.state(playerID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.hasQuality {
		return model.GameplayMetrics{}, false
	}
	return st.lastQuality, true
}

// onValidated finalizes a transition after the delayed re-measurement.
func (e *AdjustmentEngine) onValidated(t model.DifficultyTransition) {
	st := e.state(t.PlayerID)
	st.mu.Lock()
	for i := range st.transitions {
		if st.transitions[i].ID == t.ID {
			st.transitions[i] = t
			break
		}
	}
	st.mu.Unlock()

	e.predictors.RecordTransition(t)

	if e.transitionRepo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.transitionRepo.SetValidation(ctx, t.ID, t.ActualImpact, t.PlayerReaction, t.Success); err != nil {
			log.Printf("Warning: failed to persist validation for transition %s: %v", t.ID, err)
		}
	}
	e.notify(EventTransitionValidated, t.PlayerID, t)
}

func (e *AdjustmentEngine) publishDifficulty(ctx context.Context, playerID string, d model.DifficultyMetrics) {
	if e.diffCache == nil {
		return
	}
	if err := e.diffCache.SetDifficulty(ctx, playerID, &d); err != nil {
		log.Printf("Warning: failed to publish difficulty for %s: %v", playerID, err)
	}
}

func (e *AdjustmentEngine) persistTransition(ctx context.Context, t model.DifficultyTransition) {
	if e.transitionRepo == nil {
		return
	}
	if err := e.transitionRepo.Insert(ctx, &t); err != nil {
		log.Printf("Warning: failed to persist transition %s: %v", t.ID, err)
	}
}

func (e *AdjustmentEngine) notify(eventType, playerID string, payload interface{}) {
	if e.broadcaster == nil {
		return
	}
	e.broadcaster.BroadcastToObservers(eventType, payload)
	e.broadcaster.BroadcastToPlayer(playerID, eventType, payload)
}
