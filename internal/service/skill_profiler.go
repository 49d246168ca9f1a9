package service

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	"flowtune/internal/config"
	"flowtune/internal/model"
)

const neutralFacet = 0.5

// SkillProfiler converts a rolling window of action telemetry into normalized
// skill metrics. It is stateless except for the carried game-knowledge blend,
// which only advances when the window actually contains new actions, so
// re-analyzing the same window is idempotent.
type SkillProfiler struct {
	tuning *config.Tuning

	mu        sync.Mutex
	knowledge map[string]*knowledgeState
}

type knowledgeState struct {
	value    float64
	lastSeen time.Time
}

// NewSkillProfiler creates a skill profiler.
func NewSkillProfiler(tuning *config.Tuning) *SkillProfiler {
	return &SkillProfiler{
		tuning:    tuning,
		knowledge: make(map[string]*knowledgeState),
	}
}

// AnalyzeSkill computes skill metrics from the most recent telemetry window.
// An empty window yields the neutral default (0.5) on every facet.
func (p *SkillProfiler) AnalyzeSkill(playerID string, window []model.ActionTelemetry) model.PlayerSkillMetrics {
	if n := p.tuning.TelemetryWindow; len(window) > n {
		window = window[len(window)-n:]
	}

	m := model.PlayerSkillMetrics{
		PlayerID:  playerID,
		UpdatedAt: time.Now(),
	}

	m.DecisionSpeed = p.decisionSpeed(window)
	m.StrategicThinking = p.strategicThinking(window)
	m.RiskManagement = p.riskManagement(window)
	m.ResourceOptimization = p.resourceOptimization(window)
	m.Adaptability = p.adaptability(window)
	m.GameKnowledge = p.gameKnowledge(playerID, window)
	m.ConsistencyLevel = p.consistency(window)
	m.LearningRate = p.learningRate(window)

	m.ComputeOverall(p.tuning.Skill)
	return m
}

// RemovePlayer drops the carried state for a player.
func (p *SkillProfiler) RemovePlayer(playerID string) {
	p.mu.Lock()
	delete(p.knowledge, playerID)
	p.mu.Unlock()
}

// decisionSpeed maps the average decision time onto [0,1]: instant answers
// near 1, answers past the configured range near 0.
func (p *SkillProfiler) decisionSpeed(window []model.ActionTelemetry) float64 {
	var sum float64
	var n int
	for _, a := range window {
		if a.DecisionTimeMs != nil {
			sum += *a.DecisionTimeMs
			n++
		}
	}
	if n == 0 {
		return neutralFacet
	}
	avg := sum / float64(n)
	return model.Clamp01(1 - (avg-p.tuning.DecisionTimeFloorMs)/p.tuning.DecisionTimeRangeMs)
}

// actionQuality scores one action from its outcome flags. The second return
// is false when the action carries no outcome information.
func actionQuality(a model.ActionTelemetry) (float64, bool) {
	var sum float64
	var n int
	if a.IsOptimal != nil {
		if *a.IsOptimal {
			sum++
		}
		n++
	}
	if a.IsSuccess != nil {
		if *a.IsSuccess {
			sum++
		}
		n++
	}
	if a.IsError != nil {
		if !*a.IsError {
			sum++
		}
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func qualityScores(window []model.ActionTelemetry) []float64 {
	scores := make([]float64, 0, len(window))
	for _, a := range window {
		if q, ok := actionQuality(a); ok {
			scores = append(scores, q)
		}
	}
	return scores
}

func (p *SkillProfiler) strategicThinking(window []model.ActionTelemetry) float64 {
	scores := qualityScores(window)
	if len(scores) == 0 {
		return neutralFacet
	}
	mean, err := stats.Mean(scores)
	if err != nil {
		return neutralFacet
	}
	return model.Clamp01(mean)
}

// riskManagement rewards risks that pay off and penalizes ones that do not.
// A successful high-risk action scores above neutral, a failed one below.
func (p *SkillProfiler) riskManagement(window []model.ActionTelemetry) float64 {
	var sum float64
	var n int
	for _, a := range window {
		if a.RiskLevel == nil || a.IsSuccess == nil {
			continue
		}
		risk := model.Clamp01(*a.RiskLevel)
		if *a.IsSuccess {
			sum += 0.5 + 0.5*risk
		} else {
			sum += 0.5 - 0.5*risk
		}
		n++
	}
	if n == 0 {
		return neutralFacet
	}
	return model.Clamp01(sum / float64(n))
}

// resourceOptimization measures output per unit of input cost; an efficiency
// of 2x or better saturates the facet.
func (p *SkillProfiler) resourceOptimization(window []model.ActionTelemetry) float64 {
	var sum float64
	var n int
	for _, a := range window {
		if a.OutputValue == nil || a.InputCost == nil || *a.InputCost <= 0 {
			continue
		}
		sum += model.Clamp01(*a.OutputValue / *a.InputCost / 2)
		n++
	}
	if n == 0 {
		return neutralFacet
	}
	return model.Clamp01(sum / float64(n))
}

// adaptability blends action variety with error recovery: how often an error
// is immediately followed by a successful action.
func (p *SkillProfiler) adaptability(window []model.ActionTelemetry) float64 {
	if len(window) == 0 {
		return neutralFacet
	}

	types := make(map[model.ActionType]bool)
	for _, a := range window {
		if a.Type != model.ActionUndefined {
			types[a.Type] = true
		}
	}
	variety := model.Clamp01(float64(len(types)) / 4)

	var errs, recovered int
	for i, a := range window {
		if a.IsError == nil || !*a.IsError {
			continue
		}
		errs++
		if i+1 < len(window) {
			next := window[i+1]
			if next.IsSuccess != nil && *next.IsSuccess {
				recovered++
			}
		}
	}

	if len(types) == 0 && errs == 0 {
		return neutralFacet
	}
	if errs == 0 {
		return model.Clamp01(0.5*variety + 0.5*neutralFacet)
	}
	recovery := float64(recovered) / float64(errs)
	return model.Clamp01(0.5*variety + 0.5*recovery)
}

// gameKnowledge blends the current window against carried history. The
// carried value only advances when the window contains actions newer than the
// last analyzed ones.
func (p *SkillProfiler) gameKnowledge(playerID string, window []model.ActionTelemetry) float64 {
	var optimal, flagged int
	var newest time.Time
	types := make(map[model.ActionType]bool)
	for _, a := range window {
		if a.IsOptimal != nil {
			flagged++
			if *a.IsOptimal {
				optimal++
			}
		}
		if a.Type != model.ActionUndefined {
			types[a.Type] = true
		}
		if a.Timestamp.After(newest) {
			newest = a.Timestamp
		}
	}
	if flagged == 0 && len(types) == 0 {
		return neutralFacet
	}

	current := neutralFacet
	if flagged > 0 {
		current = float64(optimal) / float64(flagged)
	}
	current = model.Clamp01(0.7*current + 0.3*model.Clamp01(float64(len(types))/4))

	p.mu.Lock()
	defer p.mu.Unlock()

	ks, ok := p.knowledge[playerID]
	if !ok {
		p.knowledge[playerID] = &knowledgeState{value: current, lastSeen: newest}
		return current
	}
	if !newest.After(ks.lastSeen) {
		// Same window re-analyzed: do not advance the blend.
		blended := model.Clamp01(p.tuning.KnowledgeBlendCurrent*current + (1-p.tuning.KnowledgeBlendCurrent)*ks.value)
		return blended
	}

	blended := model.Clamp01(p.tuning.KnowledgeBlendCurrent*current + (1-p.tuning.KnowledgeBlendCurrent)*ks.value)
	ks.value = blended
	ks.lastSeen = newest
	return blended
}

func (p *SkillProfiler) consistency(window []model.ActionTelemetry) float64 {
	scores := qualityScores(window)
	if len(scores) < 2 {
		return neutralFacet
	}
	variance, err := stats.Variance(scores)
	if err != nil {
		return neutralFacet
	}
	v := 1 - variance
	if v < 0 {
		v = 0
	}
	return model.Clamp01(v)
}

// learningRate compares the most recent quality points against the preceding
// ones. Fewer than 3 points is insufficient history.
func (p *SkillProfiler) learningRate(window []model.ActionTelemetry) float64 {
	scores := qualityScores(window)
	if len(scores) < 3 {
		return neutralFacet
	}

	recentN := 5
	if recentN > len(scores)/2 {
		recentN = len(scores) / 2
	}
	if recentN == 0 {
		return neutralFacet
	}

	recent, err1 := stats.Mean(scores[len(scores)-recentN:])
	earlier, err2 := stats.Mean(scores[:len(scores)-recentN])
	if err1 != nil || err2 != nil {
		return neutralFacet
	}
	return model.Clamp01(0.5 + (recent - earlier))
}
