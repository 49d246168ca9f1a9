package config

import "time"

// SkillWeights control how the eight skill facets combine into the overall
// skill level. They must sum to 1.0.
type SkillWeights struct {
	DecisionSpeed        float64 `json:"decisionSpeed"`
	StrategicThinking    float64 `json:"strategicThinking"`
	RiskManagement       float64 `json:"riskManagement"`
	ResourceOptimization float64 `json:"resourceOptimization"`
	Adaptability         float64 `json:"adaptability"`
	GameKnowledge        float64 `json:"gameKnowledge"`
	ConsistencyLevel     float64 `json:"consistencyLevel"`
	LearningRate         float64 `json:"learningRate"`
}

// DifficultyWeights control how the eight difficulty knobs combine into the
// overall difficulty. They must sum to 1.0. AI skill carries the largest
// share because it is the knob players feel most directly.
type DifficultyWeights struct {
	AIAggressiveness     float64 `json:"aiAggressiveness"`
	AISkillLevel         float64 `json:"aiSkillLevel"`
	GameComplexity       float64 `json:"gameComplexity"`
	TimePressure         float64 `json:"timePressure"`
	ResourceScarcity     float64 `json:"resourceScarcity"`
	MarketVolatility     float64 `json:"marketVolatility"`
	RandomEventFrequency float64 `json:"randomEventFrequency"`
	CompetitionIntensity float64 `json:"competitionIntensity"`
}

// FlowWeights control how the nine flow indicators combine into the overall
// flow score. Skill-challenge balance is weighted highest.
type FlowWeights struct {
	SkillChallengeBalance float64 `json:"skillChallengeBalance"`
	Concentration         float64 `json:"concentration"`
	TimeDistortion        float64 `json:"timeDistortion"`
	IntrinsicMotivation   float64 `json:"intrinsicMotivation"`
	SelfConsciousness     float64 `json:"selfConsciousness"`
	Autotelic             float64 `json:"autotelic"`
	ControlSense          float64 `json:"controlSense"`
	ClearGoals            float64 `json:"clearGoals"`
	ImmediateFeedback     float64 `json:"immediateFeedback"`
}

// FlowThresholds are the phase boundaries of the flow state machine.
type FlowThresholds struct {
	Entering    float64 `json:"entering"`
	Maintaining float64 `json:"maintaining"`
	Optimal     float64 `json:"optimal"`
	Declining   float64 `json:"declining"`
}

// EmergencyThresholds are the hard limits that bypass the normal adjustment
// gates. Crossing any of them triggers an immediate correction.
type EmergencyThresholds struct {
	Frustration         float64 `json:"frustration"`
	FrustrationCritical float64 `json:"frustrationCritical"`
	Engagement          float64 `json:"engagement"`
	EngagementCritical  float64 `json:"engagementCritical"`
	ErrorRate           float64 `json:"errorRate"`
	ErrorRateCritical   float64 `json:"errorRateCritical"`
	BoredomFlow         float64 `json:"boredomFlow"`
	BoredomEngagement   float64 `json:"boredomEngagement"`
}

// Tuning holds every numeric constant the inference and adjustment formulas
// use, so tuning a deployment never requires a code edit.
type Tuning struct {
	Skill      SkillWeights        `json:"skill"`
	Difficulty DifficultyWeights   `json:"difficulty"`
	Flow       FlowWeights         `json:"flow"`
	Phases     FlowThresholds      `json:"phases"`
	Emergency  EmergencyThresholds `json:"emergency"`

	// Analysis windows and history caps.
	TelemetryWindow   int `json:"telemetryWindow"`   // most recent actions per analysis
	QualityHistoryCap int `json:"qualityHistoryCap"` // per-player quality data points
	FlowHistoryCap    int `json:"flowHistoryCap"`    // per-player flow samples
	TransitionCap     int `json:"transitionCap"`     // per-player transition log
	MinimumDataPoints int `json:"minimumDataPoints"` // below this, no adjustment

	// Decision speed normalization: clamp(1-(avgMs-FloorMs)/RangeMs, 0, 1).
	DecisionTimeFloorMs float64 `json:"decisionTimeFloorMs"`
	DecisionTimeRangeMs float64 `json:"decisionTimeRangeMs"`

	// Knowledge blend: share of the current window vs carried history.
	KnowledgeBlendCurrent float64 `json:"knowledgeBlendCurrent"`

	// Gap analysis.
	FrustrationGapWeight float64 `json:"frustrationGapWeight"`
	EngagementGapWeight  float64 `json:"engagementGapWeight"`
	FlowDampening        float64 `json:"flowDampening"` // gap multiplier inside flow
	FlowDampenAbove      float64 `json:"flowDampenAbove"`
	MaintainBand         float64 `json:"maintainBand"`

	// Adjustment gates.
	ConfidenceGate   float64       `json:"confidenceGate"`
	GapGate          float64       `json:"gapGate"`
	AdjustCooldown   time.Duration `json:"adjustCooldown"`
	AdaptationWindow time.Duration `json:"adaptationWindow"`
	SmoothingFactor  float64       `json:"smoothingFactor"`

	// Timer loops.
	FlowSampleInterval     time.Duration `json:"flowSampleInterval"`
	AdjustInterval         time.Duration `json:"adjustInterval"`
	EmergencySweepInterval time.Duration `json:"emergencySweepInterval"`

	// Validation.
	ValidationPeriod time.Duration `json:"validationPeriod"`

	// Trend detection band for flow velocity.
	TrendBand float64 `json:"trendBand"`
}

// DefaultTuning returns the tuning used in production. The facet weights of
// each group sum to 1.0; TestWeightSums keeps them honest.
func DefaultTuning() *Tuning {
	return &Tuning{
		Skill: SkillWeights{
			DecisionSpeed:        0.10,
			StrategicThinking:    0.20,
			RiskManagement:       0.15,
			ResourceOptimization: 0.15,
			Adaptability:         0.10,
			GameKnowledge:        0.10,
			ConsistencyLevel:     0.10,
			LearningRate:         0.10,
		},
		Difficulty: DifficultyWeights{
			AIAggressiveness:     0.15,
			AISkillLevel:         0.25,
			GameComplexity:       0.15,
			TimePressure:         0.10,
			ResourceScarcity:     0.10,
			MarketVolatility:     0.10,
			RandomEventFrequency: 0.05,
			CompetitionIntensity: 0.10,
		},
		Flow: FlowWeights{
			SkillChallengeBalance: 0.25,
			Concentration:         0.15,
			TimeDistortion:        0.05,
			IntrinsicMotivation:   0.12,
			SelfConsciousness:     0.05,
			Autotelic:             0.08,
			ControlSense:          0.12,
			ClearGoals:            0.09,
			ImmediateFeedback:     0.09,
		},
		Phases: FlowThresholds{
			Entering:    0.3,
			Maintaining: 0.5,
			Optimal:     0.8,
			Declining:   0.4,
		},
		Emergency: EmergencyThresholds{
			Frustration:         0.8,
			FrustrationCritical: 0.9,
			Engagement:          0.3,
			EngagementCritical:  0.2,
			ErrorRate:           0.5,
			ErrorRateCritical:   0.7,
			BoredomFlow:         0.3,
			BoredomEngagement:   0.5,
		},

		TelemetryWindow:   10,
		QualityHistoryCap: 100,
		FlowHistoryCap:    20,
		TransitionCap:     50,
		MinimumDataPoints: 5,

		DecisionTimeFloorMs: 1000,
		DecisionTimeRangeMs: 10000,

		KnowledgeBlendCurrent: 0.7,

		FrustrationGapWeight: 0.5,
		EngagementGapWeight:  0.3,
		FlowDampening:        0.7,
		FlowDampenAbove:      0.7,
		MaintainBand:         0.1,

		ConfidenceGate:   0.6,
		GapGate:          0.15,
		AdjustCooldown:   60 * time.Second,
		AdaptationWindow: 120 * time.Second,
		SmoothingFactor:  0.3,

		FlowSampleInterval:     20 * time.Second,
		AdjustInterval:         30 * time.Second,
		EmergencySweepInterval: 10 * time.Second,

		ValidationPeriod: 120 * time.Second,

		TrendBand: 0.02,
	}
}
