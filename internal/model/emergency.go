package model

import "time"

// EmergencyType names the condition that tripped the emergency check.
type EmergencyType string

const (
	EmergencyFrustration   EmergencyType = "frustration"
	EmergencyDisengagement EmergencyType = "disengagement"
	EmergencyOverload      EmergencyType = "overload"
	EmergencyBoredom       EmergencyType = "boredom"
)

// Severity grades an emergency.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// EmergencyResponse is an immediate difficulty correction plus a staged
// recovery ramp back toward neutral.
type EmergencyResponse struct {
	Triggered         bool                `json:"triggered"`
	Type              EmergencyType       `json:"type,omitempty"`
	Severity          Severity            `json:"severity,omitempty"`
	ImmediateAction   DifficultyMetrics   `json:"immediateAction"`
	FollowUpActions   []DifficultyMetrics `json:"followUpActions,omitempty"`
	EstimatedRecovery time.Duration       `json:"estimatedRecovery"`
}
