package service

// Event types emitted on the notification channel.
const (
	EventAdjustmentApplied   = "adjustment_applied"
	EventEmergencyTriggered  = "emergency_triggered"
	EventTransitionValidated = "transition_validated"
	EventFlowPhaseChanged    = "flow_phase_changed"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToObservers(eventType string, payload interface{})
	BroadcastToPlayer(playerID string, eventType string, payload interface{})
}
