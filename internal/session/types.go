package session

import (
	"time"

	"github.com/antoniostano/hearth/internal/persona"
)

// CreateRequest defines payload for creating a new widget session.
type CreateRequest struct {
	VisitorID string           `json:"visitor_id"`
	PersonaID string           `json:"persona_id"`
	Settings  persona.Settings `json:"settings"`
}

// CreateResponse returns created session metadata.
type CreateResponse struct {
	SessionID       string     `json:"session_id"`
	VisitorID       string     `json:"visitor_id"`
	Status          Status     `json:"status"`
	PersonaID       persona.ID `json:"persona_id"`
	VoiceID         string     `json:"voice_id"`
	StartedAt       time.Time  `json:"started_at"`
	LastActivityAt  time.Time  `json:"last_activity_at"`
	InactivityTTLMS int64      `json:"inactivity_ttl_ms"`
}
