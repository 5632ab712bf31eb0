package store

import (
	"context"
	"time"
)

// LeadRecord stores the contact details captured during one session.
type LeadRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	PersonaID string    `json:"persona_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// EntryRecord stores one committed transcript entry.
type EntryRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Seq       int       `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportRecord stores a generated end-of-session summary report.
type ReportRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Email     string    `json:"email"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists session outcomes: leads, transcripts, and reports.
type Store interface {
	SaveLead(ctx context.Context, record LeadRecord) error
	SaveTranscriptEntry(ctx context.Context, record EntryRecord) error
	SaveReport(ctx context.Context, record ReportRecord) error
	SessionTranscript(ctx context.Context, sessionID string) ([]EntryRecord, error)
	Close() error
}
