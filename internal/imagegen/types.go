package imagegen

import "context"

// Image is a binary image payload exchanged with the generation backend.
type Image struct {
	MIMEType string
	Data     []byte
}

// DamageReport is the structured output of the water damage analysis call.
type DamageReport struct {
	ArchitecturalFeatures ArchitecturalFeatures `json:"architectural_features"`
	DamageAssessment      DamageAssessment      `json:"damage_assessment"`
	ItemsToRemove         []string              `json:"items_to_remove"`
	PreservationNotes     string                `json:"preservation_notes"`
}

type ArchitecturalFeatures struct {
	RoomDimensions string   `json:"room_dimensions"`
	Walls          []string `json:"walls"`
	Windows        []string `json:"windows"`
	Doors          []string `json:"doors"`
	Ceiling        string   `json:"ceiling"`
	Floor          string   `json:"floor"`
}

type DamageAssessment struct {
	StandingWater Finding  `json:"standing_water"`
	WaterStains   []string `json:"water_stains"`
	Mold          Finding  `json:"mold"`
}

type Finding struct {
	Present   bool     `json:"present"`
	Locations []string `json:"locations"`
}

// StyleSuggestion is one proposed design direction for a room.
type StyleSuggestion struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

// Generator is the non-streaming generation capability: image edits, image
// analysis, structured reports, and voice samples. Every call is a single
// retryable unit; failures are returned, never retried here.
type Generator interface {
	RemodelImage(ctx context.Context, styleName, prompt string, base Image, refine bool) (Image, error)
	VisualizeRepair(ctx context.Context, prompt string, base Image) (Image, error)
	CleanedSlate(ctx context.Context, base Image, report DamageReport) (Image, error)
	RemodelFromCleaned(ctx context.Context, cleaned Image, report DamageReport, stylePrompt string) (Image, error)
	AnalyzeImage(ctx context.Context, img Image) (string, error)
	DiagnoseImage(ctx context.Context, img Image) (string, error)
	DamageAnalysis(ctx context.Context, img Image) (DamageReport, error)
	StyleSuggestions(ctx context.Context, report DamageReport) ([]StyleSuggestion, error)
	SummaryReport(ctx context.Context, personaID, transcript, leadSummary string) (string, error)
	VoiceSample(ctx context.Context, voiceName string) ([]byte, error)
}
