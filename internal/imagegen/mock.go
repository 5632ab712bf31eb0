package imagegen

import "context"

// MockGenerator is the local fallback generator used when no API key is
// configured. Outputs are canned but well-formed, so the rest of the system
// behaves normally in development.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator { return &MockGenerator{} }

// pngPixel is a 1x1 opaque gray PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53, 0xde, 0x00, 0x00, 0x00,
	0x0c, 0x49, 0x44, 0x41, 0x54, 0x08, 0xd7, 0x63, 0x68, 0x68, 0x68, 0x00,
	0x00, 0x00, 0x04, 0x00, 0x01, 0x27, 0x34, 0x27, 0x0a, 0x00, 0x00, 0x00,
	0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func mockImage() Image {
	return Image{MIMEType: "image/png", Data: pngPixel}
}

func (g *MockGenerator) RemodelImage(_ context.Context, _, _ string, _ Image, _ bool) (Image, error) {
	return mockImage(), nil
}

func (g *MockGenerator) VisualizeRepair(_ context.Context, _ string, _ Image) (Image, error) {
	return mockImage(), nil
}

func (g *MockGenerator) CleanedSlate(_ context.Context, _ Image, _ DamageReport) (Image, error) {
	return mockImage(), nil
}

func (g *MockGenerator) RemodelFromCleaned(_ context.Context, _ Image, _ DamageReport, _ string) (Image, error) {
	return mockImage(), nil
}

func (g *MockGenerator) AnalyzeImage(_ context.Context, _ Image) (string, error) {
	return "A well-lit room with neutral walls and wooden flooring.", nil
}

func (g *MockGenerator) DiagnoseImage(_ context.Context, _ Image) (string, error) {
	return "Minor surface staining consistent with a slow plumbing leak.", nil
}

func (g *MockGenerator) DamageAnalysis(_ context.Context, _ Image) (DamageReport, error) {
	return DamageReport{
		ArchitecturalFeatures: ArchitecturalFeatures{
			RoomDimensions: "approximately 4m x 3m",
			Walls:          []string{"north wall", "east wall"},
			Ceiling:        "flat painted drywall",
			Floor:          "engineered hardwood",
		},
		DamageAssessment: DamageAssessment{
			WaterStains: []string{"lower north wall"},
		},
		PreservationNotes: "Window trim and ceiling appear undamaged.",
	}, nil
}

func (g *MockGenerator) StyleSuggestions(_ context.Context, _ DamageReport) ([]StyleSuggestion, error) {
	return []StyleSuggestion{
		{Name: "Modern Farmhouse", Prompt: "warm whites, shaker cabinets, matte black fixtures"},
		{Name: "Scandinavian", Prompt: "light oak, clean lines, soft textiles"},
		{Name: "Industrial", Prompt: "exposed brick, steel accents, concrete surfaces"},
	}, nil
}

func (g *MockGenerator) SummaryReport(_ context.Context, _, _, _ string) (string, error) {
	return "Thanks for chatting with us today. A summary of your session and selected designs is attached.", nil
}

func (g *MockGenerator) VoiceSample(_ context.Context, _ string) ([]byte, error) {
	// 100ms of silence at the playback rate.
	return make([]byte, 4800), nil
}
