package imagegen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Models selects the backend model per call class.
type Models struct {
	Image    string
	Advanced string
	Fast     string
	TTS      string
}

func DefaultModels() Models {
	return Models{
		Image:    "gemini-2.5-flash-image",
		Advanced: "gemini-2.5-pro",
		Fast:     "gemini-2.5-flash",
		TTS:      "gemini-2.5-flash-preview-tts",
	}
}

// GenAIGenerator implements Generator against the Gemini API.
type GenAIGenerator struct {
	client *genai.Client
	models Models
}

func NewGenAIGenerator(ctx context.Context, apiKey string, models Models) (*GenAIGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIGenerator{client: client, models: models}, nil
}

func (g *GenAIGenerator) RemodelImage(ctx context.Context, styleName, prompt string, base Image, refine bool) (Image, error) {
	p := remodelPrompt(prompt)
	if refine {
		p = refinePrompt(prompt)
	}
	img, err := g.editImage(ctx, p, base)
	if err != nil {
		return Image{}, fmt.Errorf("generate %s design: %w", styleName, err)
	}
	return img, nil
}

func (g *GenAIGenerator) VisualizeRepair(ctx context.Context, prompt string, base Image) (Image, error) {
	return g.editImage(ctx, visualizeRepairPrompt(prompt), base)
}

func (g *GenAIGenerator) CleanedSlate(ctx context.Context, base Image, report DamageReport) (Image, error) {
	return g.editImage(ctx, cleanedSlatePrompt(report), base)
}

func (g *GenAIGenerator) RemodelFromCleaned(ctx context.Context, cleaned Image, report DamageReport, stylePrompt string) (Image, error) {
	return g.editImage(ctx, totalRemodelPrompt(report, stylePrompt), cleaned)
}

func (g *GenAIGenerator) AnalyzeImage(ctx context.Context, img Image) (string, error) {
	return g.describeImage(ctx, analyzeImagePrompt, img)
}

func (g *GenAIGenerator) DiagnoseImage(ctx context.Context, img Image) (string, error) {
	return g.describeImage(ctx, diagnoseImagePrompt, img)
}

func (g *GenAIGenerator) DamageAnalysis(ctx context.Context, img Image) (DamageReport, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: damageAnalysisPrompt},
			{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}},
		},
	}}
	resp, err := g.client.Models.GenerateContent(ctx, g.models.Advanced, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return DamageReport{}, fmt.Errorf("damage analysis: %w", err)
	}
	text := firstText(resp)
	var report DamageReport
	if err := json.Unmarshal([]byte(SanitizeJSON(text)), &report); err != nil {
		return DamageReport{}, fmt.Errorf("parse damage report: %w", err)
	}
	return report, nil
}

func (g *GenAIGenerator) StyleSuggestions(ctx context.Context, report DamageReport) ([]StyleSuggestion, error) {
	contents := genai.Text(styleSuggestionPrompt(report))
	resp, err := g.client.Models.GenerateContent(ctx, g.models.Fast, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("style suggestions: %w", err)
	}
	var suggestions []StyleSuggestion
	if err := json.Unmarshal([]byte(SanitizeJSON(firstText(resp))), &suggestions); err != nil {
		return nil, fmt.Errorf("parse style suggestions: %w", err)
	}
	return suggestions, nil
}

func (g *GenAIGenerator) SummaryReport(ctx context.Context, personaID, transcript, leadSummary string) (string, error) {
	contents := genai.Text(summaryReportPrompt(personaID, transcript, leadSummary))
	resp, err := g.client.Models.GenerateContent(ctx, g.models.Fast, contents, nil)
	if err != nil {
		return "", fmt.Errorf("summary report: %w", err)
	}
	text := strings.TrimSpace(firstText(resp))
	if text == "" {
		return "", fmt.Errorf("summary report: empty model response")
	}
	return text, nil
}

func (g *GenAIGenerator) VoiceSample(ctx context.Context, voiceName string) ([]byte, error) {
	contents := genai.Text("Hello! I'm excited to be your virtual assistant. How does my voice sound?")
	resp, err := g.client.Models.GenerateContent(ctx, g.models.TTS, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voiceName},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("voice sample: %w", err)
	}
	if blob := firstBlob(resp); blob != nil {
		return blob.Data, nil
	}
	return nil, fmt.Errorf("voice sample: no audio data returned")
}

func (g *GenAIGenerator) editImage(ctx context.Context, prompt string, base Image) (Image, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: base.MIMEType, Data: base.Data}},
		},
	}}
	resp, err := g.client.Models.GenerateContent(ctx, g.models.Image, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	})
	if err != nil {
		return Image{}, fmt.Errorf("generate image: %w", err)
	}
	if blob := firstBlob(resp); blob != nil {
		return Image{MIMEType: blob.MIMEType, Data: blob.Data}, nil
	}
	return Image{}, fmt.Errorf("generate image: no image data returned")
}

func (g *GenAIGenerator) describeImage(ctx context.Context, prompt string, img Image) (string, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}},
		},
	}}
	resp, err := g.client.Models.GenerateContent(ctx, g.models.Fast, contents, nil)
	if err != nil {
		return "", fmt.Errorf("analyze image: %w", err)
	}
	text := strings.TrimSpace(firstText(resp))
	if text == "" {
		return "", fmt.Errorf("analyze image: empty model response")
	}
	return text, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	return out.String()
}

func firstBlob(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil {
			return part.InlineData
		}
	}
	return nil
}

// SanitizeJSON strips markdown code fences models sometimes wrap around JSON.
func SanitizeJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
