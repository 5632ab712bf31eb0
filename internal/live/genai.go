package live

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/antoniostano/hearth/internal/audio"
	"github.com/antoniostano/hearth/internal/reliability"
	"github.com/antoniostano/hearth/internal/tools"
)

// GenAITransport opens live sessions against the Gemini Live API.
type GenAITransport struct {
	client *genai.Client
}

func NewGenAITransport(ctx context.Context, apiKey string) (*GenAITransport, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAITransport{client: client}, nil
}

func (t *GenAITransport) Open(ctx context.Context, params OpenParams) (Conn, <-chan ServerEvent, error) {
	config := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: params.SystemInstruction}},
		},
	}
	if params.VoiceID != "" {
		config.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: params.VoiceID},
			},
		}
	}
	if len(params.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarationsToGenAI(params.Tools)}}
	}
	if params.InputTranscription {
		config.InputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	if params.OutputTranscription {
		config.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}

	session, err := t.client.Live.Connect(ctx, params.Model, config)
	if err != nil {
		return nil, nil, &reliability.TransportError{Op: "connect", Retryable: true, Err: err}
	}

	events := make(chan ServerEvent, 32)
	go receiveLoop(session, events)
	return &genaiConn{session: session}, events, nil
}

func receiveLoop(session *genai.Session, events chan<- ServerEvent) {
	defer close(events)
	for {
		msg, err := session.Receive()
		if err != nil {
			events <- ServerEvent{Err: &reliability.TransportError{Op: "receive", Retryable: true, Err: err}}
			return
		}
		for _, ev := range translateMessage(msg) {
			events <- ev
		}
	}
}

// translateMessage flattens one server message into ordered events: audio
// and transcripts first, then tool calls, then the turn boundary.
func translateMessage(msg *genai.LiveServerMessage) []ServerEvent {
	var out []ServerEvent
	if sc := msg.ServerContent; sc != nil {
		if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
			out = append(out, ServerEvent{InputTranscript: sc.InputTranscription.Text})
		}
		if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
			out = append(out, ServerEvent{OutputTranscript: sc.OutputTranscription.Text})
		}
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					out = append(out, ServerEvent{Audio: part.InlineData.Data})
				}
			}
		}
		if sc.Interrupted {
			out = append(out, ServerEvent{Interrupted: true})
		}
		if sc.TurnComplete {
			out = append(out, ServerEvent{TurnComplete: true})
		}
	}
	if tc := msg.ToolCall; tc != nil {
		calls := make([]ToolCall, 0, len(tc.FunctionCalls))
		for _, fc := range tc.FunctionCalls {
			calls = append(calls, ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
		if len(calls) > 0 {
			out = append(out, ServerEvent{ToolCalls: calls})
		}
	}
	return out
}

type genaiConn struct {
	session *genai.Session
}

func (c *genaiConn) SendAudio(_ context.Context, pcm []byte) error {
	err := c.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{
			MIMEType: fmt.Sprintf("audio/pcm;rate=%d", audio.CaptureSampleRate),
			Data:     pcm,
		},
	})
	if err != nil {
		return &reliability.TransportError{Op: "send audio", Retryable: false, Err: err}
	}
	return nil
}

func (c *genaiConn) SendVideo(_ context.Context, mimeType string, data []byte) error {
	err := c.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Video: &genai.Blob{MIMEType: mimeType, Data: data},
	})
	if err != nil {
		return &reliability.TransportError{Op: "send video", Retryable: false, Err: err}
	}
	return nil
}

func (c *genaiConn) SendText(_ context.Context, text string) error {
	err := c.session.SendClientContent(genai.LiveClientContentInput{
		Turns: []*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: text}},
		}},
	})
	if err != nil {
		return &reliability.TransportError{Op: "send text", Retryable: false, Err: err}
	}
	return nil
}

func (c *genaiConn) SendToolResponse(_ context.Context, id, name, response string) error {
	err := c.session.SendToolResponse(genai.LiveToolResponseInput{
		FunctionResponses: []*genai.FunctionResponse{{
			ID:       id,
			Name:     name,
			Response: map[string]any{"result": response},
		}},
	})
	if err != nil {
		return &reliability.TransportError{Op: "send tool response", Retryable: false, Err: err}
	}
	return nil
}

func (c *genaiConn) Close() error {
	return c.session.Close()
}

func declarationsToGenAI(decls []tools.Declaration) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fd := &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
		}
		if len(d.Parameters.Properties) > 0 {
			properties := make(map[string]*genai.Schema, len(d.Parameters.Properties))
			for key, prop := range d.Parameters.Properties {
				properties[key] = &genai.Schema{
					Type:        genaiType(prop.Type),
					Description: prop.Description,
				}
			}
			fd.Parameters = &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   d.Parameters.Required,
			}
		}
		out = append(out, fd)
	}
	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case "boolean":
		return genai.TypeBoolean
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	default:
		return genai.TypeString
	}
}
