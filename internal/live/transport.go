package live

import (
	"context"

	"github.com/antoniostano/hearth/internal/tools"
)

// OpenParams configures one live model connection.
type OpenParams struct {
	Model               string
	SystemInstruction   string
	Tools               []tools.Declaration
	VoiceID             string
	InputTranscription  bool
	OutputTranscription bool
}

// ToolCall is one function invocation requested by the model mid-turn.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ServerEvent is one message from the live model. Exactly one payload field
// is set per event except for errors, which terminate the stream.
type ServerEvent struct {
	Audio            []byte
	InputTranscript  string
	OutputTranscript string
	ToolCalls        []ToolCall
	TurnComplete     bool
	Interrupted      bool
	Err              error
}

// Conn is an open bidirectional stream to the live model.
type Conn interface {
	SendAudio(ctx context.Context, pcm []byte) error
	SendVideo(ctx context.Context, mimeType string, data []byte) error
	SendText(ctx context.Context, text string) error
	SendToolResponse(ctx context.Context, id, name, response string) error
	Close() error
}

// Transport opens live model connections. The returned channel is closed when
// the stream ends, after any terminal error event.
type Transport interface {
	Open(ctx context.Context, params OpenParams) (Conn, <-chan ServerEvent, error)
}
