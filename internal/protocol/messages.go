package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	// Widget to server.
	TypeClientAudioChunk MessageType = "client_audio_chunk"
	TypeClientVideoFrame MessageType = "client_video_frame"
	TypeMediaAck         MessageType = "media_ack"
	TypeCreateSpace      MessageType = "create_space"
	TypeBindSurface      MessageType = "bind_surface"
	TypeEndSession       MessageType = "end_session"

	// Server to widget.
	TypeSessionStatus    MessageType = "session_status"
	TypeTranscriptUpdate MessageType = "transcript_update"
	TypeTurnCommitted    MessageType = "turn_committed"
	TypeAgentAudio       MessageType = "agent_audio_chunk"
	TypeAudioFlush       MessageType = "audio_flush"
	TypeMediaDirective   MessageType = "media_directive"
	TypeDesignImage      MessageType = "design_image"
	TypeSystemEvent      MessageType = "system_event"
	TypeErrorEvent       MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

type ClientAudioChunk struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	Seq         int         `json:"seq"`
	PCM16Base64 string      `json:"pcm16_base64"`
	SampleRate  int         `json:"sample_rate"`
	TSMs        int64       `json:"ts_ms"`
}

type ClientVideoFrame struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	MIMEType    string      `json:"mime_type"`
	ImageBase64 string      `json:"image_base64"`
}

// MediaAck answers a media_directive acquire request.
type MediaAck struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Kind      string      `json:"kind"`
	Granted   bool        `json:"granted"`
	TrackID   string      `json:"track_id,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

type CreateSpace struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Name      string      `json:"name"`
}

type BindSurface struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	SurfaceID string      `json:"surface_id"`
}

type EndSession struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
}

type SessionStatus struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Status    string      `json:"status"`
	Detail    string      `json:"detail,omitempty"`
}

type TranscriptUpdate struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	UserText  string      `json:"user_text"`
	ModelText string      `json:"model_text"`
}

type TranscriptEntry struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Seq     int    `json:"seq"`
}

type TurnCommitted struct {
	Type      MessageType       `json:"type"`
	SessionID string            `json:"session_id"`
	Entries   []TranscriptEntry `json:"entries"`
}

// AgentAudioChunk carries one scheduled playback chunk. StartMs is absolute
// server time; the widget maps it onto its own clock and never lets chunks
// overlap.
type AgentAudioChunk struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	Seq         int         `json:"seq"`
	PCM16Base64 string      `json:"pcm16_base64"`
	SampleRate  int         `json:"sample_rate"`
	StartMs     int64       `json:"start_ms"`
	DurationMs  int64       `json:"duration_ms"`
}

// AudioFlush tells the widget to drop all queued playback immediately.
type AudioFlush struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
}

type MediaDirective struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Action    string      `json:"action"`
	Kind      string      `json:"kind,omitempty"`
	SurfaceID string      `json:"surface_id,omitempty"`
}

type DesignImage struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	SpaceID     string      `json:"space_id"`
	ImageID     string      `json:"image_id"`
	Style       string      `json:"style"`
	MIMEType    string      `json:"mime_type"`
	ImageBase64 string      `json:"image_base64"`
}

type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientAudioChunk:
		var msg ClientAudioChunk
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.PCM16Base64 == "" || msg.SampleRate <= 0 {
			return nil, errors.New("invalid client_audio_chunk")
		}
		return msg, nil
	case TypeClientVideoFrame:
		var msg ClientVideoFrame
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.ImageBase64 == "" || msg.MIMEType == "" {
			return nil, errors.New("invalid client_video_frame")
		}
		return msg, nil
	case TypeMediaAck:
		var msg MediaAck
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Kind == "" {
			return nil, errors.New("invalid media_ack")
		}
		return msg, nil
	case TypeCreateSpace:
		var msg CreateSpace
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Name == "" {
			return nil, errors.New("invalid create_space")
		}
		return msg, nil
	case TypeBindSurface:
		var msg BindSurface
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.SurfaceID == "" {
			return nil, errors.New("invalid bind_surface")
		}
		return msg, nil
	case TypeEndSession:
		var msg EndSession
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" {
			return nil, errors.New("invalid end_session")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
