package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/hearth/internal/persona"
)

// personaInfo is the widget-configurator view of one persona: enough for a
// site owner to pick a persona and fill in its settings.
type personaInfo struct {
	ID            persona.ID `json:"id"`
	DisplayName   string     `json:"display_name"`
	NeedsVideo    bool       `json:"needs_video"`
	DefaultVoice  string     `json:"default_voice"`
	SalesStyles   []string   `json:"sales_styles,omitempty"`
	PPCVerticals  []string   `json:"ppc_verticals,omitempty"`
	RequiresNotes bool       `json:"requires_custom_instructions,omitempty"`
}

func (s *Server) handleListPersonas(w http.ResponseWriter, _ *http.Request) {
	ids := persona.All()
	out := make([]personaInfo, 0, len(ids))
	for _, id := range ids {
		info := personaInfo{
			ID:           id,
			DisplayName:  persona.DisplayName(id),
			DefaultVoice: persona.DefaultVoiceID,
		}
		switch id {
		case persona.SalesAgent:
			for _, style := range persona.SalesStyles {
				info.SalesStyles = append(info.SalesStyles, style.Name)
			}
		case persona.PPCAgent:
			info.PPCVerticals = persona.PPCVerticals
		case persona.CustomPPCAgent:
			info.RequiresNotes = true
		}
		if p, err := persona.Resolve(id, persona.Settings{CustomInstructions: "placeholder"}); err == nil {
			info.NeedsVideo = p.NeedsVideo
		}
		out = append(out, info)
	}
	respondJSON(w, http.StatusOK, map[string]any{"personas": out})
}

func (s *Server) handleListVoices(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"voices":  persona.Voices,
		"default": persona.DefaultVoiceID,
	})
}

// handleVoiceSample synthesizes a short preview clip so owners can audition a
// voice before assigning it to their widget.
func (s *Server) handleVoiceSample(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if !knownVoice(id) {
		respondError(w, http.StatusNotFound, "voice_not_found", "unknown voice id")
		return
	}
	wav, err := s.orchestrator.VoiceSample(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusBadGateway, "sample_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(wav)
}

func knownVoice(id string) bool {
	for _, v := range persona.Voices {
		if v.ID == id {
			return true
		}
	}
	return false
}
