package persona

import (
	"fmt"
	"strings"

	"github.com/antoniostano/hearth/internal/reliability"
	"github.com/antoniostano/hearth/internal/tools"
)

type ID string

const (
	RemodelingConsultant   ID = "remodeling_consultant"
	WaterDamageRestoration ID = "water_damage_restoration"
	ContractorAgent        ID = "contractor_agent"
	SalesAgent             ID = "sales_agent"
	PPCAgent               ID = "ppc_agent"
	CustomPPCAgent         ID = "customizable_ppc_agent"
	LiveVoiceAgent         ID = "live_voice_agent"
)

const (
	DefaultAgentName       = "Elena"
	DefaultVoiceID         = "Zephyr"
	DefaultContractorTrade = "General Contractor (GC)"
)

// Settings carries the widget owner's configuration for a persona. Resolution
// is pure: the same settings always produce the same profile.
type Settings struct {
	AgentName              string `json:"agent_name"`
	VoiceID                string `json:"voice_id"`
	ContractorTrade        string `json:"contractor_trade"`
	SalesStyle             string `json:"sales_style"`
	PPCVertical            string `json:"ppc_vertical"`
	CustomInstructions     string `json:"custom_instructions"`
	OpeningMessage         string `json:"opening_message"`
	AdditionalInstructions string `json:"additional_instructions"`
}

// Profile is the resolved configuration bundle handed to the session
// controller. Computed, never persisted.
type Profile struct {
	ID                ID
	DisplayName       string
	SystemInstruction string
	Tools             []tools.Declaration
	VoiceID           string
	NeedsVideo        bool
}

var remodelingTools = []tools.Declaration{
	tools.RemodelRoomDeclaration,
	tools.RefineRemodelDesignDeclaration,
	tools.CaptureLeadDetailsDeclaration,
	tools.SendDesignReportDeclaration,
	tools.CreateCalendarEventDeclaration,
	tools.SwitchToScanningModeDeclaration,
	tools.SetActiveSpaceDeclaration,
}

var waterDamageTools = []tools.Declaration{
	tools.RemodelCleanedRoomDeclaration,
	tools.CaptureLeadDetailsDeclaration,
	tools.SendDesignReportDeclaration,
	tools.CreateCalendarEventDeclaration,
	tools.SwitchToScanningModeDeclaration,
	tools.SetActiveSpaceDeclaration,
}

var contractorTools = []tools.Declaration{
	tools.DiagnoseProblemDeclaration,
	tools.VisualizeRepairDeclaration,
	tools.CaptureLeadDetailsDeclaration,
	tools.SendDesignReportDeclaration,
	tools.CreateCalendarEventDeclaration,
}

var liveAgentTools = []tools.Declaration{
	tools.CaptureLeadDetailsDeclaration,
	tools.SendDesignReportDeclaration,
	tools.CreateCalendarEventDeclaration,
}

// The customizable PPC persona never captures phone leads itself; callers are
// routed through the click-to-call number instead.
var customPPCTools = []tools.Declaration{
	tools.SendDesignReportDeclaration,
	tools.CreateCalendarEventDeclaration,
}

// All lists the shipped persona IDs in display order.
func All() []ID {
	return []ID{
		RemodelingConsultant,
		WaterDamageRestoration,
		ContractorAgent,
		SalesAgent,
		PPCAgent,
		CustomPPCAgent,
		LiveVoiceAgent,
	}
}

// DisplayName returns a human-readable name for a persona ID.
func DisplayName(id ID) string {
	switch id {
	case RemodelingConsultant:
		return "Remodeling Consultant"
	case WaterDamageRestoration:
		return "Water Damage Restoration"
	case ContractorAgent:
		return "Contractor Agent"
	case SalesAgent:
		return "Sales Agent"
	case PPCAgent:
		return "Pay-Per-Call Agent"
	case CustomPPCAgent:
		return "Customizable Pay-Per-Call Agent"
	case LiveVoiceAgent:
		return "Live Voice Agent"
	default:
		return string(id)
	}
}

// Resolve maps a persona ID plus settings to the profile a session runs with.
// Configuration problems are reported before any hardware or network resource
// is touched.
func Resolve(id ID, s Settings) (Profile, error) {
	agentName := strings.TrimSpace(s.AgentName)
	if agentName == "" {
		agentName = DefaultAgentName
	}
	voiceID := strings.TrimSpace(s.VoiceID)
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}

	p := Profile{ID: id, DisplayName: DisplayName(id), VoiceID: voiceID}

	switch id {
	case RemodelingConsultant:
		p.SystemInstruction = remodelingInstruction(agentName)
		p.Tools = remodelingTools
		p.NeedsVideo = true
	case WaterDamageRestoration:
		p.SystemInstruction = waterDamageInstruction(agentName)
		p.Tools = waterDamageTools
		p.NeedsVideo = true
	case ContractorAgent:
		trade := strings.TrimSpace(s.ContractorTrade)
		if trade == "" {
			trade = DefaultContractorTrade
		}
		p.SystemInstruction = contractorInstruction(agentName, trade)
		p.Tools = contractorTools
		p.NeedsVideo = true
	case SalesAgent:
		p.SystemInstruction = salesAgentInstruction(agentName, SalesStyleByName(s.SalesStyle).Prompt)
		p.Tools = liveAgentTools
	case PPCAgent:
		vertical := strings.TrimSpace(s.PPCVertical)
		if vertical == "" {
			vertical = PPCVerticals[0]
		}
		p.SystemInstruction = ppcAgentInstruction(agentName, vertical)
		p.Tools = liveAgentTools
	case CustomPPCAgent:
		custom := strings.TrimSpace(s.CustomInstructions)
		if custom == "" {
			return Profile{}, &reliability.ConfigurationError{
				Field:  "custom_instructions",
				Detail: "generate and save custom instructions for the PPC agent before starting a session",
			}
		}
		p.SystemInstruction = custom
		// Owner-authored instructions may not mention every optional tool;
		// attach only the ones they reference so instruction and toolset agree.
		p.Tools = filterReferenced(custom, customPPCTools)
	case LiveVoiceAgent:
		p.SystemInstruction = liveAgentInstruction(agentName)
		p.Tools = liveAgentTools
	default:
		return Profile{}, &reliability.ConfigurationError{
			Field:  "persona_id",
			Detail: fmt.Sprintf("unknown persona %q", id),
		}
	}

	if msg := strings.TrimSpace(s.OpeningMessage); msg != "" {
		p.SystemInstruction = fmt.Sprintf(
			"**GREETING OVERRIDE (HIGHEST PRIORITY):** Your very first spoken words to the user MUST be this exact phrase: %q. Do not add any words before it. After delivering this greeting, continue with the rest of your instructions.\n\n---\n\n",
			msg,
		) + p.SystemInstruction
	}
	if extra := strings.TrimSpace(s.AdditionalInstructions); extra != "" {
		p.SystemInstruction += "\n\n**ADDITIONAL INSTRUCTIONS FROM BUSINESS OWNER:**\n" + extra
	}

	return p, nil
}

// ReferencedToolNames extracts which of the candidate tool names the
// instruction text mentions.
func ReferencedToolNames(instruction string, candidates []tools.Declaration) []string {
	var out []string
	for _, d := range candidates {
		if strings.Contains(instruction, d.Name) {
			out = append(out, d.Name)
		}
	}
	return out
}

func filterReferenced(instruction string, candidates []tools.Declaration) []tools.Declaration {
	var out []tools.Declaration
	for _, d := range candidates {
		if strings.Contains(instruction, d.Name) {
			out = append(out, d)
		}
	}
	return out
}
