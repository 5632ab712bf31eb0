package tools

// Declaration describes one callable tool exposed to the live model:
// name, spoken-prose description, and a JSON-schema-shaped parameter object.
type Declaration struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Tool names. The dispatcher registry, the persona toolsets, and the argument
// decoders are all keyed by these.
const (
	NameRemodelRoom          = "remodelRoom"
	NameRefineRemodelDesign  = "refineRemodelDesign"
	NameRemodelCleanedRoom   = "remodelCleanedRoom"
	NameDiagnoseProblem      = "diagnoseProblemFromImage"
	NameVisualizeRepair      = "visualizeRepair"
	NameCaptureLeadDetails   = "captureLeadDetails"
	NameSendDesignReport     = "sendDesignReport"
	NameCreateCalendarEvent  = "createGoogleCalendarEvent"
	NameSwitchToScanningMode = "switchToScanningMode"
	NameSetActiveSpace       = "setActiveSpace"
)

var RemodelRoomDeclaration = Declaration{
	Name:        NameRemodelRoom,
	Description: "Generates a complete, new remodel design based on the user's original photo for the CURRENTLY ACTIVE space. Use this for major style changes (e.g., 'make it modern farmhouse').",
	Parameters: Schema{
		Type: "object",
		Properties: map[string]Property{
			"styleName": {Type: "string", Description: "The name of the design style, e.g., 'Modern Farmhouse'."},
			"prompt":    {Type: "string", Description: "A detailed prompt describing the style for the image generation model."},
		},
		Required: []string{"styleName", "prompt"},
	},
}

var RefineRemodelDesignDeclaration = Declaration{
	Name:        NameRefineRemodelDesign,
	Description: "Applies a specific, small visual edit to the *currently selected* remodel design in the ACTIVE space. Use this for iterative changes (e.g., 'change the cabinets to blue', 'add a plant').",
	Parameters: Schema{
		Type: "object",
		Properties: map[string]Property{
			"refinementPrompt": {Type: "string", Description: `A clear instruction for the edit, for example: "change the countertops to black marble" or "add a plant on the island."`},
		},
		Required: []string{"refinementPrompt"},
	},
}

var RemodelCleanedRoomDeclaration = Declaration{
	Name:        NameRemodelCleanedRoom,
	Description: "Generates a complete, new remodel design based on the 'cleaned slate' image of the room. Use this for major style changes (e.g., 'make it modern farmhouse').",
	Parameters: Schema{
		Type: "object",
		Properties: map[string]Property{
			"styleName": {Type: "string", Description: "The name of the design style, e.g., 'Modern Farmhouse'."},
			"prompt":    {Type: "string", Description: "A detailed prompt describing the style for the image generation model."},
		},
		Required: []string{"styleName", "prompt"},
	},
}

var DiagnoseProblemDeclaration = Declaration{
	Name:        NameDiagnoseProblem,
	Description: "Analyzes the user-provided image to identify potential problems, suggest causes, and determine if a professional is needed. This is the primary tool for troubleshooting.",
	Parameters:  Schema{Type: "object"},
}

var VisualizeRepairDeclaration = Declaration{
	Name:        NameVisualizeRepair,
	Description: `Generates a new image showing a potential repair or replacement. Use this when the user asks to see what a fix would look like, e.g., "Show me what a new faucet would look like" or "Can you visualize a modern light fixture there?"`,
	Parameters: Schema{
		Type: "object",
		Properties: map[string]Property{
			"prompt": {Type: "string", Description: `A clear instruction for the visual change, for example: "a modern, stainless steel ceiling fan" or "a new GFCI outlet".`},
		},
		Required: []string{"prompt"},
	},
}

var CaptureLeadDetailsDeclaration = Declaration{
	Name:        NameCaptureLeadDetails,
	Description: "Saves the user's name and phone number as a lead.",
	Parameters: Schema{
		Type: "object",
		Properties: map[string]Property{
			"name":  {Type: "string", Description: "The user's full name."},
			"phone": {Type: "string", Description: "The user's phone number."},
		},
		Required: []string{"name", "phone"},
	},
}

var SendDesignReportDeclaration = Declaration{
	Name:        NameSendDesignReport,
	Description: "Captures the user's email, then generates and emails a summary report of the session, including all spaces, designs, or diagnostic information.",
	Parameters: Schema{
		Type: "object",
		Properties: map[string]Property{
			"email": {Type: "string", Description: "The user's email address, which must be verbally confirmed for spelling before calling this function."},
		},
		Required: []string{"email"},
	},
}

var CreateCalendarEventDeclaration = Declaration{
	Name:        NameCreateCalendarEvent,
	Description: "Schedules an event on the user's Google Calendar. The user MUST have the Google Workspace integration connected. Ask for all details before calling.",
	Parameters: Schema{
		Type: "object",
		Properties: map[string]Property{
			"title":        {Type: "string", Description: "The title of the calendar event."},
			"description":  {Type: "string", Description: "A brief description of the event."},
			"location":     {Type: "string", Description: "The location of the event (e.g., address or video call link)."},
			"isoStartTime": {Type: "string", Description: "The start time of the event in ISO 8601 format (e.g., '2025-12-01T15:00:00.000Z')."},
			"isoEndTime":   {Type: "string", Description: "The end time of the event in ISO 8601 format (e.g., '2025-12-01T15:30:00.000Z')."},
		},
		Required: []string{"title", "isoStartTime", "isoEndTime"},
	},
}

var SwitchToScanningModeDeclaration = Declaration{
	Name:        NameSwitchToScanningMode,
	Description: "Initiates the process for the user to start designing a new space or room in their project. This will prompt the user to name the new space and then activate the camera.",
	Parameters:  Schema{Type: "object"},
}

var SetActiveSpaceDeclaration = Declaration{
	Name:        NameSetActiveSpace,
	Description: "Switches the user's view to a different space they have already created within the current project. Use this if the user says something like 'let's go back to the kitchen'.",
	Parameters: Schema{
		Type: "object",
		Properties: map[string]Property{
			"spaceName": {Type: "string", Description: "The exact name of the space to switch to, e.g., 'Kitchen', 'Master Bathroom'."},
		},
		Required: []string{"spaceName"},
	},
}

// AllDeclarations returns every tool the service knows how to serve.
func AllDeclarations() []Declaration {
	return []Declaration{
		RemodelRoomDeclaration,
		RefineRemodelDesignDeclaration,
		RemodelCleanedRoomDeclaration,
		DiagnoseProblemDeclaration,
		VisualizeRepairDeclaration,
		CaptureLeadDetailsDeclaration,
		SendDesignReportDeclaration,
		CreateCalendarEventDeclaration,
		SwitchToScanningModeDeclaration,
		SetActiveSpaceDeclaration,
	}
}
