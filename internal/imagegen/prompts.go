package imagegen

import (
	"encoding/json"
	"fmt"
	"strings"
)

func remodelPrompt(prompt string) string {
	return fmt.Sprintf(`ROLE: You are an expert AI interior designer.
TASK: Completely remodel the provided room image based on the requested style, while keeping the room's core structure.
REQUESTED STYLE: %q
STRICT RULES:
1. PRESERVE ARCHITECTURE: The output image MUST keep the exact same architectural structure (walls, windows, doors, layout).
2. COMPLETE REMODEL: You must replace all major surfaces and furnishings (cabinets, countertops, backsplash, appliances, flooring, etc.) to match the requested style.
3. BE REALISTIC: The final image must look like a real, high-quality photograph.
OUTPUT: Return ONLY the photorealistic image of the remodeled room.`, prompt)
}

func refinePrompt(prompt string) string {
	return fmt.Sprintf(`ROLE: You are a precise photo editor.
TASK: The user wants to refine the provided image. You must apply ONLY the change the user requests.
USER REQUEST: %q
STRICT RULES:
1. PRESERVE EVERYTHING ELSE: The output image MUST keep the exact same architectural structure, lighting, and overall style of the existing design.
2. BE PRECISE: Only perform the requested change. Do not change other elements.
OUTPUT: Return ONLY the photorealistic image of the refined design.`, prompt)
}

func visualizeRepairPrompt(prompt string) string {
	return fmt.Sprintf(`ROLE: You are a precise photo editor specializing in home repair visualization.
TASK: The user wants to visualize a repair or replacement in the provided image. You must apply ONLY the change the user requests.
USER REQUEST: %q
STRICT RULES:
1. PRESERVE EVERYTHING ELSE: The output image MUST keep the exact same architectural structure, lighting, and overall scene. Do not change anything that was not requested.
2. BE PRECISE AND REALISTIC: Only perform the requested change. The change should be photorealistic and seamlessly integrated into the original photo.
OUTPUT: Return ONLY the photorealistic image of the visualized repair.`, prompt)
}

const damageAnalysisPrompt = `You are an expert in water damage assessment for property insurance claims. Analyze the provided image of a water-damaged room. Your task is to identify key architectural features that MUST be preserved during restoration, assess the visible damage, list items that need to be removed, and provide a note about what elements can likely be preserved. Respond ONLY with a valid JSON object matching this schema:
{
  "architectural_features": { "room_dimensions": "e.g., approx. 12x15 ft", "walls": ["e.g., drywall, one window on the left"], "windows": ["e.g., one large casement window"], "doors": ["e.g., one wooden door on the right"], "ceiling": "e.g., flat, popcorn texture", "floor": "e.g., hardwood" },
  "damage_assessment": { "standing_water": { "present": boolean, "locations": ["e.g., center of the room"] }, "water_stains": ["e.g., dark stains on the lower 2ft of drywall"], "mold": { "present": boolean, "locations": ["e.g., along the baseboard on the left wall"] } },
  "items_to_remove": ["e.g., soaked rug", "damaged armchair"],
  "preservation_notes": "A brief summary of what can be saved, e.g., The main window and door frames appear structurally sound and may only need cosmetic repairs."
}`

func cleanedSlatePrompt(report DamageReport) string {
	features, _ := json.Marshal(report.ArchitecturalFeatures)
	items := "None"
	if len(report.ItemsToRemove) > 0 {
		items = strings.Join(report.ItemsToRemove, ", ")
	}
	return fmt.Sprintf(`ROLE: You are an expert photo editor for a top-tier disaster restoration company.
TASK: The user has provided an image of a water-damaged room and a damage analysis report. Your task is to create a photorealistic "after" image showing the room completely cleaned, dried, and stripped to its structural elements, ready for a remodeling contractor to begin work.
CONTEXT FROM ANALYSIS:
- Architectural Features to Preserve: The walls, windows, doors, ceiling structure, and floor layout MUST be preserved exactly as described: %s
- Items to Remove: %s
STRICT RULES - YOU MUST FOLLOW THESE:
1.  **Preserve Architecture:** The final image's camera angle, perspective, lighting direction, and all architectural elements listed in the context MUST remain identical to the original photo.
2.  **Complete Debris Removal:** Remove all items listed for removal, plus any other furniture, decor, and debris. The room must be completely empty.
3.  **Surface Stripping:**
    - Remove all flooring material down to the subfloor (e.g., show clean plywood or concrete).
    - Remove all water stains, damage, and mold from the walls and ceiling.
    - Visualize the walls as clean, unpainted drywall or plaster, ready for primer.
4.  **DO NOT ADD NEW ELEMENTS:** Do not add any new paint, flooring, furniture, or decor. The room must look clean but entirely unfinished.
5.  **Realism is Critical:** The final image must be a high-quality, photorealistic photograph.
OUTPUT: Return ONLY the photorealistic image of the cleaned, stripped, and empty room.`, features, items)
}

func totalRemodelPrompt(report DamageReport, stylePrompt string) string {
	walls, _ := json.Marshal(report.ArchitecturalFeatures.Walls)
	windows, _ := json.Marshal(report.ArchitecturalFeatures.Windows)
	doors, _ := json.Marshal(report.ArchitecturalFeatures.Doors)
	return fmt.Sprintf(`ROLE: You are an expert AI interior designer and architectural visualizer.
TASK: The user has provided a clean, empty room and wants you to perform a complete virtual remodel in a specific style.
BASE IMAGE CONTEXT:
- You are starting with a clean, empty room.
- The following architectural elements MUST be preserved in their exact size and location:
  - Walls: %s
  - Windows: %s
  - Doors: %s
  - Ceiling: %s
  - Floor Layout: Preserved.
REQUESTED STYLE: %q
STRICT RULES - YOU MUST FOLLOW THESE:
1.  **Total Replacement:** You MUST completely replace all surfaces. This includes adding new flooring material, new wall paint or texture, and new ceiling texture if appropriate. NO original surfaces from the base image should be visible.
2.  **Preserve Architecture ONLY:** Adhere strictly to the architectural elements listed in the context. The room's structure, layout, and perspective must not change.
3.  **Furnish from Scratch:** Add all new furniture, lighting fixtures, decor, and accessories that are appropriate for the "REQUESTED STYLE". The room should look fully furnished and professionally designed.
4.  **Photorealism is Paramount:** The final image must be a high-quality, photorealistic photograph. Lighting and shadows must be consistent with the room's light sources (e.g., windows).
OUTPUT: Return ONLY the photorealistic image of the fully remodeled and furnished room.`, walls, windows, doors, report.ArchitecturalFeatures.Ceiling, stylePrompt)
}

func styleSuggestionPrompt(report DamageReport) string {
	features, _ := json.MarshalIndent(report.ArchitecturalFeatures, "", "  ")
	return fmt.Sprintf(`You are an expert AI interior designer providing helpful, inspiring suggestions.
Based on the architectural features of the room described below, generate 4 distinct and appealing design style suggestions.
The goal is to provide creative yet practical ideas that would fit the space well.

**Architectural Features:**
%s

**Response Format:**
Respond ONLY with a valid JSON array of objects. Each object must have a "name" and a "prompt" property.
- "name": A short, catchy name for the style (e.g., "Bright & Airy Coastal").
- "prompt": A detailed, one-sentence prompt for an image generation model to create this style.`, features)
}

const analyzeImagePrompt = "You are an expert interior designer. Analyze this image of a room and provide a concise, one-sentence description of its key features. For example: 'This is a kitchen with white shaker cabinets, stainless steel appliances, and a central island.' Do not add any conversational filler."

const diagnoseImagePrompt = "You are an expert home repair contractor. Analyze the provided image for potential problems. Provide a concise, bulleted list of observations, a likely diagnosis, and a recommendation (e.g., 'Recommend professional inspection'). Prioritize safety. Example: '- Observation: Discoloration around the P-trap under the sink.\n- Diagnosis: Probable slow water leak.\n- Recommendation: Advise user to check for active dripping and recommend contacting a plumber.'"

func summaryReportPrompt(personaID, transcript, leadSummary string) string {
	return fmt.Sprintf(`You are writing a concise session summary for the business owner of a %s widget.
Summarize the conversation below in a few short paragraphs: what the visitor wanted, what was shown or diagnosed, and any commitments made. End with the captured contact details.

**Contact details:** %s

**Transcript:**
%s`, personaID, leadSummary, transcript)
}
