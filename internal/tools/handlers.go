package tools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/antoniostano/hearth/internal/calendar"
	"github.com/antoniostano/hearth/internal/imagegen"
	"github.com/antoniostano/hearth/internal/spaces"
	"github.com/antoniostano/hearth/internal/store"
	"github.com/antoniostano/hearth/internal/webhook"
)

// Notifier pushes tool side effects to the widget: new design renderings,
// scanning-mode prompts, and active-space changes.
type Notifier interface {
	ShowDesign(spaceID string, img spaces.Image)
	ScanningModeRequested()
	ActiveSpaceChanged(space spaces.Space)
}

// NoopNotifier discards all notifications.
type NoopNotifier struct{}

func (NoopNotifier) ShowDesign(string, spaces.Image) {}
func (NoopNotifier) ScanningModeRequested()          {}
func (NoopNotifier) ActiveSpaceChanged(spaces.Space) {}

// Handlers holds the collaborators and per-session state tool calls operate
// on. One Handlers per live session.
type Handlers struct {
	SessionID string
	PersonaID string

	Spaces    *spaces.Registry
	Generator imagegen.Generator
	Calendar  calendar.Service
	Webhooks  *webhook.Dispatcher
	Store     store.Store
	Notifier  Notifier

	mu          sync.Mutex
	reportEmail string
	reports     map[string]imagegen.DamageReport
}

// RegisterAll binds every tool in the session's toolset to its handler. Tools
// outside the toolset are never registered, so calls for them fall through to
// the dispatcher's fallback.
func (h *Handlers) RegisterAll(d *Dispatcher, toolset []Declaration) {
	if h.Notifier == nil {
		h.Notifier = NoopNotifier{}
	}
	bindings := map[string]Handler{
		NameRemodelRoom:         h.remodelRoom,
		NameRefineRemodelDesign: h.refineDesign,
		NameRemodelCleanedRoom:  h.remodelCleanedRoom,
		NameDiagnoseProblem:     h.diagnoseProblem,
		NameVisualizeRepair:     h.visualizeRepair,
		NameCaptureLeadDetails:  h.captureLeadDetails,
		NameSendDesignReport:    h.sendDesignReport,
		NameCreateCalendarEvent: h.createCalendarEvent,
		NameSwitchToScanningMode: func(context.Context, Invocation) (string, error) {
			h.Spaces.MarkPendingCreation()
			h.Notifier.ScanningModeRequested()
			return "Okay, let's get ready to scan your next space. What would you like to call this room?", nil
		},
		NameSetActiveSpace: h.setActiveSpace,
	}
	for _, decl := range toolset {
		if handler, ok := bindings[decl.Name]; ok {
			d.Register(decl.Name, handler)
		}
	}
}

// SetDamageReport stores the structured analysis for a space so later remodel
// calls can use it.
func (h *Handlers) SetDamageReport(spaceID string, report imagegen.DamageReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.reports == nil {
		h.reports = make(map[string]imagegen.DamageReport)
	}
	h.reports[spaceID] = report
}

func (h *Handlers) damageReport(spaceID string) (imagegen.DamageReport, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	report, ok := h.reports[spaceID]
	return report, ok
}

// ReportEmail returns the address captured by sendDesignReport, if any.
func (h *Handlers) ReportEmail() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reportEmail
}

func (h *Handlers) remodelRoom(ctx context.Context, inv Invocation) (string, error) {
	styleName, err := stringArg(inv.Args, "styleName")
	if err != nil {
		return "", err
	}
	stylePrompt, err := stringArg(inv.Args, "stylePrompt")
	if err != nil {
		return "", err
	}
	if boolArg(inv.Args, "isRefinement") {
		return h.refineFrom(ctx, styleName, stylePrompt)
	}

	space, ok := h.Spaces.Active()
	if !ok {
		return "Error: No active space selected.", errors.New("no active space")
	}
	base, ok := h.Spaces.ImageByStyle(spaces.StyleOriginal)
	if !ok {
		return "Please capture a photo for this space first.", errors.New("no original photo")
	}
	img, err := h.Generator.RemodelImage(ctx, styleName, stylePrompt, decodeImage(base), false)
	if err != nil {
		return "Sorry, I had trouble creating that design style.", err
	}
	h.publishDesign(space.ID, styleName, img)
	return fmt.Sprintf("OK, I've created the %s design for you. Take a look.", styleName), nil
}

func (h *Handlers) refineDesign(ctx context.Context, inv Invocation) (string, error) {
	prompt, err := stringArg(inv.Args, "refinementPrompt")
	if err != nil {
		return "", err
	}
	return h.refineFrom(ctx, "Refined", prompt)
}

func (h *Handlers) refineFrom(ctx context.Context, styleName, prompt string) (string, error) {
	space, ok := h.Spaces.Active()
	if !ok {
		return "Error: No active space selected.", errors.New("no active space")
	}
	base, ok := h.Spaces.SelectedImage()
	if !ok {
		return "Please select a design to refine first.", errors.New("no selected image")
	}
	img, err := h.Generator.RemodelImage(ctx, styleName, prompt, decodeImage(base), true)
	if err != nil {
		return "Sorry, I had trouble creating that new design.", err
	}
	h.publishDesign(space.ID, styleName, img)
	return fmt.Sprintf("OK, I've created the %s design for you. Take a look.", styleName), nil
}

func (h *Handlers) remodelCleanedRoom(ctx context.Context, inv Invocation) (string, error) {
	styleName, err := stringArg(inv.Args, "styleName")
	if err != nil {
		return "", err
	}
	stylePrompt, err := stringArg(inv.Args, "stylePrompt")
	if err != nil {
		return "", err
	}
	space, ok := h.Spaces.Active()
	if !ok {
		return "Error: No active space selected.", errors.New("no active space")
	}
	cleaned, haveImage := h.Spaces.ImageByStyle(spaces.StyleCleanedSlate)
	report, haveReport := h.damageReport(space.ID)
	if !haveImage || !haveReport {
		return "Error: Cannot generate remodel without a 'cleaned slate' image and a damage report.",
			errors.New("missing cleaned slate prerequisites")
	}
	img, err := h.Generator.RemodelFromCleaned(ctx, decodeImage(cleaned), report, stylePrompt)
	if err != nil {
		return "Sorry, I had trouble creating that design style.", err
	}
	h.publishDesign(space.ID, styleName, img)
	return fmt.Sprintf("OK, I've created the %s design for you. What do you think?", styleName), nil
}

func (h *Handlers) diagnoseProblem(ctx context.Context, inv Invocation) (string, error) {
	base, ok := h.Spaces.SelectedImage()
	if !ok {
		return "I can't diagnose the problem without a photo. Please provide one first.", errors.New("no photo")
	}
	text, err := h.Generator.DiagnoseImage(ctx, decodeImage(base))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(System: The diagnosis is complete. The result is: %q. You must now discuss these findings with the user.)", text), nil
}

func (h *Handlers) visualizeRepair(ctx context.Context, inv Invocation) (string, error) {
	description, err := stringArg(inv.Args, "description")
	if err != nil {
		return "", err
	}
	space, ok := h.Spaces.Active()
	if !ok {
		return "Please provide a photo before I can visualize a repair.", errors.New("no active space")
	}
	base, ok := h.Spaces.SelectedImage()
	if !ok {
		return "Please provide a photo before I can visualize a repair.", errors.New("no photo")
	}
	img, err := h.Generator.VisualizeRepair(ctx, description, decodeImage(base))
	if err != nil {
		return "Sorry, I had trouble creating that image.", err
	}
	h.publishDesign(space.ID, "Repair Visualization", img)
	return "OK, I've generated an image of that for you. What do you think?", nil
}

func (h *Handlers) captureLeadDetails(ctx context.Context, inv Invocation) (string, error) {
	name, err := stringArg(inv.Args, "name")
	if err != nil {
		return "", err
	}
	phone, err := stringArg(inv.Args, "phone")
	if err != nil {
		return "", err
	}
	email := optionalStringArg(inv.Args, "email")

	if h.Store != nil {
		record := store.LeadRecord{
			SessionID: h.SessionID,
			PersonaID: h.PersonaID,
			Name:      name,
			Phone:     phone,
			Email:     email,
		}
		if err := h.Store.SaveLead(ctx, record); err != nil {
			return "", fmt.Errorf("save lead: %w", err)
		}
	}
	if h.Webhooks != nil {
		h.Webhooks.Notify(context.WithoutCancel(ctx), webhook.EventLeadCaptured, map[string]any{
			"event_type": "details_provided",
			"session_id": h.SessionID,
			"persona_id": h.PersonaID,
			"name":       name,
			"phone":      phone,
			"email":      email,
		})
	}
	return "Thank you, I've got that down.", nil
}

func (h *Handlers) sendDesignReport(_ context.Context, inv Invocation) (string, error) {
	email, err := stringArg(inv.Args, "email")
	if err != nil {
		return "", err
	}
	h.mu.Lock()
	h.reportEmail = strings.TrimSpace(email)
	h.mu.Unlock()
	return "Great, I've noted your email address. We'll send the report at the end of our session.", nil
}

func (h *Handlers) createCalendarEvent(ctx context.Context, inv Invocation) (string, error) {
	title, err := stringArg(inv.Args, "title")
	if err != nil {
		return "", err
	}
	if h.Calendar == nil || !h.Calendar.Connected() {
		return "The user's Google account is not connected. Please ask them to connect it in the settings first.",
			errors.New("calendar not connected")
	}
	startsAt, err := timeArg(inv.Args, "isoStartTime")
	if err != nil {
		return "", err
	}
	endsAt, err := timeArg(inv.Args, "isoEndTime")
	if err != nil {
		return "", err
	}
	event := calendar.Event{
		Title:       title,
		Description: optionalStringArg(inv.Args, "description"),
		Location:    optionalStringArg(inv.Args, "location"),
		StartsAt:    startsAt,
		EndsAt:      endsAt,
	}
	if err := h.Calendar.CreateEvent(ctx, event); err != nil {
		return "", fmt.Errorf("create calendar event: %w", err)
	}
	if h.Webhooks != nil {
		h.Webhooks.Notify(context.WithoutCancel(ctx), webhook.EventConsultationScheduled, map[string]any{
			"session_id": h.SessionID,
			"persona_id": h.PersonaID,
			"title":      title,
			"start_time": startsAt,
			"end_time":   endsAt,
		})
	}
	return fmt.Sprintf("OK, I've scheduled the event %q on the calendar.", title), nil
}

func (h *Handlers) setActiveSpace(_ context.Context, inv Invocation) (string, error) {
	name, err := stringArg(inv.Args, "spaceName")
	if err != nil {
		return "", err
	}
	space, ok := h.Spaces.SwitchActive(name)
	if !ok {
		return fmt.Sprintf("I couldn't find a space called %q.", name), errors.New("unknown space")
	}
	h.Notifier.ActiveSpaceChanged(space)
	return fmt.Sprintf("Okay, we're now looking at the %s.", space.Name), nil
}

func (h *Handlers) publishDesign(spaceID, styleName string, img imagegen.Image) {
	stored, err := h.Spaces.AddImage(spaces.Image{
		Style:    styleName,
		MIMEType: img.MIMEType,
		Base64:   base64.StdEncoding.EncodeToString(img.Data),
	})
	if err != nil {
		return
	}
	h.Notifier.ShowDesign(spaceID, stored)
}

func decodeImage(img spaces.Image) imagegen.Image {
	data, err := base64.StdEncoding.DecodeString(img.Base64)
	if err != nil {
		data = nil
	}
	return imagegen.Image{MIMEType: img.MIMEType, Data: data}
}
