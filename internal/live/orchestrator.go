package live

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/antoniostano/hearth/internal/audio"
	"github.com/antoniostano/hearth/internal/calendar"
	"github.com/antoniostano/hearth/internal/config"
	"github.com/antoniostano/hearth/internal/imagegen"
	"github.com/antoniostano/hearth/internal/media"
	"github.com/antoniostano/hearth/internal/observability"
	"github.com/antoniostano/hearth/internal/persona"
	"github.com/antoniostano/hearth/internal/protocol"
	"github.com/antoniostano/hearth/internal/reliability"
	"github.com/antoniostano/hearth/internal/session"
	"github.com/antoniostano/hearth/internal/spaces"
	"github.com/antoniostano/hearth/internal/store"
	"github.com/antoniostano/hearth/internal/tools"
	"github.com/antoniostano/hearth/internal/transcript"
	"github.com/antoniostano/hearth/internal/webhook"
)

var ErrNoRuntime = errors.New("no live runtime for session")

// PhotoResult reports what a captured photo produced.
type PhotoResult struct {
	SpaceID     string                     `json:"space_id"`
	ImageID     string                     `json:"image_id"`
	Analysis    string                     `json:"analysis,omitempty"`
	Suggestions []imagegen.StyleSuggestion `json:"suggestions,omitempty"`
}

// Orchestrator builds and tracks the per-session runtime: registry, tool
// handlers, media manager, and controller. One runtime per connected widget.
type Orchestrator struct {
	cfg       config.Config
	transport Transport
	generator imagegen.Generator
	sessions  *session.Manager
	store     store.Store
	webhooks  *webhook.Dispatcher
	calendar  calendar.Service
	metrics   *observability.Metrics

	mu       sync.Mutex
	runtimes map[string]*runtime
}

type runtime struct {
	sess       *session.Session
	profile    persona.Profile
	registry   *spaces.Registry
	handlers   *tools.Handlers
	controller *Controller
	output     *wsOutput
}

func NewOrchestrator(
	cfg config.Config,
	transport Transport,
	generator imagegen.Generator,
	sessions *session.Manager,
	st store.Store,
	webhooks *webhook.Dispatcher,
	cal calendar.Service,
	metrics *observability.Metrics,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		transport: transport,
		generator: generator,
		sessions:  sessions,
		store:     st,
		webhooks:  webhooks,
		calendar:  cal,
		metrics:   metrics,
		runtimes:  make(map[string]*runtime),
	}
}

// RunConnection drives one widget websocket connection until the peer
// disconnects or ends the session. All session resources are torn down on
// return.
func (o *Orchestrator) RunConnection(ctx context.Context, sess *session.Session, inbound <-chan any, outbound chan<- any) error {
	profile, err := persona.Resolve(sess.PersonaID, sess.Settings)
	if err != nil {
		sendOutbound(outbound, protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: sess.ID,
			Code:      reliability.Classify(err),
			Detail:    err.Error(),
		})
		return err
	}

	output := &wsOutput{sessionID: sess.ID, outbound: outbound}
	mediaMgr := media.NewManager(output, o.cfg.MediaAckTimeout)
	registry := spaces.NewRegistry()
	dispatcher := tools.NewDispatcher(o.cfg.ToolCallTimeout)
	handlers := &tools.Handlers{
		SessionID: sess.ID,
		PersonaID: string(sess.PersonaID),
		Spaces:    registry,
		Generator: o.generator,
		Calendar:  o.calendar,
		Webhooks:  o.webhooks,
		Store:     o.store,
		Notifier:  output,
	}
	handlers.RegisterAll(dispatcher, profile.Tools)

	controller := NewController(ControllerConfig{
		SessionID:     sess.ID,
		Transport:     o.transport,
		Model:         o.cfg.LiveModel,
		Media:         mediaMgr,
		Output:        output,
		Dispatcher:    dispatcher,
		Store:         o.store,
		Metrics:       o.metrics,
		FirstAudioSLO: o.cfg.FirstAudioSLO,
	})

	rt := &runtime{
		sess:       sess,
		profile:    profile,
		registry:   registry,
		handlers:   handlers,
		controller: controller,
		output:     output,
	}
	o.mu.Lock()
	o.runtimes[sess.ID] = rt
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.runtimes, sess.ID)
		o.mu.Unlock()
		controller.Close()
		o.finishSession(rt)
		registry.Reset()
		if _, err := o.sessions.End(sess.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
			log.Printf("live: end session %s: %v", sess.ID, err)
		}
	}()

	// Media grants arrive as media_ack messages on inbound, so the start has
	// to run alongside the drain loop or the acquire would never be answered.
	startDone := make(chan error, 1)
	go func() {
		startDone <- controller.StartSession(ctx, profile)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-startDone:
			if err != nil {
				return err
			}
			startDone = nil
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			if done := o.handleInbound(ctx, rt, mediaMgr, msg); done {
				return nil
			}
		}
	}
}

func (o *Orchestrator) handleInbound(ctx context.Context, rt *runtime, mediaMgr *media.Manager, msg any) bool {
	switch m := msg.(type) {
	case protocol.ClientAudioChunk:
		pcm, err := audio.DecodeBase64PCM(m.PCM16Base64)
		if err != nil {
			log.Printf("live: bad audio chunk: %v", err)
			return false
		}
		_ = o.sessions.Touch(rt.sess.ID)
		if err := rt.controller.ForwardUserAudio(ctx, pcm); err != nil {
			log.Printf("live: forward audio: %v", err)
		}

	case protocol.ClientVideoFrame:
		data, err := base64.StdEncoding.DecodeString(m.ImageBase64)
		if err != nil {
			log.Printf("live: bad video frame: %v", err)
			return false
		}
		if err := rt.controller.ForwardVideoFrame(ctx, m.MIMEType, data); err != nil {
			log.Printf("live: forward video: %v", err)
		}

	case protocol.MediaAck:
		mediaMgr.HandleGrant(media.Grant{
			Kind:    media.Kind(m.Kind),
			Granted: m.Granted,
			TrackID: m.TrackID,
			Reason:  m.Reason,
		})

	case protocol.CreateSpace:
		space := rt.registry.Create(m.Name)
		rt.output.send(protocol.SystemEvent{
			Type:      protocol.TypeSystemEvent,
			SessionID: rt.sess.ID,
			Code:      "space_created",
			Detail:    space.Name,
		})
		text := fmt.Sprintf("(System: A new space named %q has been created and is now active. Ask the user to point the camera and capture a photo of it.)", space.Name)
		if err := rt.controller.SendSystemMessage(ctx, text); err != nil {
			log.Printf("live: announce space: %v", err)
		}

	case protocol.BindSurface:
		if err := rt.controller.BindCameraSurface(m.SurfaceID); err != nil {
			log.Printf("live: bind surface: %v", err)
		}

	case protocol.EndSession:
		return true
	}
	return false
}

// HandlePhoto runs the persona-specific capture flow for one photo and
// injects the outcome into the conversation.
func (o *Orchestrator) HandlePhoto(ctx context.Context, sessionID, mimeType string, data []byte) (*PhotoResult, error) {
	rt, err := o.runtime(sessionID)
	if err != nil {
		return nil, err
	}
	if o.metrics != nil {
		began := time.Now()
		defer func() {
			o.metrics.Latency.Observe(observability.StagePhotoPipeline, time.Since(began))
		}()
	}

	if _, ok := rt.registry.Active(); !ok {
		rt.registry.Create(fmt.Sprintf("Space %d", len(rt.registry.List())+1))
	}
	stored, err := rt.registry.AddImage(spaces.Image{
		Style:    spaces.StyleOriginal,
		MIMEType: mimeType,
		Base64:   base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return nil, err
	}
	space, _ := rt.registry.Active()
	rt.output.ShowDesign(space.ID, stored)

	result := &PhotoResult{SpaceID: space.ID, ImageID: stored.ID}
	img := imagegen.Image{MIMEType: mimeType, Data: data}

	switch rt.sess.PersonaID {
	case persona.WaterDamageRestoration:
		if err := o.waterDamageCapture(ctx, rt, space, img, result); err != nil {
			return nil, err
		}
	case persona.ContractorAgent:
		text := "(System: The user has captured a photo of the problem area. It is now the selected image. Ask clarifying questions or offer to diagnose it.)"
		if err := rt.controller.SendSystemMessage(ctx, text); err != nil {
			log.Printf("live: photo system message: %v", err)
		}
	default:
		analysis, err := o.generator.AnalyzeImage(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("analyze photo: %w", err)
		}
		result.Analysis = analysis
		text := fmt.Sprintf("(System: The user has captured a photo of the space. Analysis: %s Discuss it with the user and offer design styles.)", analysis)
		if err := rt.controller.SendSystemMessage(ctx, text); err != nil {
			log.Printf("live: photo system message: %v", err)
		}
	}
	return result, nil
}

// waterDamageCapture runs the restoration pipeline: structured damage
// analysis, a cleaned-slate rendering, and style suggestions for the remodel.
func (o *Orchestrator) waterDamageCapture(ctx context.Context, rt *runtime, space spaces.Space, img imagegen.Image, result *PhotoResult) error {
	report, err := o.generator.DamageAnalysis(ctx, img)
	if err != nil {
		return fmt.Errorf("damage analysis: %w", err)
	}
	rt.handlers.SetDamageReport(space.ID, report)

	cleaned, err := o.generator.CleanedSlate(ctx, img, report)
	if err != nil {
		return fmt.Errorf("cleaned slate: %w", err)
	}
	storedCleaned, err := rt.registry.AddImage(spaces.Image{
		Style:    spaces.StyleCleanedSlate,
		MIMEType: cleaned.MIMEType,
		Base64:   base64.StdEncoding.EncodeToString(cleaned.Data),
	})
	if err != nil {
		return err
	}
	rt.output.ShowDesign(space.ID, storedCleaned)

	suggestions, err := o.generator.StyleSuggestions(ctx, report)
	if err != nil {
		log.Printf("live: style suggestions: %v", err)
	}
	result.Suggestions = suggestions

	names := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		names = append(names, s.Name)
	}
	text := fmt.Sprintf(
		"(System: The damage analysis is complete. Notes: %s. A cleaned-slate rendering has been generated and shown to the user. Suggested remodel styles: %s. Walk the user through the findings, then offer the styles.)",
		report.PreservationNotes, strings.Join(names, ", "))
	if err := rt.controller.SendSystemMessage(ctx, text); err != nil {
		log.Printf("live: photo system message: %v", err)
	}
	return nil
}

// VoiceSample synthesizes a short greeting in the given voice, as WAV.
func (o *Orchestrator) VoiceSample(ctx context.Context, voiceID string) ([]byte, error) {
	pcm, err := o.generator.VoiceSample(ctx, voiceID)
	if err != nil {
		return nil, err
	}
	return audio.EncodeWAVPCM16LE(pcm, audio.PlaybackSampleRate)
}

// finishSession sends the end-of-session report when one was requested.
func (o *Orchestrator) finishSession(rt *runtime) {
	email := rt.handlers.ReportEmail()
	if email == "" || o.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entries, err := o.store.SessionTranscript(ctx, rt.sess.ID)
	if err != nil {
		log.Printf("live: load transcript for report: %v", err)
		return
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s: %s\n", e.Speaker, e.Text)
	}
	body, err := o.generator.SummaryReport(ctx, string(rt.sess.PersonaID), sb.String(), email)
	if err != nil {
		log.Printf("live: summary report: %v", err)
		return
	}
	if err := o.store.SaveReport(ctx, store.ReportRecord{
		SessionID: rt.sess.ID,
		Email:     email,
		Body:      body,
	}); err != nil {
		log.Printf("live: save report: %v", err)
		return
	}
	if o.webhooks != nil {
		o.webhooks.Notify(ctx, webhook.EventReportSent, map[string]any{
			"session_id": rt.sess.ID,
			"persona_id": rt.sess.PersonaID,
			"email":      email,
		})
	}
}

func (o *Orchestrator) runtime(sessionID string) (*runtime, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rt, ok := o.runtimes[sessionID]
	if !ok {
		return nil, ErrNoRuntime
	}
	return rt, nil
}

func sendOutbound(outbound chan<- any, msg any) {
	select {
	case outbound <- msg:
	default:
		// Keep websocket writes single-threaded; drop if the queue is full.
	}
}

// wsOutput adapts controller and tool callbacks onto the outbound websocket
// channel.
type wsOutput struct {
	sessionID string
	outbound  chan<- any
}

func (o *wsOutput) send(msg any) {
	sendOutbound(o.outbound, msg)
}

func (o *wsOutput) SendMediaDirective(d media.Directive) error {
	o.send(protocol.MediaDirective{
		Type:      protocol.TypeMediaDirective,
		SessionID: o.sessionID,
		Action:    d.Action,
		Kind:      string(d.Kind),
		SurfaceID: d.SurfaceID,
	})
	return nil
}

func (o *wsOutput) SendStatus(status Status, detail string) {
	o.send(protocol.SessionStatus{
		Type:      protocol.TypeSessionStatus,
		SessionID: o.sessionID,
		Status:    string(status),
		Detail:    detail,
	})
}

func (o *wsOutput) SendTranscript(u transcript.Update) {
	o.send(protocol.TranscriptUpdate{
		Type:      protocol.TypeTranscriptUpdate,
		SessionID: o.sessionID,
		UserText:  u.UserText,
		ModelText: u.ModelText,
	})
}

func (o *wsOutput) SendTurnCommitted(entries []transcript.Entry) {
	out := make([]protocol.TranscriptEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, protocol.TranscriptEntry{
			Speaker: string(e.Speaker),
			Text:    e.Text,
			Seq:     e.Seq,
		})
	}
	o.send(protocol.TurnCommitted{
		Type:      protocol.TypeTurnCommitted,
		SessionID: o.sessionID,
		Entries:   out,
	})
}

func (o *wsOutput) SendAgentAudio(seq int, pcm []byte, startAt time.Time, duration time.Duration) {
	o.send(protocol.AgentAudioChunk{
		Type:        protocol.TypeAgentAudio,
		SessionID:   o.sessionID,
		Seq:         seq,
		PCM16Base64: audio.EncodeBase64PCM(pcm),
		SampleRate:  audio.PlaybackSampleRate,
		StartMs:     startAt.UnixMilli(),
		DurationMs:  duration.Milliseconds(),
	})
}

func (o *wsOutput) SendFlush() {
	o.send(protocol.AudioFlush{Type: protocol.TypeAudioFlush, SessionID: o.sessionID})
}

func (o *wsOutput) SendError(class, message string) {
	o.send(protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		SessionID: o.sessionID,
		Code:      class,
		Retryable: class == reliability.ClassTransport,
		Detail:    message,
	})
}

func (o *wsOutput) ShowDesign(spaceID string, img spaces.Image) {
	o.send(protocol.DesignImage{
		Type:        protocol.TypeDesignImage,
		SessionID:   o.sessionID,
		SpaceID:     spaceID,
		ImageID:     img.ID,
		Style:       img.Style,
		MIMEType:    img.MIMEType,
		ImageBase64: img.Base64,
	})
}

func (o *wsOutput) ScanningModeRequested() {
	o.send(protocol.SystemEvent{
		Type:      protocol.TypeSystemEvent,
		SessionID: o.sessionID,
		Code:      "scanning_mode",
	})
}

func (o *wsOutput) ActiveSpaceChanged(space spaces.Space) {
	o.send(protocol.SystemEvent{
		Type:      protocol.TypeSystemEvent,
		SessionID: o.sessionID,
		Code:      "active_space",
		Detail:    space.Name,
	})
}
