package tools

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/antoniostano/hearth/internal/calendar"
	"github.com/antoniostano/hearth/internal/imagegen"
	"github.com/antoniostano/hearth/internal/spaces"
	"github.com/antoniostano/hearth/internal/store"
)

type fakeGenerator struct {
	diagnosis string
	failAll   bool
}

func (g *fakeGenerator) RemodelImage(_ context.Context, styleName, _ string, _ imagegen.Image, _ bool) (imagegen.Image, error) {
	if g.failAll {
		return imagegen.Image{}, errors.New("backend error")
	}
	return imagegen.Image{MIMEType: "image/png", Data: []byte(styleName)}, nil
}

func (g *fakeGenerator) VisualizeRepair(_ context.Context, _ string, _ imagegen.Image) (imagegen.Image, error) {
	if g.failAll {
		return imagegen.Image{}, errors.New("backend error")
	}
	return imagegen.Image{MIMEType: "image/png", Data: []byte("repair")}, nil
}

func (g *fakeGenerator) CleanedSlate(_ context.Context, _ imagegen.Image, _ imagegen.DamageReport) (imagegen.Image, error) {
	return imagegen.Image{MIMEType: "image/png", Data: []byte("cleaned")}, nil
}

func (g *fakeGenerator) RemodelFromCleaned(_ context.Context, _ imagegen.Image, _ imagegen.DamageReport, _ string) (imagegen.Image, error) {
	if g.failAll {
		return imagegen.Image{}, errors.New("backend error")
	}
	return imagegen.Image{MIMEType: "image/png", Data: []byte("remodeled")}, nil
}

func (g *fakeGenerator) AnalyzeImage(context.Context, imagegen.Image) (string, error) {
	return "a kitchen", nil
}

func (g *fakeGenerator) DiagnoseImage(context.Context, imagegen.Image) (string, error) {
	if g.failAll {
		return "", errors.New("backend error")
	}
	return g.diagnosis, nil
}

func (g *fakeGenerator) DamageAnalysis(context.Context, imagegen.Image) (imagegen.DamageReport, error) {
	return imagegen.DamageReport{}, nil
}

func (g *fakeGenerator) StyleSuggestions(context.Context, imagegen.DamageReport) ([]imagegen.StyleSuggestion, error) {
	return nil, nil
}

func (g *fakeGenerator) SummaryReport(context.Context, string, string, string) (string, error) {
	return "summary", nil
}

func (g *fakeGenerator) VoiceSample(context.Context, string) ([]byte, error) {
	return []byte("pcm"), nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	designs  []spaces.Image
	scanning int
	switched []string
}

func (n *recordingNotifier) ShowDesign(_ string, img spaces.Image) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.designs = append(n.designs, img)
}

func (n *recordingNotifier) ScanningModeRequested() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scanning++
}

func (n *recordingNotifier) ActiveSpaceChanged(space spaces.Space) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.switched = append(n.switched, space.Name)
}

type connectedCalendar struct {
	events []calendar.Event
}

func (c *connectedCalendar) Connected() bool { return true }

func (c *connectedCalendar) CreateEvent(_ context.Context, ev calendar.Event) error {
	c.events = append(c.events, ev)
	return nil
}

func newHandlerFixture(toolset []Declaration) (*Handlers, *Dispatcher, *recordingNotifier) {
	notifier := &recordingNotifier{}
	h := &Handlers{
		SessionID: "sess-1",
		PersonaID: "contractor_agent",
		Spaces:    spaces.NewRegistry(),
		Generator: &fakeGenerator{diagnosis: "- Observation: leak under sink"},
		Store:     store.NewInMemoryStore(),
		Notifier:  notifier,
	}
	d := NewDispatcher(time.Second)
	h.RegisterAll(d, toolset)
	return h, d, notifier
}

func addPhoto(h *Handlers, spaceName string) {
	h.Spaces.Create(spaceName)
	h.Spaces.AddImage(spaces.Image{
		Style:    spaces.StyleOriginal,
		MIMEType: "image/jpeg",
		Base64:   base64.StdEncoding.EncodeToString([]byte("photo")),
	})
}

func TestDiagnoseWithoutPhotoKeepsSessionUsable(t *testing.T) {
	h, d, _ := newHandlerFixture(AllDeclarations())

	res := d.Dispatch(context.Background(), Invocation{ID: "c1", Name: NameDiagnoseProblem})
	want := "I can't diagnose the problem without a photo. Please provide one first."
	if res.Response != want {
		t.Fatalf("Response = %q, want %q", res.Response, want)
	}

	// A later call on the same dispatcher still works.
	addPhoto(h, "Kitchen")
	res = d.Dispatch(context.Background(), Invocation{ID: "c2", Name: NameDiagnoseProblem})
	if !strings.Contains(res.Response, "The diagnosis is complete") {
		t.Fatalf("Response = %q, want diagnosis", res.Response)
	}
	if !strings.Contains(res.Response, "leak under sink") {
		t.Fatalf("Response = %q, missing diagnosis text", res.Response)
	}
}

func TestRemodelRoomRequiresActiveSpaceAndPhoto(t *testing.T) {
	h, d, notifier := newHandlerFixture(AllDeclarations())
	args := map[string]any{"styleName": "Modern Farmhouse", "stylePrompt": "modern farmhouse kitchen"}

	res := d.Dispatch(context.Background(), Invocation{ID: "c1", Name: NameRemodelRoom, Args: args})
	if res.Response != "Error: No active space selected." {
		t.Fatalf("Response = %q", res.Response)
	}

	h.Spaces.Create("Kitchen")
	res = d.Dispatch(context.Background(), Invocation{ID: "c2", Name: NameRemodelRoom, Args: args})
	if res.Response != "Please capture a photo for this space first." {
		t.Fatalf("Response = %q", res.Response)
	}

	addPhoto(h, "Kitchen 2")
	res = d.Dispatch(context.Background(), Invocation{ID: "c3", Name: NameRemodelRoom, Args: args})
	want := "OK, I've created the Modern Farmhouse design for you. Take a look."
	if res.Response != want {
		t.Fatalf("Response = %q, want %q", res.Response, want)
	}
	if len(notifier.designs) != 1 || notifier.designs[0].Style != "Modern Farmhouse" {
		t.Fatalf("designs = %v, want one Modern Farmhouse rendering", notifier.designs)
	}
}

func TestRemodelFailureSpeaksApology(t *testing.T) {
	h, d, _ := newHandlerFixture(AllDeclarations())
	h.Generator = &fakeGenerator{failAll: true}
	d = NewDispatcher(time.Second)
	h.RegisterAll(d, AllDeclarations())
	addPhoto(h, "Kitchen")

	res := d.Dispatch(context.Background(), Invocation{
		ID:   "c1",
		Name: NameRemodelRoom,
		Args: map[string]any{"styleName": "Coastal", "stylePrompt": "coastal"},
	})
	if res.Response != "Sorry, I had trouble creating that design style." {
		t.Fatalf("Response = %q", res.Response)
	}
}

func TestRemodelCleanedRoomRequiresPrerequisites(t *testing.T) {
	h, d, _ := newHandlerFixture(AllDeclarations())
	addPhoto(h, "Basement")
	args := map[string]any{"styleName": "Scandinavian", "stylePrompt": "light wood"}

	res := d.Dispatch(context.Background(), Invocation{ID: "c1", Name: NameRemodelCleanedRoom, Args: args})
	want := "Error: Cannot generate remodel without a 'cleaned slate' image and a damage report."
	if res.Response != want {
		t.Fatalf("Response = %q, want %q", res.Response, want)
	}

	space, _ := h.Spaces.Active()
	h.SetDamageReport(space.ID, imagegen.DamageReport{PreservationNotes: "frames sound"})
	h.Spaces.AddImage(spaces.Image{
		Style:    spaces.StyleCleanedSlate,
		MIMEType: "image/png",
		Base64:   base64.StdEncoding.EncodeToString([]byte("cleaned")),
	})

	res = d.Dispatch(context.Background(), Invocation{ID: "c2", Name: NameRemodelCleanedRoom, Args: args})
	want = "OK, I've created the Scandinavian design for you. What do you think?"
	if res.Response != want {
		t.Fatalf("Response = %q, want %q", res.Response, want)
	}
}

func TestVisualizeRepair(t *testing.T) {
	h, d, _ := newHandlerFixture(AllDeclarations())
	args := map[string]any{"description": "replace the cracked tile"}

	res := d.Dispatch(context.Background(), Invocation{ID: "c1", Name: NameVisualizeRepair, Args: args})
	if res.Response != "Please provide a photo before I can visualize a repair." {
		t.Fatalf("Response = %q", res.Response)
	}

	addPhoto(h, "Bathroom")
	res = d.Dispatch(context.Background(), Invocation{ID: "c2", Name: NameVisualizeRepair, Args: args})
	if res.Response != "OK, I've generated an image of that for you. What do you think?" {
		t.Fatalf("Response = %q", res.Response)
	}
}

func TestCaptureLeadDetailsPersistsAndThanks(t *testing.T) {
	h, d, _ := newHandlerFixture(AllDeclarations())

	res := d.Dispatch(context.Background(), Invocation{
		ID:   "c1",
		Name: NameCaptureLeadDetails,
		Args: map[string]any{"name": "Pat Jones", "phone": "555-0100", "email": "pat@example.com"},
	})
	if res.Response != "Thank you, I've got that down." {
		t.Fatalf("Response = %q", res.Response)
	}

	leads := h.Store.(*store.InMemoryStore).Leads()
	if len(leads) != 1 {
		t.Fatalf("leads = %d, want 1", len(leads))
	}
	if leads[0].Name != "Pat Jones" || leads[0].Phone != "555-0100" {
		t.Fatalf("lead = %+v", leads[0])
	}
}

func TestSendDesignReportRecordsEmail(t *testing.T) {
	h, d, _ := newHandlerFixture(AllDeclarations())

	res := d.Dispatch(context.Background(), Invocation{
		ID:   "c1",
		Name: NameSendDesignReport,
		Args: map[string]any{"email": "pat@example.com"},
	})
	if res.Response != "Great, I've noted your email address. We'll send the report at the end of our session." {
		t.Fatalf("Response = %q", res.Response)
	}
	if got := h.ReportEmail(); got != "pat@example.com" {
		t.Fatalf("ReportEmail() = %q", got)
	}
}

func TestCalendarEventRequiresConnection(t *testing.T) {
	_, d, _ := newHandlerFixture(AllDeclarations())

	res := d.Dispatch(context.Background(), Invocation{
		ID:   "c1",
		Name: NameCreateCalendarEvent,
		Args: map[string]any{"title": "Consultation"},
	})
	want := "The user's Google account is not connected. Please ask them to connect it in the settings first."
	if res.Response != want {
		t.Fatalf("Response = %q, want %q", res.Response, want)
	}
}

func TestCalendarEventScheduled(t *testing.T) {
	h, d, _ := newHandlerFixture(AllDeclarations())
	cal := &connectedCalendar{}
	h.Calendar = cal
	d = NewDispatcher(time.Second)
	h.RegisterAll(d, AllDeclarations())

	res := d.Dispatch(context.Background(), Invocation{
		ID:   "c1",
		Name: NameCreateCalendarEvent,
		Args: map[string]any{
			"title":        "Kitchen consultation",
			"isoStartTime": "2026-09-01T10:00:00Z",
			"isoEndTime":   "2026-09-01T10:30:00Z",
		},
	})
	if res.Response != `OK, I've scheduled the event "Kitchen consultation" on the calendar.` {
		t.Fatalf("Response = %q", res.Response)
	}
	if len(cal.events) != 1 || cal.events[0].Title != "Kitchen consultation" {
		t.Fatalf("events = %+v", cal.events)
	}
}

func TestSpaceManagementTools(t *testing.T) {
	h, d, notifier := newHandlerFixture(AllDeclarations())
	h.Spaces.Create("Kitchen")
	h.Spaces.Create("Bathroom")

	res := d.Dispatch(context.Background(), Invocation{ID: "c1", Name: NameSwitchToScanningMode})
	if res.Response != "Okay, let's get ready to scan your next space. What would you like to call this room?" {
		t.Fatalf("Response = %q", res.Response)
	}
	if !h.Spaces.PendingCreation() {
		t.Fatalf("pending creation not flagged")
	}
	if notifier.scanning != 1 {
		t.Fatalf("scanning notifications = %d", notifier.scanning)
	}

	res = d.Dispatch(context.Background(), Invocation{
		ID: "c2", Name: NameSetActiveSpace, Args: map[string]any{"spaceName": "kitchen"},
	})
	if res.Response != "Okay, we're now looking at the Kitchen." {
		t.Fatalf("Response = %q", res.Response)
	}

	res = d.Dispatch(context.Background(), Invocation{
		ID: "c3", Name: NameSetActiveSpace, Args: map[string]any{"spaceName": "Garage"},
	})
	if res.Response != `I couldn't find a space called "Garage".` {
		t.Fatalf("Response = %q", res.Response)
	}
}

func TestToolsOutsideToolsetNotRegistered(t *testing.T) {
	_, d, _ := newHandlerFixture([]Declaration{CaptureLeadDetailsDeclaration})

	if !d.Registered(NameCaptureLeadDetails) {
		t.Fatalf("captureLeadDetails not registered")
	}
	if d.Registered(NameRemodelRoom) {
		t.Fatalf("remodelRoom registered outside its toolset")
	}
	res := d.Dispatch(context.Background(), Invocation{ID: "c1", Name: NameRemodelRoom})
	if res.Response != FallbackResponse {
		t.Fatalf("Response = %q, want fallback", res.Response)
	}
}
