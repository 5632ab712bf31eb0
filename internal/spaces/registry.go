package spaces

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Image is one design rendering attached to a space. Style "Original" marks
// the user's photo; "Cleaned Slate" marks the restoration base image.
type Image struct {
	ID       string `json:"id"`
	Style    string `json:"style"`
	MIMEType string `json:"mime_type"`
	Base64   string `json:"base64"`
}

const (
	StyleOriginal     = "Original"
	StyleCleanedSlate = "Cleaned Slate"
)

// Space is a user-named sub-project (one room) with its image gallery.
type Space struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

var ErrNoActiveSpace = errors.New("no active space selected")

// Registry tracks the spaces created during one session, which one is active,
// and which image in the active space is selected as the base for edits.
type Registry struct {
	mu              sync.Mutex
	spaces          []*Space
	activeID        string
	selectedIndex   int
	pendingCreation bool
}

func NewRegistry() *Registry {
	return &Registry{selectedIndex: -1}
}

// Create adds a space, makes it active, and clears the pending-creation flag.
func (r *Registry) Create(name string) Space {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Space{ID: uuid.NewString(), Name: strings.TrimSpace(name)}
	r.spaces = append(r.spaces, s)
	r.activeID = s.ID
	r.selectedIndex = -1
	r.pendingCreation = false
	return *s
}

// List returns snapshots of all spaces in creation order.
func (r *Registry) List() []Space {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Space, 0, len(r.spaces))
	for _, s := range r.spaces {
		out = append(out, cloneSpace(s))
	}
	return out
}

// SwitchActive activates the space whose name matches, ignoring case.
func (r *Registry) SwitchActive(name string) (Space, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := strings.ToLower(strings.TrimSpace(name))
	for _, s := range r.spaces {
		if strings.ToLower(s.Name) == want {
			r.activeID = s.ID
			r.selectedIndex = len(s.Images) - 1
			return cloneSpace(s), true
		}
	}
	return Space{}, false
}

// Active returns a snapshot of the active space.
func (r *Registry) Active() (Space, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.activeLocked()
	if s == nil {
		return Space{}, false
	}
	return cloneSpace(s), true
}

// AddImage appends an image to the active space and selects it.
func (r *Registry) AddImage(img Image) (Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.activeLocked()
	if s == nil {
		return Image{}, ErrNoActiveSpace
	}
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	s.Images = append(s.Images, img)
	r.selectedIndex = len(s.Images) - 1
	return img, nil
}

// SelectedImage returns the image edits should start from: the selected one,
// falling back to the space's original photo.
func (r *Registry) SelectedImage() (Image, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.activeLocked()
	if s == nil {
		return Image{}, false
	}
	if r.selectedIndex >= 0 && r.selectedIndex < len(s.Images) {
		return s.Images[r.selectedIndex], true
	}
	return findStyleLocked(s, StyleOriginal)
}

// ImageByStyle finds an image with the given style in the active space.
func (r *Registry) ImageByStyle(style string) (Image, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.activeLocked()
	if s == nil {
		return Image{}, false
	}
	return findStyleLocked(s, style)
}

// MarkPendingCreation flags that the next photo belongs to a space the user
// is about to name.
func (r *Registry) MarkPendingCreation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingCreation = true
}

func (r *Registry) PendingCreation() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingCreation
}

// Reset clears all session state. Called on session end.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spaces = nil
	r.activeID = ""
	r.selectedIndex = -1
	r.pendingCreation = false
}

func (r *Registry) activeLocked() *Space {
	for _, s := range r.spaces {
		if s.ID == r.activeID {
			return s
		}
	}
	return nil
}

func findStyleLocked(s *Space, style string) (Image, bool) {
	for _, img := range s.Images {
		if img.Style == style {
			return img, true
		}
	}
	return Image{}, false
}

func cloneSpace(s *Space) Space {
	out := Space{ID: s.ID, Name: s.Name, Images: make([]Image, len(s.Images))}
	copy(out.Images, s.Images)
	return out
}
