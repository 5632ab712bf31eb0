package spaces

import "testing"

func TestCreateActivatesSpace(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Active(); ok {
		t.Fatalf("new registry should have no active space")
	}
	s := r.Create("Kitchen")
	active, ok := r.Active()
	if !ok || active.ID != s.ID {
		t.Fatalf("active = %+v, want %+v", active, s)
	}
}

func TestSwitchActiveIgnoresCase(t *testing.T) {
	r := NewRegistry()
	r.Create("Kitchen")
	r.Create("Master Bathroom")

	got, ok := r.SwitchActive("kitchen")
	if !ok || got.Name != "Kitchen" {
		t.Fatalf("SwitchActive = %+v, %v", got, ok)
	}
	if _, ok := r.SwitchActive("Garage"); ok {
		t.Fatalf("SwitchActive should miss on unknown name")
	}
}

func TestSelectedImageFallsBackToOriginal(t *testing.T) {
	r := NewRegistry()
	r.Create("Kitchen")
	orig, err := r.AddImage(Image{Style: StyleOriginal, MIMEType: "image/jpeg", Base64: "aaa"})
	if err != nil {
		t.Fatalf("AddImage error = %v", err)
	}
	design, err := r.AddImage(Image{Style: "Modern Farmhouse", MIMEType: "image/png", Base64: "bbb"})
	if err != nil {
		t.Fatalf("AddImage error = %v", err)
	}

	// Newest image is selected.
	got, ok := r.SelectedImage()
	if !ok || got.ID != design.ID {
		t.Fatalf("SelectedImage = %+v, want latest design", got)
	}

	// Switching back re-selects the latest image of that space; a fresh space
	// with only the original falls back to it.
	r.Create("Bathroom")
	if _, ok := r.SelectedImage(); ok {
		t.Fatalf("empty space should have no selected image")
	}
	if _, err := r.AddImage(Image{Style: StyleOriginal, Base64: "ccc"}); err != nil {
		t.Fatalf("AddImage error = %v", err)
	}
	r.SwitchActive("Kitchen")
	if got, _ := r.ImageByStyle(StyleOriginal); got.ID != orig.ID {
		t.Fatalf("ImageByStyle(Original) = %+v, want %+v", got, orig)
	}
}

func TestAddImageWithoutActiveSpace(t *testing.T) {
	r := NewRegistry()
	if _, err := r.AddImage(Image{Style: StyleOriginal}); err != ErrNoActiveSpace {
		t.Fatalf("err = %v, want ErrNoActiveSpace", err)
	}
}

func TestResetClearsEverything(t *testing.T) {
	r := NewRegistry()
	r.Create("Kitchen")
	r.MarkPendingCreation()
	r.Reset()
	if len(r.List()) != 0 {
		t.Fatalf("spaces remain after reset")
	}
	if r.PendingCreation() {
		t.Fatalf("pending flag remains after reset")
	}
}
