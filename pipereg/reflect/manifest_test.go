package reflect

import (
	"testing"

	"github.com/oxy-engine/rendercore/pipereg"
)

func TestParseManifestBasicBindings(t *testing.T) {
	src := "@binding 0 0 uniform_buffer 1 vertex,fragment\n" +
		"@binding 1 0 combined_image_sampler 1 fragment\n"

	refl, err := ParseManifest(src)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(refl.Bindings) != 2 {
		t.Fatalf("got %d bindings, want 2", len(refl.Bindings))
	}

	first := refl.Bindings[0]
	if first.Set != 0 || first.Binding != 0 || first.Type != pipereg.BindingUniformBuffer {
		t.Fatalf("unexpected first binding: %+v", first)
	}
	wantVis := pipereg.StageVisibilityVertex | pipereg.StageVisibilityFragment
	if first.Visibility != wantVis {
		t.Fatalf("visibility = %v, want %v", first.Visibility, wantVis)
	}
}

func TestParseManifestIgnoresBlankAndUnrelatedLines(t *testing.T) {
	src := "\n// a plain comment, not a binding\n@binding 2 1 sampler 1 fragment\n\n"

	refl, err := ParseManifest(src)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(refl.Bindings) != 1 {
		t.Fatalf("got %d bindings, want 1", len(refl.Bindings))
	}
}

func TestParseManifestRejectsUnknownType(t *testing.T) {
	_, err := ParseManifest("@binding 0 0 not_a_real_type 1 vertex\n")
	if err == nil {
		t.Fatal("expected an error for an unknown binding type")
	}
}

func TestParseManifestRejectsUnknownStage(t *testing.T) {
	_, err := ParseManifest("@binding 0 0 sampler 1 geometry\n")
	if err == nil {
		t.Fatal("expected an error for an unknown stage")
	}
}

func TestParseManifestRejectsMissingArguments(t *testing.T) {
	_, err := ParseManifest("@binding 0 0 sampler\n")
	if err == nil {
		t.Fatal("expected an error for a short @binding line")
	}
}
