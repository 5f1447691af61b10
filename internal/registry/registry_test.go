package registry

import (
	"testing"
)

func TestEveryPresetFoundByItsSourceExtensions(t *testing.T) {
	for _, p := range All() {
		for _, ext := range p.FromExtensions {
			found := false
			for _, candidate := range PresetsForExtension(ext) {
				if candidate.ID == p.ID {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("PresetsForExtension(%q) missing preset %s", ext, p.ID)
			}
		}
	}
}

func TestPresetExcludedForForeignExtensions(t *testing.T) {
	for _, candidate := range PresetsForExtension("mp3") {
		switch candidate.ID {
		case "mp3-to-wav", "mp3-to-ogg":
		default:
			t.Errorf("PresetsForExtension(mp3) returned unrelated preset %s", candidate.ID)
		}
	}
	for _, candidate := range PresetsForExtension("csv") {
		accepts := false
		for _, from := range candidate.FromExtensions {
			if from == "csv" {
				accepts = true
			}
		}
		if !accepts {
			t.Errorf("PresetsForExtension(csv) returned %s which does not accept csv", candidate.ID)
		}
	}
}

func TestPresetsForExtensionNormalization(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want bool
	}{
		{name: "plain", ext: "png", want: true},
		{name: "uppercase", ext: "PNG", want: true},
		{name: "leading dot", ext: ".png", want: true},
		{name: "unsupported", ext: "xyz", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PresetsForExtension(tc.ext)
			if tc.want && len(got) == 0 {
				t.Errorf("PresetsForExtension(%q) = empty, want matches", tc.ext)
			}
			if !tc.want && len(got) != 0 {
				t.Errorf("PresetsForExtension(%q) returned %d presets, want none", tc.ext, len(got))
			}
		})
	}
}

func TestUnsupportedExtensionIsEmptyNotNil(t *testing.T) {
	got := PresetsForExtension("nope")
	if got == nil {
		t.Fatal("PresetsForExtension returned nil, want empty slice")
	}
}

func TestPresetByID(t *testing.T) {
	p, ok := PresetByID("csv-to-json")
	if !ok {
		t.Fatal("csv-to-json not registered")
	}
	if p.ToExtension != "json" {
		t.Errorf("csv-to-json target = %q, want json", p.ToExtension)
	}
	if _, ok := PresetByID("png-to-nothing"); ok {
		t.Error("unknown id resolved to a preset")
	}
}

func TestEveryConversionHasExactlyOnePreset(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range All() {
		if seen[p.ID] {
			t.Errorf("duplicate preset id %s", p.ID)
		}
		seen[p.ID] = true
		if len(p.FromExtensions) == 0 {
			t.Errorf("preset %s has no source extensions", p.ID)
		}
	}
}

func TestResizeRequiresAdvanced(t *testing.T) {
	p, ok := PresetByID("image-resize")
	if !ok {
		t.Fatal("image-resize not registered")
	}
	if !p.RequiresAdvanced {
		t.Error("image-resize should require advanced options")
	}
}
