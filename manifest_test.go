package vview

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		frames  int
		wantErr bool
	}{
		{"object", `{"frames":[{"file":"a.jpg","delay":50},{"file":"b.jpg","delay":70}],"mime_type":"image/jpeg"}`, 2, false},
		{"bare list", ` [{"file":"a.jpg","delay":50}]`, 1, false},
		{"no frames", `{"frames":[]}`, 0, true},
		{"negative delay", `[{"file":"a.jpg","delay":-1}]`, 0, true},
		{"not json", `frames`, 0, true},
		{"empty", ``, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseManifest([]byte(tt.data))
			if tt.wantErr {
				if !errors.Is(err, ErrBadManifest) {
					t.Errorf("error = %v, want ErrBadManifest", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(m.Frames) != tt.frames {
				t.Errorf("frames = %d, want %d", len(m.Frames), tt.frames)
			}
		})
	}
}

func TestManifestTimestamps(t *testing.T) {
	m := &Manifest{Frames: []FrameInfo{{Delay: 100}, {Delay: 150}, {Delay: 150}, {Delay: 40}}}
	stamps, total := m.Timestamps()
	if want := []int{0, 100, 250, 400}; !reflect.DeepEqual(stamps, want) {
		t.Errorf("timestamps = %v, want %v", stamps, want)
	}
	if total != 440 {
		t.Errorf("total = %d, want 440", total)
	}
}

func TestManifestValidateNil(t *testing.T) {
	var m *Manifest
	if err := m.Validate(); !errors.Is(err, ErrBadManifest) {
		t.Errorf("nil manifest: %v", err)
	}
}
