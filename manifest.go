package vview

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FrameInfo is one entry of an animation manifest.
type FrameInfo struct {
	File string `json:"file"`
	// Delay is how long the frame is shown, in milliseconds.
	Delay int `json:"delay"`
}

// Manifest describes the frames of a zip animation.
type Manifest struct {
	Frames   []FrameInfo `json:"frames"`
	MimeType string      `json:"mime_type,omitempty"`
}

// ManifestName is the entry name local archives store their manifest under.
const ManifestName = "metadata.json"

// ParseManifest parses a manifest, either an object with a frames list or a
// bare list of frames.
func ParseManifest(data []byte) (*Manifest, error) {
	data = bytes.TrimSpace(data)
	var m Manifest
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &m.Frames); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadManifest, err)
		}
	} else if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that the manifest can be played.
func (m *Manifest) Validate() error {
	if m == nil || len(m.Frames) == 0 {
		return fmt.Errorf("%w: no frames", ErrBadManifest)
	}
	for i, f := range m.Frames {
		if f.Delay < 0 {
			return fmt.Errorf("%w: frame %d has negative delay %d", ErrBadManifest, i, f.Delay)
		}
	}
	return nil
}

// Timestamps returns the start time of each frame in milliseconds and the
// total length.
func (m *Manifest) Timestamps() (stamps []int, total int) {
	stamps = make([]int, len(m.Frames))
	for i, f := range m.Frames {
		stamps[i] = total
		total += f.Delay
	}
	return stamps, total
}
