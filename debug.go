package vview

import "fmt"

// PlayerStats is a snapshot of a ZipPlayer's pipeline.
type PlayerStats struct {
	Frame      int
	Frames     int
	Downloaded int
	// Decoded counts frames holding a decoded image. It never exceeds two.
	Decoded  int
	Decoding bool
	// Waiting is set while display is stalled on a decode.
	Waiting bool
	Paused  bool
	Loaded  bool
}

func (s PlayerStats) String() string {
	state := "playing"
	switch {
	case s.Waiting:
		state = "waiting"
	case s.Paused:
		state = "paused"
	}
	return fmt.Sprintf("frame %d/%d | downloaded %d | decoded %d | %s",
		s.Frame+1, s.Frames, s.Downloaded, s.Decoded, state)
}

// Stats reports the player's pipeline state.
func (p *ZipPlayer) Stats() PlayerStats {
	s := PlayerStats{
		Frame:      p.frame,
		Frames:     p.FrameCount(),
		Downloaded: len(p.frameData),
		Decoding:   p.decoding >= 0,
		Waiting:    p.waitingForFrame,
		Paused:     p.paused,
		Loaded:     p.loaded,
	}
	for _, img := range p.frameImages {
		if img != nil {
			s.Decoded++
		}
	}
	return s
}

// debugLog prints the pipeline state when Debug is set.
func (p *ZipPlayer) debugLog(event string) {
	if !Debug {
		return
	}
	debugf("zip player: %s: %v", event, p.Stats())
}
