package vview

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func TestPlayerStatsDecodeWindow(t *testing.T) {
	loop, p, _ := newTestPlayer(t, BytesSource{Data: localArchive(t, []int{50, 50, 50, 50, 50}), Local: true}, PlayerOptions{Autoplay: true})
	settle(t, loop)
	for i := 0; i < 6; i++ {
		s := p.Stats()
		if s.Decoded > 2 {
			t.Fatalf("step %d: %d frames decoded", i, s.Decoded)
		}
		loop.Advance(50 * time.Millisecond)
		settle(t, loop)
	}
	s := p.Stats()
	if s.Frame != 4 || s.Frames != 5 || s.Downloaded != 5 || !s.Loaded || !s.Paused {
		t.Errorf("final stats = %+v", s)
	}
	if got := s.String(); got != "frame 5/5 | downloaded 5 | decoded 1 | paused" {
		t.Errorf("String = %q", got)
	}
}

func TestPlayerDebugLog(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(os.Stderr)
	defer func(prev bool) { Debug = prev }(Debug)

	loop, p, _ := newTestPlayer(t, BytesSource{Data: localArchive(t, []int{50}), Local: true}, PlayerOptions{})
	settle(t, loop)
	Debug = false
	p.debugLog("quiet")
	Debug = true
	p.debugLog("seek")
	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, "[vview] zip player: seek: frame 1/1") {
		t.Errorf("log output = %q", out)
	}
}
