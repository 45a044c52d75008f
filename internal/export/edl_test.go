package export

import (
	"strings"
	"testing"

	"github.com/trimline/trimline/internal/editor"
)

func TestGenerateEDL_SingleClip(t *testing.T) {
	events := []EDLEvent{{
		Name:      "Intro",
		MediaPath: "/media/intro.mp4",
		SourceIn:  0,
		SourceOut: 2,
	}}

	edl := GenerateEDL(events, "Project One", 30.0)

	if !strings.Contains(edl, "TITLE: Project One") {
		t.Fatalf("missing title in EDL: %q", edl)
	}
	if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
		t.Fatalf("missing non-drop-frame FCM: %q", edl)
	}
	if !strings.Contains(edl, "001  INTRO    AA/V  C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00") {
		t.Fatalf("missing event line: %q", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  Intro") {
		t.Fatalf("missing clip name comment: %q", edl)
	}
	if !strings.Contains(edl, "* MEDIA PATH:  /media/intro.mp4") {
		t.Fatalf("missing media path comment: %q", edl)
	}
	if strings.Contains(edl, "M2") {
		t.Fatalf("unexpected motion effect for normal speed: %q", edl)
	}
}

func TestGenerateEDL_RecordOffsetAndSpeed(t *testing.T) {
	events := []EDLEvent{
		{Name: "A", MediaPath: "/a.mp4", SourceIn: 0, SourceOut: 1, Speed: 1},
		{Name: "B", MediaPath: "/b.mp4", SourceIn: 1, SourceOut: 5, Speed: 2},
		{Name: "C", MediaPath: "/c.mp4", SourceIn: 10, SourceOut: 11.5},
	}

	edl := GenerateEDL(events, "Multi", 30.0)

	for _, want := range []string{
		"001  A        AA/V  C        00:00:00:00 00:00:01:00 00:00:00:00 00:00:01:00",
		"002  B        AA/V  C        00:00:01:00 00:00:05:00 00:00:01:00 00:00:03:00",
		"M2   B        060.0    00:00:01:00",
		"003  C        AA/V  C        00:00:10:00 00:00:11:15 00:00:03:00 00:00:04:15",
	} {
		if !strings.Contains(edl, want) {
			t.Fatalf("EDL missing %q:\n%s", want, edl)
		}
	}
}

func TestGenerateEDL_DropFrame(t *testing.T) {
	events := []EDLEvent{{Name: "Clip", MediaPath: "/x.mp4", SourceIn: 0, SourceOut: 1}}
	edl := GenerateEDL(events, "Drop", 29.97)

	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Fatalf("expected drop frame FCM, got: %q", edl)
	}
}

func TestEDLEvents_ResolvesSplitSource(t *testing.T) {
	out := 8.0
	entries := []TimelineEntry{{
		Clip:  editor.Clip{InPoint: 3, OutPoint: &out},
		Video: editor.Video{Name: "Part 1", Path: "split:x", IsSplit: true, OriginalPath: "/media/talk.mov", Duration: 60},
		Speed: 1,
	}}

	events := EDLEvents(entries)
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	ev := events[0]
	if ev.MediaPath != "/media/talk.mov" || ev.SourceIn != 3 || ev.SourceOut != 8 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestReelName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/media/intro.mp4", "INTRO"},
		{"/media/my-long_recording 2024.mov", "MYLONGRE"},
		{"/media/__.mp4", "AX"},
	}
	for _, tc := range tests {
		if got := reelName(tc.path); got != tc.want {
			t.Errorf("reelName(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
