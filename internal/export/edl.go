package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/trimline/trimline/internal/timecode"
)

// EDLEvent is one edit in a CMX3600 list. Source times are in seconds.
type EDLEvent struct {
	Name      string
	MediaPath string
	SourceIn  float64
	SourceOut float64
	Speed     float64
}

// EDLEvents converts a flattened timeline into edit events.
func EDLEvents(entries []TimelineEntry) []EDLEvent {
	events := make([]EDLEvent, 0, len(entries))
	for _, e := range entries {
		events = append(events, EDLEvent{
			Name:      e.Video.Name,
			MediaPath: e.Video.SourcePath(),
			SourceIn:  e.Clip.InPoint,
			SourceOut: e.Clip.InPoint + e.Duration(),
			Speed:     e.Speed,
		})
	}
	return events
}

// GenerateEDL renders events back to back on the record side. Speed changes
// shorten or stretch the record span and emit an M2 motion line.
func GenerateEDL(events []EDLEvent, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	record := 0.0
	for i, ev := range events {
		speed := ev.Speed
		if speed <= 0 {
			speed = 1
		}
		recordLen := (ev.SourceOut - ev.SourceIn) / speed
		reel := reelName(ev.MediaPath)

		lines = append(lines, fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s",
			i+1, reel, "AA/V",
			timecode.Timecode(ev.SourceIn, fps),
			timecode.Timecode(ev.SourceOut, fps),
			timecode.Timecode(record, fps),
			timecode.Timecode(record+recordLen, fps),
		))
		if speed != 1 {
			lines = append(lines, fmt.Sprintf("M2   %-8s %05.1f    %s", reel, float64(fps)*speed, timecode.Timecode(ev.SourceIn, fps)))
		}
		lines = append(lines,
			fmt.Sprintf("* FROM CLIP NAME:  %s", ev.Name),
			fmt.Sprintf("* MEDIA PATH:  %s", ev.MediaPath),
		)

		record += recordLen
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// reelName derives an 8-character reel from the media file name.
func reelName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var b strings.Builder
	for _, r := range strings.ToUpper(base) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == 8 {
			break
		}
	}
	if b.Len() == 0 {
		return "AX"
	}
	return b.String()
}
