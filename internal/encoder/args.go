package encoder

import (
	"strconv"
	"strings"
)

// Args renders the job as ffmpeg arguments. Progress is always requested on
// stdout in key=value form.
func (j Job) Args() []string {
	args := []string{"-hide_banner", "-y"}

	if j.InputFormat == "concat" {
		args = append(args, "-f", "concat", "-safe", "0")
	} else if j.InputFormat != "" {
		args = append(args, "-f", j.InputFormat)
	}
	if j.Start > 0 {
		args = append(args, "-ss", formatSeconds(j.Start))
	}
	args = append(args, "-i", j.Input)
	if j.Duration > 0 {
		args = append(args, "-t", formatSeconds(j.Duration))
	}

	if j.NoVideo {
		args = append(args, "-vn")
	}
	if len(j.VideoFilters) > 0 {
		args = append(args, "-filter:v", strings.Join(j.VideoFilters, ","))
	}
	if len(j.AudioFilters) > 0 {
		args = append(args, "-filter:a", strings.Join(j.AudioFilters, ","))
	}
	if j.Size != "" {
		args = append(args, "-s", j.Size)
	}

	if j.StreamCopy {
		args = append(args, "-c", "copy")
	} else {
		if j.VideoCodec != "" {
			args = append(args, "-c:v", j.VideoCodec)
		}
		if j.Preset != "" {
			args = append(args, "-preset", j.Preset)
		}
		if j.CRF > 0 {
			args = append(args, "-crf", strconv.Itoa(j.CRF))
		}
		if j.VideoBitrate != "" {
			args = append(args, "-b:v", j.VideoBitrate)
		}
		if j.AudioCodec != "" {
			args = append(args, "-c:a", j.AudioCodec)
		}
		if j.AudioBitrate != "" {
			args = append(args, "-b:a", j.AudioBitrate)
		}
	}

	if j.Format != "" {
		args = append(args, "-f", j.Format)
	}
	args = append(args, j.OutputOptions...)
	args = append(args, "-progress", "pipe:1", "-nostats", j.Output)
	return args
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
