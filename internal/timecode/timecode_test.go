package timecode

import (
	"errors"
	"testing"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		sec  float64
		want string
	}{
		{0, "0:00"},
		{5.9, "0:05"},
		{65, "1:05"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.sec); got != tt.want {
			t.Errorf("FormatTime(%v) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}

func TestFormatTimePrecise(t *testing.T) {
	if got := FormatTimePrecise(65.25); got != "1:05.250" {
		t.Errorf("FormatTimePrecise(65.25) = %q", got)
	}
	if got := FormatTimePrecise(0.0004); got != "0:00.000" {
		t.Errorf("FormatTimePrecise(0.0004) = %q", got)
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12", 12, false},
		{"12.5", 12.5, false},
		{"1:05", 65, false},
		{"1:02:03.5", 3723.5, false},
		{" 0:30 ", 30, false},
		{"", 0, true},
		{"1:75", 0, true},
		{"a:10", 0, true},
		{"1:2:3:4", 0, true},
		{"-4", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTime) {
					t.Fatalf("ParseTime(%q) error = %v, want ErrInvalidTime", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTime(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0.5, 2) != 2 || Clamp(0.1, 0.5, 2) != 0.5 || Clamp(1.2, 0.5, 2) != 1.2 {
		t.Fatal("Clamp mismatch")
	}
}

func TestTimecode(t *testing.T) {
	tests := []struct {
		sec  float64
		fps  int
		want string
	}{
		{0, 30, "00:00:00:00"},
		{1, 30, "00:00:01:00"},
		{0.5, 30, "00:00:00:15"},
		{60, 30, "00:01:00:00"},
		{3600, 30, "01:00:00:00"},
		{2.5, 0, "00:00:02:15"},
	}
	for _, tt := range tests {
		if got := Timecode(tt.sec, tt.fps); got != tt.want {
			t.Errorf("Timecode(%v, %d) = %q, want %q", tt.sec, tt.fps, got, tt.want)
		}
	}
}
