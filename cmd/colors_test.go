package cmd

import (
	"testing"

	"github.com/fatih/color"

	"github.com/khanhnv2901/seca-recon/internal/domain/report"
)

func TestFormatStatusWithColor(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = original
	})

	tests := []struct {
		name   string
		status string
		want   string
	}{
		{name: "success", status: "OK", want: "OK"},
		{name: "present", status: "present", want: "present"},
		{name: "failure", status: "FAILED", want: "FAILED"},
		{name: "unknown", status: "pending", want: "pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatStatusWithColor(tt.status); got != tt.want {
				t.Fatalf("formatStatusWithColor(%q) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestFormatPostureWithColor(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = original
	})

	for p, want := range map[report.Posture]string{
		report.PostureGood:    "GOOD",
		report.PosturePoor:    "POOR",
		report.PostureUnknown: "UNKNOWN",
	} {
		if got := formatPostureWithColor(p); got != want {
			t.Errorf("formatPostureWithColor(%q) = %q, want %q", p, got, want)
		}
	}
}
