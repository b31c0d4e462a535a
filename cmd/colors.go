package cmd

import (
	"strings"

	"github.com/fatih/color"

	"github.com/khanhnv2901/seca-recon/internal/domain/report"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorTitle   = color.New(color.Bold).SprintFunc()
)

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "pass", "present", "yes":
		return colorSuccess(status)
	case "error", "fail", "failed", "failure", "missing", "no":
		return colorError(status)
	default:
		return status
	}
}

func formatPostureWithColor(p report.Posture) string {
	label := strings.ToUpper(string(p))
	switch p {
	case report.PostureGood:
		return colorSuccess(label)
	case report.PosturePoor:
		return colorError(label)
	default:
		return colorWarn(label)
	}
}
