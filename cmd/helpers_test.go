package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/viper"
	"go.uber.org/zap/zaptest"
)

// withTestCLI isolates the package-level CLI state for one test and
// captures scan command output.
func withTestCLI(t *testing.T) *bytes.Buffer {
	t.Helper()

	original := *cliConfig
	cliConfig.Scan.Probes = append([]string(nil), original.Scan.Probes...)
	origLogger, origBase := logger, baseLogger
	base := zaptest.NewLogger(t)
	baseLogger, logger = base, base.Sugar()

	prevColor := color.NoColor
	color.NoColor = true

	var out bytes.Buffer
	scanCmd.SetOut(&out)
	scanCmd.SetErr(&out)
	scanCmd.SetContext(context.Background())

	t.Cleanup(func() {
		*cliConfig = original
		logger, baseLogger = origLogger, origBase
		color.NoColor = prevColor
		scanCmd.SetOut(nil)
		scanCmd.SetErr(nil)
		viper.Reset()
	})
	return &out
}
