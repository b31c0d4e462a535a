package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	appscan "github.com/khanhnv2901/seca-recon/internal/application/scan"
	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Run reconnaissance probes against a target",
	Long: `Run the selected probes concurrently against one target and print the
aggregated report. The target may be a hostname, an IP address or a URL.

Only scan targets you are authorized to test.`,
	Example: `  seca-recon scan example.com
  seca-recon scan https://example.com --probes tls,security-headers
  seca-recon scan example.com --probes port-scan --scan-mode full --json
  seca-recon scan example.com --format pdf --output example.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	flags := scanCmd.Flags()
	flags.StringSliceVar(&cliConfig.Scan.Probes, "probes", cliConfig.Scan.Probes, "Probes to run (comma separated, or \"all\")")
	flags.IntVar(&cliConfig.Scan.TimeoutSecs, "timeout", cliConfig.Scan.TimeoutSecs, "Per-probe timeout in seconds")
	flags.IntVar(&cliConfig.Scan.Concurrency, "concurrency", cliConfig.Scan.Concurrency, "Maximum probes in flight (0 = all at once)")
	flags.Float64Var(&cliConfig.Scan.RateLimit, "rate-limit", cliConfig.Scan.RateLimit, "Probe dispatches per second (0 = unlimited)")
	flags.StringVar(&cliConfig.PortScan.Mode, "scan-mode", cliConfig.PortScan.Mode, "Port-scan mode: quick, full or service-detection")
	flags.StringVar(&cliConfig.PortScan.Backend, "port-backend", cliConfig.PortScan.Backend, "Port-scan backend: connect or nmap")
	flags.BoolVar(&cliConfig.Fingerprint.Favicon, "favicon", cliConfig.Fingerprint.Favicon, "Hash the favicon during fingerprinting")
	flags.BoolVar(&cliConfig.HTTP.InsecureSkipVerify, "insecure", cliConfig.HTTP.InsecureSkipVerify, "Skip certificate verification for HTTP probes")
	flags.StringVar(&cliConfig.Output.Format, "format", cliConfig.Output.Format, "Output format: "+strings.Join(reportFormats, ", "))
	flags.Bool("json", false, "Shorthand for --format json")
	flags.StringVarP(&cliConfig.Output.File, "output", "O", "", "Write the report to a file instead of stdout")
	flags.BoolVar(&cliConfig.Output.Progress, "progress", false, "Show a live probe counter on stderr")
}

func runScan(cmd *cobra.Command, args []string) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		cliConfig.Output.Format = formatJSON
	}
	format := strings.ToLower(cliConfig.Output.Format)
	if err := validateFormat(format); err != nil {
		return err
	}
	if format == formatPDF && cliConfig.Output.File == "" {
		return &FlagError{Flag: "output", Reason: "required for pdf output"}
	}
	if cliConfig.Scan.TimeoutSecs <= 0 {
		return &FlagError{Flag: "timeout", Value: fmt.Sprint(cliConfig.Scan.TimeoutSecs), Reason: "must be positive"}
	}
	if cliConfig.Scan.Concurrency < 0 {
		return &FlagError{Flag: "concurrency", Value: fmt.Sprint(cliConfig.Scan.Concurrency), Reason: "must not be negative"}
	}
	kinds, err := scan.ParseKinds(cliConfig.Scan.Probes)
	if err != nil {
		return &FlagError{Flag: "probes", Reason: err.Error()}
	}
	kinds = scan.SortKinds(kinds)

	var progress *progressPrinter
	var extra []appscan.OrchestratorOption
	if cliConfig.Output.Progress {
		progress = newProgressPrinter(cmd.ErrOrStderr(), len(kinds), "scan")
		extra = append(extra, appscan.WithResultHook(progress.Observe))
	}

	svc, err := newScanService(cliConfig, baseLogger, extra...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if format == formatText && cliConfig.Output.File == "" {
		fmt.Fprintf(out, "%s Scanning %s (%d probes)\n", colorInfo("→"), args[0], len(kinds))
	}

	if progress != nil {
		progress.Start()
	}
	rep, err := svc.RunScan(ctx, args[0], kinds)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if cliConfig.Output.File != "" {
		var buf bytes.Buffer
		if err := encodePlain(&buf, rep, format); err != nil {
			return err
		}
		if err := os.WriteFile(cliConfig.Output.File, buf.Bytes(), consts.DefaultFilePerm); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s Report written to %s\n", colorSuccess("✓"), cliConfig.Output.File)
	} else if err := encodeReport(out, rep, format); err != nil {
		return err
	}

	logger.Infow("scan complete",
		"session_id", rep.SessionID(),
		"target", rep.Target(),
		"posture", string(rep.Posture()),
		"succeeded", rep.Succeeded(),
		"failed", rep.Failed(),
	)
	return nil
}
