package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	"github.com/khanhnv2901/seca-recon/internal/portscan"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system information and scanner availability",
	Long: `Display SECA-RECON configuration information including:
  - Configuration file in use
  - Supported probes and default probe set
  - Port scan backend and nmap availability
  - Platform information`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile := viper.ConfigFileUsed()
		configExists := "✗ (using defaults)"
		if configFile == "" {
			if homeDir, err := os.UserHomeDir(); err == nil {
				configFile = filepath.Join(homeDir, ".seca-recon.yaml")
			}
		}
		if _, err := os.Stat(configFile); configFile != "" && err == nil {
			configExists = "✓ (exists)"
		}

		nmapPath := cliConfig.PortScan.NmapPath
		if nmapPath == "" {
			nmapPath = "nmap"
		}
		nmapState := "✗ (not found, connect backend only)"
		if found, err := exec.LookPath(nmapPath); err == nil {
			nmapState = "✓ " + found
		}

		out := cmd.OutOrStdout()

		fmt.Fprintln(out, colorTitle("SECA-RECON System Information"))
		fmt.Fprintln(out, "=============================")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Platform:            %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Configuration File:  %s %s\n", configFile, configExists)
		fmt.Fprintf(out, "Output Format:       %s\n", cliConfig.Output.Format)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Probes:")
		fmt.Fprintf(out, "  Supported:         %v\n", scan.AllKinds)
		fmt.Fprintf(out, "  Default Set:       %v\n", cliConfig.Scan.Probes)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Port Scanning:")
		fmt.Fprintf(out, "  Backend:           %s\n", cliConfig.PortScan.Backend)
		fmt.Fprintf(out, "  Default Mode:      %s\n", cliConfig.PortScan.Mode)
		fmt.Fprintf(out, "  nmap:              %s\n", nmapState)
		fmt.Fprintf(out, "  Modes:             %v\n", portscan.Modes)

		return nil
	},
}
