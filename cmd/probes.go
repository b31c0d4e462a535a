package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	"github.com/khanhnv2901/seca-recon/internal/portscan"
)

var probeDescriptions = map[scan.Kind]string{
	scan.KindHeaders:         "Fetch the page and record its response headers",
	scan.KindSecurityHeaders: "Check the security header checklist",
	scan.KindHTTPSRedirect:   "Check whether plain HTTP redirects to HTTPS",
	scan.KindTLS:             "Inspect the TLS certificate and session",
	scan.KindWAF:             "Detect a web application firewall",
	scan.KindCDN:             "Detect CDN providers from response headers",
	scan.KindFingerprint:     "Fingerprint CMS, frameworks and backends",
	scan.KindPerformance:     "Time one request round-trip",
	scan.KindSEO:             "Audit page metadata, robots.txt and sitemap",
	scan.KindPortScan:        "Scan for open TCP ports (public targets only)",
}

var probesCmd = &cobra.Command{
	Use:   "probes",
	Short: "List available probes and port-scan modes",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, colorTitle("Probes:"))
		for _, k := range scan.AllKinds {
			fmt.Fprintf(out, "  %-18s %s\n", colorInfo(string(k)), probeDescriptions[k])
		}
		fmt.Fprintln(out, colorTitle("Port-scan modes:"))
		for _, m := range portscan.Modes {
			suffix := ""
			if m == portscan.DefaultMode {
				suffix = " (default)"
			}
			fmt.Fprintf(out, "  %s%s\n", m, suffix)
		}
	},
}
