package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/khanhnv2901/seca-recon/internal/checker"
	"github.com/khanhnv2901/seca-recon/internal/portscan"
	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

const (
	defaultTimeoutSeconds     = 10
	defaultDNSTimeoutSeconds  = 5
	defaultPortDialTimeoutSec = 2
	defaultAPIAddr            = "127.0.0.1:8080"
	defaultAPIRateLimit       = 10
	defaultAPIRateBurst       = 20
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Scan        ScanConfig
	HTTP        HTTPConfig
	Fingerprint FingerprintConfig
	PortScan    PortScanConfig
	DNS         DNSConfig
	API         APIConfig
	Output      OutputConfig
}

// ScanConfig holds orchestration settings.
type ScanConfig struct {
	TimeoutSecs int
	Concurrency int
	RateLimit   float64
	Probes      []string
}

// HTTPConfig configures the HTTP client every probe builds.
type HTTPConfig struct {
	UserAgent          string
	MaxBodyBytes       int64
	InsecureSkipVerify bool
}

// FingerprintConfig toggles optional fingerprint work.
type FingerprintConfig struct {
	Favicon bool
}

// PortScanConfig configures the port-scan probe.
type PortScanConfig struct {
	Mode            string
	Backend         string
	NmapPath        string
	Ports           []int
	Workers         int
	DialTimeoutSecs int
	RateLimit       float64
}

// DNSConfig groups DNS-specific runtime options.
type DNSConfig struct {
	Nameservers []string
	TimeoutSecs int
}

// OutputConfig controls how scan reports are printed.
type OutputConfig struct {
	Format   string
	File     string
	Progress bool
}

// APIConfig configures the serve command.
type APIConfig struct {
	Addr      string
	AuthToken string
	RateLimit int
	RateBurst int
}

var cliConfig = newCLIConfig()

// noFlags stands in for commands that do not define a section's flags.
var noFlags = pflag.NewFlagSet("none", pflag.ContinueOnError)

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Scan: ScanConfig{
			TimeoutSecs: defaultTimeoutSeconds,
			Probes:      []string{"all"},
		},
		HTTP: HTTPConfig{
			UserAgent:    consts.DefaultUserAgent,
			MaxBodyBytes: consts.MaxBodyBytes,
		},
		PortScan: PortScanConfig{
			Mode:            string(portscan.DefaultMode),
			Backend:         portscan.BackendConnect,
			Workers:         consts.DefaultPortScanWorkers,
			DialTimeoutSecs: defaultPortDialTimeoutSec,
		},
		DNS: DNSConfig{
			Nameservers: []string{},
			TimeoutSecs: defaultDNSTimeoutSeconds,
		},
		API: APIConfig{
			Addr:      defaultAPIAddr,
			RateLimit: defaultAPIRateLimit,
			RateBurst: defaultAPIRateBurst,
		},
		Output: OutputConfig{
			Format: formatText,
		},
	}
}

// loadConfig reads config-file and environment values into cfg. Flags that
// the user set explicitly on the running command keep their value.
func loadConfig(cmd *cobra.Command, cfg *CLIConfig) {
	scanFlags, serveFlags := noFlags, noFlags
	switch cmd {
	case scanCmd:
		scanFlags = cmd.Flags()
	case serveCmd:
		serveFlags = cmd.Flags()
	}

	if viper.IsSet("scan.timeout_secs") {
		applyIntDefault(scanFlags, "timeout", viper.GetInt("scan.timeout_secs"), func(v int) { cfg.Scan.TimeoutSecs = v })
	}
	if viper.IsSet("scan.concurrency") {
		applyIntDefault(scanFlags, "concurrency", viper.GetInt("scan.concurrency"), func(v int) { cfg.Scan.Concurrency = v })
	}
	if viper.IsSet("scan.rate_limit") {
		applyFloatDefault(scanFlags, "rate-limit", viper.GetFloat64("scan.rate_limit"), func(v float64) { cfg.Scan.RateLimit = v })
	}
	if viper.IsSet("scan.probes") {
		applyStringSliceDefault(scanFlags, "probes", viper.GetStringSlice("scan.probes"), func(v []string) { cfg.Scan.Probes = v })
	}

	if viper.IsSet("http.user_agent") {
		cfg.HTTP.UserAgent = viper.GetString("http.user_agent")
	}
	if viper.IsSet("http.max_body_bytes") {
		cfg.HTTP.MaxBodyBytes = viper.GetInt64("http.max_body_bytes")
	}
	if viper.IsSet("http.insecure_skip_verify") {
		applyBoolDefault(scanFlags, "insecure", viper.GetBool("http.insecure_skip_verify"), func(v bool) { cfg.HTTP.InsecureSkipVerify = v })
	}

	if viper.IsSet("fingerprint.favicon") {
		applyBoolDefault(scanFlags, "favicon", viper.GetBool("fingerprint.favicon"), func(v bool) { cfg.Fingerprint.Favicon = v })
	}

	if viper.IsSet("portscan.mode") {
		applyStringDefault(scanFlags, "scan-mode", viper.GetString("portscan.mode"), func(v string) { cfg.PortScan.Mode = v })
	}
	if viper.IsSet("portscan.backend") {
		applyStringDefault(scanFlags, "port-backend", viper.GetString("portscan.backend"), func(v string) { cfg.PortScan.Backend = v })
	}
	if viper.IsSet("portscan.nmap_path") {
		cfg.PortScan.NmapPath = viper.GetString("portscan.nmap_path")
	}
	if viper.IsSet("portscan.ports") {
		cfg.PortScan.Ports = viper.GetIntSlice("portscan.ports")
	}
	if viper.IsSet("portscan.workers") {
		cfg.PortScan.Workers = viper.GetInt("portscan.workers")
	}
	if viper.IsSet("portscan.dial_timeout_secs") {
		cfg.PortScan.DialTimeoutSecs = viper.GetInt("portscan.dial_timeout_secs")
	}
	if viper.IsSet("portscan.rate_limit") {
		cfg.PortScan.RateLimit = viper.GetFloat64("portscan.rate_limit")
	}

	if viper.IsSet("dns.nameservers") {
		cfg.DNS.Nameservers = viper.GetStringSlice("dns.nameservers")
	}
	if viper.IsSet("dns.timeout_secs") {
		cfg.DNS.TimeoutSecs = viper.GetInt("dns.timeout_secs")
	}

	if viper.IsSet("output.format") {
		applyStringDefault(scanFlags, "format", viper.GetString("output.format"), func(v string) { cfg.Output.Format = v })
	}

	if viper.IsSet("api.addr") {
		applyStringDefault(serveFlags, "addr", viper.GetString("api.addr"), func(v string) { cfg.API.Addr = v })
	}
	if viper.IsSet("api.auth_token") {
		applyStringDefault(serveFlags, "auth-token", viper.GetString("api.auth_token"), func(v string) { cfg.API.AuthToken = v })
	}
	if viper.IsSet("api.rate_limit") {
		applyIntDefault(serveFlags, "rate-limit", viper.GetInt("api.rate_limit"), func(v int) { cfg.API.RateLimit = v })
	}
	if viper.IsSet("api.rate_burst") {
		applyIntDefault(serveFlags, "rate-burst", viper.GetInt("api.rate_burst"), func(v int) { cfg.API.RateBurst = v })
	}
}

// checkerOptions converts the CLI config into probe options.
func (c *CLIConfig) checkerOptions() checker.Options {
	return checker.Options{
		HTTP: checker.HTTPOptions{
			UserAgent:          c.HTTP.UserAgent,
			MaxBodyBytes:       c.HTTP.MaxBodyBytes,
			InsecureSkipVerify: c.HTTP.InsecureSkipVerify,
		},
		Favicon: c.Fingerprint.Favicon,
		PortScan: checker.PortScanOptions{
			Backend:     strings.ToLower(c.PortScan.Backend),
			NmapPath:    c.PortScan.NmapPath,
			Mode:        portscan.Mode(c.PortScan.Mode),
			Ports:       c.PortScan.Ports,
			Workers:     c.PortScan.Workers,
			DialTimeout: seconds(c.PortScan.DialTimeoutSecs),
			RateLimit:   c.PortScan.RateLimit,
			Nameservers: c.DNS.Nameservers,
			DNSTimeout:  seconds(c.DNS.TimeoutSecs),
		},
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyFloatDefault(flags *pflag.FlagSet, name string, value float64, setter func(float64)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyStringDefault(flags *pflag.FlagSet, name, value string, setter func(string)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyStringSliceDefault(flags *pflag.FlagSet, name string, value []string, setter func([]string)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}
