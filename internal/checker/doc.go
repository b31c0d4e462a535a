// Package checker implements the reconnaissance probes.
//
// Architecture overview:
//
//   - Every probe implements scan.Probe (Kind + Execute) and turns transport
//     errors into a failed scan.Result instead of returning them.
//   - HTTP probes build a short-lived client per execution (newHTTPSession)
//     and close it before returning, so probes share no connections.
//   - Pure helpers (AnalyzeSecurityHeaders, ClassifyRedirect, ExtractSEO) are
//     exported so the rules can be tested without a network.
//   - NewRegistry wires one instance of every probe from Options; cmd/ and the
//     API server only deal with the registry.
//
// Port scanning is delegated to internal/portscan, which validates targets
// before any scanner is invoked.
package checker
