// Package portscan adapts host port scanners to the reconnaissance engine.
//
// It validates that a target is public before any scanner runs, maps the
// caller-facing scan modes to scanner arguments, and provides two backends:
// the nmap binary and a built-in TCP connect scanner.
package portscan
