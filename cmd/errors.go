package cmd

import "fmt"

// ConfigError reports a config file that exists but cannot be read.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to read config: %v", e.Err)
	}
	return fmt.Sprintf("failed to read config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FlagError signals an invalid flag value.
type FlagError struct {
	Flag   string
	Value  string
	Reason string
}

func (e *FlagError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid --%s: %s", e.Flag, e.Reason)
	}
	return fmt.Sprintf("invalid --%s %q: %s", e.Flag, e.Value, e.Reason)
}
