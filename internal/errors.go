package internal

import "fmt"

// StorageError represents errors accessing local session files
type StorageError struct {
	Path string
	Op   string // "open", "read", "write", "scan"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing a single session file or record
type ParseError struct {
	Source string // "session", "heartbeat", "agents"
	Key    string // file path or KV key
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigError reports a missing or invalid required setting
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("config error: %s is not configured", e.Field)
	}
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Reason)
}

// ProviderError wraps a failure of a single provider operation
type ProviderError struct {
	Provider Provider
	Op       string // "list", "detail", "start", "stop"
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
