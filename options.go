// Package webharness is the entry point for the browser E2E test core: a
// builder that accumulates options and exactly one hosting strategy, and an
// App that starts it, resolves typed pages against a driver, and tears
// everything down on Dispose.
package webharness

import (
	"log/slog"
	"strings"
	"time"
)

// Headless is a tri-state so "resolve automatically" is distinguishable
// from an explicit on/off choice.
type Headless int

const (
	HeadlessAuto Headless = iota
	HeadlessOn
	HeadlessOff
)

// Options is the mutable configuration record accumulated by Builder before
// build(). Only Builder mutates it; pages never see it directly.
type Options struct {
	BaseURL            string
	DefaultWaitTimeout time.Duration
	HeadlessMode       Headless
	SlowMo             time.Duration
	EnvironmentName    string
	SpaProxyEnabled    bool
	// EnvironmentVariables uses case-insensitive keys: Builder normalizes
	// every key to upper case on insert so "Port" and "PORT" collide.
	EnvironmentVariables map[string]string
	LogLevel             slog.Level
}

// DefaultOptions mirrors the field defaults spec.md assigns: a 30s wait
// timeout, "Testing" environment, SPA proxy off, info-level logging.
func DefaultOptions() Options {
	return Options{
		DefaultWaitTimeout:   30 * time.Second,
		HeadlessMode:         HeadlessAuto,
		EnvironmentName:      "Testing",
		EnvironmentVariables: map[string]string{},
		LogLevel:             slog.LevelInfo,
	}
}

func normalizeEnvKey(k string) string { return strings.ToUpper(k) }
