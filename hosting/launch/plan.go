// Package launch implements the process launcher: turning a LaunchPlan into
// a running child process, streaming its stdio to a logger, driving an HTTP
// readiness loop, and tearing it down cleanly on dispose.
package launch

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// ReadinessProbeKind selects how Launcher decides a hosted process is ready.
// HTTP is the only kind implemented; the type exists so a future probe kind
// (e.g. TCP-connect) can be added without changing LaunchPlan's shape.
type ReadinessProbeKind int

const (
	ProbeHTTP ReadinessProbeKind = iota
)

// LaunchPlan is an immutable, fully materialized description of how to spawn
// and supervise one child process. Every field is resolved before
// construction — nothing about the plan depends on a later call.
type LaunchPlan struct {
	Executable           string
	Arguments            []string
	WorkingDirectory     string
	Environment          map[string]string
	BaseURL              string
	StartupTimeout       time.Duration
	HealthCheckEndpoints []string
	ReadinessProbeKind   ReadinessProbeKind
	InitialDelay         time.Duration
	PollInterval         time.Duration
	StreamOutput         bool
	RedactedEnvKeys      map[string]struct{}
	// ProcessName, if set, restricts port reclamation to processes whose
	// image name contains this substring.
	ProcessName string
}

// DefaultRedactedEnvKeys lists env var name fragments commonly carrying
// secrets; callers can extend or replace this set.
func DefaultRedactedEnvKeys() map[string]struct{} {
	return map[string]struct{}{
		"CONNECTIONSTRING": {},
		"PASSWORD":         {},
		"SECRET":           {},
		"APIKEY":           {},
		"TOKEN":            {},
	}
}

// ConfigurationHash returns a stable digest over the plan's observable
// shape: executable, canonically sorted arguments, canonically sorted env,
// base URL, health endpoints, and timeouts. Two plans built from
// logically identical configuration, regardless of setter call order,
// hash identically.
func (p LaunchPlan) ConfigurationHash() string {
	h := sha256.New()
	h.Write([]byte(p.Executable))
	h.Write([]byte{0})

	args := append([]string(nil), p.Arguments...)
	sort.Strings(args)
	h.Write([]byte(strings.Join(args, "\x1f")))
	h.Write([]byte{0})

	keys := make([]string, 0, len(p.Environment))
	for k := range p.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(p.Environment[k]))
		h.Write([]byte{0})
	}

	h.Write([]byte(p.BaseURL))
	h.Write([]byte{0})

	endpoints := append([]string(nil), p.HealthCheckEndpoints...)
	h.Write([]byte(strings.Join(endpoints, "\x1f")))
	h.Write([]byte{0})

	h.Write([]byte(p.StartupTimeout.String()))

	return hex.EncodeToString(h.Sum(nil))
}

// IsRedacted reports whether key should be logged with a placeholder
// instead of its real value.
func (p LaunchPlan) IsRedacted(key string) bool {
	upper := strings.ToUpper(key)
	for frag := range p.RedactedEnvKeys {
		if strings.Contains(upper, strings.ToUpper(frag)) {
			return true
		}
	}
	return false
}

// RedactedEnvironment returns a copy of Environment with every redacted
// key's value replaced, safe to pass to a logger.
func (p LaunchPlan) RedactedEnvironment() map[string]string {
	out := make(map[string]string, len(p.Environment))
	for k, v := range p.Environment {
		if p.IsRedacted(k) {
			out[k] = "***redacted***"
		} else {
			out[k] = v
		}
	}
	return out
}

// HealthCheckURLs joins BaseURL with each health check endpoint in order. A
// path not beginning with "/" is concatenated directly rather than
// URL-joined.
func (p LaunchPlan) HealthCheckURLs() []string {
	urls := make([]string, 0, len(p.HealthCheckEndpoints))
	base := strings.TrimSuffix(p.BaseURL, "/")
	for _, ep := range p.HealthCheckEndpoints {
		if strings.HasPrefix(ep, "/") {
			urls = append(urls, base+ep)
		} else {
			urls = append(urls, p.BaseURL+ep)
		}
	}
	return urls
}
