package launch

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"webharness/internal/obslog"
)

// PortReclaimer frees a target port before a child process binds it. A
// reclaimer must never terminate a process whose image name does not
// contain processName (when processName is non-empty) — killing an
// unrelated process that happens to hold the port is exactly the failure
// mode this guard exists to prevent.
type PortReclaimer interface {
	Reclaim(ctx context.Context, baseURL, processName string, logger obslog.Logger)
}

// BestEffortReclaimer shells out to lsof to find the PID(s) listening on
// baseURL's port and, for each, inspects /proc/<pid>/comm before deciding
// to terminate it. It never errors: a failed lsof call or signal is
// swallowed without logging, leaving the subsequent bind to fail loudly
// instead. With an empty processName every listener on the port is signalled.
type BestEffortReclaimer struct{}

func (BestEffortReclaimer) Reclaim(ctx context.Context, baseURL, processName string, logger obslog.Logger) {
	port := portOf(baseURL)
	if port == "" {
		return
	}
	pids := listeningPIDs(ctx, port)
	for _, pid := range pids {
		name := processName
		if name != "" && !processNameMatches(pid, name) {
			logger.Debug(ctx, "hosting.port_reclaim_skip", "pid", pid, "port", port)
			continue
		}
		if p, err := os.FindProcess(pid); err == nil {
			logger.Info(ctx, "hosting.port_reclaim", "pid", pid, "port", port)
			_ = p.Signal(syscall.SIGTERM)
		}
	}
}

func portOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Port()
}

func listeningPIDs(ctx context.Context, port string) []int {
	out, err := exec.CommandContext(ctx, "lsof", "-t", "-i", fmt.Sprintf(":%s", port), "-sTCP:LISTEN").Output()
	if err != nil {
		return nil
	}
	var pids []int
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		if pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text())); err == nil {
			pids = append(pids, pid)
		}
	}
	return pids
}

func processNameMatches(pid int, processName string) bool {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return false
	}
	return strings.Contains(strings.TrimSpace(string(data)), processName)
}

// NoopReclaimer performs no port reclamation; useful in tests where the
// caller controls port allocation and the lsof dependency is undesirable.
type NoopReclaimer struct{}

func (NoopReclaimer) Reclaim(context.Context, string, string, obslog.Logger) {}
