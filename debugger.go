package webharness

import (
	"os"
	"strconv"
	"strings"
)

// debuggerAttached reports whether a tracer (delve, gdb, strace) is attached
// to this process, by reading /proc/self/status's TracerPid field. Returns
// false wherever that file is unavailable (non-Linux, sandboxed) rather
// than erroring — headless_mode=auto degrades to "on" in that case, which
// is the safe default for CI.
func debuggerAttached() bool {
	data, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "TracerPid:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return false
		}
		pid, err := strconv.Atoi(fields[1])
		return err == nil && pid != 0
	}
	return false
}
