package launch

import (
	"os"
	"syscall"
)

// terminationSignal returns the graceful-shutdown signal sent before a
// force-kill.
func terminationSignal() os.Signal { return syscall.SIGTERM }
