package logger

import (
	"log"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	bridgeMu        sync.Mutex
	bridgeInstalled bool
)

// RedirectStdLog routes the standard library logger, which the engines and
// their libraries write to, into l. Only the first call installs the bridge;
// later calls are no-ops and return false. The bridge lives for the process.
func RedirectStdLog(l hclog.Logger) bool {
	bridgeMu.Lock()
	defer bridgeMu.Unlock()

	if bridgeInstalled {
		return false
	}
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(l.Named("engine").StandardWriter(&hclog.StandardLoggerOptions{InferLevels: true}))
	bridgeInstalled = true
	return true
}

// StdLogRedirected reports whether RedirectStdLog has installed the bridge.
func StdLogRedirected() bool {
	bridgeMu.Lock()
	defer bridgeMu.Unlock()
	return bridgeInstalled
}
