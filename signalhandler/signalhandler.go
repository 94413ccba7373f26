package signalhandler

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

// SetupHandler configures signal handling for safer interaction with C libraries
func SetupHandler() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			// Clean shutdown
			os.Exit(0)
		}
	}()
}

// GetOptimalProcs returns the optimal number of worker goroutines for the system
func GetOptimalProcs() int {
	numCPU := runtime.NumCPU()

	// Image decoding goes through CGo; too many goroutines causes issues
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
