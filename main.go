package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudposse/flopen/cmd"
	errUtils "github.com/cloudposse/flopen/errors"
	log "github.com/cloudposse/flopen/pkg/logger"
)

func main() {
	// Exit with the correct POSIX exit code (128 + signal number) when
	// interrupted. A held lock is released by process exit in any case.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		if s, ok := sig.(syscall.Signal); ok {
			errUtils.OsExit(128 + int(s))
		}
		// Fallback to SIGINT exit code if signal type assertion fails.
		errUtils.OsExit(130)
	}()

	errUtils.OsExit(run())
}

// run executes the CLI and returns an exit code. The separation allows
// deferred cleanup to run before os.Exit in main().
func run() int {
	err := cmd.Execute()
	if err != nil {
		errUtils.CheckErrorAndPrint(err)

		exitCode := errUtils.GetExitCode(err)
		log.Debug("Exiting with exit code", "code", exitCode)
		return exitCode
	}

	return 0
}
