package main

import (
	"os"

	"github.com/BadgerOps/mangapack/internal/failure"
)

func main() {
	os.Exit(exitCode(NewRootCmd().Execute()))
}

// exitCode maps a command error to the process status: 2 when the run was
// refused before any work began, 1 for anything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case failure.IsFatal(err):
		return 2
	default:
		return 1
	}
}
