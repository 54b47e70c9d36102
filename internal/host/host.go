// Package host answers questions about the machine the packer runs on.
// Nothing here touches the filesystem, so it is safe to call before any
// other work starts.
package host

import (
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/BadgerOps/mangapack/internal/failure"
)

// SupportedEnv overrides DefaultSupported with a comma-separated GOOS list.
const SupportedEnv = "MANGAPACK_SUPPORTED_OS"

// DefaultSupported is the operating system family the packer is released for.
var DefaultSupported = []string{"windows"}

// SupportedPlatforms returns the GOOS values allowed to run the packer.
func SupportedPlatforms() []string {
	raw := strings.TrimSpace(os.Getenv(SupportedEnv))
	if raw == "" {
		return DefaultSupported
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return DefaultSupported
	}
	return out
}

// CheckPlatform returns an input error when goos is not in supported.
func CheckPlatform(goos string, supported []string) error {
	for _, s := range supported {
		if strings.EqualFold(s, goos) {
			return nil
		}
	}
	return failure.New(failure.KindInput, "platform", "",
		"unsupported operating system "+goos+" (supported: "+strings.Join(supported, ", ")+")")
}

// LogicalCores reports the number of logical CPUs, falling back to the Go
// runtime's view when the host query fails.
func LogicalCores() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Workers resolves a requested worker count: anything <= 0 means one per
// logical core.
func Workers(requested int) int {
	if requested > 0 {
		return requested
	}
	return LogicalCores()
}
