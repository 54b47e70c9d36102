//go:build !windows

package scan

import "os"

func hasHiddenAttribute(string, os.FileInfo) bool {
	return false
}
