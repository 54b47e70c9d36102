//go:build windows

package scan

import (
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

// hasHiddenAttribute prefers the attribute data already carried by info and
// only asks the kernel when it is missing. Any failure reads as "not hidden",
// leaving the leading-dot rule as the only test.
func hasHiddenAttribute(path string, info os.FileInfo) bool {
	if info != nil {
		if data, ok := info.Sys().(*syscall.Win32FileAttributeData); ok && data != nil {
			return data.FileAttributes&windows.FILE_ATTRIBUTE_HIDDEN != 0
		}
	}

	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false
	}
	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0
}
