package scan

import (
	"os"
	"path/filepath"
	"strings"
)

// IsHidden reports whether the entry at path should be treated as hidden.
// A leading dot hides an entry everywhere; on Windows the hidden attribute
// bit is honoured too. info may be nil, in which case the name alone (and,
// on Windows, a direct attribute query) decides.
func IsHidden(path string, info os.FileInfo) bool {
	name := filepath.Base(path)
	if info != nil {
		name = info.Name()
	}
	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	return hasHiddenAttribute(path, info)
}
