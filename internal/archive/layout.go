package archive

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/BadgerOps/mangapack/internal/classify"
	"github.com/BadgerOps/mangapack/internal/safety"
)

const (
	// ResultsDirName holds every tier directory.
	ResultsDirName = "分类结果"
	// ReportFileName is the run report written next to ResultsDirName.
	ReportFileName = "处理报告.txt"
	// Ext is the archive file extension.
	Ext = ".zip"
)

var tierDirNames = map[classify.Tier]string{
	classify.TierLong:   "长篇",
	classify.TierMedium: "中篇",
	classify.TierShort:  "短篇",
}

// TierDirName returns the directory name used for tier.
func TierDirName(tier classify.Tier) string {
	return tierDirNames[tier]
}

// Layout resolves where archives and the report go under an output directory.
type Layout struct {
	OutputDir string
}

// ResultsDir returns <out>/分类结果.
func (l Layout) ResultsDir() string {
	return filepath.Join(l.OutputDir, ResultsDirName)
}

// TierDir returns the directory archives of tier are placed in.
func (l Layout) TierDir(tier classify.Tier) string {
	return filepath.Join(l.ResultsDir(), TierDirName(tier))
}

// ReportPath returns <out>/处理报告.txt.
func (l Layout) ReportPath() string {
	return filepath.Join(l.OutputDir, ReportFileName)
}

// ArchivePath returns the final archive location for unit. Long units get a
// folder of their own; medium and short archives sit directly in the tier
// directory.
func (l Layout) ArchivePath(unit classify.Unit) (string, error) {
	if _, ok := tierDirNames[unit.Tier]; !ok {
		return "", fmt.Errorf("unknown tier %q", unit.Tier)
	}
	file := unit.Name + Ext
	rel := file
	if unit.Tier == classify.TierLong {
		rel = filepath.Join(unit.Name, file)
	}
	return safety.SafeJoinUnder(l.TierDir(unit.Tier), rel)
}

// Prepare creates the results root and every tier directory.
func (l Layout) Prepare(fs afero.Fs) error {
	for _, tier := range classify.Tiers() {
		if err := fs.MkdirAll(l.TierDir(tier), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", l.TierDir(tier), err)
		}
	}
	return nil
}
