// Package report renders and writes the plain-text run report.
package report

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/BadgerOps/mangapack/internal/archive"
	"github.com/BadgerOps/mangapack/internal/classify"
	"github.com/BadgerOps/mangapack/internal/failure"
)

// TimeLayout is how the run timestamp is printed.
const TimeLayout = "2006-01-02 15:04:05"

// TierCounts holds the number of archives found on disk per tier.
type TierCounts struct {
	Long   int
	Medium int
	Short  int
}

// Total is the sum over all tiers.
func (c TierCounts) Total() int {
	return c.Long + c.Medium + c.Short
}

// RunReport is the final summary of one run.
type RunReport struct {
	RunID            string
	StartedAt        time.Time
	FinishedAt       time.Time
	SourceDir        string
	OutputDir        string
	CorruptedDeleted int
	NonImageDeleted  int
	Archives         TierCounts
}

// Elapsed is the wall-clock duration of the run.
func (r RunReport) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// CountArchives counts the archives actually present under layout. Long
// archives live one folder down; medium and short sit directly in their
// tier directory. Missing directories count as zero.
func CountArchives(fs afero.Fs, layout archive.Layout) TierCounts {
	return TierCounts{
		Long:   countNested(fs, layout.TierDir(classify.TierLong)),
		Medium: countZips(fs, layout.TierDir(classify.TierMedium)),
		Short:  countZips(fs, layout.TierDir(classify.TierShort)),
	}
}

func countNested(fs afero.Fs, dir string) int {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			n += countZips(fs, filepath.Join(dir, e.Name()))
		}
	}
	return n
}

func countZips(fs afero.Fs, dir string) int {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), archive.Ext) {
			n++
		}
	}
	return n
}

// Render produces the report text.
func Render(r RunReport) string {
	var b strings.Builder

	b.WriteString("================ 漫画处理报告 ================\n\n")
	fmt.Fprintf(&b, "处理时间: %s\n", r.FinishedAt.Format(TimeLayout))
	fmt.Fprintf(&b, "处理耗时: %s\n", FormatElapsed(r.Elapsed()))
	fmt.Fprintf(&b, "运行编号: %s\n\n", r.RunID)
	fmt.Fprintf(&b, "输入目录: %s\n", r.SourceDir)
	fmt.Fprintf(&b, "输出目录: %s\n\n", r.OutputDir)

	b.WriteString("---------------- 清理统计 ----------------\n")
	fmt.Fprintf(&b, "删除损坏图片: %d 个\n", r.CorruptedDeleted)
	fmt.Fprintf(&b, "删除非图片文件: %d 个\n\n", r.NonImageDeleted)

	b.WriteString("---------------- 分类统计 ----------------\n")
	fmt.Fprintf(&b, "处理漫画总数: %d 部\n", r.Archives.Total())
	fmt.Fprintf(&b, "长篇漫画数量: %d 部\n", r.Archives.Long)
	fmt.Fprintf(&b, "中篇漫画数量: %d 部\n", r.Archives.Medium)
	fmt.Fprintf(&b, "短篇漫画数量: %d 部\n", r.Archives.Short)

	return b.String()
}

// FormatElapsed prints d as H:MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", int64(h), int64(m), int64(s))
}

// Write renders r to path, creating the parent directory if needed.
func Write(fs afero.Fs, path string, r RunReport) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return failure.Wrap(failure.KindReport, "mkdir", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(fs, path, []byte(Render(r)), 0o644); err != nil {
		return failure.Wrap(failure.KindReport, "write", path, err)
	}
	return nil
}

// WriteLogged is Write with failures logged instead of returned.
func WriteLogged(fs afero.Fs, path string, r RunReport, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	if err := Write(fs, path, r); err != nil {
		logger.Error("failed to write report", "path", path, "kind", failure.KindReport, "error", err)
		return false
	}
	logger.Info("report written", "path", path)
	return true
}
