package classify

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/afero"

	"github.com/BadgerOps/mangapack/internal/failure"
	"github.com/BadgerOps/mangapack/internal/scan"
)

var testExts = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff", ".heic"}

func newTestClassifier(fs afero.Fs) *Classifier {
	return New(fs, scan.NewMatcher(testExts), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func touch(t *testing.T, fs afero.Fs, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := afero.WriteFile(fs, p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func touchImages(t *testing.T, fs afero.Fs, dir string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		touch(t, fs, filepath.Join(dir, fmt.Sprintf("%03d.jpg", i)))
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		count int
		want  Tier
	}{
		{0, TierShort},
		{1, TierShort},
		{50, TierShort},
		{51, TierMedium},
		{100, TierMedium},
		{149, TierMedium},
		{150, TierLong},
		{151, TierLong},
		{5000, TierLong},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.count), func(t *testing.T) {
			if got := TierFor(tt.count); got != tt.want {
				t.Errorf("TierFor(%d) = %s, want %s", tt.count, got, tt.want)
			}
		})
	}
}

func TestTierForIsMonotonic(t *testing.T) {
	rank := map[Tier]int{TierShort: 0, TierMedium: 1, TierLong: 2}
	prev := TierFor(0)
	for n := 1; n <= 300; n++ {
		cur := TierFor(n)
		if rank[cur] < rank[prev] {
			t.Fatalf("TierFor(%d) = %s after %s", n, cur, prev)
		}
		prev = cur
	}
}

func TestUnitName(t *testing.T) {
	root := filepath.FromSlash("/src")
	tests := []struct {
		dir  string
		want string
	}{
		{"/src/one", "one"},
		{"/src/series/vol 1", "series_vol 1"},
		{"/src/a/b/c", "a_b_c"},
	}
	for _, tt := range tests {
		got, err := UnitName(root, filepath.FromSlash(tt.dir))
		if err != nil {
			t.Fatalf("UnitName(%s) error: %v", tt.dir, err)
		}
		if got != tt.want {
			t.Errorf("UnitName(%s) = %q, want %q", tt.dir, got, tt.want)
		}
	}

	if _, err := UnitName(root, root); !failure.IsKind(err, failure.KindScan) {
		t.Errorf("UnitName(root, root) error = %v, want scan error", err)
	}
}

func TestClassifyFirstQualifyingDirectoryWins(t *testing.T) {
	fs := afero.NewMemMapFs()
	// Loose image at the root never makes the root a unit.
	touch(t, fs, "/src/cover.jpg")
	touchImages(t, fs, "/src/alpha", 3)
	// beta has no images of its own, but nested chapters do; beta is claimed
	// whole and its chapters are not separate units.
	touch(t, fs, "/src/beta/readme.txt")
	touchImages(t, fs, "/src/beta/ch1", 2)
	touchImages(t, fs, "/src/beta/ch2/part", 1)
	// A single deep image is enough to claim gamma.
	touch(t, fs, "/src/gamma/x/y/z/deep.png")
	touchImages(t, fs, "/src/gamma/x/other", 4)
	// Empty and text-only directories yield nothing.
	touch(t, fs, "/src/docs/notes.txt", "/src/docs/more/info.txt")
	if err := fs.MkdirAll("/src/empty", 0o755); err != nil {
		t.Fatal(err)
	}

	units, err := newTestClassifier(fs).Classify("/src")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	var names []string
	counts := map[string]int{}
	for _, u := range units {
		names = append(names, u.Name)
		counts[u.Name] = u.ImageCount
	}
	wantNames := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(names, wantNames) {
		t.Fatalf("units = %v, want %v", names, wantNames)
	}

	wantCounts := map[string]int{"alpha": 3, "beta": 3, "gamma": 5}
	if !reflect.DeepEqual(counts, wantCounts) {
		t.Errorf("counts = %v, want %v", counts, wantCounts)
	}
	for _, u := range units {
		if u.Tier != TierShort {
			t.Errorf("unit %s tier = %s, want short", u.Name, u.Tier)
		}
	}
}

func TestClassifyDescendsPastImagelessDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	touchImages(t, fs, "/src/series/vol1", 2)
	touch(t, fs, "/src/library/shelf/readme.txt")

	units, err := newTestClassifier(fs).Classify("/src")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(units) != 1 || units[0].Name != "series" || units[0].Root != filepath.Join("/src", "series") {
		t.Errorf("units = %+v, want only series", units)
	}
}

func TestClassifyIgnoresHidden(t *testing.T) {
	fs := afero.NewMemMapFs()
	touchImages(t, fs, "/src/.cache", 10)
	touch(t, fs, "/src/book/.thumb.jpg")
	touchImages(t, fs, "/src/book/.hidden", 5)
	touchImages(t, fs, "/src/book", 2)
	touch(t, fs, "/src/only-hidden/.x.png")

	units, err := newTestClassifier(fs).Classify("/src")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("got %d units (%+v), want 1", len(units), units)
	}
	if units[0].Name != "book" || units[0].ImageCount != 2 {
		t.Errorf("unit = %+v, want book with 2 images", units[0])
	}
}

func TestClassifyExcludedPaths(t *testing.T) {
	fs := afero.NewMemMapFs()
	touchImages(t, fs, "/src/book", 2)
	touchImages(t, fs, "/src/book/分类结果/extract", 3)
	touchImages(t, fs, "/src/out/分类结果/短篇", 4)

	ex := scan.NewExclusions("/src/book/分类结果", "/src/out/分类结果")
	units, err := newTestClassifier(fs).Exclude(ex).Classify("/src")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("got %d units (%+v), want 1", len(units), units)
	}
	if units[0].Name != "book" || units[0].ImageCount != 2 {
		t.Errorf("unit = %+v, want book with 2 images", units[0])
	}
}

func TestClassifyTiersFromCounts(t *testing.T) {
	fs := afero.NewMemMapFs()
	touchImages(t, fs, "/src/long", 150)
	touchImages(t, fs, "/src/medium", 51)
	touchImages(t, fs, "/src/short", 50)

	units, err := newTestClassifier(fs).Classify("/src")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	got := map[string]Tier{}
	for _, u := range units {
		got[u.Name] = u.Tier
		if u.Root != filepath.Join("/src", u.Name) {
			t.Errorf("unit %s root = %s", u.Name, u.Root)
		}
	}
	want := map[string]Tier{"long": TierLong, "medium": TierMedium, "short": TierShort}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tiers = %v, want %v", got, want)
	}
}

func TestClassifyEmptyTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/src", 0o755); err != nil {
		t.Fatal(err)
	}
	units, err := newTestClassifier(fs).Classify("/src")
	if err != nil {
		t.Fatalf("Classify on empty tree: %v", err)
	}
	if len(units) != 0 {
		t.Errorf("got %d units, want 0", len(units))
	}
}

func TestClassifyMissingRoot(t *testing.T) {
	_, err := newTestClassifier(afero.NewMemMapFs()).Classify("/nope")
	if !failure.IsKind(err, failure.KindScan) {
		t.Errorf("Classify(missing) error = %v, want scan error", err)
	}
}

func TestCountImagesSkipsNonImages(t *testing.T) {
	fs := afero.NewMemMapFs()
	touchImages(t, fs, "/src/book", 4)
	touch(t, fs, "/src/book/info.txt", "/src/book/sub/a.PNG", "/src/book/sub/b.webp")

	if got := newTestClassifier(fs).CountImages("/src/book"); got != 6 {
		t.Errorf("CountImages = %d, want 6", got)
	}
}
