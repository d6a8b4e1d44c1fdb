package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/gkampitakis/ciinfo"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// MatchTextSnapshot compares report text against
// __snapshots__/<TestName>_1.snap.<ext> next to the calling test file.
//
// Content is stored byte for byte. go-snaps' standalone snapshots expand
// tabs, which would hide alignment changes in text reports.
//
// Outside CI a missing snapshot is written. UPDATE_SNAPS=true rewrites
// existing ones.
func MatchTextSnapshot(tb testing.TB, ext, content string) {
	tb.Helper()

	_, caller, _, ok := runtime.Caller(1)
	if !ok {
		tb.Fatal("testutil.MatchTextSnapshot: unable to determine caller")
	}
	path := snapshotPath(caller, tb.Name(), ext)

	want, err := os.ReadFile(path)
	switch {
	case os.Getenv("UPDATE_SNAPS") == "true", os.IsNotExist(err) && !ciinfo.IsCI:
		writeSnapshot(tb, path, content)
	case err != nil:
		tb.Fatalf("read snapshot %s: %v (run with UPDATE_SNAPS=true to create it)", path, err)
	case string(want) != content:
		tb.Errorf("snapshot mismatch: %s\n%s", path, textDiff(string(want), content))
	}
}

func snapshotPath(callerFile, testName, ext string) string {
	name := strings.ReplaceAll(testName, "/", "_")
	return filepath.Join(filepath.Dir(callerFile), "__snapshots__", name+"_1.snap."+ext)
}

func writeSnapshot(tb testing.TB, path, content string) {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		tb.Fatalf("create snapshot dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:gosec // snapshots are checked in
		tb.Fatalf("write snapshot: %v", err)
	}
}

// textDiff renders want → got as a unified-style patch.
func textDiff(want, got string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemanticLossless(dmp.DiffMain(want, got, true))
	return dmp.PatchToText(dmp.PatchMake(want, diffs))
}
