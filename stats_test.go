package fortune

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestStats(t *testing.T) {
	lib, memFs := setupTestLibrary(t)
	a := createSource(t, memFs, "a", scenarioText)
	b := createSource(t, memFs, "b", "one\n%\ntwo\n%\nthree\n")

	// Nothing indexed yet.
	stats, err := lib.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Sources != 2 || stats.Entries != 0 || stats.Stale != 2 || stats.SidecarBytes != 0 {
		t.Errorf("Unexpected stats before indexing: %+v", stats)
	}
	wantSourceBytes := int64(len(scenarioText) + len("one\n%\ntwo\n%\nthree\n"))
	if stats.SourceBytes != wantSourceBytes {
		t.Errorf("SourceBytes = %d, want %d", stats.SourceBytes, wantSourceBytes)
	}

	if _, err := lib.Sources(); err != nil {
		t.Fatalf("Sources failed: %v", err)
	}

	stats, err = lib.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Entries != 5 || stats.Stale != 0 || stats.SidecarBytes != 5*RecordSize {
		t.Errorf("Unexpected stats after indexing: %+v", stats)
	}

	// Touching a source makes its sidecar stale without changing anything else.
	setModTime(t, memFs, b, time.Now().Add(time.Hour))
	infos, err := lib.Inspect()
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 sources, got %+v", infos)
	}
	if infos[0].Path != a || !infos[0].Fresh || infos[0].Entries != 2 {
		t.Errorf("Unexpected info for a: %+v", infos[0])
	}
	if infos[1].Path != b || infos[1].Fresh || infos[1].Reason != "older than source" {
		t.Errorf("Unexpected info for b: %+v", infos[1])
	}
}

func TestClean(t *testing.T) {
	lib, memFs := setupTestLibrary(t)
	a := createSource(t, memFs, "a", scenarioText)
	createSource(t, memFs, ".a-123.datx", "leftover temp sidecar")

	if _, err := lib.Sources(); err != nil {
		t.Fatalf("Sources failed: %v", err)
	}

	n, err := lib.Clean()
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Clean removed %d files, want 2", n)
	}

	infos, err := afero.ReadDir(memFs, testDir)
	if err != nil {
		t.Fatalf("Failed to list directory: %v", err)
	}
	if len(infos) != 1 || filepath.Join(testDir, infos[0].Name()) != a {
		t.Errorf("Expected only the source to remain, found %d files", len(infos))
	}
}
