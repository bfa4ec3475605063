package fortune

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// failingRenameFs is a filesystem whose Rename always fails.
type failingRenameFs struct {
	afero.Fs
}

func (f failingRenameFs) Rename(oldname, newname string) error {
	return errors.New("mock Rename error")
}

func TestRebuild(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "lf entries",
			content: scenarioText,
			want:    []string{"A quote.", "Another quote.\n-- Author Name"},
		},
		{
			name:    "crlf entries",
			content: "One.\r\n%\r\nTwo\r\nlines.\r\n%\r\n",
			want:    []string{"One.", "Two\r\nlines."},
		},
		{
			name:    "bare cr entries",
			content: "One.\r%\rTwo.\r",
			want:    []string{"One.", "Two."},
		},
		{
			name:    "no trailing delimiter",
			content: "One.\n%\nTwo.\n",
			want:    []string{"One.", "Two."},
		},
		{
			name:    "no trailing newline",
			content: "One.\n%\nTwo.",
			want:    []string{"One.", "Two."},
		},
		{
			name:    "consecutive delimiters make no empty entry",
			content: "One.\n%\n%\nTwo.\n%\n",
			want:    []string{"One.", "Two."},
		},
		{
			name:    "leading delimiter",
			content: "%\nOne.\n%\n",
			want:    []string{"One."},
		},
		{
			name:    "byte order mark is not part of the first entry",
			content: "\xEF\xBB\xBFOne.\n%\nTwo.\n",
			want:    []string{"One.", "Two."},
		},
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lib, memFs := setupTestLibrary(t)
			source := createSource(t, memFs, "quotes", tc.content)

			count, err := lib.Rebuild(source)
			if err != nil {
				t.Fatalf("Rebuild failed: %v", err)
			}
			if count != len(tc.want) {
				t.Errorf("Rebuild returned %d entries, want %d", count, len(tc.want))
			}

			assertStrings(t, entryTexts(t, memFs, source), tc.want, "indexed entries")
		})
	}
}

func TestRebuild_BOMOffset(t *testing.T) {
	lib, memFs := setupTestLibrary(t)
	source := createSource(t, memFs, "bom", "\xEF\xBB\xBFOne.\n%\n")

	if _, err := lib.Rebuild(source); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	records := readRecords(t, memFs, source)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0] != (Record{Offset: 3, Length: 4}) {
		t.Errorf("Record = %+v, want {Offset:3 Length:4}", records[0])
	}
}

// Entries longer than MaxEntryLength are dropped from the index rather than
// truncated. This is a known limitation of the record format.
func TestRebuild_OversizedEntryIsDropped(t *testing.T) {
	lib, memFs := setupTestLibrary(t)

	fits := strings.Repeat("a", MaxEntryLength)
	tooLong := strings.Repeat("b", MaxEntryLength+1)
	source := createSource(t, memFs, "long", "short\n%\n"+tooLong+"\n%\n"+fits+"\n%\nend\n")

	count, err := lib.Rebuild(source)
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("Expected 3 indexed entries, got %d", count)
	}

	assertStrings(t, entryTexts(t, memFs, source), []string{"short", fits, "end"}, "indexed entries")
}

func TestRebuild_Idempotent(t *testing.T) {
	lib, memFs := setupTestLibrary(t)
	source := createSource(t, memFs, "quotes", "x\r\n%\r\ny\n%\nz\r%\r")

	if _, err := lib.Rebuild(source); err != nil {
		t.Fatalf("First rebuild failed: %v", err)
	}
	first, err := afero.ReadFile(memFs, SidecarPath(source))
	if err != nil {
		t.Fatalf("Failed to read sidecar: %v", err)
	}

	if _, err := lib.Rebuild(source); err != nil {
		t.Fatalf("Second rebuild failed: %v", err)
	}
	second, err := afero.ReadFile(memFs, SidecarPath(source))
	if err != nil {
		t.Fatalf("Failed to read sidecar: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("Sidecar changed between rebuilds:\n%x\n%x", first, second)
	}
}

func TestRebuild_FailedRenameKeepsOldSidecar(t *testing.T) {
	memFs := afero.NewMemMapFs()
	if err := memFs.MkdirAll(testDir, 0o755); err != nil {
		t.Fatalf("Failed to create fortune directory: %v", err)
	}
	source := createSource(t, memFs, "quotes", scenarioText)

	old := []byte("0123456789")
	if err := afero.WriteFile(memFs, SidecarPath(source), old, 0o644); err != nil {
		t.Fatalf("Failed to write old sidecar: %v", err)
	}

	lib, err := Open(testDir, WithFs(failingRenameFs{memFs}))
	if err != nil {
		t.Fatalf("Failed to open library: %v", err)
	}

	if _, err := lib.Rebuild(source); err == nil {
		t.Fatal("Expected rebuild to fail, got nil")
	}

	got, err := afero.ReadFile(memFs, SidecarPath(source))
	if err != nil {
		t.Fatalf("Failed to read sidecar: %v", err)
	}
	if !bytes.Equal(got, old) {
		t.Errorf("Old sidecar was modified: %q", got)
	}

	infos, err := afero.ReadDir(memFs, testDir)
	if err != nil {
		t.Fatalf("Failed to list directory: %v", err)
	}
	for _, info := range infos {
		if strings.HasPrefix(info.Name(), ".") {
			t.Errorf("Temporary sidecar %s was left behind", info.Name())
		}
	}
}

func TestRebuild_MissingSource(t *testing.T) {
	lib, _ := setupTestLibrary(t)

	if _, err := lib.Rebuild(testDir + "/nope"); err == nil {
		t.Fatal("Expected error for missing source, got nil")
	}
}

func TestRecordMarshal(t *testing.T) {
	rec := Record{Offset: 0x0102030405060708, Length: 0x0A0B}

	buf := make([]byte, RecordSize)
	rec.Marshal(buf)

	want := []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, 0x0B, 0x0A}
	if !bytes.Equal(buf, want) {
		t.Fatalf("Marshal = %x, want %x", buf, want)
	}

	var got Record
	got.Unmarshal(buf)
	if got != rec {
		t.Errorf("Unmarshal = %+v, want %+v", got, rec)
	}
}

func TestRebuild_OsFs(t *testing.T) {
	dir := t.TempDir()
	osFs := afero.NewOsFs()
	source := filepath.Join(dir, "quotes")
	if err := afero.WriteFile(osFs, source, []byte(scenarioText), 0o644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}

	lib, err := Open(dir, WithSeed(1))
	if err != nil {
		t.Fatalf("Failed to open library: %v", err)
	}

	count, err := lib.Rebuild(source)
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 entries, got %d", count)
	}
	assertStrings(t, entryTexts(t, osFs, source), []string{"A quote.", "Another quote.\n-- Author Name"}, "indexed entries")
}

func TestRebuild_SidecarModeFollowsSource(t *testing.T) {
	testCases := []struct {
		name string
		mode os.FileMode
	}{
		{"world readable", 0o644},
		{"group readable", 0o640},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			osFs := afero.NewOsFs()
			source := filepath.Join(dir, "quotes")
			if err := afero.WriteFile(osFs, source, []byte(scenarioText), tc.mode); err != nil {
				t.Fatalf("Failed to write source: %v", err)
			}
			// WriteFile is subject to the umask.
			if err := osFs.Chmod(source, tc.mode); err != nil {
				t.Fatalf("Failed to chmod source: %v", err)
			}

			lib, err := Open(dir)
			if err != nil {
				t.Fatalf("Failed to open library: %v", err)
			}
			if _, err := lib.Sources(); err != nil {
				t.Fatalf("Sources failed: %v", err)
			}

			info, err := osFs.Stat(SidecarPath(source))
			if err != nil {
				t.Fatalf("Failed to stat sidecar: %v", err)
			}
			if info.Mode().Perm() != tc.mode {
				t.Errorf("Sidecar mode = %v, want %v", info.Mode().Perm(), tc.mode)
			}
		})
	}
}
