/*
	Package fortune picks random entries from a directory of fortune files.

A fortune file is plain text holding many short entries, each separated from
the next by a line containing a single percent sign:

	A quote.
	%
	Another quote.
	-- Author Name
	%

Every entry in the directory has the same chance of being picked, so larger
files are picked proportionally more often.

# Sidecar Indexes

Scanning a large fortune file on every pick would be wasteful, so the library
keeps a binary index next to each source file, named after it with the
".datx" suffix. The index holds one 10-byte little-endian record per entry:

	[0:8]  offset of the entry in the source file (int64)
	[8:10] length of the entry in bytes (int16)

An index is rebuilt when it is missing, when it is older than its source file,
or when its size is not a whole number of records. Rebuilds write to a
temporary file in the same directory and rename it over the old index, so a
reader never sees a partial index. On unix systems a rebuild also holds an
exclusive advisory lock on the source file.

Entries longer than 32767 bytes cannot be described by a record and are left
out of the index.

# Basic Usage

Opening a library:

	lib, err := fortune.Open("/usr/share/fortunes")
	if err != nil {
	    log.Fatalf("Failed to open fortunes: %v", err)
	}

Picking a fortune:

	f, err := lib.Get()
	if err != nil {
	    fmt.Println(fortune.DefaultText)
	    return
	}
	fmt.Println(f.Text)
	if f.Author != "" {
	    fmt.Println("— " + f.Author)
	}

# Attribution

When the last non-blank line of an entry starts with "--", the rest of that
line is returned as Fortune.Author and the line is removed from the text,
together with any blank lines above it.

# Line Endings

Source files may use "\n", "\r\n" or "\r" line endings, mixed freely. Returned
text always uses one terminator, "\r\n" unless WithLineEnding says otherwise.

# Configuration Options

	lib, err := fortune.Open(
	    dir,
	    fortune.WithSeed(fortune.DailySeed(time.Now())),
	    fortune.WithLogger(slog.Default()),
	    fortune.WithLineEnding("\n"),
	)

WithFs swaps the filesystem, which is how the tests run against an in-memory
afero filesystem. WithRand and WithSeed control randomness; draws come only
from the Library's *rand.Rand.

# Error Handling

  - ErrDirectoryUnavailable: the directory is missing or cannot be listed
  - ErrEmptySourceSet: no source holds any entry
  - ErrCorruptSidecar: an index record does not fit its source; Get repairs
    these on its own
  - ErrEntryOutOfRange: GetFrom was asked for an entry that does not exist
  - ErrNotSource: GetFrom or Rebuild was given an index file

A source that cannot be indexed never fails the whole pick; it is logged and
skipped. RebuildAll reports such sources in a *BuildError.
*/
package fortune
