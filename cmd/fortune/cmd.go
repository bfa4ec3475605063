package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gophersatwork/fortune"
)

const (
	envPath    = "FORTUNE_PATH"
	defaultDir = "Data"
)

// app carries the process environment so commands can run against an
// in-memory filesystem in tests.
type app struct {
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
	getenv func(string) string

	dir     string
	verbose bool
}

func newRootCmd(a *app) *cobra.Command {
	var (
		seed   uint64
		daily  bool
		source string
		index  int
	)

	root := &cobra.Command{
		Use:   "fortune",
		Short: "Print a random entry from a directory of fortune files",
		Long: `fortune picks one entry at random from the fortune files of a directory,
every entry having the same chance, and prints it with its author.

Each source file gets a .datx index next to it, rebuilt whenever the source
changes.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []fortune.Option
			switch {
			case cmd.Flags().Changed("seed"):
				opts = append(opts, fortune.WithSeed(seed))
			case daily:
				opts = append(opts, fortune.WithSeed(fortune.DailySeed(a.now())))
			}

			f, err := a.pick(source, index, opts...)
			if err != nil {
				fmt.Fprintln(a.stdout, fortune.DefaultText)
				return err
			}
			printFortune(a.stdout, f)
			return nil
		},
	}

	dir := a.getenv(envPath)
	if dir == "" {
		dir = defaultDir
	}
	root.PersistentFlags().StringVarP(&a.dir, "dir", "d", dir, "directory of fortune files (env "+envPath+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log index maintenance to stderr")

	root.Flags().Uint64Var(&seed, "seed", 0, "seed the random pick")
	root.Flags().BoolVar(&daily, "daily", false, "pick the same fortune for the whole day")
	root.Flags().StringVar(&source, "source", "", "read from this source file only (relative to --dir)")
	root.Flags().IntVar(&index, "index", 0, "entry index within --source")
	root.MarkFlagsMutuallyExclusive("seed", "daily")

	root.AddCommand(newIndexCmd(a), newStatsCmd(a), newCleanCmd(a))
	return root
}

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the index of every fortune file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lib, err := a.open()
			if err != nil {
				return err
			}

			sources, err := lib.RebuildAll()
			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			total := 0
			for _, s := range sources {
				fmt.Fprintf(w, "%s\t%d\n", filepath.Base(s.Path), s.Count)
				total += s.Count
			}
			fmt.Fprintf(w, "total\t%d\n", total)
			if flushErr := w.Flush(); err == nil {
				err = flushErr
			}
			return err
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics without rebuilding anything",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lib, err := a.open()
			if err != nil {
				return err
			}

			infos, err := lib.Inspect()
			if err != nil {
				return err
			}
			stats, err := lib.Stats()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			for _, si := range infos {
				state := "fresh"
				if !si.Fresh {
					state = "stale: " + si.Reason
				}
				fmt.Fprintf(w, "%s\t%d\t%d bytes\t%s\n", filepath.Base(si.Path), si.Entries, si.Size, state)
			}
			fmt.Fprintf(w, "\nsources\t%d\n", stats.Sources)
			fmt.Fprintf(w, "entries\t%d\n", stats.Entries)
			fmt.Fprintf(w, "stale\t%d\n", stats.Stale)
			fmt.Fprintf(w, "source bytes\t%d\n", stats.SourceBytes)
			fmt.Fprintf(w, "index bytes\t%d\n", stats.SidecarBytes)
			return w.Flush()
		},
	}
}

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove every index file from the directory",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lib, err := a.open()
			if err != nil {
				return err
			}

			n, err := lib.Clean()
			fmt.Fprintf(a.stdout, "removed %d index files\n", n)
			return err
		},
	}
}

// open opens the library on the configured directory.
func (a *app) open(extra ...fortune.Option) (*fortune.Library, error) {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	eol := "\n"
	if runtime.GOOS == "windows" {
		eol = "\r\n"
	}

	opts := []fortune.Option{
		fortune.WithFs(a.fs),
		fortune.WithLogger(logger),
		fortune.WithLineEnding(eol),
	}
	return fortune.Open(a.dir, append(opts, extra...)...)
}

// pick returns a random fortune, or entry index of source when one is given.
func (a *app) pick(source string, index int, opts ...fortune.Option) (fortune.Fortune, error) {
	lib, err := a.open(opts...)
	if err != nil {
		return fortune.Fortune{}, err
	}

	if source == "" {
		return lib.Get()
	}
	if !filepath.IsAbs(source) {
		source = filepath.Join(a.dir, source)
	}
	return lib.GetFrom(source, index)
}

func printFortune(w io.Writer, f fortune.Fortune) {
	fmt.Fprintln(w, f.Text)
	if f.Author != "" {
		fmt.Fprintf(w, "\t— %s\n", f.Author)
	}
}
