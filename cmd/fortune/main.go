// Command fortune prints a random entry from a directory of fortune files.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
)

func main() {
	a := &app{
		fs:     afero.NewOsFs(),
		stdout: os.Stdout,
		stderr: os.Stderr,
		now:    time.Now,
		getenv: os.Getenv,
	}

	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fortune: %v\n", err)
		os.Exit(1)
	}
}
